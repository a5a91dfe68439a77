package broker

import (
	"crypto/tls"

	xlog "github.com/sysid/agentmesh/log"
)

// Option settings are used to adjust a session's behavior at creation time,
// applied through [NewConsumer] or [NewPublisher].
type Option func(*session) error

// WithLogger sets the logger instance used by the session to report
// connection and topology events. When not provided a discard logger
// is used and nothing gets logged.
func WithLogger(ll xlog.Logger) Option {
	return func(s *session) error {
		if ll != nil {
			s.log = ll
		}
		return nil
	}
}

// WithName sets the identifier used by the session when generating
// consumer tags and anonymous queue names; Connect always sets this to the
// owning agent's identity. If not set, a random "session-*" name is used.
func WithName(name string) Option {
	return func(s *session) error {
		s.name = name
		return nil
	}
}

// WithTLS sets the TLS configuration used when dialing the broker over
// an "amqps://" endpoint. Ignored for plain "amqp://" connections.
func WithTLS(conf *tls.Config) Option {
	return func(s *session) error {
		s.tlsConf = conf
		return nil
	}
}

// WithPrefetch sets the channel's QoS: the maximum number of unacknowledged
// deliveries ("count") and the maximum cumulative size in bytes ("size")
// that the server will deliver before requiring an acknowledgement.
func WithPrefetch(count, size int) Option {
	return func(s *session) error {
		s.prefetchCount = count
		s.prefetchSize = size
		return nil
	}
}

// WithTopology declares the exchanges, queues and bindings that must exist
// on the broker before the session is considered ready. Missing entities
// are created; existing ones are verified to match.
func WithTopology(t Topology) Option {
	return func(s *session) error {
		s.topology = t
		return nil
	}
}
