// Package codec implements the self-describing JSON envelope used for every
// message exchanged between agents: a {c_type, c_data} pair that lets a
// receiver reconstruct the concrete Go type without out-of-band schema
// knowledge, plus the correlated-RPC envelope layered on top of it.
package codec

import (
	"encoding/json"

	"github.com/sysid/agentmesh/errors"
)

// Envelope is the wire format for every plain (non-RPC) payload.
type Envelope struct {
	Type string          `json:"c_type"`
	Data json.RawMessage `json:"c_data"`
}

// RPCEnvelope is the wire format for a correlated RPC request or response.
// RequestType distinguishes a call from its reply on the wire, since both
// directions share the same correlation id. Whether a reply carries a
// normal result or a failure isn't a separate wire state: a failed call
// is still a Response, just one whose c_type names RpcError.
type RPCEnvelope struct {
	Type        string          `json:"c_type"`
	Data        json.RawMessage `json:"c_data"`
	RequestType RequestType     `json:"request_type"`
}

// RequestType is the two-state discriminator carried by RPCEnvelope and
// ArgsEnvelope.
type RequestType int

const (
	Request  RequestType = 1
	Response RequestType = 2
)

var registry = map[string]func() any{}

// Register adds the zero-value constructor for T to the registry, keyed by
// name. Call from an init() to make a payload type decodable.
func Register[T any](name string) {
	registry[name] = func() any { return new(T) }
}

func init() {
	Register[Control]("Control")
	Register[PingControl]("PingControl")
	Register[PongControl]("PongControl")
	Register[ShutdownRequest]("ShutdownRequest")
	Register[ShutdownResponse]("ShutdownResponse")
	Register[ManageBehavRequest]("ManageBehavRequest")
	Register[ManageBehavResponse]("ManageBehavResponse")
	Register[Ping]("Ping")
	Register[Pong]("Pong")
	Register[ListBehavRequest]("ListBehavRequest")
	Register[ListBehavResponse]("ListBehavResponse")
	Register[ListTraceStoreRequest]("ListTraceStoreRequest")
	Register[ListTraceStoreResponse]("ListTraceStoreResponse")
	Register[RpcError]("RpcError")
}

// Encode wraps v in an Envelope, tagging it with typeName.
func Encode(typeName string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal payload")
	}
	return json.Marshal(Envelope{Type: typeName, Data: data})
}

// Decode reads an Envelope from raw and reconstructs the concrete payload
// registered under its c_type. The returned value is a pointer to the
// registered type.
func Decode(raw []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, errors.Wrap(err, "codec: unmarshal envelope")
	}
	ctor, ok := registry[env.Type]
	if !ok {
		return "", nil, errors.New("codec: unknown message type " + env.Type)
	}
	v := ctor()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return "", nil, errors.Wrap(err, "codec: unmarshal payload")
		}
	}
	return env.Type, v, nil
}

// EncodeRPC wraps v in an RPCEnvelope for a call or response.
func EncodeRPC(typeName string, requestType RequestType, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal RPC payload")
	}
	return json.Marshal(RPCEnvelope{Type: typeName, Data: data, RequestType: requestType})
}

// ArgsEnvelope is the wire format used for exposed behaviour RPC methods:
// their arguments and results are caller-defined key/value data, not a
// type registered in the codec registry, so they're carried as a plain map
// rather than resolved through the constructor table. Since Data carries
// whatever shape the method returns, a failed call can't be told apart
// from a successful one by c_type alone (both use the method's own name);
// Error carries that distinction instead.
type ArgsEnvelope struct {
	Type        string      `json:"c_type"`
	Data        any         `json:"c_data,omitempty"`
	Error       string      `json:"error,omitempty"`
	RequestType RequestType `json:"request_type"`
}

// EncodeArgs wraps args (or a result value, for replies) in an ArgsEnvelope.
func EncodeArgs(typeName string, requestType RequestType, args any) ([]byte, error) {
	raw, err := json.Marshal(ArgsEnvelope{Type: typeName, Data: args, RequestType: requestType})
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal args envelope")
	}
	return raw, nil
}

// EncodeArgsError wraps errMsg as a failed ArgsEnvelope reply: Data is left
// empty and Error carries the failure, since the method name alone can't
// distinguish a failure from a success the way a dedicated RpcError c_type
// does for RPCEnvelope.
func EncodeArgsError(typeName, errMsg string) ([]byte, error) {
	raw, err := json.Marshal(ArgsEnvelope{Type: typeName, Error: errMsg, RequestType: Response})
	if err != nil {
		return nil, errors.Wrap(err, "codec: marshal args error envelope")
	}
	return raw, nil
}

// DecodeArgs reads an ArgsEnvelope from raw.
func DecodeArgs(raw []byte) (ArgsEnvelope, error) {
	var env ArgsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, errors.Wrap(err, "codec: unmarshal args envelope")
	}
	return env, nil
}

// DecodeRPC reads an RPCEnvelope from raw and reconstructs its payload.
func DecodeRPC(raw []byte) (RPCEnvelope, any, error) {
	var env RPCEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, nil, errors.Wrap(err, "codec: unmarshal RPC envelope")
	}
	ctor, ok := registry[env.Type]
	if !ok {
		return env, nil, errors.New("codec: unknown RPC message type " + env.Type)
	}
	v := ctor()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return env, nil, errors.Wrap(err, "codec: unmarshal RPC payload")
		}
	}
	return env, v, nil
}
