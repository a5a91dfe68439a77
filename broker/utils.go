package broker

import (
	"crypto/rand"
	"fmt"
)

// getName builds a unique, human-traceable identifier for ephemeral broker
// entities (a session, an anonymous queue, a Subscribe consumer tag) by
// suffixing prefix with a short random tag. Used instead of letting the
// broker auto-name these so that log lines and the trace store can still
// tie a subscription back to the agent identity that opened it.
func getName(prefix string) string {
	seed := make([]byte, 4)
	_, _ = rand.Read(seed)
	return fmt.Sprintf("%s-%x", prefix, seed)
}
