/*
Package errors is agentmesh's error-handling foundation: wrapped errors that
preserve a stack trace and a cause chain across internal call boundaries
(broker reconnects, handler dispatch, behaviour step loops), and a codec so
an error's structure survives being sent to a remote reporting service —
distinct from [codec.RpcError], which is the wire-level failure payload an
agent sends back to an RPC *caller*.

Goals:

 - A drop-in for the standard "errors" package plus wrapping/cause-chain
   helpers (Wrap, Is, As, Cause) that work the same way stdlib's do.
 - Stack traces attached at the point of creation, not guessed at later.
 - Pluggable, PII-redactable reporting so an agent's internal failures can
   be forwarded to an external collector without leaking secrets.
 - Equality checks (Is/IsAny) that don't rely on comparing error strings.

Derived from the approach in https://github.com/cockroachdb/errors
(see https://github.com/cockroachdb/cockroach/pull/36987 for background).
*/
package errors
