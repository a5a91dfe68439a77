// Package log is agentmesh's logging facade: a single [Logger] interface
// with adapters for zerolog, zap, logrus, charmbracelet/log, the standard
// library, a no-op Discard, and a Composite that fans out to several at
// once. agentmesh itself defaults every session/agent/behaviour to
// Discard() unless the embedder supplies one (see [broker.WithLogger],
// agent.Options.Logger) — tests wire WithZero for human-readable
// assertions during debugging.
package log
