// Package agent implements named, schema-described units of work backed by a
// completion service, composable into hierarchies. The package focuses on
// three concerns:
//
//  1. Agent identity and its input/output signature (Agent, Signature)
//  2. Exposing an agent as a callable to parents (Agent.Func)
//  3. Schema projection when composing child agents (AdaptFunction)
//
// Design principles:
//   - No hidden global state: services, memory and loggers are wired explicitly
//   - Composability: the same agent instance may be attached to multiple
//     parents; composition only reads a child's exposed callable and feature
//     flags, never its internals
//   - Projection purity: parameter shapes are rewritten on deep copies, so
//     concurrent composition of one child from many parents is safe
//
// Execution model: invoking an agent assembles its callable set (direct
// tools plus adapted child-agent callables) and delegates to the generation
// loop in the flow package.
package agent
