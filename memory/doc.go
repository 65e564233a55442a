// Package memory provides the session-keyed conversation log the generation
// loop appends model/tool exchanges to, plus a process-local in-memory
// implementation.
//
// Rationale: the Memory interface stays deliberately narrow (append + ordered
// read per session) so durable backends (sqlite, redis, vector stores with a
// chronological view) can be swapped in at wiring time without touching the
// loop.
package memory
