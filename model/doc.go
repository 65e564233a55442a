// Package model defines the provider-agnostic completion abstractions used
// throughout agentloom.
//
// Core goals:
//   - Keep the provider capability narrow: one Generate round-trip plus model
//     metadata (ModelList) and provider switches (Options)
//   - Normalize responses into Results + TokenUsage independent of transport
//   - Facilitate lightweight mocking for tests (MockService)
//
// Providers (e.g. OpenAI, Anthropic) implement the CompletionService
// interface from this package so higher layers (agents, the generation loop)
// remain decoupled from vendor SDKs.
package model
