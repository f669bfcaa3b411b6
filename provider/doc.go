// Package provider defines the ReasoningProvider contract consumed by
// the debate engine, plus the pieces a provider implementation needs:
// transcript rendering with a token budget, rate limiting, and two
// deterministic reference implementations (scripted and heuristic) used
// by tests and the CLI.
//
// Any implementation satisfies the contract — rule-based, LLM-backed,
// or human-in-the-loop — as long as it returns a structured Opinion
// within the caller's deadline.
package provider
