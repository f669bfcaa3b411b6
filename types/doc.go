// Package types defines the shared data model for the councilflow engine:
// reviewers, proposals, opinions, final decisions, and the structured
// error type used across packages.
//
// Everything here is plain data. Behavior lives in the debate, roster,
// and provider packages; types only carries the contracts they exchange.
package types
