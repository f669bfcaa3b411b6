// Package testutil provides shared helpers for councilflow tests:
// context helpers that register cleanup automatically, and a mock
// reasoning provider with builder-style error and delay injection for
// timeout and quorum scenarios.
package testutil
