package types

// Reviewer is a weighted participant in a debate. BaseWeight is its
// long-lived weight from the weight store; DynamicWeight is recomputed
// per session from BaseWeight plus any active adjustment rules and is
// fixed for the duration of that session.
type Reviewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`

	// BaseWeight must be >= 0. Mutated only by the learning step,
	// never during a live debate.
	BaseWeight float64 `json:"base_weight"`

	// DynamicWeight is derived at session start and not persisted.
	DynamicWeight float64 `json:"dynamic_weight,omitempty"`

	// PerformanceHistory is the rolling success rate in [0,1] from
	// outcome feedback.
	PerformanceHistory float64 `json:"performance_history"`

	// Role is free-form metadata passed to the reasoning provider
	// (e.g. "risk", "brand", "compliance").
	Role string `json:"role,omitempty"`
}

// Proposal is the artifact under review. It is opaque to the engine and
// immutable for the life of a session.
type Proposal struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
