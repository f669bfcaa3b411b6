// Package debate implements the debate and consensus engine: the
// session phase state machine, speaker selection for the open floor,
// convergence detection, weighted-score arbitration with hard override
// rules, and the audit trace builder.
//
// A session moves strictly forward through
// INTAKE -> INITIAL_REACTIONS -> OPEN_FLOOR -> ARBITRATION -> DONE.
// Initial reactions fan out concurrently with a join barrier; the open
// floor is strictly sequential because every turn's prompt context
// depends on the full prior transcript. The transcript has a single
// writer (the session) and reviewers never write to it directly.
package debate
