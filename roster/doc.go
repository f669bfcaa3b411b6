// Package roster manages the reviewer roster and its weights: the
// long-lived WeightStore with its outcome-driven learning step, and the
// context-triggered weight adjustment rules applied at session start.
//
// A live debate never observes weight mutation: the session takes a
// snapshot once at start and works on that copy. Learning runs out of
// band, after real-world outcome feedback arrives.
package roster
