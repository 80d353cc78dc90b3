// Package pipeline owns the frame-synchronous session that drives the
// biomech layers in dependency order: smoother → geometry/support →
// risk → fallfsm, once per incoming frame.
//
// The session is strictly single-threaded: the external capture loop
// calls ProcessFrame once per frame, state is mutated in place with
// single-writer access, and no locking exists anywhere in the hot path.
// Frames without a detected subject still advance the filters in
// predict-only mode and reset the frame-local baselines.
//
// Dependency rule: pipeline may depend on every other biomech layer and
// on pose/config; nothing depends on pipeline.
package pipeline
