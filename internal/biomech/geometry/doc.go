// Package geometry owns the pure biomechanical feature functions: joint
// angles, postural stability, spinal tilt, vertical impact loading, and
// the freefall / prone-posture fall signals.
//
// Every function is stateless and total: missing or degenerate input
// yields the safe default (180° "no stress" angles, zero risk
// contribution) rather than an error, so the pipeline never halts on a
// bad frame.
//
// Dependency rule: geometry may depend on pose, but on no other biomech
// layer.
package geometry
