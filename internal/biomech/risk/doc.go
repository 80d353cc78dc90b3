// Package risk owns the weighted fusion of the biomechanical signals
// into one composite 0–100 risk index.
//
// The fusion order is load-bearing: weighted sum, then the freefall
// override to 100, then the poor-spine penalty, then the final clamp.
// Reordering those steps changes edge-case outputs.
//
// Dependency rule: risk may depend on pose, geometry and support, but
// never on fallfsm or pipeline.
package risk
