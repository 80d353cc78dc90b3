// Package smoother owns temporal filtering of the raw landmark stream.
//
// Responsibilities: one constant-velocity estimator per tracked joint
// (JointFilter) and the per-frame skeleton smoother that owns all 33 of
// them (PoseSmoother), including predict-only coasting through occlusion
// and short-horizon forecasting.
// Key types: JointFilter, PoseSmoother, FilterParams.
//
// Dependency rule: smoother may depend on pose, but on no other biomech
// layer.
package smoother
