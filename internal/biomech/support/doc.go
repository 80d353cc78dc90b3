// Package support owns leg-support and sitting classification: per leg,
// whether the foot is grounded, elevated-but-stable, or airborne, and
// whether the subject is seated on a detected seat region.
//
// The classifier is stateful (per-leg stillness timers and previous foot
// positions) and advances once per frame, single-writer, no locking.
//
// Dependency rule: support may depend on pose, but on no other biomech
// layer.
package support
