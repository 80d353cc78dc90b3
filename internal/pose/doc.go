// Package pose owns the input data model for the fall-risk pipeline:
// per-frame body landmarks in image and world space, the fixed 33-point
// skeletal topology, and the object-detection shapes (seats, obstacles)
// consumed from the external detector.
//
// Responsibilities: landmark/frame types, joint index constants, bounding
// box normalisation from pixel space, seat region construction.
//
// Dependency rule: pose depends on nothing else in the repository.
package pose
