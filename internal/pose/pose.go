package pose

import (
	"math"
	"time"
)

// Joint indices follow the 33-point skeletal topology emitted by the
// external pose model. Only the joints the pipeline reads are named;
// the remainder are still filtered and smoothed by index.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
	LeftHeel      = 29
	RightHeel     = 30
	LeftFootIndex = 31
	RightFootIndex = 32

	NumLandmarks = 33
)

// Point3 is a bare 3D coordinate. Image-space points are normalised to
// [0,1] with y growing downward; world-space points are in metres,
// hip-centred.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

// Sub returns p − q.
func (p Point3) Sub(q Point3) Point3 {
	return Point3{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Norm returns the Euclidean magnitude of p.
func (p Point3) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Dist returns the Euclidean distance between p and q.
func (p Point3) Dist(q Point3) float64 {
	return p.Sub(q).Norm()
}

// Landmark is a single tracked body point with a detection confidence.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"` // [0,1]
}

// Point returns the landmark position as a Point3.
func (l Landmark) Point() Point3 {
	return Point3{X: l.X, Y: l.Y, Z: l.Z}
}

// FrameSample is one processed video frame's pose input: 33 landmarks in
// normalised image space plus a parallel set in world space (metres,
// hip-centred). Exactly one previous FrameSample is retained by the
// pipeline for velocity and acceleration math; frames are otherwise
// superseded each cycle.
type FrameSample struct {
	Image     [NumLandmarks]Landmark `json:"image"`
	World     [NumLandmarks]Landmark `json:"world"`
	Timestamp time.Time              `json:"timestamp"`
}

// Midpoint returns the midpoint of two landmarks' positions.
func Midpoint(a, b Landmark) Point3 {
	return Point3{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// HipCenter returns the midpoint of the two hip landmarks.
func HipCenter(lms *[NumLandmarks]Landmark) Point3 {
	return Midpoint(lms[LeftHip], lms[RightHip])
}

// ShoulderCenter returns the midpoint of the two shoulder landmarks.
func ShoulderCenter(lms *[NumLandmarks]Landmark) Point3 {
	return Midpoint(lms[LeftShoulder], lms[RightShoulder])
}

// AnkleCenter returns the midpoint of the two ankle landmarks.
func AnkleCenter(lms *[NumLandmarks]Landmark) Point3 {
	return Midpoint(lms[LeftAnkle], lms[RightAnkle])
}
