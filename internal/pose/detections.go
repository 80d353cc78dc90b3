package pose

// Detection is one labelled bounding box from the external object
// detector, already normalised to [0,1] image coordinates. The detector
// runs throttled (every Nth frame); detections are reused between runs.
type Detection struct {
	X      float64 `json:"x"` // top-left
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Class  string  `json:"class"`
	Score  float64 `json:"score"`
}

// CenterX returns the horizontal centre of the box.
func (d Detection) CenterX() float64 { return d.X + d.W/2 }

// CenterY returns the vertical centre of the box.
func (d Detection) CenterY() float64 { return d.Y + d.H/2 }

// Contains reports whether the point (x, y) falls inside the box.
func (d Detection) Contains(x, y float64) bool {
	return x >= d.X && x <= d.X+d.W && y >= d.Y && y <= d.Y+d.H
}

// NormalizeDetections converts pixel-space detector output to normalised
// image coordinates. Frames with zero dimensions yield no detections.
func NormalizeDetections(dets []Detection, frameWidth, frameHeight int) []Detection {
	if frameWidth <= 0 || frameHeight <= 0 {
		return nil
	}
	w := float64(frameWidth)
	h := float64(frameHeight)
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		out = append(out, Detection{
			X:     d.X / w,
			Y:     d.Y / h,
			W:     d.W / w,
			H:     d.H / h,
			Class: d.Class,
			Score: d.Score,
		})
	}
	return out
}

// SeatRegion is a sittable surface derived from one detection. Regions
// are rebuilt from scratch on every detector delivery; no identity
// persists across frames.
type SeatRegion struct {
	Bbox    Detection
	BottomY float64
	Class   string
}

// seatClasses is the subset of detector labels treated as sittable.
var seatClasses = map[string]bool{
	"chair": true,
	"couch": true,
	"sofa":  true,
	"bench": true,
	"bed":   true,
}

// IsSeatClass reports whether the detector label names a sittable surface.
func IsSeatClass(class string) bool {
	return seatClasses[class]
}

// BuildSeatRegions extracts seat regions from the current detection set.
// Detections below minScore are ignored.
func BuildSeatRegions(dets []Detection, minScore float64) []SeatRegion {
	var seats []SeatRegion
	for _, d := range dets {
		if d.Score < minScore || !IsSeatClass(d.Class) {
			continue
		}
		seats = append(seats, SeatRegion{
			Bbox:    d,
			BottomY: d.Y + d.H,
			Class:   d.Class,
		})
	}
	return seats
}

// Obstacles returns the detections that are neither seats nor the
// subject itself. Everything else in frame is a potential trip hazard;
// proximity filtering happens downstream against the subject's feet.
func Obstacles(dets []Detection, minScore float64) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Score < minScore || IsSeatClass(d.Class) || d.Class == "person" {
			continue
		}
		out = append(out, d)
	}
	return out
}
