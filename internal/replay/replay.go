package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banshee-data/fall.report/internal/pose"
)

// Record is one line of a capture file. Dropped marks a camera frame
// where the pose model returned nothing; the frame still occupies a
// slot in the sequence so replayed timing matches the live run.
type Record struct {
	FrameIndex  uint64           `json:"frame_index"`
	TimestampNs int64            `json:"ts_unix_nanos"`
	Dropped     bool             `json:"dropped,omitempty"`
	Image       []pose.Landmark  `json:"image,omitempty"`
	World       []pose.Landmark  `json:"world,omitempty"`
	Detections  []pose.Detection `json:"detections,omitempty"`
	FrameWidth  float64          `json:"frame_width,omitempty"`
	FrameHeight float64          `json:"frame_height,omitempty"`
}

// Frame converts the record to a pipeline input. A dropped record, or
// one with a malformed landmark count, yields nil so the caller coasts
// the session for that slot.
func (r *Record) Frame() *pose.FrameSample {
	if r.Dropped {
		return nil
	}
	if len(r.Image) != pose.NumLandmarks || len(r.World) != pose.NumLandmarks {
		return nil
	}
	frame := &pose.FrameSample{Timestamp: time.Unix(0, r.TimestampNs)}
	copy(frame.Image[:], r.Image)
	copy(frame.World[:], r.World)
	return frame
}

// Reader decodes capture records one line at a time.
type Reader struct {
	scan *bufio.Scanner
	line int
}

// maxRecordBytes bounds a single capture line. A full 33-landmark frame
// with detections is well under 64 KiB; anything larger is corrupt.
const maxRecordBytes = 1 << 20

// NewReader wraps an open capture stream.
func NewReader(r io.Reader) *Reader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	return &Reader{scan: scan}
}

// Next returns the next record, or io.EOF after the last line.
// Blank lines are skipped; a malformed line is an error naming its
// position in the file.
func (r *Reader) Next() (*Record, error) {
	for r.scan.Scan() {
		r.line++
		raw := r.scan.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("capture line %d: %w", r.line, err)
		}
		return &rec, nil
	}
	if err := r.scan.Err(); err != nil {
		return nil, fmt.Errorf("capture read failed: %w", err)
	}
	return nil, io.EOF
}

// ReadFile loads an entire capture file into memory. Intended for test
// fixtures and short clips; long recordings should stream via Next.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	rd := NewReader(f)
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
}
