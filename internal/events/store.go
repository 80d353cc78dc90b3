package events

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/fall.report/internal/biomech/pipeline"
)

// Store persists confirmed fall events.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the event database at path. Run MigrateUp
// before first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event db: %w", err)
	}
	return &Store{db}, nil
}

// FallEvent is one persisted row of the fall event log.
type FallEvent struct {
	ID            string
	SessionID     string
	FrameIndex    uint64
	TSUnixNanos   int64
	CompositeRisk float64
	Geometric     bool
	TriggerFrames int
}

// RecordAlarm appends a confirmed fall alarm to the event log.
func (s *Store) RecordAlarm(ev pipeline.AlarmEvent) error {
	_, err := s.Exec(`
		INSERT INTO fall_events (id, session_id, frame_index, ts_unix_nanos, composite_risk, geometric, trigger_frames)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, int64(ev.FrameIndex), ev.Timestamp.UnixNano(),
		ev.CompositeRisk, ev.Geometric, ev.TriggerFrames,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fall event %s: %w", ev.ID, err)
	}
	return nil
}

// ListSessionEvents returns all fall events for a session, oldest first.
func (s *Store) ListSessionEvents(sessionID string) ([]FallEvent, error) {
	rows, err := s.Query(`
		SELECT id, session_id, frame_index, ts_unix_nanos, composite_risk, geometric, trigger_frames
		FROM fall_events WHERE session_id = ? ORDER BY ts_unix_nanos ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fall events: %w", err)
	}
	defer rows.Close()

	var events []FallEvent
	for rows.Next() {
		var ev FallEvent
		var frameIndex int64
		if err := rows.Scan(&ev.ID, &ev.SessionID, &frameIndex, &ev.TSUnixNanos,
			&ev.CompositeRisk, &ev.Geometric, &ev.TriggerFrames); err != nil {
			return nil, fmt.Errorf("failed to scan fall event: %w", err)
		}
		ev.FrameIndex = uint64(frameIndex)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LatestEvent returns the most recent fall event across all sessions,
// or nil if the log is empty.
func (s *Store) LatestEvent() (*FallEvent, error) {
	row := s.QueryRow(`
		SELECT id, session_id, frame_index, ts_unix_nanos, composite_risk, geometric, trigger_frames
		FROM fall_events ORDER BY ts_unix_nanos DESC LIMIT 1`)

	var ev FallEvent
	var frameIndex int64
	err := row.Scan(&ev.ID, &ev.SessionID, &frameIndex, &ev.TSUnixNanos,
		&ev.CompositeRisk, &ev.Geometric, &ev.TriggerFrames)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest fall event: %w", err)
	}
	ev.FrameIndex = uint64(frameIndex)
	return &ev, nil
}

// PruneBefore deletes events older than the cutoff and returns how many
// rows were removed.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.Exec(`DELETE FROM fall_events WHERE ts_unix_nanos < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune fall events: %w", err)
	}
	return res.RowsAffected()
}
