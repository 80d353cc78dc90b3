// Package replay decodes recorded pose-capture logs for offline runs.
// A capture file is JSON Lines: one record per camera frame holding the
// raw landmark sets and any object detections seen on that frame. The
// decoder yields frames in file order so a session can be driven exactly
// as it was live.
//
// Dependency rule: replay depends on internal/pose only. It never
// touches pipeline state; the caller feeds decoded frames to a session.
package replay
