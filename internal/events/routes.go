package events

import (
	"net/http"

	"github.com/banshee-data/fall.report/internal/httputil"
)

// AttachRoutes mounts read-only fall event endpoints on the mux:
//
//	GET /api/fall/latest              most recent event across sessions
//	GET /api/fall/events?session_id=  all events for one session
func (s *Store) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/fall/latest", s.handleLatest)
	mux.HandleFunc("/api/fall/events", s.handleSessionEvents)
}

func (s *Store) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	ev, err := s.LatestEvent()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if ev == nil {
		httputil.NotFound(w, "no fall events recorded")
		return
	}
	httputil.WriteJSONOK(w, ev)
}

func (s *Store) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httputil.BadRequest(w, "session_id is required")
		return
	}
	evs, err := s.ListSessionEvents(sessionID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if evs == nil {
		evs = []FallEvent{}
	}
	httputil.WriteJSONOK(w, evs)
}
