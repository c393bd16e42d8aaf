package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"meetcal/internal/agenda"
	"meetcal/internal/calendar"
	"meetcal/internal/capture"
	"meetcal/internal/civil"
	"meetcal/internal/config"
	"meetcal/internal/grid"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
	"meetcal/internal/store"
	"meetcal/internal/zoom"
)

// Server provides the dashboard HTTP surface: meeting CRUD, grid/list views,
// recordings, agenda suggestions, ICS feed, and the server-rendered calendar
// page used by browsers and the PNG export pipeline.
type Server struct {
	cfg    *config.Config
	zone   *civil.Zone
	clock  civil.Clock
	store  store.Store
	zoom   *zoom.Client
	agenda *agenda.Client
	debug  bool
	mux    *http.ServeMux

	// captureFn runs the PNG export. A field so tests can stand in for
	// headless Chromium.
	captureFn func(ctx context.Context, opts capture.Options) error

	// rendererMu guards the single view state machine (mode/cursor/
	// selection). Navigation is single-writer by nature; the mutex only
	// serializes concurrent HTTP requests.
	rendererMu sync.Mutex
	renderer   *grid.Renderer

	// Short-TTL snapshot of the meeting collection so every grid request
	// does not hit the store. Invalidated on mutation and on external
	// store-file changes.
	meetingsMu    sync.RWMutex
	meetingsCache *meetingsCache

	// Cache for /api/recordings; recordings change rarely and the Zoom
	// call is the slowest path we have.
	recordingsMu    sync.RWMutex
	recordingsCache *recordingsCache
}

type meetingsCache struct {
	meetings  []model.Meeting
	updatedAt time.Time
}

type recordingsCache struct {
	key       string // from/to query pair
	files     []zoom.RecordingFile
	updatedAt time.Time
}

// NewServer constructs the dashboard server.
func NewServer(cfg *config.Config, zone *civil.Zone, clock civil.Clock, st store.Store, zc *zoom.Client, ac *agenda.Client, debug bool) *Server {
	s := &Server{
		cfg:       cfg,
		zone:      zone,
		clock:     clock,
		store:     st,
		zoom:      zc,
		agenda:    ac,
		debug:     debug,
		mux:       http.NewServeMux(),
		captureFn: capture.CalendarPNG,
		renderer: grid.NewRenderer(zone, clock, grid.Config{
			StartHour:    cfg.Grid.StartHour,
			EndHour:      cfg.Grid.EndHour,
			CellHeightPx: cfg.Grid.CellHeightPx,
			MonthCellCap: cfg.Grid.MonthCellCap,
		}),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	s.mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	s.mux.HandleFunc("GET /api/meetings/{id}", s.handleGetMeeting)
	s.mux.HandleFunc("PUT /api/meetings/{id}", s.handleUpdateMeeting)
	s.mux.HandleFunc("DELETE /api/meetings/{id}", s.handleDeleteMeeting)

	s.mux.HandleFunc("GET /api/grid", s.handleGrid)
	s.mux.HandleFunc("GET /api/list", s.handleList)
	s.mux.HandleFunc("GET /api/recordings", s.handleRecordings)
	s.mux.HandleFunc("POST /api/agenda/suggest", s.handleAgendaSuggest)
	s.mux.HandleFunc("POST /api/render", s.handleRender)

	s.mux.HandleFunc("GET /meetings.ics", s.handleICSFeed)
	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable for liveness probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="meetcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// InvalidateMeetings drops the cached meeting snapshot. Wired to store
// mutations and to the file-store change watcher.
func (s *Server) InvalidateMeetings() {
	s.meetingsMu.Lock()
	s.meetingsCache = nil
	s.meetingsMu.Unlock()
}

// meetings returns the current collection, from cache when fresh.
func (s *Server) meetings(r *http.Request) ([]model.Meeting, error) {
	const ttl = 15 * time.Second
	now := time.Now()

	s.meetingsMu.RLock()
	mc := s.meetingsCache
	s.meetingsMu.RUnlock()
	if mc != nil && now.Sub(mc.updatedAt) < ttl {
		return mc.meetings, nil
	}

	list, err := s.store.List(r.Context())
	if err != nil {
		return nil, err
	}

	s.meetingsMu.Lock()
	s.meetingsCache = &meetingsCache{meetings: list, updatedAt: time.Now()}
	s.meetingsMu.Unlock()
	return list, nil
}

// snapshotForRequest applies the navigation query parameters (mode, cursor,
// today, delta — in that order, so "today then navigate back one" composes)
// to the view state machine and computes the resulting snapshot.
func (s *Server) snapshotForRequest(r *http.Request, list []model.Meeting) (grid.Snapshot, []int, error) {
	q := r.URL.Query()

	s.rendererMu.Lock()
	defer s.rendererMu.Unlock()

	if m := q.Get("mode"); m != "" {
		s.renderer.SwitchMode(calendar.Mode(m))
	}
	if c := q.Get("cursor"); c != "" {
		d, err := civil.ParseDateKey(c)
		if err != nil {
			return grid.Snapshot{}, nil, err
		}
		s.renderer.SetCursor(d)
	}
	if q.Get("today") == "1" {
		s.renderer.GoToToday()
	}
	if d := q.Get("delta"); d != "" {
		delta, err := strconv.Atoi(d)
		if err != nil {
			return grid.Snapshot{}, nil, errors.New("delta must be an integer")
		}
		s.renderer.Navigate(delta)
	}

	return s.renderer.Snapshot(list), s.renderer.HourLabels(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
