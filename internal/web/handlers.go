package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"meetcal/internal/capture"
	"meetcal/internal/civil"
	"meetcal/internal/grid"
	"meetcal/internal/ics"
	appLog "meetcal/internal/log"
	"meetcal/internal/model"
	"meetcal/internal/store"
	"meetcal/internal/zoom"
)

// meetingRequest is the create/update payload for a meeting.
type meetingRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Category        string `json:"category"`
	Title           string `json:"title"`
	Host            string `json:"host"`
	Agenda          string `json:"agenda"`

	// CreateZoom schedules a matching Zoom meeting and stores its join URL.
	CreateZoom bool `json:"create_zoom,omitempty"`
}

// validate checks the civil time fields strictly, so malformed values are
// rejected at the boundary instead of surfacing later as skipped grid blocks.
func (req *meetingRequest) validate() error {
	if _, err := civil.ParseDateKey(req.Date); err != nil {
		return err
	}
	if _, _, err := civil.ParseClockTime(req.StartTime); err != nil {
		return err
	}
	if req.DurationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if req.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings(r)
	if err != nil {
		appLog.Error("api meetings: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": list})
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		appLog.Error("api meetings: get failed", err, "id", r.PathValue("id"))
		writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := model.Meeting{
		ID:              uuid.NewString(),
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Category:        model.ParseCategory(req.Category),
		Title:           req.Title,
		Host:            req.Host,
		Agenda:          req.Agenda,
	}

	if req.CreateZoom && s.zoom.Configured() {
		start, err := s.zone.ToInstant(m.Date, m.StartTime)
		if err == nil {
			zm, zerr := s.zoom.CreateMeeting(r.Context(), s.cfg.Zoom.UserID, zoom.MeetingRequest{
				Topic:     m.Title,
				Agenda:    m.Agenda,
				StartTime: start.Format(time.RFC3339),
				Duration:  m.DurationMinutes,
				Timezone:  s.zone.Name(),
			})
			if zerr != nil {
				appLog.Error("api meetings: zoom create failed", zerr, "title", m.Title)
				writeError(w, http.StatusBadGateway, "zoom meeting creation failed")
				return
			}
			m.ZoomID = zm.ID
			m.JoinURL = zm.JoinURL
		}
	}

	if err := s.store.Put(r.Context(), m); err != nil {
		appLog.Error("api meetings: create failed", err)
		writeError(w, http.StatusInternalServerError, "failed to store meeting")
		return
	}
	s.InvalidateMeetings()

	appLog.Info("meeting created", "id", m.ID, "date", m.Date, "start_time", m.StartTime)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		appLog.Error("api meetings: get for update failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Date = req.Date
	existing.StartTime = req.StartTime
	existing.DurationMinutes = req.DurationMinutes
	existing.Category = model.ParseCategory(req.Category)
	existing.Title = req.Title
	existing.Host = req.Host
	existing.Agenda = req.Agenda

	if err := s.store.Put(r.Context(), existing); err != nil {
		appLog.Error("api meetings: update failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to store meeting")
		return
	}
	s.InvalidateMeetings()

	// Propagate to Zoom best-effort; the stored record is authoritative and
	// the next sync reconciles any drift.
	if existing.ZoomID != 0 && s.zoom.Configured() {
		if start, err := s.zone.ToInstant(existing.Date, existing.StartTime); err == nil {
			if zerr := s.zoom.UpdateMeeting(r.Context(), existing.ZoomID, zoom.MeetingRequest{
				Topic:     existing.Title,
				Agenda:    existing.Agenda,
				StartTime: start.Format(time.RFC3339),
				Duration:  existing.DurationMinutes,
				Timezone:  s.zone.Name(),
			}); zerr != nil {
				appLog.Error("api meetings: zoom update failed", zerr, "id", id, "zoom_id", existing.ZoomID)
			}
		}
	}

	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		appLog.Error("api meetings: get for delete failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load meeting")
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		appLog.Error("api meetings: delete failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete meeting")
		return
	}
	s.InvalidateMeetings()

	if existing.ZoomID != 0 && s.zoom.Configured() {
		if zerr := s.zoom.DeleteMeeting(r.Context(), existing.ZoomID); zerr != nil {
			appLog.Error("api meetings: zoom delete failed", zerr, "id", id, "zoom_id", existing.ZoomID)
		}
	}

	appLog.Info("meeting deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// gridResponse is the JSON shape of one computed grid snapshot.
type gridResponse struct {
	Mode         string         `json:"mode"`
	Cursor       string         `json:"cursor"`
	Timezone     string         `json:"timezone"`
	StartHour    int            `json:"start_hour"`
	EndHour      int            `json:"end_hour"`
	CellHeightPx float64        `json:"cell_height_px"`
	HourLabels   []int          `json:"hour_labels"`
	Days         []dayColumnDTO `json:"days,omitempty"`
	Cells        []monthCellDTO `json:"cells,omitempty"`
	Now          *nowDTO        `json:"now,omitempty"`
}

type blockDTO struct {
	Meeting model.Meeting `json:"meeting"`
	Top     float64       `json:"top"`
	Height  float64       `json:"height"`
	Color   string        `json:"color"`
}

type dayColumnDTO struct {
	Date    string     `json:"date"`
	IsToday bool       `json:"is_today"`
	Blocks  []blockDTO `json:"blocks"`
}

type monthCellDTO struct {
	Date     string          `json:"date"`
	IsToday  bool            `json:"is_today"`
	InMonth  bool            `json:"in_month"`
	Meetings []model.Meeting `json:"meetings"`
	Overflow int             `json:"overflow,omitempty"`
}

type nowDTO struct {
	Date   string  `json:"date"`
	Offset float64 `json:"offset"`
}

// handleGrid applies navigation parameters to the view state machine and
// returns the resulting snapshot.
//
// GET /api/grid?mode=week|month&cursor=YYYY-MM-DD&delta=-1&today=1
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings(r)
	if err != nil {
		appLog.Error("api grid: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}

	snap, labels, err := s.snapshotForRequest(r, list)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.gridDTO(snap, labels))
}

func (s *Server) gridDTO(snap grid.Snapshot, labels []int) gridResponse {
	resp := gridResponse{
		Mode:         string(snap.Mode),
		Cursor:       snap.Cursor.Key(),
		Timezone:     s.zone.Name(),
		StartHour:    s.cfg.Grid.StartHour,
		EndHour:      s.cfg.Grid.EndHour,
		CellHeightPx: s.cfg.Grid.CellHeightPx,
		HourLabels:   labels,
	}

	for _, day := range snap.Days {
		dto := dayColumnDTO{Date: day.Key, IsToday: day.IsToday, Blocks: []blockDTO{}}
		for _, b := range day.Blocks {
			dto.Blocks = append(dto.Blocks, blockDTO{
				Meeting: b.Meeting,
				Top:     b.Top,
				Height:  b.Height,
				Color:   b.Meeting.Category.Color(),
			})
		}
		resp.Days = append(resp.Days, dto)
	}

	for _, cell := range snap.Cells {
		meetings := cell.Meetings
		if meetings == nil {
			meetings = []model.Meeting{}
		}
		resp.Cells = append(resp.Cells, monthCellDTO{
			Date:     cell.Key,
			IsToday:  cell.IsToday,
			InMonth:  cell.InMonth,
			Meetings: meetings,
			Overflow: cell.Overflow,
		})
	}

	if snap.Now != nil {
		resp.Now = &nowDTO{Date: snap.Now.DayKey, Offset: snap.Now.Offset}
	}
	return resp
}

// handleList returns the flat chronological list grouped by date.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings(r)
	if err != nil {
		appLog.Error("api list: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}

	groups := grid.ChronologicalGroups(s.zone, list)

	type groupDTO struct {
		Date     string          `json:"date"`
		Meetings []model.Meeting `json:"meetings"`
	}
	out := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupDTO{Date: g.Key, Meetings: g.Meetings})
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

// handleRecordings proxies Zoom cloud recordings for a date range.
//
// GET /api/recordings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if !s.zoom.Configured() {
		writeError(w, http.StatusServiceUnavailable, "zoom is not configured")
		return
	}

	q := r.URL.Query()
	today := s.zone.Today(s.clock)
	from := q.Get("from")
	to := q.Get("to")
	if from == "" {
		from = today.AddDays(-30).Key()
	}
	if to == "" {
		to = today.Key()
	}
	if _, err := civil.ParseDateKey(from); err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	if _, err := civil.ParseDateKey(to); err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	const ttl = 60 * time.Second
	key := from + ".." + to

	s.recordingsMu.RLock()
	rc := s.recordingsCache
	s.recordingsMu.RUnlock()
	if rc != nil && rc.key == key && time.Since(rc.updatedAt) < ttl {
		writeJSON(w, http.StatusOK, map[string]any{"recordings": rc.files})
		return
	}

	files, err := s.zoom.ListRecordings(r.Context(), s.cfg.Zoom.UserID, from, to)
	if err != nil {
		appLog.Error("api recordings: zoom list failed", err, "from", from, "to", to)
		writeError(w, http.StatusBadGateway, "failed to list recordings")
		return
	}

	s.recordingsMu.Lock()
	s.recordingsCache = &recordingsCache{key: key, files: files, updatedAt: time.Now()}
	s.recordingsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"recordings": files})
}

// handleAgendaSuggest asks the text API to draft agenda text.
//
// POST /api/agenda/suggest {"title": "...", "context": "..."}
func (s *Server) handleAgendaSuggest(w http.ResponseWriter, r *http.Request) {
	if !s.agenda.Configured() {
		writeError(w, http.StatusServiceUnavailable, "agenda suggestions are not configured")
		return
	}

	var req struct {
		Title   string `json:"title"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, err := s.agenda.Suggest(r.Context(), req.Title, req.Context)
	if err != nil {
		appLog.Error("api agenda: suggestion failed", err, "title", req.Title)
		writeError(w, http.StatusBadGateway, "agenda suggestion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleICSFeed serves the whole collection as an iCalendar feed.
func (s *Server) handleICSFeed(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings(r)
	if err != nil {
		appLog.Error("ics feed: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(s.zone, list)))
}

// handleRender captures the /calendar page into preview.png via headless
// Chromium, for sharing or printing the current week.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts := capture.Options{
		URL:        "http://" + s.cfg.Listen + "/calendar",
		OutputPath: s.previewPath(),
	}
	// The capture session goes through the same middleware a browser does,
	// so it has to present the configured credentials.
	if s.basicAuthEnabled() {
		cred := s.cfg.BasicAuth.Username + ":" + s.cfg.BasicAuth.Password
		opts.Headers = map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(cred)),
		}
	}

	if err := s.captureFn(r.Context(), opts); err != nil {
		appLog.Error("render: capture failed", err)
		writeError(w, http.StatusInternalServerError, "capture failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"preview": "/preview.png"})
}

// handlePreview serves the last rendered PNG preview from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.previewPath())
}

func (s *Server) previewPath() string {
	if s.debug {
		return "./cache/preview.png"
	}
	return "/var/lib/meetcal/preview.png"
}

