package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"schedgrid/internal/config"
	"schedgrid/internal/grid"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
	"schedgrid/internal/schedule"
)

const (
	layoutCacheSize = 128
	requestIDHeader = "X-Request-ID"
)

// Server exposes a Scheduler over HTTP. All scheduler access goes through
// mu; the server also satisfies refresh.Target.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu    sync.Mutex
	sched *schedule.Scheduler

	// layouts caches /api/view previews keyed by the resolved view
	// configuration, grouping and current day.
	layouts *lru.Cache[string, viewResponse]
}

// NewServer constructs a new Server around sched.
func NewServer(cfg *config.Config, sched *schedule.Scheduler) (*Server, error) {
	cache, err := lru.New[string, viewResponse](layoutCacheSize)
	if err != nil {
		return nil, fmt.Errorf("web: layout cache: %w", err)
	}
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		sched:   sched,
		layouts: cache,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
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
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="schedgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an ID (the caller's, if it
// sent one) and logs its completion.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		started := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"took", time.Since(started).String(),
		)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("GET /api/cell", s.handleCell)
	s.mux.HandleFunc("POST /api/navigate", s.handleNavigate)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("GET /api/appointments", s.handleAppointments)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// VisibleRange implements refresh.Target.
func (s *Server) VisibleRange() (time.Time, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.VisibleRange()
}

// SetAppointments implements refresh.Target.
func (s *Server) SetAppointments(apps []model.Appointment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.SetAppointments(apps)
}

// viewResponse is the JSON response shape for /api/view and /api/navigate.
type viewResponse struct {
	*grid.Layout
	Committed       bool `json:"committed"`
	WorkDayCount    int  `json:"work_day_count"`
	RenderCellCount int  `json:"render_cell_count"`
}

func newViewResponse(l *grid.Layout, committed bool) viewResponse {
	return viewResponse{
		Layout:          l,
		Committed:       committed,
		WorkDayCount:    l.WorkDayCount(),
		RenderCellCount: l.RenderCellCount(),
	}
}

// handleView returns the current layout, or a preview when any of the
// query parameters is given.
//
// GET /api/view?date=2017-10-05&view=Month&interval=1
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("date") == "" && q.Get("view") == "" && q.Get("interval") == "" {
		s.mu.Lock()
		resp := newViewResponse(s.sched.Layout(), true)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var anchor grid.Date
	if v := q.Get("date"); v != "" {
		d, err := grid.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		anchor = d
	}
	var view grid.View
	if v := q.Get("view"); v != "" {
		parsed, err := grid.ParseView(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid view")
			return
		}
		view = parsed
	}
	interval := parseIntDefault(q.Get("interval"), 0)
	if interval < 0 || interval > grid.MaxInterval {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("interval must be between 1 and %d", grid.MaxInterval))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.sched.Config()
	if !anchor.IsZero() {
		c.Anchor = anchor
	}
	if view != "" {
		c.View = view
	}
	if interval > 0 {
		c.Interval = interval
	}
	c.Normalize()

	key := layoutKey(c, s.sched.Grouping(), s.sched.Today())
	if resp, ok := s.layouts.Get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	l := s.sched.Preview(func(v *grid.ViewConfig) { *v = c })
	resp := newViewResponse(l, false)
	s.layouts.Add(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// layoutKey identifies a preview by everything its layout depends on.
func layoutKey(c grid.ViewConfig, g grid.GroupConfig, today grid.Date) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d|%t|%t|%s|%q|%t|%s",
		c.View, c.Anchor, c.Interval, c.FirstDayOfWeek, uint8(c.WorkDays),
		c.ShowWeekend, c.HighlightWorkDays, c.Location, g.Resources, g.ByDate, today)
}

// handleCell resolves a cell of the current layout.
//
// GET /api/cell?date=<ms epoch>&group=0
func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group := parseIntDefault(q.Get("group"), 0)

	s.mu.Lock()
	details, ok := s.sched.CellDetails(q.Get("date"), group)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "cell not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

type navigateRequest struct {
	Action string `json:"action"` // next, prev, today, view, date
	View   string `json:"view,omitempty"`
	Date   string `json:"date,omitempty"`
}

// handleNavigate moves the shared schedule. A navigation cancelled by a
// handler still answers 200 with committed=false and the unchanged layout.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var op func(*schedule.Scheduler) bool
	switch req.Action {
	case "next":
		op = (*schedule.Scheduler).Next
	case "prev":
		op = (*schedule.Scheduler).Previous
	case "today":
		op = func(sc *schedule.Scheduler) bool { return sc.NavigateTo(sc.Today()) }
	case "view":
		v, err := grid.ParseView(req.View)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid view")
			return
		}
		op = func(sc *schedule.Scheduler) bool { return sc.ChangeView(v) }
	case "date":
		d, err := grid.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		op = func(sc *schedule.Scheduler) bool { return sc.NavigateTo(d) }
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	s.mu.Lock()
	committed := op(s.sched)
	resp := newViewResponse(s.sched.Layout(), committed)
	s.mu.Unlock()

	appLog.Info("api navigate", "action", req.Action, "committed", committed, "anchor", resp.Anchor)
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	Start string `json:"start"` // data-date of the first cell
	End   string `json:"end"`   // data-date of the last cell; empty selects one cell
	Group int    `json:"group"`
}

type selectResponse struct {
	Committed bool        `json:"committed"`
	Selected  []grid.Cell `json:"selected"`
}

// handleSelect clicks a single cell or selects a range of cells.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	var committed bool
	if req.End == "" || req.End == req.Start {
		committed = s.sched.ClickCell(req.Start, req.Group)
	} else {
		committed = s.sched.SelectRange(req.Start, req.End, req.Group)
	}
	resp := selectResponse{Committed: committed, Selected: s.sched.Selected()}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// appointmentsResponse is the JSON response shape for /api/appointments.
type appointmentsResponse struct {
	RangeStart      time.Time                `json:"range_start"`
	RangeEnd        time.Time                `json:"range_end"`
	DisplayTimeZone string                   `json:"display_timezone"`
	Cells           []schedule.CellPlacement `json:"cells"`
}

// handleAppointments returns the cells of the current layout that hold
// appointments or are blocked.
func (s *Server) handleAppointments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	from, to := s.sched.VisibleRange()
	cells := make([]schedule.CellPlacement, 0)
	for _, p := range s.sched.Placements() {
		if len(p.Appointments) > 0 || p.More > 0 || p.Blocked {
			cells = append(cells, p)
		}
	}
	loc := s.sched.Config().Location
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, appointmentsResponse{
		RangeStart:      from,
		RangeEnd:        to,
		DisplayTimeZone: loc.String(),
		Cells:           cells,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
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
