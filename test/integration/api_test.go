package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/commands"
	"github.com/meTasking/cli/internal/model"
	"github.com/meTasking/cli/internal/serve"
)

// fakeMetaskingServer is a minimal in-memory stand-in for the upstream
// meTasking server, covering the endpoints the integration flow exercises.
type fakeMetaskingServer struct {
	logs   []model.WorkLog
	active *int // index into logs
	nextID int
	clock  time.Time
}

func newFakeMetaskingServer() *fakeMetaskingServer {
	return &fakeMetaskingServer{
		nextID: 1,
		clock:  time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeMetaskingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/log/start" && r.Method == http.MethodPost:
		s.pauseActive()
		var fields struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		_ = json.NewDecoder(r.Body).Decode(&fields)
		log := model.WorkLog{
			ID:          s.nextID,
			Name:        fields.Name,
			Description: fields.Description,
			Records:     []model.Record{{ID: s.nextID, Start: s.clock}},
		}
		s.nextID++
		s.logs = append(s.logs, log)
		idx := len(s.logs) - 1
		s.active = &idx
		_ = json.NewEncoder(w).Encode(log)

	case path == "/log/active" && r.Method == http.MethodGet:
		if s.active == nil {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(s.logs[*s.active])

	case path == "/log/active/stop" && r.Method == http.MethodPost:
		if s.active == nil {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("no active log"))
			return
		}
		log := s.stopActive()
		_ = json.NewEncoder(w).Encode(log)

	case path == "/log/list" && r.Method == http.MethodGet:
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset >= len(s.logs) {
			_ = json.NewEncoder(w).Encode([]model.WorkLog{})
			return
		}
		_ = json.NewEncoder(w).Encode(s.logs[offset:])

	default:
		http.NotFound(w, r)
	}
}

func (s *fakeMetaskingServer) pauseActive() {
	if s.active == nil {
		return
	}
	s.closeOpenRecord(*s.active)
	s.active = nil
}

func (s *fakeMetaskingServer) stopActive() model.WorkLog {
	idx := *s.active
	s.closeOpenRecord(idx)
	s.active = nil
	return s.logs[idx]
}

func (s *fakeMetaskingServer) closeOpenRecord(idx int) {
	records := s.logs[idx].Records
	last := len(records) - 1
	if records[last].End == nil {
		end := s.clock.Add(time.Hour)
		records[last].End = &end
	}
}

func performRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	upstream := newFakeMetaskingServer()
	upstreamServer := httptest.NewServer(upstream)
	t.Cleanup(upstreamServer.Close)

	logger := zaptest.NewLogger(t)
	client := api.NewClient(upstreamServer.URL, api.WithLogger(logger))

	// Drive the upstream through the command layer first.
	out := &bytes.Buffer{}
	env := commands.Env{Client: client, Logger: logger, Out: out}
	ctx := context.Background()

	name := "integration work"
	if err := commands.Start(ctx, env, commands.StartOptions{Name: &name}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := commands.Status(ctx, env, commands.StatusOptions{}); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out.String(), "integration work") {
		t.Fatalf("expected started log in status output:\n%s", out.String())
	}

	// Then check the web status surface sees the same state.
	handler := serve.NewHandler(client, "meTasking TUI", "http://public.example")
	router := serve.NewRouter(handler, logger, serve.WithLogging(false))

	rec := performRequest(t, router, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("expected healthy serve surface, got %+v", health)
	}

	rec = performRequest(t, router, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", rec.Code)
	}
	var status struct {
		Active *model.WorkLog  `json:"active"`
		Logs   []model.WorkLog `json:"logs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Active == nil || status.Active.Name != "integration work" {
		t.Fatalf("expected active log on status surface, got %+v", status.Active)
	}

	// Stop the log from the command layer and confirm the surface follows.
	if err := commands.Stop(ctx, env, commands.StopOptions{}); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	rec = performRequest(t, router, http.MethodGet, "/api/status")
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Active != nil {
		t.Fatalf("expected no active log after stop, got %+v", status.Active)
	}

	// Stopping again surfaces the upstream's explanation.
	err := commands.Stop(ctx, env, commands.StopOptions{})
	if err == nil {
		t.Fatalf("expected error stopping with no active log")
	}
	if !strings.Contains(err.Error(), "no active log") {
		t.Fatalf("expected upstream body in error, got %v", err)
	}
}
