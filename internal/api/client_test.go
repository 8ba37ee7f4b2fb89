package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/meTasking/cli/internal/model"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   string
}

type fakeUpstream struct {
	mu       sync.Mutex
	requests []recordedRequest

	respond http.HandlerFunc
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   string(body),
	})
	f.mu.Unlock()
	f.respond(w, r)
}

func (f *fakeUpstream) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("expected at least one request")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, respond http.HandlerFunc) (*Client, *fakeUpstream) {
	t.Helper()
	upstream := &fakeUpstream{respond: respond}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)
	return NewClient(server.URL), upstream
}

func respondJSON(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}
}

func TestStartLogSendsOnlyProvidedFields(t *testing.T) {
	client, upstream := newTestClient(t, respondJSON(`{"id": 1, "name": "demo"}`))

	name := "demo"
	log, err := client.StartLog(context.Background(), LogFields{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == nil || log.ID != 1 {
		t.Fatalf("unexpected log: %+v", log)
	}

	req := upstream.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/v1/log/start" {
		t.Fatalf("unexpected request: %s %s", req.Method, req.Path)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		t.Fatalf("invalid body %q: %v", req.Body, err)
	}
	if payload["name"] != "demo" {
		t.Fatalf("expected name field, got %v", payload)
	}
	if _, ok := payload["description"]; ok {
		t.Fatalf("did not expect description field, got %v", payload)
	}
}

func TestLogRefAddressing(t *testing.T) {
	client, upstream := newTestClient(t, respondJSON(`{"id": 5}`))

	if _, err := client.StopLog(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := upstream.last(t); req.Path != "/api/v1/log/active/stop" {
		t.Fatalf("unexpected path %s", req.Path)
	}

	id := 5
	if _, err := client.PauseLog(context.Background(), &id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := upstream.last(t); req.Path != "/api/v1/log/5/pause" {
		t.Fatalf("unexpected path %s", req.Path)
	}

	if _, err := client.ResumeLog(context.Background(), -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := upstream.last(t); req.Path != "/api/v1/log/-1/resume" {
		t.Fatalf("unexpected path %s", req.Path)
	}
}

func TestActiveLogNullResponse(t *testing.T) {
	client, _ := newTestClient(t, respondJSON(`null`))

	log, err := client.ActiveLog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log != nil {
		t.Fatalf("expected nil log, got %+v", log)
	}
}

func TestStatusErrorCarriesResponseBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("another log is already active"))
	})

	_, err := client.StartLog(context.Background(), LogFields{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 status error, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Body != "another log is already active" {
		t.Fatalf("expected response body to be preserved, got %q", statusErr.Body)
	}
}

func TestListLogsQueryParameters(t *testing.T) {
	client, upstream := newTestClient(t, respondJSON(`[]`))

	since := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	stopped := false
	_, err := client.ListLogs(context.Background(), ListFilter{
		Offset:  20,
		Limit:   10,
		Stopped: &stopped,
		Flags:   []string{"work", "billable"},
		Order:   "desc",
		Since:   &since,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := upstream.last(t).Query
	if got := query["offset"]; len(got) != 1 || got[0] != "20" {
		t.Fatalf("unexpected offset: %v", got)
	}
	if got := query["limit"]; len(got) != 1 || got[0] != "10" {
		t.Fatalf("unexpected limit: %v", got)
	}
	if got := query["stopped"]; len(got) != 1 || got[0] != "false" {
		t.Fatalf("unexpected stopped: %v", got)
	}
	if got := query["flags"]; len(got) != 2 {
		t.Fatalf("expected repeated flags param, got %v", got)
	}
	if got := query["since"]; len(got) != 1 || got[0] != "2024-11-01T00:00:00Z" {
		t.Fatalf("unexpected since: %v", got)
	}
}

func TestEachLogPaginates(t *testing.T) {
	pages := [][]model.WorkLog{
		{{ID: 1}, {ID: 2}},
		{{ID: 3}},
		{},
	}
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		page := []model.WorkLog{}
		switch offset {
		case 0:
			page = pages[0]
		case 2:
			page = pages[1]
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})

	var seen []int
	err := client.EachLog(context.Background(), ListFilter{Limit: 2}, func(log model.WorkLog) error {
		seen = append(seen, log.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Fatalf("unexpected logs seen: %v", seen)
	}
	if calls != 3 {
		t.Fatalf("expected 3 page requests, got %d", calls)
	}
}

func TestUpdateLogCreateFlags(t *testing.T) {
	client, upstream := newTestClient(t, respondJSON(`{"id": 9}`))

	_, err := client.UpdateLog(context.Background(), 9, map[string]any{"name": "renamed"}, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := upstream.last(t)
	if req.Method != http.MethodPut || req.Path != "/api/v1/log/9" {
		t.Fatalf("unexpected request: %s %s", req.Method, req.Path)
	}
	if got := req.Query["create-category"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("unexpected create-category: %v", got)
	}
	if got := req.Query["create-task"]; len(got) != 1 || got[0] != "false" {
		t.Fatalf("unexpected create-task: %v", got)
	}
}

func TestDeleteRecord(t *testing.T) {
	client, upstream := newTestClient(t, respondJSON(`{}`))

	if err := client.DeleteRecord(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := upstream.last(t)
	if req.Method != http.MethodDelete || req.Path != "/api/v1/record/42" {
		t.Fatalf("unexpected request: %s %s", req.Method, req.Path)
	}
}
