package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/meTasking/cli/internal/model"
)

func editUpstream(log model.WorkLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPut:
			writeLogJSON(w, log)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestEditRoundTrip(t *testing.T) {
	start := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	categoryName := "dev"
	log := model.WorkLog{
		ID:          12,
		Name:        "original",
		Description: "before edit",
		Category:    &model.Category{ID: 1, Name: categoryName},
		Records:     []model.Record{{ID: 1, Start: start, End: &end}},
	}

	env, _, upstream := newTestEnv(t, editUpstream(log))

	var editedYAML string
	opts := EditOptions{
		RunEditor: func(path string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			// The presented document flattens the category to its name.
			if !strings.Contains(string(data), "category: dev") {
				t.Errorf("expected flattened category in document:\n%s", data)
			}
			edited := strings.Replace(string(data), "name: original", "name: edited", 1)
			editedYAML = edited
			return os.WriteFile(path, []byte(edited), 0o600)
		},
	}

	if err := Edit(context.Background(), env, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if editedYAML == "" {
		t.Fatalf("editor was never invoked")
	}

	req := upstream.last(t)
	if req.Method != http.MethodPut || req.Path != "/api/v1/log/12" {
		t.Fatalf("unexpected request: %s %s", req.Method, req.Path)
	}
	if got := req.Query["create-category"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("expected create-category=true, got %v", got)
	}
	if got := req.Query["create-task"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("expected create-task=true, got %v", got)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if payload["name"] != "edited" {
		t.Fatalf("expected edited name, got %v", payload["name"])
	}
	if payload["category"] != "dev" {
		t.Fatalf("expected category name in payload, got %v", payload["category"])
	}
	if _, ok := payload["id"]; ok {
		t.Fatalf("id must not be part of the update payload: %v", payload)
	}
}

func TestEditNoActiveLog(t *testing.T) {
	env, _, _ := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeLogJSON(w, nil)
	})

	err := Edit(context.Background(), env, EditOptions{
		RunEditor: func(path string) error {
			t.Fatalf("editor must not run without a log")
			return nil
		},
	})
	if err == nil {
		t.Fatalf("expected error when no log is active")
	}
}

func TestEditEditorFailureAbortsUpdate(t *testing.T) {
	log := sampleLog(7, "untouched")
	env, _, upstream := newTestEnv(t, editUpstream(log))

	err := Edit(context.Background(), env, EditOptions{
		RunEditor: func(path string) error {
			return os.ErrPermission
		},
	})
	if err == nil {
		t.Fatalf("expected editor failure to propagate")
	}

	if req := upstream.last(t); req.Method == http.MethodPut {
		t.Fatalf("update must not run after editor failure")
	}
}
