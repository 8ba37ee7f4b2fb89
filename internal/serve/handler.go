package serve

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/model"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const upstreamTimeout = 5 * time.Second

// Handler wires the upstream API client into HTTP handlers.
type Handler struct {
	client    *api.Client
	title     string
	publicURL string

	clock func() time.Time
	index *template.Template
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(client *api.Client, title, publicURL string, opts ...HandlerOption) *Handler {
	h := &Handler{
		client:    client,
		title:     title,
		publicURL: publicURL,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		index: template.Must(template.New("index").Parse(indexTemplate)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Upstream:  "ok",
		Server:    h.client.BaseURL(),
		Timestamp: h.clock(),
	}
	if _, err := h.client.ActiveLog(ctx); err != nil {
		resp.Status = "degraded"
		resp.Upstream = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	active, err := h.client.ActiveLog(ctx)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	logs := []model.WorkLog{}
	stopped := false
	err = h.client.EachLog(ctx, api.ListFilter{Stopped: &stopped}, func(log model.WorkLog) error {
		logs = append(logs, log)
		return nil
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Active:    active,
		Logs:      logs,
		Timestamp: h.clock(),
	})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	logs, err := h.client.ListLogs(ctx, filter)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if logs == nil {
		logs = []model.WorkLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = h.index.Execute(w, indexData{
		Title:     h.title,
		PublicURL: h.publicURL,
		Server:    h.client.BaseURL(),
	})
}

// listFilterFromQuery parses the supported proxy query parameters.
func listFilterFromQuery(r *http.Request) (api.ListFilter, error) {
	filter := api.ListFilter{}
	query := r.URL.Query()

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return api.ListFilter{}, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return api.ListFilter{}, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return api.ListFilter{}, errors.New("since must be an RFC 3339 timestamp")
		}
		filter.Since = &since
	}
	if raw := query.Get("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return api.ListFilter{}, errors.New("until must be an RFC 3339 timestamp")
		}
		filter.Until = &until
	}

	return filter, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Upstream  string    `json:"upstream"`
	Server    string    `json:"server"`
	Timestamp time.Time `json:"timestamp"`
}

type statusResponse struct {
	Active    *model.WorkLog  `json:"active"`
	Logs      []model.WorkLog `json:"logs"`
	Timestamp time.Time       `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type indexData struct {
	Title     string
	PublicURL string
	Server    string
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Upstream server: <code>{{.Server}}</code></p>
<p>Public URL: <a href="{{.PublicURL}}">{{.PublicURL}}</a></p>
<ul>
<li><a href="/api/health">health</a></li>
<li><a href="/api/status">status</a></li>
<li><a href="/api/logs">logs</a></li>
</ul>
</body>
</html>
`

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

// writeUpstreamError maps upstream failures to 502 while passing the
// server's own explanation through to the caller.
func writeUpstreamError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadGateway, "Upstream error", err.Error())
}
