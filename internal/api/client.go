package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meTasking/cli/internal/model"
)

const (
	apiVersion      = "v1"
	defaultPageSize = 100
	maxErrorBody    = 8 << 10
)

// Client talks to the meTasking server HTTP API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	pageLimiter *rate.Limiter
	logger      *zap.Logger
}

// Option configures Client behaviour.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger enables debug logging of outgoing requests.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPageLimit throttles paginated listing to the given request rate.
func WithPageLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.pageLimiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.pageLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		pageLimiter: rate.NewLimiter(rate.Inf, 0),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListFilter narrows down the logs returned by ListLogs and EachLog.
type ListFilter struct {
	Offset     int
	Limit      int
	CategoryID *int
	TaskID     *int
	Stopped    *bool
	Flags      []string
	Order      string
	Since      *time.Time
	Until      *time.Time
}

func (f ListFilter) query() url.Values {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := url.Values{}
	query.Set("offset", strconv.Itoa(f.Offset))
	query.Set("limit", strconv.Itoa(limit))
	if f.CategoryID != nil {
		query.Set("category_id", strconv.Itoa(*f.CategoryID))
	}
	if f.TaskID != nil {
		query.Set("task_id", strconv.Itoa(*f.TaskID))
	}
	if f.Stopped != nil {
		query.Set("stopped", strconv.FormatBool(*f.Stopped))
	}
	for _, flag := range f.Flags {
		query.Add("flags", flag)
	}
	if f.Order != "" {
		query.Set("order", f.Order)
	}
	if f.Since != nil {
		query.Set("since", f.Since.Format(time.RFC3339))
	}
	if f.Until != nil {
		query.Set("until", f.Until.Format(time.RFC3339))
	}
	return query
}

// LogFields carries the optional attributes of a new or updated log. Nil
// fields are omitted from the request payload.
type LogFields struct {
	Name        *string
	Description *string
	Task        *string
	Category    *string
}

func (f LogFields) payload() map[string]any {
	payload := map[string]any{}
	if f.Name != nil {
		payload["name"] = *f.Name
	}
	if f.Description != nil {
		payload["description"] = *f.Description
	}
	if f.Task != nil {
		payload["task"] = *f.Task
	}
	if f.Category != nil {
		payload["category"] = *f.Category
	}
	return payload
}

// ListLogs fetches a single page of logs matching the filter.
func (c *Client) ListLogs(ctx context.Context, filter ListFilter) ([]model.WorkLog, error) {
	var logs []model.WorkLog
	if err := c.do(ctx, http.MethodGet, "/log/list", filter.query(), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// EachLog pages through all logs matching the filter and calls fn for each
// one. Iteration stops at the first error returned by fn.
func (c *Client) EachLog(ctx context.Context, filter ListFilter, fn func(model.WorkLog) error) error {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	for {
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return err
		}
		page, err := c.ListLogs(ctx, filter)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, log := range page {
			if err := fn(log); err != nil {
				return err
			}
		}
		filter.Offset += len(page)
	}
}

// StartLog starts a new log, pausing any currently active one.
func (c *Client) StartLog(ctx context.Context, fields LogFields) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/start", nil, fields.payload(), &log); err != nil {
		return nil, err
	}
	return log, nil
}

// NextLog starts a new log, stopping any currently active one.
func (c *Client) NextLog(ctx context.Context, fields LogFields) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/next", nil, fields.payload(), &log); err != nil {
		return nil, err
	}
	return log, nil
}

// StopLog stops the given log, or the active one when id is nil.
func (c *Client) StopLog(ctx context.Context, id *int) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/"+logRef(id)+"/stop", nil, nil, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// StopAll stops every non-finished log.
func (c *Client) StopAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/log/all/stop", nil, nil, nil)
}

// PauseLog pauses the given log, or the active one when id is nil.
func (c *Client) PauseLog(ctx context.Context, id *int) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/"+logRef(id)+"/pause", nil, nil, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// ResumeLog resumes tracking on the given log. Negative ids address logs
// from the end of the list, -1 being the most recent one.
func (c *Client) ResumeLog(ctx context.Context, id int) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/"+strconv.Itoa(id)+"/resume", nil, nil, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// GetLog reads the given log, or the active one when id is nil. It returns
// (nil, nil) when the active log is requested and nothing is active.
func (c *Client) GetLog(ctx context.Context, id *int) (*model.WorkLog, error) {
	var log *model.WorkLog
	if err := c.do(ctx, http.MethodGet, "/log/"+logRef(id), nil, nil, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// ActiveLog reads the currently active log, returning (nil, nil) when no log
// is active.
func (c *Client) ActiveLog(ctx context.Context) (*model.WorkLog, error) {
	return c.GetLog(ctx, nil)
}

// UpdateLog applies a partial update to the given log. When createCategory
// or createTask is set the server creates missing categories and tasks
// referenced by name instead of rejecting the update.
func (c *Client) UpdateLog(ctx context.Context, id int, payload map[string]any, createCategory, createTask bool) (*model.WorkLog, error) {
	query := url.Values{}
	query.Set("create-category", strconv.FormatBool(createCategory))
	query.Set("create-task", strconv.FormatBool(createTask))

	var log *model.WorkLog
	if err := c.do(ctx, http.MethodPut, "/log/"+strconv.Itoa(id), query, payload, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// DeleteLog deletes the given log. Negative ids address logs from the end of
// the list.
func (c *Client) DeleteLog(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/log/"+strconv.Itoa(id), nil, nil, nil)
}

// SplitLog splits the given log in two at the given point in time.
func (c *Client) SplitLog(ctx context.Context, id int, at time.Time) ([]model.WorkLog, error) {
	body := map[string]any{"at": at.Format(time.RFC3339)}
	var logs []model.WorkLog
	if err := c.do(ctx, http.MethodPost, "/log/"+strconv.Itoa(id)+"/split", nil, body, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteRecord deletes a single tracked record.
func (c *Client) DeleteRecord(ctx context.Context, recordID int) error {
	return c.do(ctx, http.MethodDelete, "/record/"+strconv.Itoa(recordID), nil, nil, nil)
}

// logRef renders the path segment addressing a log: its id, or "active" for
// the currently active log.
func logRef(id *int) string {
	if id == nil {
		return "active"
	}
	return strconv.Itoa(*id)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/api/%s%s", c.baseURL, apiVersion, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("upstream request",
		zap.String("method", method),
		zap.String("url", endpoint),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
