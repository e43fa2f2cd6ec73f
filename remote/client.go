/*
client.go - HTTP client for the hours service

PURPOSE:

	Implements planner.Source against the hours service REST API so that a
	Session can build plan tables from a running server.

REQUESTS:

	Every call carries a fresh X-Request-Id, which the server's RequestID
	middleware adopts, so client and server log lines can be correlated.
	Each call is bounded by the client timeout on top of the caller's ctx.

ERRORS:
  - Connection failures wrap ErrUnavailable
  - Deadline exceeded wraps ErrTimeout
  - Non-2xx answers are *StatusError (see errors.go)

SEE ALSO:
  - api/server.go: the routes this client calls
  - planner/source.go: the interface implemented here
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/fiscal-planner/planner"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 30 * time.Second

// Client talks to the hours service over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *slog.Logger
}

var _ planner.Source = (*Client)(nil)

// New creates a client for the service at baseURL, e.g.
// "http://localhost:8080". A zero timeout uses DefaultTimeout and a nil
// logger uses slog.Default().
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		log: log.With("component", "remote"),
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

func (c *Client) FetchCapacity(ctx context.Context, popStart, popEnd string) ([]planner.Decimal, error) {
	var hours []planner.Decimal
	err := c.do(ctx, http.MethodGet, "/api/prodhours", rangeQuery(popStart, popEnd), nil, &hours)
	return hours, err
}

func (c *Client) FetchLookup(ctx context.Context, popStart, popEnd string) (map[string]int, error) {
	var lookup map[string]int
	err := c.do(ctx, http.MethodGet, "/api/prodhoursidx", rangeQuery(popStart, popEnd), nil, &lookup)
	return lookup, err
}

func (c *Client) FetchPeriods(ctx context.Context, popStart, popEnd string) ([]planner.FiscalPeriod, error) {
	var periods []planner.FiscalPeriod
	err := c.do(ctx, http.MethodGet, "/api/periods", rangeQuery(popStart, popEnd), nil, &periods)
	return periods, err
}

// =============================================================================
// PLAN ROWS
// =============================================================================

func (c *Client) FetchRowHours(ctx context.Context, entityID planner.EntityID, planID planner.PlanID, popStart, popEnd string) ([]planner.Decimal, error) {
	q := rowQuery(entityID, planID)
	q.Set("start_date", popStart)
	q.Set("end_date", popEnd)

	var hours []planner.Decimal
	err := c.do(ctx, http.MethodGet, "/api/planhours", q, nil, &hours)
	return hours, err
}

func (c *Client) FetchRowDetail(ctx context.Context, entityID planner.EntityID, planID planner.PlanID) (planner.RowDetail, error) {
	var detail planner.RowDetail
	err := c.do(ctx, http.MethodGet, "/api/planrow", rowQuery(entityID, planID), nil, &detail)
	return detail, err
}

func (c *Client) CreateRow(ctx context.Context, entityID planner.EntityID, planID planner.PlanID, popStart, popEnd string) error {
	q := rowQuery(entityID, planID)
	q.Set("start_date", popStart)
	q.Set("end_date", popEnd)
	return c.do(ctx, http.MethodPost, "/api/planrow", q, nil, nil)
}

func (c *Client) DeleteRow(ctx context.Context, entityID planner.EntityID, planID planner.PlanID) error {
	return c.do(ctx, http.MethodDelete, "/api/planrow", rowQuery(entityID, planID), nil, nil)
}

func (c *Client) SaveHours(ctx context.Context, entityID planner.EntityID, planID planner.PlanID, hours map[string]planner.Decimal) error {
	return c.do(ctx, http.MethodPut, "/api/planrow", rowQuery(entityID, planID), hours, nil)
}

// =============================================================================
// PLANS
// =============================================================================

// Plan is a plan header with the entities planned in it.
type Plan struct {
	planner.PlanRef
	EntityIDs []planner.EntityID
}

type planResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	PopStart    string          `json:"pop_start"`
	PopEnd      string          `json:"pop_end"`
	TargetHours planner.Decimal `json:"target_hours"`
	TargetCost  planner.Decimal `json:"target_cost"`
	EmpIDs      []int64         `json:"emp_ids"`
}

// FetchPlan returns a plan header and the ids of its rows.
func (c *Client) FetchPlan(ctx context.Context, planID planner.PlanID) (Plan, error) {
	var resp planResponse
	path := "/api/plans/" + strconv.FormatInt(int64(planID), 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return Plan{}, err
	}

	ids := make([]planner.EntityID, len(resp.EmpIDs))
	for i, id := range resp.EmpIDs {
		ids[i] = planner.EntityID(id)
	}
	return Plan{
		PlanRef: planner.PlanRef{
			ID:          planner.PlanID(resp.ID),
			Name:        resp.Name,
			PopStart:    resp.PopStart,
			PopEnd:      resp.PopEnd,
			TargetHours: resp.TargetHours,
			TargetCost:  resp.TargetCost,
		},
		EntityIDs: ids,
	}, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// do sends one request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	c.log.Debug("request done", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: path, Status: resp.StatusCode}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			statusErr.Message = e.Error
			if d, ok := e.Details.(string); ok && d != "" {
				statusErr.Message += ": " + d
			}
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrInvalidResponse, fmt.Errorf("%s %s: %w", method, path, err))
	}
	return nil
}

func rangeQuery(start, end string) url.Values {
	return url.Values{"start_date": {start}, "end_date": {end}}
}

func rowQuery(entityID planner.EntityID, planID planner.PlanID) url.Values {
	return url.Values{
		"emp_id":  {strconv.FormatInt(int64(entityID), 10)},
		"plan_id": {strconv.FormatInt(int64(planID), 10)},
	}
}
