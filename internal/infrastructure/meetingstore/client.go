package meetingstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	"meetgate/pkg/circuitbreaker"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/retry"
	"meetgate/pkg/tracing"

	"go.uber.org/zap"
)

const upstreamName = "meeting_store"

// callerHeader carries the authenticated caller to the store; the store
// enforces its own per-caller visibility with it.
const callerHeader = "X-Caller-UID"

// Client proxies meeting CRUD to the external meeting store. Reads retry
// with backoff; all calls share one circuit breaker so a dead store fails
// fast instead of tying up gateway handlers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
	metrics    UpstreamMetrics
	logger     *zap.SugaredLogger
}

// UpstreamMetrics is the slice of the Prometheus collector the client needs.
type UpstreamMetrics interface {
	RecordUpstreamRequest(upstream, outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordUpstreamRequest(string, string, time.Duration) {}

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	RetryAttempts    int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func NewClient(opts Options, metrics UpstreamMetrics, logger *zap.SugaredLogger) *Client {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	breakerCfg := circuitbreaker.DefaultConfig()
	if opts.BreakerThreshold > 0 {
		breakerCfg.FailureThreshold = opts.BreakerThreshold
	}
	if opts.BreakerCooldown > 0 {
		breakerCfg.Timeout = opts.BreakerCooldown
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = opts.RetryAttempts
	retryCfg.Enabled = opts.RetryAttempts > 0
	retryCfg.Retryable = func(err error) bool {
		return apperrors.IsCode(err, apperrors.ErrCodeUpstream)
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		breaker:  circuitbreaker.New(breakerCfg),
		retryCfg: retryCfg,
		metrics:  metrics,
		logger:   logger,
	}

	c.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("meeting store circuit breaker state change",
			"from", from.String(), "to", to.String())
	})

	return c
}

var _ ports.MeetingStore = (*Client)(nil)

type meetingResponse struct {
	ID           string    `json:"id"`
	HostID       string    `json:"host_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Participants []string  `json:"participants"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Create(ctx context.Context, caller domain.UserID, req ports.MeetingCreate) (*domain.Meeting, error) {
	body := map[string]string{
		"title":       req.Title,
		"description": req.Description,
	}

	var resp meetingResponse
	if err := c.do(ctx, http.MethodPost, "/v1/meetings", caller, body, &resp); err != nil {
		return nil, err
	}
	return meetingFromResponse(&resp), nil
}

// ListForUser retries: listing is idempotent.
func (c *Client) ListForUser(ctx context.Context, caller domain.UserID) ([]*domain.Meeting, error) {
	var resp struct {
		Meetings []meetingResponse `json:"meetings"`
	}

	err := retry.Do(ctx, c.retryCfg, func() error {
		return c.do(ctx, http.MethodGet, "/v1/meetings", caller, nil, &resp)
	})
	if err != nil {
		return nil, err
	}

	meetings := make([]*domain.Meeting, 0, len(resp.Meetings))
	for i := range resp.Meetings {
		meetings = append(meetings, meetingFromResponse(&resp.Meetings[i]))
	}
	return meetings, nil
}

func (c *Client) GetByID(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	var resp meetingResponse

	err := retry.Do(ctx, c.retryCfg, func() error {
		return c.do(ctx, http.MethodGet, meetingPath(id), caller, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return meetingFromResponse(&resp), nil
}

func (c *Client) Update(ctx context.Context, caller domain.UserID, id domain.MeetingID, update domain.MeetingUpdate) (*domain.Meeting, error) {
	body := make(map[string]interface{})
	if update.Title != nil {
		body["title"] = *update.Title
	}
	if update.Description != nil {
		body["description"] = *update.Description
	}
	if update.Status != nil {
		body["status"] = string(*update.Status)
	}

	var resp meetingResponse
	if err := c.do(ctx, http.MethodPatch, meetingPath(id), caller, body, &resp); err != nil {
		return nil, err
	}
	return meetingFromResponse(&resp), nil
}

func (c *Client) Delete(ctx context.Context, caller domain.UserID, id domain.MeetingID) error {
	return c.do(ctx, http.MethodDelete, meetingPath(id), caller, nil, nil)
}

func (c *Client) Join(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	var resp meetingResponse
	if err := c.do(ctx, http.MethodPost, meetingPath(id)+"/join", caller, nil, &resp); err != nil {
		return nil, err
	}
	return meetingFromResponse(&resp), nil
}

func (c *Client) Leave(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	var resp meetingResponse
	if err := c.do(ctx, http.MethodPost, meetingPath(id)+"/leave", caller, nil, &resp); err != nil {
		return nil, err
	}
	return meetingFromResponse(&resp), nil
}

func meetingPath(id domain.MeetingID) string {
	return "/v1/meetings/" + url.PathEscape(string(id))
}

func meetingFromResponse(resp *meetingResponse) *domain.Meeting {
	participants := make([]domain.UserID, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		participants = append(participants, domain.UserID(p))
	}

	return &domain.Meeting{
		ID:           domain.MeetingID(resp.ID),
		HostID:       domain.UserID(resp.HostID),
		Title:        resp.Title,
		Description:  resp.Description,
		Participants: participants,
		Status:       domain.MeetingStatus(resp.Status),
		CreatedAt:    resp.CreatedAt,
		UpdatedAt:    resp.UpdatedAt,
	}
}

func (c *Client) do(ctx context.Context, method, path string, caller domain.UserID, body, out interface{}) error {
	ctx, span := tracing.TraceUpstreamCall(ctx, upstreamName, method+" "+path)
	defer span.End()

	var callErr error
	err := c.breaker.Execute(func() error {
		callErr = c.send(ctx, method, path, caller, body, out)
		// Client-side errors must not trip the breaker.
		if callErr != nil && !apperrors.IsCode(callErr, apperrors.ErrCodeUpstream) {
			return nil
		}
		return callErr
	})

	var open *circuitbreaker.ErrOpen
	if errors.As(err, &open) {
		c.metrics.RecordUpstreamRequest(upstreamName, "breaker_open", 0)
		return apperrors.NewUpstreamError("meeting store temporarily unavailable")
	}
	return callErr
}

func (c *Client) send(ctx context.Context, method, path string, caller domain.UserID, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.NewInternalError("failed to build upstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(callerHeader, string(caller))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(upstreamName, "error", time.Since(start))
		tracing.RecordError(ctx, err)
		c.logger.Errorw("meeting store unreachable",
			"method", method, "path", path, "error", err)
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"meeting store unreachable", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.metrics.RecordUpstreamRequest(upstreamName, "error", time.Since(start))
		return translateError(resp)
	}

	c.metrics.RecordUpstreamRequest(upstreamName, "success", time.Since(start))

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"malformed meeting store response", http.StatusBadGateway)
	}
	return nil
}

func translateError(resp *http.Response) error {
	var env errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &env)

	message := env.Error.Message
	if message == "" {
		message = fmt.Sprintf("meeting store returned status %d", resp.StatusCode)
	}

	switch env.Error.Code {
	case "MEETING_NOT_FOUND":
		return apperrors.NewNotFoundError("meeting")
	case "MEETING_FULL":
		return apperrors.NewForbiddenError("meeting has reached its participant limit")
	case "NOT_HOST":
		return apperrors.NewForbiddenError("only the meeting host may do that")
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.NewInvalidInputError(message)
	case http.StatusForbidden:
		return apperrors.NewForbiddenError(message)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError("meeting")
	case http.StatusConflict:
		return apperrors.NewConflictError(message)
	default:
		return apperrors.NewUpstreamError(message)
	}
}
