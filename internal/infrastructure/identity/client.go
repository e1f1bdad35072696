package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/tracing"

	"go.uber.org/zap"
)

const upstreamName = "identity"

// Client talks to the managed identity/document provider over REST. It
// implements both ports.IdentityProvider and ports.DocumentStore because the
// provider exposes accounts and profile documents on the same API surface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    UpstreamMetrics
	logger     *zap.SugaredLogger
}

// UpstreamMetrics is the slice of the Prometheus collector the client needs.
type UpstreamMetrics interface {
	RecordUpstreamRequest(upstream, outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordUpstreamRequest(string, string, time.Duration) {}

func NewClient(baseURL, apiKey string, timeout time.Duration, metrics UpstreamMetrics, logger *zap.SugaredLogger) *Client {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

var _ ports.IdentityProvider = (*Client)(nil)
var _ ports.DocumentStore = (*Client)(nil)

type accountResponse struct {
	UID              string     `json:"uid"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	TokensValidAfter *time.Time `json:"tokens_valid_after,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateUser(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}

	var account accountResponse
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", body, &account); err != nil {
		return nil, err
	}
	return identityFromAccount(&account), nil
}

func (c *Client) CreateOAuthUser(ctx context.Context, provider, providerID, email, displayName string) (*domain.Identity, error) {
	body := map[string]string{
		"provider":     provider,
		"provider_id":  providerID,
		"email":        email,
		"display_name": displayName,
	}

	var account accountResponse
	if err := c.do(ctx, http.MethodPost, "/v1/accounts/oauth", body, &account); err != nil {
		return nil, err
	}
	return identityFromAccount(&account), nil
}

func (c *Client) VerifyPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var account accountResponse
	if err := c.do(ctx, http.MethodPost, "/v1/accounts/verify-password", body, &account); err != nil {
		return nil, err
	}
	return identityFromAccount(&account), nil
}

func (c *Client) CreateSessionCookie(ctx context.Context, uid domain.UserID, ttl time.Duration) (string, error) {
	body := map[string]interface{}{
		"ttl_seconds": int64(ttl.Seconds()),
	}

	var resp struct {
		Credential string `json:"credential"`
	}
	path := fmt.Sprintf("/v1/accounts/%s/sessions", url.PathEscape(string(uid)))
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Credential, nil
}

func (c *Client) RevokeTokens(ctx context.Context, uid domain.UserID) error {
	path := fmt.Sprintf("/v1/accounts/%s/revoke-tokens", url.PathEscape(string(uid)))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) TokensValidAfter(ctx context.Context, uid domain.UserID) (time.Time, error) {
	var account accountResponse
	path := fmt.Sprintf("/v1/accounts/%s", url.PathEscape(string(uid)))
	if err := c.do(ctx, http.MethodGet, path, nil, &account); err != nil {
		return time.Time{}, err
	}
	if account.TokensValidAfter == nil {
		return time.Time{}, nil
	}
	return *account.TokensValidAfter, nil
}

func (c *Client) UpdateUser(ctx context.Context, uid domain.UserID, update ports.IdentityUpdate) error {
	body := make(map[string]string)
	if update.Email != nil {
		body["email"] = *update.Email
	}
	if update.DisplayName != nil {
		body["display_name"] = *update.DisplayName
	}
	if len(body) == 0 {
		return nil
	}

	path := fmt.Sprintf("/v1/accounts/%s", url.PathEscape(string(uid)))
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, uid domain.UserID) error {
	path := fmt.Sprintf("/v1/accounts/%s", url.PathEscape(string(uid)))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) GeneratePasswordResetLink(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/v1/accounts/password-reset", body, nil)
}

func (c *Client) Get(ctx context.Context, collection, id string, out interface{}) error {
	path := documentPath(collection, id)
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Set(ctx context.Context, collection, id string, doc interface{}) error {
	path := documentPath(collection, id)
	return c.do(ctx, http.MethodPut, path, doc, nil)
}

func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	path := documentPath(collection, id)
	return c.do(ctx, http.MethodPatch, path, fields, nil)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	path := documentPath(collection, id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func documentPath(collection, id string) string {
	return fmt.Sprintf("/v1/documents/%s/%s", url.PathEscape(collection), url.PathEscape(id))
}

func identityFromAccount(account *accountResponse) *domain.Identity {
	return &domain.Identity{
		UID:         domain.UserID(account.UID),
		Email:       account.Email,
		DisplayName: account.DisplayName,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, span := tracing.TraceUpstreamCall(ctx, upstreamName, method+" "+path)
	defer span.End()

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
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(upstreamName, "error", time.Since(start))
		tracing.RecordError(ctx, err)
		c.logger.Errorw("identity provider unreachable",
			"method", method, "path", path, "error", err)
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"identity provider unreachable", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.metrics.RecordUpstreamRequest(upstreamName, "error", time.Since(start))
		return c.translateError(resp)
	}

	c.metrics.RecordUpstreamRequest(upstreamName, "success", time.Since(start))

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"malformed identity provider response", http.StatusBadGateway)
	}
	return nil
}

// translateError maps the provider's error envelope onto the gateway's
// error taxonomy. Unknown codes fall back to the HTTP status.
func (c *Client) translateError(resp *http.Response) error {
	var env errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &env)

	message := env.Error.Message
	if message == "" {
		message = fmt.Sprintf("identity provider returned status %d", resp.StatusCode)
	}

	switch env.Error.Code {
	case "EMAIL_EXISTS":
		return apperrors.NewConflictError("email already registered")
	case "INVALID_CREDENTIALS", "USER_DISABLED":
		return apperrors.NewUnauthenticatedError("invalid credentials")
	case "USER_NOT_FOUND", "DOCUMENT_NOT_FOUND":
		return apperrors.NewNotFoundError("user")
	case "WEAK_PASSWORD":
		return apperrors.NewInvalidInputError(message)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.NewInvalidInputError(message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewUnauthenticatedError(message)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError("user")
	case http.StatusConflict:
		return apperrors.NewConflictError(message)
	default:
		return apperrors.NewUpstreamError(message)
	}
}
