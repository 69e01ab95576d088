// Package transport implements the HTTP layer of the meal SDK: the raw
// Transport, the response normalizer, the status classifier and the request
// Orchestrator that ties them together with the retry policy and the
// session invalidation side effects.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	meal "github.com/larcherlucas/meal"
)

// CredentialSource supplies the headers derived from the current session.
// The session manager implements it.
type CredentialSource interface {
	// Token returns the current bearer credential, if any.
	Token() (string, bool)

	// AcceptLanguage returns the language to request responses in.
	AcceptLanguage() string
}

// AuthErrorHandler reacts to a 401 classification: local session
// invalidation plus redirect to login. The session manager implements it.
type AuthErrorHandler interface {
	HandleUnauthenticated(ctx context.Context)
}

// Request is the pending request context for one outgoing call: target,
// payload, credential snapshot and request identifier. Retries reuse the
// same Request, credential included.
type Request struct {
	Method         string
	Path           string
	Body           any
	Token          string
	HasToken       bool
	AcceptLanguage string
	ID             string
}

// Response is the raw outcome of one transport call.
type Response struct {
	Status int
	Body   []byte
}

// Transport issues HTTP requests against the API base address with a fixed
// per-call timeout. It holds no session state; headers come from the
// Request snapshot.
type Transport struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// TransportOption configures the Transport.
type TransportOption func(*Transport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.client = c }
}

// WithTransportLogger sets a structured logger.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = l }
}

// New creates a Transport for the given base URL and request timeout.
func New(baseURL string, timeout time.Duration, opts ...TransportOption) *Transport {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Do issues one HTTP request. Any failure to obtain a response (DNS,
// connection refused, timeout) is returned as a KindNetwork error; HTTP
// error statuses are returned as a normal Response for the caller to
// classify.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("meal/transport: encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("meal/transport: building request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.ID)
	if req.HasToken {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.AcceptLanguage != "" {
		httpReq.Header.Set("Accept-Language", req.AcceptLanguage)
	}

	t.logger.Debug("api request",
		"method", req.Method,
		"path", req.Path,
		"request_id", req.ID)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Warn("api request failed before a response",
			"method", req.Method,
			"path", req.Path,
			"request_id", req.ID,
			"error", err)
		return nil, meal.NewError(meal.KindNetwork, "Impossible de contacter le serveur. Vérifiez votre connexion internet.").WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, meal.NewError(meal.KindNetwork, "La réponse du serveur n'a pas pu être lue.").WithCause(err)
	}

	return &Response{Status: resp.StatusCode, Body: raw}, nil
}
