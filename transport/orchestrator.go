package transport

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"

	meal "github.com/larcherlucas/meal"
	"github.com/larcherlucas/meal/metrics"
)

// DefaultLogoutPath is the API endpoint whose 401s never trigger the
// session invalidation side effect, to avoid logout/redirect loops.
const DefaultLogoutPath = "/logout"

// Orchestrator is the single choke point for outbound calls. It attaches
// the current credential and a request identifier, normalizes responses,
// classifies failures, retries retriable ones with linear backoff and
// triggers session invalidation on 401, at most once across concurrent
// failures.
type Orchestrator struct {
	tr       *Transport
	retrier  retry.Retry[*meal.Envelope]
	notifier meal.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	creds       CredentialSource
	authHandler AuthErrorHandler
	logoutPath  string

	// handlingAuth makes the invalidate+redirect sequence atomic per
	// session: concurrent 401s trigger it exactly once.
	handlingAuth atomic.Bool
}

var _ meal.Requester = (*Orchestrator)(nil)

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithNotifier sets the notifier used to surface finally-failed requests.
func WithNotifier(n meal.Notifier) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLogoutPath overrides the endpoint excluded from 401 handling.
func WithLogoutPath(path string) OrchestratorOption {
	return func(o *Orchestrator) { o.logoutPath = path }
}

// WithRetry configures the bounded retry policy: maxAttempts total tries,
// a baseDelay wait before the first retry and twice that before the second.
//
// Only network errors and 5xx responses are retried; a 401 is handled by
// the invalidation side effect instead. Retries reuse the original request
// snapshot, credential included. Idempotency is the caller's concern: a
// non-idempotent POST repeated after a timeout can double-execute
// server-side.
func WithRetry(maxAttempts int, baseDelay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if maxAttempts <= 1 {
			o.retrier = nil
			return
		}
		o.retrier = retry.New[*meal.Envelope](retry.Config{
			MaxAttempts:   maxAttempts,
			InitialDelay:  baseDelay,
			MaxDelay:      baseDelay * time.Duration(maxAttempts),
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        false,
			IsRetryable:   meal.Retryable,
		})
	}
}

// NewOrchestrator wraps a Transport. Without WithRetry the default policy
// of 3 total tries with a 1s base delay applies.
func NewOrchestrator(tr *Transport, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tr:         tr,
		logger:     slog.Default(),
		metrics:    metrics.New(false),
		logoutPath: DefaultLogoutPath,
	}
	WithRetry(3, time.Second)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BindSession wires the credential source and the 401 handler. Called once
// during assembly; the session manager implements both sides.
func (o *Orchestrator) BindSession(creds CredentialSource, handler AuthErrorHandler) {
	o.creds = creds
	o.authHandler = handler
}

// Do implements meal.Requester.
func (o *Orchestrator) Do(ctx context.Context, method, path string, body any, opts ...meal.RequestOption) (*meal.Envelope, error) {
	options := meal.BuildRequestOptions(opts...)

	req := Request{
		Method: method,
		Path:   path,
		Body:   body,
		ID:     meal.RequestIDFromContext(ctx),
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if o.creds != nil {
		req.Token, req.HasToken = o.creds.Token()
		req.AcceptLanguage = o.creds.AcceptLanguage()
	}

	start := time.Now()
	var attempts int
	var lastErr *meal.Error

	op := func(ctx context.Context) (*meal.Envelope, error) {
		attempts++
		if attempts > 1 {
			o.metrics.RecordRetry()
			o.logger.Debug("retrying request",
				"path", req.Path,
				"request_id", req.ID,
				"attempt", attempts)
		}

		resp, err := o.tr.Do(ctx, req)
		if err != nil {
			if e, ok := meal.AsError(err); ok {
				lastErr = e
				return nil, e
			}
			lastErr = meal.NewError(meal.KindUnknown, "Une erreur inattendue est survenue.").WithCause(err)
			return nil, lastErr
		}

		if resp.Status >= 200 && resp.Status < 300 {
			env, err := Normalize(resp.Body)
			if err != nil {
				if e, ok := meal.AsError(err); ok {
					lastErr = e
					return nil, e
				}
				lastErr = meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err)
				return nil, lastErr
			}
			return env, nil
		}

		cerr := Classify(resp.Status, resp.Body)
		if cerr.Kind == meal.KindNotFound && options.AbsenceIsNormal {
			// Absence is a valid outcome here: empty success, no error,
			// no notification.
			return &meal.Envelope{Status: "success"}, nil
		}
		lastErr = cerr
		return nil, cerr
	}

	var env *meal.Envelope
	var err error
	if o.retrier != nil {
		env, err = o.retrier.Do(ctx, op)
	} else {
		env, err = op(ctx)
	}

	o.metrics.RecordRequest(method, time.Since(start).Seconds())

	if err != nil {
		// Surface the original classification, not whatever wrapper the
		// retrier may have produced on exhaustion.
		cerr := lastErr
		if cerr == nil {
			if e, ok := meal.AsError(err); ok {
				cerr = e
			} else {
				cerr = meal.NewError(meal.KindUnknown, "Une erreur inattendue est survenue.").WithCause(err)
			}
		}

		o.logger.Warn("request failed",
			"method", method,
			"path", path,
			"request_id", req.ID,
			"kind", string(cerr.Kind),
			"attempts", attempts)
		o.metrics.RecordRequestFailure(string(cerr.Kind))

		if cerr.Kind == meal.KindUnauthenticated {
			o.handleAuthError(ctx, path)
		}
		o.notifyFailure(cerr)
		return nil, cerr
	}

	return env, nil
}

// Get issues a GET request.
func (o *Orchestrator) Get(ctx context.Context, path string, opts ...meal.RequestOption) (*meal.Envelope, error) {
	return o.Do(ctx, "GET", path, nil, opts...)
}

// Post issues a POST request.
func (o *Orchestrator) Post(ctx context.Context, path string, body any, opts ...meal.RequestOption) (*meal.Envelope, error) {
	return o.Do(ctx, "POST", path, body, opts...)
}

// Put issues a PUT request.
func (o *Orchestrator) Put(ctx context.Context, path string, body any, opts ...meal.RequestOption) (*meal.Envelope, error) {
	return o.Do(ctx, "PUT", path, body, opts...)
}

// Patch issues a PATCH request.
func (o *Orchestrator) Patch(ctx context.Context, path string, body any, opts ...meal.RequestOption) (*meal.Envelope, error) {
	return o.Do(ctx, "PATCH", path, body, opts...)
}

// Delete issues a DELETE request.
func (o *Orchestrator) Delete(ctx context.Context, path string, opts ...meal.RequestOption) (*meal.Envelope, error) {
	return o.Do(ctx, "DELETE", path, nil, opts...)
}

// handleAuthError runs the invalidation side effect at most once across
// concurrent 401s. A 401 from the logout endpoint itself is ignored: the
// session is being torn down already.
func (o *Orchestrator) handleAuthError(ctx context.Context, path string) {
	if path == o.logoutPath || o.authHandler == nil {
		return
	}
	if !o.handlingAuth.CompareAndSwap(false, true) {
		return
	}
	defer o.handlingAuth.Store(false)
	o.authHandler.HandleUnauthenticated(ctx)
}

func (o *Orchestrator) notifyFailure(e *meal.Error) {
	if o.notifier == nil {
		return
	}
	o.notifier.Notify(meal.Notification{
		Severity:    meal.SeverityError,
		Message:     e.Message,
		Dismissible: true,
	})
}
