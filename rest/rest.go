// Package rest assembles the full client stack against the REST backend:
// transport, orchestrator, session manager, guard, notification center and
// the domain services, wired together per the configuration.
package rest

import (
	"log/slog"
	"net/http"
	"sync"

	meal "github.com/larcherlucas/meal"
	"github.com/larcherlucas/meal/guard"
	"github.com/larcherlucas/meal/metrics"
	"github.com/larcherlucas/meal/notify"
	"github.com/larcherlucas/meal/session"
	"github.com/larcherlucas/meal/store"
	"github.com/larcherlucas/meal/transport"
)

type settings struct {
	storage    meal.Storage
	navigator  meal.Navigator
	logger     *slog.Logger
	httpClient *http.Client
}

// Option configures the assembly.
type Option func(*settings)

// WithStorage sets the host-provided persistent store. Defaults to an
// in-memory store, which means sessions do not survive a restart.
func WithStorage(s meal.Storage) Option {
	return func(o *settings) { o.storage = s }
}

// WithNavigator sets the host application's router. Without one, redirect
// side effects are skipped.
func WithNavigator(n meal.Navigator) Option {
	return func(o *settings) { o.navigator = n }
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *settings) { o.logger = l }
}

// WithHTTPClient overrides the transport's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *settings) { o.httpClient = c }
}

// New builds a fully wired meal client for the API at cfg.BaseURL.
func New(cfg meal.Config, opts ...Option) (*meal.Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := settings{
		storage: newMemStorage(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(&s)
	}

	mt := metrics.New(cfg.MetricsEnabled)

	notifier := notify.New(
		notify.WithMax(cfg.MaxNotifications),
		notify.WithDefaultTTL(cfg.NotificationTTL),
		notify.WithLogger(s.logger),
	)

	var tropts []transport.TransportOption
	if s.httpClient != nil {
		tropts = append(tropts, transport.WithHTTPClient(s.httpClient))
	}
	tropts = append(tropts, transport.WithTransportLogger(s.logger))
	tr := transport.New(cfg.BaseURL, cfg.Timeout, tropts...)

	orch := transport.NewOrchestrator(tr,
		transport.WithRetry(cfg.RetryMaxAttempts, cfg.RetryBaseDelay),
		transport.WithNotifier(notifier),
		transport.WithMetrics(mt),
		transport.WithLogger(s.logger),
	)

	sessions := session.New(orch, s.storage,
		session.WithNotifier(notifier),
		session.WithNavigator(s.navigator),
		session.WithLogger(s.logger),
		session.WithMetrics(mt),
		session.WithTokenDuration(cfg.TokenDuration),
		session.WithRoutes(cfg.Routes.Login, cfg.Routes.Home),
	)

	// The session manager is both the credential source and the 401 handler.
	orch.BindSession(sessions, sessions)

	routeGuard := guard.New(sessions,
		guard.WithNotifier(notifier),
		guard.WithLogger(s.logger),
		guard.WithRoutes(cfg.Routes),
	)

	return meal.NewClient(cfg,
		meal.WithLogger(s.logger),
		meal.WithRequester(orch),
		meal.WithSessionManager(sessions),
		meal.WithRouteGuard(routeGuard),
		meal.WithNotifier(notifier),
		meal.WithMenuService(store.NewMenus(orch)),
		meal.WithRecipeService(store.NewRecipes(orch)),
		meal.WithFavoriteService(store.NewFavorites(orch)),
	)
}

// memStorage is the fallback meal.Storage when the host provides none.
type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (m *memStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memStorage) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}
