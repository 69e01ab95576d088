// Package meal provides a framework-agnostic client SDK for the
// meal-planning API: credential attachment, response normalization, error
// classification, bounded retry, the session/token lifecycle, navigation
// guarding and user-facing notifications.
//
// The SDK defines interfaces for the session manager, request orchestrator,
// route guard, notifier and the host-supplied storage/navigator. Concrete
// implementations are injected via Option functions; the rest/ package wires
// the full stack against the REST backend:
//
//	client, err := rest.New(cfg,
//	    rest.WithStorage(myStorage),
//	    rest.WithNavigator(myRouter),
//	)
package meal

import (
	"io"
	"log/slog"
)

// Client is the main entry point for meal API operations.
// Service implementations are injected via Option functions.
type Client struct {
	config    Config
	logger    *slog.Logger
	sessions  SessionManager
	api       Requester
	guard     RouteGuard
	notifier  Notifier
	menus     MenuService
	recipes   RecipeService
	favorites FavoriteService
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionManager sets the session lifecycle implementation.
func WithSessionManager(s SessionManager) Option {
	return func(c *Client) { c.sessions = s }
}

// WithRequester sets the request orchestrator implementation.
func WithRequester(r Requester) Option {
	return func(c *Client) { c.api = r }
}

// WithRouteGuard sets the navigation guard implementation.
func WithRouteGuard(g RouteGuard) Option {
	return func(c *Client) { c.guard = g }
}

// WithNotifier sets the notification implementation.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithMenuService sets the menu pass-through implementation.
func WithMenuService(m MenuService) Option {
	return func(c *Client) { c.menus = m }
}

// WithRecipeService sets the recipe pass-through implementation.
func WithRecipeService(r RecipeService) Option {
	return func(c *Client) { c.recipes = r }
}

// WithFavoriteService sets the favorites pass-through implementation.
func WithFavoriteService(f FavoriteService) Option {
	return func(c *Client) { c.favorites = f }
}

// NewClient creates a new client with the given configuration and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Sessions returns the session manager, or nil if not configured.
func (c *Client) Sessions() SessionManager { return c.sessions }

// API returns the request orchestrator, or nil if not configured.
func (c *Client) API() Requester { return c.api }

// Guard returns the navigation guard, or nil if not configured.
func (c *Client) Guard() RouteGuard { return c.guard }

// Notifications returns the notifier, or nil if not configured.
func (c *Client) Notifications() Notifier { return c.notifier }

// Menus returns the menu service, or nil if not configured.
func (c *Client) Menus() MenuService { return c.menus }

// Recipes returns the recipe service, or nil if not configured.
func (c *Client) Recipes() RecipeService { return c.recipes }

// Favorites returns the favorites service, or nil if not configured.
func (c *Client) Favorites() FavoriteService { return c.favorites }

// Close releases all resources held by the client.
// Any injected service that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []any{
		c.sessions, c.api, c.guard,
		c.notifier, c.menus, c.recipes, c.favorites,
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
