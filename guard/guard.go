// Package guard implements the navigation guard: the access decision run
// before every route transition.
package guard

import (
	"context"
	"log/slog"

	meal "github.com/larcherlucas/meal"
)

// Verifier is the slice of the session manager the guard needs.
type Verifier interface {
	HasCredential() bool
	IsVerified() bool
	IsAuthenticated() bool
	IsAdmin() bool
	HasActiveSubscription() bool
	Verify(ctx context.Context) error
}

// Guard evaluates route transitions against the current session. Rules are
// checked in a fixed order; the first matching rule decides.
type Guard struct {
	sessions Verifier
	notifier meal.Notifier
	logger   *slog.Logger
	routes   meal.Routes
}

var _ meal.RouteGuard = (*Guard)(nil)

// Option configures the Guard.
type Option func(*Guard)

// WithNotifier sets the notifier for access-denied messages.
func WithNotifier(n meal.Notifier) Option {
	return func(g *Guard) { g.notifier = n }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithRoutes overrides the redirect targets.
func WithRoutes(r meal.Routes) Option {
	return func(g *Guard) { g.routes = r }
}

// New creates a Guard over the given session view.
func New(sessions Verifier, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		logger:   slog.Default(),
		routes:   meal.DefaultRoutes(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Evaluate implements meal.RouteGuard.
//
// An unverified credential is verified here, synchronously, so that stale
// sessions are caught at the first navigation instead of on the first API
// call. Every deny carries a redirect; a redirect that would point at the
// route being evaluated is collapsed into an allow to prevent loops.
func (g *Guard) Evaluate(ctx context.Context, to meal.Route) meal.Decision {
	decision := g.evaluate(ctx, to)
	if !decision.Allowed && decision.Redirect != nil && decision.Redirect.Path == to.Path {
		return meal.Allow()
	}
	if !decision.Allowed {
		g.logger.Debug("navigation denied",
			"path", to.Path,
			"redirect", decision.Redirect.Path,
			"reason", decision.Reason)
	}
	return decision
}

func (g *Guard) evaluate(ctx context.Context, to meal.Route) meal.Decision {
	if to.Meta.Public && !g.isEntryRoute(to.Path) {
		return meal.Allow()
	}

	if g.sessions.HasCredential() && !g.sessions.IsVerified() {
		if err := g.sessions.Verify(ctx); err != nil {
			// Verify already cleared the session.
			return meal.RedirectTo(g.routes.Login, map[string]string{"session": "expired"}, "session expired")
		}
	}

	if to.Meta.RequiresAuth && !g.sessions.IsAuthenticated() {
		query := map[string]string{}
		if to.FullPath != "" {
			query["redirect"] = to.FullPath
		} else {
			query["redirect"] = to.Path
		}
		return meal.RedirectTo(g.routes.Login, query, "authentication required")
	}

	if to.Meta.RequiresSubscription && !g.sessions.HasActiveSubscription() {
		g.warn("Cette fonctionnalité nécessite un abonnement actif.")
		return meal.RedirectTo(g.routes.Subscription, nil, "subscription required")
	}

	if to.Meta.RequiresAdmin && !g.sessions.IsAdmin() {
		g.deny("Vous n'avez pas accès à cette page.")
		return meal.RedirectTo(g.routes.Home, nil, "admin only")
	}

	if g.isEntryRoute(to.Path) && g.sessions.IsAuthenticated() {
		return meal.RedirectTo(g.routes.Home, nil, "already authenticated")
	}

	return meal.Allow()
}

// isEntryRoute reports whether path is one of the routes an authenticated
// user is bounced away from.
func (g *Guard) isEntryRoute(path string) bool {
	return path == g.routes.Landing || path == g.routes.Login || path == g.routes.Register
}

func (g *Guard) warn(message string) {
	if g.notifier == nil {
		return
	}
	g.notifier.Notify(meal.Notification{Severity: meal.SeverityWarning, Message: message, Dismissible: true})
}

func (g *Guard) deny(message string) {
	if g.notifier == nil {
		return
	}
	g.notifier.Notify(meal.Notification{Severity: meal.SeverityError, Message: message, Dismissible: true})
}
