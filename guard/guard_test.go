package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meal "github.com/larcherlucas/meal"
	"github.com/larcherlucas/meal/fake"
)

// sessionState is a scriptable Verifier.
type sessionState struct {
	credential    bool
	verified      bool
	authenticated bool
	admin         bool
	subscribed    bool
	verifyErr     error
	verifyCalls   int
}

func (s *sessionState) HasCredential() bool         { return s.credential }
func (s *sessionState) IsVerified() bool            { return s.verified }
func (s *sessionState) IsAuthenticated() bool       { return s.authenticated }
func (s *sessionState) IsAdmin() bool               { return s.admin }
func (s *sessionState) HasActiveSubscription() bool { return s.subscribed }

func (s *sessionState) Verify(ctx context.Context) error {
	s.verifyCalls++
	if s.verifyErr != nil {
		s.credential = false
		s.authenticated = false
		return s.verifyErr
	}
	s.verified = true
	return nil
}

func TestPublicRouteAlwaysAllowed(t *testing.T) {
	g := New(&sessionState{})

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/about",
		Meta: meal.RouteMeta{Public: true},
	})

	assert.True(t, d.Allowed)
	assert.Nil(t, d.Redirect)
}

func TestUnverifiedCredentialTriggersVerify(t *testing.T) {
	s := &sessionState{credential: true, authenticated: true}
	g := New(s)

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/home",
		Meta: meal.RouteMeta{RequiresAuth: true},
	})

	assert.Equal(t, 1, s.verifyCalls)
	assert.True(t, d.Allowed)
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	s := &sessionState{
		credential:    true,
		authenticated: true,
		verifyErr:     errors.New("token expired"),
	}
	g := New(s)

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/home",
		Meta: meal.RouteMeta{RequiresAuth: true},
	})

	require.False(t, d.Allowed)
	require.NotNil(t, d.Redirect)
	assert.Equal(t, "/auth/login", d.Redirect.Path)
	assert.Equal(t, "expired", d.Redirect.Query["session"])
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	g := New(&sessionState{})

	d := g.Evaluate(context.Background(), meal.Route{
		Path:     "/menus",
		FullPath: "/menus?week=2",
		Meta:     meal.RouteMeta{RequiresAuth: true},
	})

	require.False(t, d.Allowed)
	require.NotNil(t, d.Redirect)
	assert.Equal(t, "/auth/login", d.Redirect.Path)
	assert.Equal(t, "/menus?week=2", d.Redirect.Query["redirect"])
}

func TestSubscriptionGateWarnsAndRedirects(t *testing.T) {
	notifier := fake.NewNotifier()
	g := New(
		&sessionState{credential: true, verified: true, authenticated: true},
		WithNotifier(notifier),
	)

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/menus/generate",
		Meta: meal.RouteMeta{RequiresAuth: true, RequiresSubscription: true},
	})

	require.False(t, d.Allowed)
	require.NotNil(t, d.Redirect)
	assert.Equal(t, "/subscription", d.Redirect.Path)
	assert.Equal(t, 1, notifier.CountBySeverity(meal.SeverityWarning))
}

func TestSubscriptionGatePassesSubscriber(t *testing.T) {
	g := New(&sessionState{credential: true, verified: true, authenticated: true, subscribed: true})

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/menus/generate",
		Meta: meal.RouteMeta{RequiresAuth: true, RequiresSubscription: true},
	})

	assert.True(t, d.Allowed)
}

func TestAdminGate(t *testing.T) {
	notifier := fake.NewNotifier()
	g := New(
		&sessionState{credential: true, verified: true, authenticated: true},
		WithNotifier(notifier),
	)

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/admin",
		Meta: meal.RouteMeta{RequiresAuth: true, RequiresAdmin: true},
	})

	require.False(t, d.Allowed)
	require.NotNil(t, d.Redirect)
	assert.Equal(t, "/home", d.Redirect.Path)
	assert.Equal(t, 1, notifier.CountBySeverity(meal.SeverityError))
}

func TestAuthenticatedUserBouncedFromEntryRoutes(t *testing.T) {
	g := New(&sessionState{credential: true, verified: true, authenticated: true})

	for _, path := range []string{"/", "/auth/login", "/auth/register"} {
		d := g.Evaluate(context.Background(), meal.Route{
			Path: path,
			Meta: meal.RouteMeta{Public: true},
		})
		require.False(t, d.Allowed, "path %s", path)
		require.NotNil(t, d.Redirect, "path %s", path)
		assert.Equal(t, "/home", d.Redirect.Path, "path %s", path)
	}
}

func TestAnonymousUserAllowedOnEntryRoutes(t *testing.T) {
	g := New(&sessionState{})

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/auth/login",
		Meta: meal.RouteMeta{Public: true},
	})

	assert.True(t, d.Allowed)
}

func TestRedirectLoopCollapsesToAllow(t *testing.T) {
	// An anonymous user evaluating the login route itself must never be
	// redirected to the login route.
	g := New(&sessionState{})

	d := g.Evaluate(context.Background(), meal.Route{
		Path: "/auth/login",
		Meta: meal.RouteMeta{RequiresAuth: true},
	})

	assert.True(t, d.Allowed)
}
