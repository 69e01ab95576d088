package meal

import "context"

// SessionManager is the single source of truth for who is logged in and with
// what rights. All session mutations go through it; other components only
// read through its accessors.
// Implementation: session/.
type SessionManager interface {
	// Initialize loads any persisted credential at process start. A locally
	// expired credential is cleared without a network call; a live one is
	// verified against the server. Safe to call more than once; concurrent
	// calls collapse into a single in-flight initialization.
	Initialize(ctx context.Context) error

	// Login authenticates with email and password. On success the session
	// holds the credential, the identity and a computed expiry.
	Login(ctx context.Context, creds Credentials) error

	// Signup creates an account and, on success, behaves like Login.
	// Password/confirmation mismatch fails before any network call.
	Signup(ctx context.Context, data SignupData) error

	// Verify round-trips the current credential against the server and
	// refreshes the cached identity. A missing credential is a no-op
	// success. Any failure clears the session locally. Overlapping calls
	// share one network call.
	Verify(ctx context.Context) error

	// Logout clears the session. When callAPI is set and a credential
	// exists, the server logout endpoint is called best-effort first; its
	// failure never prevents local invalidation. Idempotent; concurrent
	// calls collapse into one execution.
	Logout(ctx context.Context, callAPI bool) error

	// UpdateProfile merges a partial identity update after a successful
	// server call. Fails with KindUnauthenticated when no session is active.
	UpdateProfile(ctx context.Context, update ProfileUpdate) error

	// UpdatePreferences and UpdateHousehold are convenience wrappers over
	// UpdateProfile.
	UpdatePreferences(ctx context.Context, prefs Preferences) error
	UpdateHousehold(ctx context.Context, household HouseholdComposition) error

	// SyncSubscription refreshes the cached subscription summary from the
	// server. Overlapping calls are dropped rather than queued.
	SyncSubscription(ctx context.Context) error

	// CurrentUser returns a copy of the cached identity, or nil.
	CurrentUser() *User

	// Token returns the current credential, if any.
	Token() (string, bool)

	HasCredential() bool
	IsVerified() bool
	IsAuthenticated() bool
	IsAdmin() bool
	HasActiveSubscription() bool

	// Preferences returns the user's preferences, falling back to
	// DefaultPreferences when absent.
	Preferences() Preferences
}

// Requester is the single choke point for outbound calls: it attaches the
// current credential and a request ID, normalizes responses into the
// canonical Envelope, classifies failures and applies the bounded retry
// policy.
// Implementation: transport/.
type Requester interface {
	Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Envelope, error)
}

// RouteGuard decides whether a route transition is allowed for the current
// session, and where to redirect otherwise.
// Implementation: guard/.
type RouteGuard interface {
	Evaluate(ctx context.Context, to Route) Decision
}

// Notifier displays user-facing outcome messages.
// Implementation: notify/.
type Notifier interface {
	// Notify records the notification and returns its ID.
	Notify(n Notification) string

	// Dismiss removes a notification by ID. Unknown IDs are ignored.
	Dismiss(id string)
}

// Storage is the client-local key/value store holding the persisted
// credential and identity snapshot. Browser hosts back it with
// localStorage; tests use fake.Storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Navigator abstracts the host application's router. The guard and the
// session manager use it for redirect side effects.
type Navigator interface {
	Current() Route
	Navigate(to Location) error
}

// MenuService is a pass-through over the menu endpoints. Active treats a
// 404 as "no active menu yet" and returns nil without error.
type MenuService interface {
	List(ctx context.Context) ([]Menu, int, error)
	Active(ctx context.Context) (*Menu, error)
	Get(ctx context.Context, id int) (*Menu, error)
	Create(ctx context.Context, input MenuInput) (*Menu, error)
	Update(ctx context.Context, id int, input MenuInput) (*Menu, error)
	Delete(ctx context.Context, id int) error
}

// RecipeService is a pass-through over the recipe endpoints.
type RecipeService interface {
	List(ctx context.Context) ([]Recipe, int, error)
	Get(ctx context.Context, id int) (*Recipe, error)
	Create(ctx context.Context, input RecipeInput) (*Recipe, error)
	Update(ctx context.Context, id int, input RecipeInput) (*Recipe, error)
	Delete(ctx context.Context, id int) error
}

// FavoriteService is a pass-through over the favorites endpoints.
type FavoriteService interface {
	List(ctx context.Context) ([]Favorite, error)
	Check(ctx context.Context, recipeID int) (bool, error)
	Add(ctx context.Context, recipeID int) error
	Remove(ctx context.Context, recipeID int) error
}
