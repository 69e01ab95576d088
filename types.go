package meal

import (
	"encoding/json"
	"time"
)

// Role is the access level assigned to a user account.
type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// SubscriptionStatus is the server-side state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionPending   SubscriptionStatus = "pending"
)

// Subscription summarizes a user's plan as reported by the backend.
type Subscription struct {
	PlanType  *string            `json:"type"`
	IsActive  bool               `json:"isActive"`
	Status    SubscriptionStatus `json:"status"`
	StartDate *string            `json:"startDate,omitempty"`
	EndDate   *string            `json:"endDate,omitempty"`
}

// HouseholdComposition describes who the menus are planned for.
type HouseholdComposition struct {
	Adults         int `json:"adults"`
	ChildrenOver3  int `json:"children_over_3"`
	ChildrenUnder3 int `json:"children_under_3"`
	Babies         int `json:"babies"`
}

// Preferences holds per-user display settings.
type Preferences struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

// DefaultPreferences returns the preferences applied when a user has none.
func DefaultPreferences() Preferences {
	return Preferences{Language: "fr", Theme: "light"}
}

// User is the cached identity of the authenticated account.
type User struct {
	ID               string                `json:"id"`
	Email            string                `json:"email"`
	Username         string                `json:"username"`
	Role             Role                  `json:"role"`
	HouseholdMembers *HouseholdComposition `json:"household_members,omitempty"`
	Subscription     *Subscription         `json:"subscription,omitempty"`
	Preferences      *Preferences          `json:"preferences,omitempty"`
}

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// RememberMe persists the email locally so the login form can
	// pre-fill it next time. Never sent to the server.
	RememberMe bool `json:"-"`
}

// SignupData is the account creation payload.
type SignupData struct {
	Username         string                `json:"username" validate:"required,min=3"`
	Email            string                `json:"email" validate:"required,email"`
	Password         string                `json:"password" validate:"required,min=8"`
	ConfirmPassword  string                `json:"confirmPassword" validate:"required"`
	HouseholdMembers *HouseholdComposition `json:"household_members,omitempty"`
	Preferences      *Preferences          `json:"preferences,omitempty"`
}

// ProfileUpdate is a partial identity update. Nil fields are left untouched.
type ProfileUpdate struct {
	Username         *string               `json:"username,omitempty"`
	Email            *string               `json:"email,omitempty"`
	HouseholdMembers *HouseholdComposition `json:"household_members,omitempty"`
	Preferences      *Preferences          `json:"preferences,omitempty"`
}

// AuthResponse is the wire shape returned by /login, /signup and /verify-token.
// ExpiresIn is in milliseconds; when zero the client falls back to the token's
// exp claim, then to the configured default duration.
type AuthResponse struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// Envelope is the canonical shape every successful response is reduced to
// before reaching callers. Backend endpoints disagree on their payload
// layout; the transport normalizer folds them all into this.
type Envelope struct {
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data,omitempty"`
	TotalCount *int            `json:"totalCount,omitempty"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
}

// Decode unmarshals the envelope payload into v. A missing or null payload
// leaves v untouched and returns nil.
func (e *Envelope) Decode(v any) error {
	if e == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Empty reports whether the envelope carries no payload, e.g. an
// absence-is-normal 404 converted to a successful empty result.
func (e *Envelope) Empty() bool {
	return e == nil || len(e.Data) == 0 || string(e.Data) == "null"
}

// Severity classifies a notification for display purposes.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// TTLSticky keeps a notification on screen until explicitly dismissed.
const TTLSticky = time.Duration(-1)

// Notification is a user-facing message record. A zero TTL applies the
// notifier's default; TTLSticky disables auto-dismissal.
type Notification struct {
	ID          string        `json:"id"`
	Severity    Severity      `json:"severity"`
	Message     string        `json:"message"`
	TTL         time.Duration `json:"-"`
	Dismissible bool          `json:"dismissible"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// RouteMeta carries the access requirements attached to a route definition.
type RouteMeta struct {
	Public               bool
	RequiresAuth         bool
	RequiresSubscription bool
	RequiresAdmin        bool
}

// Route describes a navigation target as seen by the guard.
type Route struct {
	Name     string
	Path     string
	FullPath string
	Query    map[string]string
	Meta     RouteMeta
}

// Location is a navigation destination produced by the guard or the session
// manager's redirect side effects.
type Location struct {
	Path  string
	Query map[string]string
}

// Decision is the guard's verdict for a route transition.
type Decision struct {
	Allowed  bool
	Redirect *Location
	Reason   string
}

// Allow is the unconditional positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// RedirectTo builds a deny decision pointing at path.
func RedirectTo(path string, query map[string]string, reason string) Decision {
	return Decision{Redirect: &Location{Path: path, Query: query}, Reason: reason}
}

// Menu is a planned week of recipes.
type Menu struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Recipes   []int  `json:"recipes"`
}

// MenuInput is the create/update payload for menus.
type MenuInput struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Recipes   []int  `json:"recipes"`
}

// Recipe is a cooking recipe record.
type Recipe struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PrepTime    int      `json:"prepTime,omitempty"`
	Servings    int      `json:"servings,omitempty"`
	Season      string   `json:"season,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// RecipeInput is the create/update payload for recipes.
type RecipeInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PrepTime    int      `json:"prepTime,omitempty"`
	Servings    int      `json:"servings,omitempty"`
	Season      string   `json:"season,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Favorite links a user to a bookmarked recipe.
type Favorite struct {
	RecipeID int    `json:"recipe_id"`
	AddedAt  string `json:"addedAt,omitempty"`
}

// RequestOptions tunes how the orchestrator treats a single call.
type RequestOptions struct {
	// AbsenceIsNormal converts a 404 into a successful empty envelope
	// instead of an error, for endpoints where absence is a valid outcome
	// (e.g. no active menu yet).
	AbsenceIsNormal bool
}

// RequestOption configures RequestOptions.
type RequestOption func(*RequestOptions)

// WithAbsenceNormal marks the call's 404 as a normal empty result.
func WithAbsenceNormal() RequestOption {
	return func(o *RequestOptions) { o.AbsenceIsNormal = true }
}

// BuildRequestOptions folds opts into a RequestOptions value.
func BuildRequestOptions(opts ...RequestOption) RequestOptions {
	var o RequestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
