// Package session owns the authenticated state of the meal client: the
// bearer credential, its client-estimated expiry, the cached identity and
// the derived access flags. Everything else reads this state through
// accessors; nothing mutates it from outside.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	meal "github.com/larcherlucas/meal"
	"github.com/larcherlucas/meal/metrics"
	"github.com/larcherlucas/meal/transport"
)

// Persisted state keys. user_data is advisory only: it pre-fills the UI but
// authorization decisions wait for a fresh verification.
const (
	storageKeyToken           = "auth_token"
	storageKeyExpiry          = "token_expiry"
	storageKeyUser            = "user_data"
	storageKeyRememberedEmail = "remembered_email"
)

// Manager implements meal.SessionManager. It also feeds the transport
// layer: it is the CredentialSource for outgoing headers and the
// AuthErrorHandler invoked on 401 classification.
type Manager struct {
	api      meal.Requester
	storage  meal.Storage
	notifier meal.Notifier
	nav      meal.Navigator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	clock    func() time.Time

	tokenDuration time.Duration
	loginRoute    string
	homeRoute     string

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	user        *meal.User
	verified    bool
	initialized bool

	// Initialization, verification and logout are single-flight: overlapping
	// invocations share one in-flight execution and its result.
	sf singleflight.Group

	syncingSubscription atomic.Bool
	signupAttempts      atomic.Int32
}

var (
	_ meal.SessionManager        = (*Manager)(nil)
	_ transport.CredentialSource = (*Manager)(nil)
	_ transport.AuthErrorHandler = (*Manager)(nil)
)

// Option configures the Manager.
type Option func(*Manager)

// WithNotifier sets the notifier for success/outcome messages.
func WithNotifier(n meal.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithNavigator sets the navigator used for redirect side effects.
func WithNavigator(nav meal.Navigator) Option {
	return func(m *Manager) { m.nav = nav }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithTokenDuration sets the fallback credential lifetime.
func WithTokenDuration(d time.Duration) Option {
	return func(m *Manager) { m.tokenDuration = d }
}

// WithRoutes sets the login and post-login home routes.
func WithRoutes(login, home string) Option {
	return func(m *Manager) {
		m.loginRoute = login
		m.homeRoute = home
	}
}

// WithClock overrides the time source, for expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// New creates a Manager over the given orchestrator and storage.
func New(api meal.Requester, storage meal.Storage, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		storage:       storage,
		logger:        slog.Default(),
		metrics:       metrics.New(false),
		validate:      validator.New(),
		clock:         time.Now,
		tokenDuration: 2 * time.Hour,
		loginRoute:    "/auth/login",
		homeRoute:     "/home",
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize implements meal.SessionManager.
func (m *Manager) Initialize(ctx context.Context) error {
	_, err, _ := m.sf.Do("initialize", func() (any, error) {
		return nil, m.initialize(ctx)
	})
	return err
}

func (m *Manager) initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = true

	token, ok := m.storage.Get(storageKeyToken)
	if !ok || token == "" {
		m.mu.Unlock()
		m.logger.Debug("no persisted credential; session starts empty")
		return nil
	}
	m.token = token

	if raw, ok := m.storage.Get(storageKeyExpiry); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			m.tokenExpiry = time.UnixMilli(ms)
		}
	}
	if raw, ok := m.storage.Get(storageKeyUser); ok {
		var u meal.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			m.logger.Warn("persisted identity snapshot is corrupt; clearing session", "error", err)
			m.mu.Unlock()
			m.reset()
			return nil
		}
		m.user = &u
	}

	expired := !m.tokenExpiry.IsZero() && m.clock().After(m.tokenExpiry)
	m.mu.Unlock()

	if expired {
		// Locally expired: clear without a network call.
		m.logger.Warn("persisted credential expired locally; clearing session")
		m.reset()
		return nil
	}

	if err := m.Verify(ctx); err != nil {
		// Verify already cleared the session; initialization itself is done.
		m.logger.Warn("credential verification failed during initialization", "error", err)
	}
	return nil
}

// Login implements meal.SessionManager.
func (m *Manager) Login(ctx context.Context, creds meal.Credentials) error {
	if err := m.validate.Struct(creds); err != nil {
		return m.notifyLocalError(meal.NewError(meal.KindValidationFailed, "Veuillez vérifier les informations saisies.").
			WithFieldErrors(fieldErrors(err)).WithCause(err))
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.RememberMe {
		m.storage.Set(storageKeyRememberedEmail, email)
	} else {
		m.storage.Delete(storageKeyRememberedEmail)
	}

	payload := meal.Credentials{Email: email, Password: creds.Password}
	env, err := m.api.Do(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		m.metrics.RecordAuthEvent("login", "failure")
		if e, ok := meal.AsError(err); ok {
			switch e.Kind {
			case meal.KindUnauthenticated:
				return meal.NewError(meal.KindInvalidCredentials, "Email ou mot de passe incorrect.").WithCause(e)
			case meal.KindForbidden:
				return meal.NewError(meal.KindAccountDisabled, "Ce compte est désactivé.").WithCause(e)
			}
		}
		return fmt.Errorf("meal/session: login: %w", err)
	}

	var auth meal.AuthResponse
	if err := env.Decode(&auth); err != nil {
		return m.notifyLocalError(meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err))
	}
	if auth.Token == "" || auth.User == nil {
		return m.notifyLocalError(meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide"))
	}

	m.saveAuthState(auth)
	m.metrics.RecordAuthEvent("login", "success")
	m.metrics.SetSessionActive(true)
	m.notifySuccess("Connexion réussie. Bienvenue " + auth.User.Username + " !")
	m.redirectAfterLogin()

	if err := m.SyncSubscription(ctx); err != nil {
		m.logger.Debug("subscription sync after login failed", "error", err)
	}
	return nil
}

// Signup implements meal.SessionManager.
func (m *Manager) Signup(ctx context.Context, data meal.SignupData) error {
	attempt := m.signupAttempts.Add(1)

	// Fail fast, before any network call.
	if data.Password != data.ConfirmPassword {
		return m.notifyLocalError(meal.NewError(meal.KindPasswordMismatch, "Les mots de passe ne correspondent pas.").
			WithFieldErrors(map[string]string{"confirmPassword": "Les mots de passe ne correspondent pas."}))
	}
	if err := m.validate.Struct(data); err != nil {
		return m.notifyLocalError(meal.NewError(meal.KindValidationFailed, "Veuillez corriger les erreurs dans le formulaire.").
			WithFieldErrors(fieldErrors(err)).WithCause(err))
	}

	payload := data
	payload.Email = strings.ToLower(strings.TrimSpace(data.Email))
	if payload.Preferences == nil {
		prefs := meal.DefaultPreferences()
		payload.Preferences = &prefs
	}

	env, err := m.api.Do(ctx, http.MethodPost, "/signup", payload)
	if err != nil {
		m.metrics.RecordAuthEvent("signup", "failure")
		return fmt.Errorf("meal/session: signup: %w", err)
	}

	var auth meal.AuthResponse
	if err := env.Decode(&auth); err != nil {
		return m.notifyLocalError(meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err))
	}
	if auth.Token == "" || auth.User == nil {
		return m.notifyLocalError(meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide"))
	}

	m.saveAuthState(auth)
	m.metrics.RecordAuthEvent("signup", "success")
	m.metrics.SetSessionActive(true)
	m.notifySuccess("Votre compte a été créé avec succès ! Bienvenue sur Menu Planner.")
	if attempt > 1 {
		m.logger.Info("signup succeeded after multiple attempts", "attempts", attempt)
	}
	m.navigateTo(meal.Location{Path: m.homeRoute})

	if err := m.SyncSubscription(ctx); err != nil {
		m.logger.Debug("subscription sync after signup failed", "error", err)
	}
	return nil
}

// Verify implements meal.SessionManager.
func (m *Manager) Verify(ctx context.Context) error {
	_, err, _ := m.sf.Do("verify", func() (any, error) {
		return nil, m.verify(ctx)
	})
	return err
}

func (m *Manager) verify(ctx context.Context) error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token == "" {
		return nil
	}

	env, err := m.api.Do(ctx, http.MethodPost, "/verify-token", nil)
	if err != nil {
		m.metrics.RecordAuthEvent("verify", "failure")
		m.logger.Warn("token verification failed; clearing session", "error", err)
		_ = m.Logout(ctx, false)
		return fmt.Errorf("meal/session: verify: %w", err)
	}

	var payload struct {
		User *meal.User `json:"user"`
	}
	if err := env.Decode(&payload); err != nil || payload.User == nil {
		m.metrics.RecordAuthEvent("verify", "failure")
		_ = m.Logout(ctx, false)
		return meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err)
	}

	m.mu.Lock()
	m.user = payload.User
	m.verified = true
	m.mu.Unlock()
	m.persistUser()

	m.metrics.RecordAuthEvent("verify", "success")
	if err := m.SyncSubscription(ctx); err != nil {
		m.logger.Debug("subscription sync after verify failed", "error", err)
	}
	return nil
}

// Logout implements meal.SessionManager.
func (m *Manager) Logout(ctx context.Context, callAPI bool) error {
	_, err, _ := m.sf.Do("logout", func() (any, error) {
		return nil, m.logout(ctx, callAPI)
	})
	return err
}

func (m *Manager) logout(ctx context.Context, callAPI bool) error {
	m.mu.RLock()
	hasToken := m.token != ""
	m.mu.RUnlock()

	if callAPI && hasToken {
		// Best effort: a failed server call never prevents local invalidation.
		if _, err := m.api.Do(ctx, http.MethodPost, "/logout", nil); err != nil {
			m.logger.Warn("logout API call failed; clearing local session anyway", "error", err)
		}
	}

	m.reset()
	m.metrics.SetSessionActive(false)
	m.metrics.RecordAuthEvent("logout", "success")

	if callAPI {
		m.notifySuccess("Déconnexion réussie. À bientôt !")
		if m.nav != nil && m.nav.Current().Meta.RequiresAuth {
			m.navigateTo(meal.Location{Path: m.loginRoute})
		}
	}
	return nil
}

// HandleUnauthenticated implements transport.AuthErrorHandler: local
// invalidation plus redirect to login carrying the interrupted path, unless
// the user is already on the login route.
func (m *Manager) HandleUnauthenticated(ctx context.Context) {
	_ = m.Logout(ctx, false)
	if m.nav == nil {
		return
	}
	cur := m.nav.Current()
	if cur.Path == m.loginRoute {
		return
	}
	query := map[string]string{}
	if cur.FullPath != "" {
		query["redirect"] = cur.FullPath
	} else if cur.Path != "" {
		query["redirect"] = cur.Path
	}
	m.navigateTo(meal.Location{Path: m.loginRoute, Query: query})
}

// UpdateProfile implements meal.SessionManager.
func (m *Manager) UpdateProfile(ctx context.Context, update meal.ProfileUpdate) error {
	if !m.IsAuthenticated() {
		return m.notifyLocalError(meal.NewError(meal.KindUnauthenticated, "Aucune session active."))
	}

	env, err := m.api.Do(ctx, http.MethodPatch, "/profile", update)
	if err != nil {
		return fmt.Errorf("meal/session: profile update: %w", err)
	}

	var updated meal.User
	if err := env.Decode(&updated); err != nil {
		return meal.NewError(meal.KindInvalidServerResponse, "Réponse du serveur invalide").WithCause(err)
	}

	m.mu.Lock()
	if updated.ID != "" {
		m.user = &updated
	} else {
		mergeProfile(m.user, update)
	}
	m.mu.Unlock()
	m.persistUser()

	m.notifySuccess("Profil mis à jour. Vos informations ont été enregistrées.")
	return nil
}

// UpdatePreferences implements meal.SessionManager.
func (m *Manager) UpdatePreferences(ctx context.Context, prefs meal.Preferences) error {
	return m.UpdateProfile(ctx, meal.ProfileUpdate{Preferences: &prefs})
}

// UpdateHousehold implements meal.SessionManager.
func (m *Manager) UpdateHousehold(ctx context.Context, household meal.HouseholdComposition) error {
	return m.UpdateProfile(ctx, meal.ProfileUpdate{HouseholdMembers: &household})
}

// SyncSubscription implements meal.SessionManager. Overlapping calls are
// dropped: the first in-flight sync wins.
func (m *Manager) SyncSubscription(ctx context.Context) error {
	if !m.syncingSubscription.CompareAndSwap(false, true) {
		return nil
	}
	defer m.syncingSubscription.Store(false)

	if !m.IsAuthenticated() {
		return nil
	}

	env, err := m.api.Do(ctx, http.MethodGet, "/subscription/status", nil)
	if err != nil {
		// Offline fallback: recompute validity from the cached summary.
		m.mu.Lock()
		if m.user != nil && m.user.Subscription != nil {
			m.user.Subscription.IsActive = m.subscriptionStillValid(m.user)
		}
		m.mu.Unlock()
		m.persistUser()
		return fmt.Errorf("meal/session: subscription sync: %w", err)
	}

	var payload struct {
		Subscription *meal.Subscription `json:"subscription"`
	}
	if err := env.Decode(&payload); err != nil || payload.Subscription == nil {
		return nil
	}

	m.mu.Lock()
	if m.user != nil {
		m.user.Subscription = payload.Subscription
		m.user.Subscription.IsActive = payload.Subscription.Status == meal.SubscriptionActive ||
			m.user.Role == meal.RolePremium || m.user.Role == meal.RoleAdmin
	}
	m.mu.Unlock()
	m.persistUser()
	return nil
}

// --- Accessors ---

// CurrentUser returns a copy of the cached identity, or nil.
func (m *Manager) CurrentUser() *meal.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token implements meal.SessionManager and transport.CredentialSource.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// AcceptLanguage implements transport.CredentialSource.
func (m *Manager) AcceptLanguage() string {
	return m.Preferences().Language
}

// HasCredential reports whether a credential is held, verified or not.
func (m *Manager) HasCredential() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// IsVerified reports whether the credential survived a server round-trip
// since it was last set.
func (m *Manager) IsVerified() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.verified
}

// IsAuthenticated reports whether both a credential and an identity are
// held. Verification is tracked separately and consumed by the guard.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// IsAdmin reports whether the cached identity has the admin role.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Role == meal.RoleAdmin
}

// HasActiveSubscription reports whether the user can reach
// subscription-gated features: an active subscription, or the premium or
// admin role.
func (m *Manager) HasActiveSubscription() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return false
	}
	if m.user.Role == meal.RolePremium || m.user.Role == meal.RoleAdmin {
		return true
	}
	if m.user.Subscription == nil {
		return false
	}
	return m.user.Subscription.IsActive || m.user.Subscription.Status == meal.SubscriptionActive
}

// Preferences returns the user's preferences, with defaults when absent.
func (m *Manager) Preferences() meal.Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user != nil && m.user.Preferences != nil {
		return *m.user.Preferences
	}
	return meal.DefaultPreferences()
}

// RememberedEmail returns the email persisted by a RememberMe login.
func (m *Manager) RememberedEmail() (string, bool) {
	return m.storage.Get(storageKeyRememberedEmail)
}

// --- Internal state handling ---

func (m *Manager) saveAuthState(auth meal.AuthResponse) {
	expiry := m.computeExpiry(auth)

	m.mu.Lock()
	m.token = auth.Token
	m.user = auth.User
	m.tokenExpiry = expiry
	m.verified = true
	if m.user.Subscription != nil && m.user.Subscription.Status == meal.SubscriptionActive {
		m.user.Subscription.IsActive = true
	}
	m.mu.Unlock()

	m.storage.Set(storageKeyToken, auth.Token)
	m.storage.Set(storageKeyExpiry, strconv.FormatInt(expiry.UnixMilli(), 10))
	m.persistUser()
}

func (m *Manager) computeExpiry(auth meal.AuthResponse) time.Time {
	now := m.clock()
	if auth.ExpiresIn > 0 {
		return now.Add(time.Duration(auth.ExpiresIn) * time.Millisecond)
	}
	if exp, ok := tokenExpiryClaim(auth.Token); ok {
		return exp
	}
	return now.Add(m.tokenDuration)
}

// tokenExpiryClaim extracts the exp claim when the credential happens to be
// a JWT. The signature is the server's concern; only the timestamp is read.
func tokenExpiryClaim(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (m *Manager) reset() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.tokenExpiry = time.Time{}
	m.verified = false
	m.mu.Unlock()

	m.storage.Delete(storageKeyToken)
	m.storage.Delete(storageKeyExpiry)
	m.storage.Delete(storageKeyUser)
}

func (m *Manager) persistUser() {
	m.mu.RLock()
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		m.logger.Warn("failed to persist identity snapshot", "error", err)
		return
	}
	m.storage.Set(storageKeyUser, string(raw))
}

func (m *Manager) subscriptionStillValid(user *meal.User) bool {
	if user.Role == meal.RolePremium || user.Role == meal.RoleAdmin {
		return true
	}
	sub := user.Subscription
	if sub == nil {
		return false
	}
	if sub.EndDate != nil {
		if end, err := time.Parse(time.RFC3339, *sub.EndDate); err == nil {
			return end.After(m.clock())
		}
	}
	return sub.Status == meal.SubscriptionActive
}

func (m *Manager) redirectAfterLogin() {
	if m.nav == nil {
		return
	}
	target := m.homeRoute
	if redirect, ok := m.nav.Current().Query["redirect"]; ok && redirect != "" {
		target = redirect
	}
	m.navigateTo(meal.Location{Path: target})
}

func (m *Manager) navigateTo(loc meal.Location) {
	if m.nav == nil {
		return
	}
	if err := m.nav.Navigate(loc); err != nil {
		m.logger.Warn("navigation failed", "path", loc.Path, "error", err)
	}
}

func (m *Manager) notifySuccess(message string) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(meal.Notification{
		Severity:    meal.SeveritySuccess,
		Message:     message,
		Dismissible: true,
	})
}

// notifyLocalError surfaces failures that never reached the orchestrator
// (local validation, malformed success payloads). Errors coming back from
// the orchestrator are already notified there; notifying them again here
// would produce duplicates.
func (m *Manager) notifyLocalError(e *meal.Error) *meal.Error {
	if m.notifier != nil {
		m.notifier.Notify(meal.Notification{
			Severity:    meal.SeverityError,
			Message:     e.Message,
			Dismissible: true,
		})
	}
	return e
}

func mergeProfile(user *meal.User, update meal.ProfileUpdate) {
	if user == nil {
		return
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.HouseholdMembers != nil {
		user.HouseholdMembers = update.HouseholdMembers
	}
	if update.Preferences != nil {
		user.Preferences = update.Preferences
	}
}

func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est requis."
	case "email":
		return "Adresse email invalide."
	case "min":
		return fmt.Sprintf("Minimum %s caractères.", fe.Param())
	default:
		return "Valeur invalide."
	}
}
