package meal

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Routes holds the navigation targets the session manager and guard
// redirect to. Paths are host-application routes, not API paths.
type Routes struct {
	Landing      string `env:"LANDING" envDefault:"/"`
	Home         string `env:"HOME" envDefault:"/home"`
	Login        string `env:"LOGIN" envDefault:"/auth/login"`
	Register     string `env:"REGISTER" envDefault:"/auth/register"`
	Subscription string `env:"SUBSCRIPTION" envDefault:"/subscription"`
}

// DefaultRoutes returns the standard navigation targets.
func DefaultRoutes() Routes {
	return Routes{
		Landing:      "/",
		Home:         "/home",
		Login:        "/auth/login",
		Register:     "/auth/register",
		Subscription: "/subscription",
	}
}

// Config holds connection and behavior configuration for the client.
type Config struct {
	// BaseURL is the address of the meal-planning API. Required.
	BaseURL string `env:"MEAL_API_URL"`

	// Timeout bounds every transport call, independent of retry delays.
	Timeout time.Duration `env:"MEAL_API_TIMEOUT" envDefault:"10s"`

	// TokenDuration is the client-estimated credential lifetime used when
	// the server supplies neither expiresIn nor a token exp claim.
	TokenDuration time.Duration `env:"MEAL_TOKEN_DURATION" envDefault:"2h"`

	// RetryMaxAttempts is the total number of tries for retriable
	// failures: one original call plus RetryMaxAttempts-1 retries.
	RetryMaxAttempts int `env:"MEAL_RETRY_MAX_ATTEMPTS" envDefault:"3"`

	// RetryBaseDelay is the delay before the first retry; the second
	// waits twice as long.
	RetryBaseDelay time.Duration `env:"MEAL_RETRY_BASE_DELAY" envDefault:"1s"`

	// NotificationTTL is the default time-to-live of a notification.
	NotificationTTL time.Duration `env:"MEAL_NOTIFICATION_TTL" envDefault:"5s"`

	// MaxNotifications caps concurrent notifications; inserting beyond it
	// evicts the oldest.
	MaxNotifications int `env:"MEAL_MAX_NOTIFICATIONS" envDefault:"5"`

	// MetricsEnabled registers Prometheus metrics for requests and
	// session events.
	MetricsEnabled bool `env:"MEAL_METRICS_ENABLED" envDefault:"false"`

	Routes Routes `envPrefix:"MEAL_ROUTE_"`
}

// ConfigFromEnv builds a Config from MEAL_* environment variables.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("meal: parsing config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("meal: BaseURL is required (set MEAL_API_URL)")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("meal: RetryMaxAttempts must be at least 1")
	}
	return nil
}

// WithDefaults fills zero fields with the documented defaults, for configs
// built programmatically rather than from the environment.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.TokenDuration == 0 {
		c.TokenDuration = 2 * time.Hour
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.NotificationTTL == 0 {
		c.NotificationTTL = 5 * time.Second
	}
	if c.MaxNotifications == 0 {
		c.MaxNotifications = 5
	}
	if c.Routes.Landing == "" {
		c.Routes.Landing = "/"
	}
	if c.Routes.Home == "" {
		c.Routes.Home = "/home"
	}
	if c.Routes.Login == "" {
		c.Routes.Login = "/auth/login"
	}
	if c.Routes.Register == "" {
		c.Routes.Register = "/auth/register"
	}
	if c.Routes.Subscription == "" {
		c.Routes.Subscription = "/subscription"
	}
	return c
}
