package meal

import (
	"testing"
	"time"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MEAL_API_URL", "https://api.example.fr/v1")
	t.Setenv("MEAL_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("MEAL_ROUTE_HOME", "/dashboard")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.BaseURL != "https://api.example.fr/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d, want 5", cfg.RetryMaxAttempts)
	}
	if cfg.Routes.Home != "/dashboard" {
		t.Errorf("Routes.Home = %q, want /dashboard", cfg.Routes.Home)
	}
	if cfg.Routes.Login != "/auth/login" {
		t.Errorf("Routes.Login = %q, want the default", cfg.Routes.Login)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
}

func TestConfigFromEnvRequiresBaseURL(t *testing.T) {
	t.Setenv("MEAL_API_URL", "")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("expected an error for a missing MEAL_API_URL")
	}
}

func TestValidateRejectsZeroAttempts(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.fr", RetryMaxAttempts: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for negative RetryMaxAttempts")
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.fr"}.WithDefaults()
	if cfg.NotificationTTL != 5*time.Second {
		t.Errorf("NotificationTTL = %v, want 5s", cfg.NotificationTTL)
	}
	if cfg.MaxNotifications != 5 {
		t.Errorf("MaxNotifications = %d, want 5", cfg.MaxNotifications)
	}
	if cfg.Routes != DefaultRoutes() {
		t.Errorf("Routes = %+v, want defaults", cfg.Routes)
	}
}
