package meal

import (
	"context"
	"log/slog"
	"testing"
)

type stubRequester struct{}

func (stubRequester) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Envelope, error) {
	return &Envelope{Status: "success"}, nil
}

func TestNewClientAppliesDefaults(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://api.example.fr"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	cfg := c.Config()
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.Routes.Login != "/auth/login" {
		t.Errorf("Routes.Login = %q", cfg.Routes.Login)
	}
	if cfg.TokenDuration.Hours() != 2 {
		t.Errorf("TokenDuration = %v, want 2h", cfg.TokenDuration)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected an error for a missing BaseURL")
	}
}

func TestNewClientOptions(t *testing.T) {
	api := stubRequester{}
	c, err := NewClient(Config{BaseURL: "https://api.example.fr"},
		WithLogger(slog.Default()),
		WithRequester(api),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.API() == nil {
		t.Error("API() = nil, want the injected requester")
	}
	if c.Sessions() != nil {
		t.Error("Sessions() should be nil when not injected")
	}
}

func TestCloseWithoutServices(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://api.example.fr"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
