package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	meal "github.com/larcherlucas/meal"
)

type staticCreds struct {
	token string
	lang  string
}

func (c staticCreds) Token() (string, bool) { return c.token, c.token != "" }
func (c staticCreds) AcceptLanguage() string {
	if c.lang == "" {
		return "fr"
	}
	return c.lang
}

type countingHandler struct {
	calls atomic.Int32
}

func (h *countingHandler) HandleUnauthenticated(ctx context.Context) {
	h.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
}

func TestTransportAttachesHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotLang, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotLang = r.Header.Get("Accept-Language")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	tr := New(srv.URL, time.Second)
	o := NewOrchestrator(tr)
	o.BindSession(staticCreds{token: "tok-123"}, nil)

	ctx := meal.WithRequestID(context.Background(), "req-42")
	if _, err := o.Post(ctx, "/login", map[string]string{"email": "a@b.fr"}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotRequestID != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", gotRequestID)
	}
	if gotLang != "fr" {
		t.Errorf("Accept-Language = %q, want fr", gotLang)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
}

func TestTransportGeneratesRequestID(t *testing.T) {
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	o := NewOrchestrator(New(srv.URL, time.Second))
	if _, err := o.Get(context.Background(), "/menus"); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header was not generated")
	}
}

func TestNetworkFailureClassification(t *testing.T) {
	// Port 1 is never listening.
	o := NewOrchestrator(New("http://127.0.0.1:1", 200*time.Millisecond),
		WithRetry(2, time.Millisecond))

	_, err := o.Get(context.Background(), "/menus")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !meal.IsKind(err, meal.KindNetwork) {
		t.Errorf("kind = %v, want %v", meal.KindOf(err), meal.KindNetwork)
	}
}

func TestRetryBoundOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	o := NewOrchestrator(New(srv.URL, time.Second),
		WithRetry(3, time.Millisecond))

	_, err := o.Get(context.Background(), "/menus")
	if err == nil {
		t.Fatal("expected an error after retries exhausted")
	}
	if !meal.IsKind(err, meal.KindServerError) {
		t.Errorf("kind = %v, want %v", meal.KindOf(err), meal.KindServerError)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOrchestrator(New(srv.URL, time.Second),
		WithRetry(3, time.Millisecond))

	_, err := o.Get(context.Background(), "/menus/9")
	if !meal.IsKind(err, meal.KindNotFound) {
		t.Fatalf("kind = %v, want %v", meal.KindOf(err), meal.KindNotFound)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"success","data":{"ok":true}}`))
	}))
	defer srv.Close()

	o := NewOrchestrator(New(srv.URL, time.Second),
		WithRetry(3, time.Millisecond))

	env, err := o.Get(context.Background(), "/menus")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if env.Empty() {
		t.Error("expected a payload after successful retry")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestUnauthenticatedTriggersHandlerOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	handler := &countingHandler{}
	o := NewOrchestrator(New(srv.URL, time.Second),
		WithRetry(1, time.Millisecond))
	o.BindSession(staticCreds{token: "stale"}, handler)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = o.Get(context.Background(), "/menus")
		}()
	}
	wg.Wait()

	if got := handler.calls.Load(); got != 1 {
		t.Errorf("HandleUnauthenticated calls = %d, want 1", got)
	}
}

func TestUnauthenticatedOnLogoutPathIsIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	handler := &countingHandler{}
	o := NewOrchestrator(New(srv.URL, time.Second),
		WithRetry(1, time.Millisecond))
	o.BindSession(staticCreds{token: "stale"}, handler)

	_, err := o.Post(context.Background(), "/logout", nil)
	if !meal.IsKind(err, meal.KindUnauthenticated) {
		t.Fatalf("kind = %v, want %v", meal.KindOf(err), meal.KindUnauthenticated)
	}
	if got := handler.calls.Load(); got != 0 {
		t.Errorf("HandleUnauthenticated calls = %d, want 0", got)
	}
}

func TestAbsenceIsNormalConverts404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOrchestrator(New(srv.URL, time.Second))

	env, err := o.Get(context.Background(), "/menus/active", meal.WithAbsenceNormal())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !env.Empty() {
		t.Error("expected an empty success envelope")
	}
}
