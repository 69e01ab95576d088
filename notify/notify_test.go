package notify

import (
	"testing"
	"time"

	meal "github.com/larcherlucas/meal"
)

func TestNotifyAssignsIDAndDefaults(t *testing.T) {
	c := New(WithDefaultTTL(time.Minute))

	id := c.Success("Connexion réussie")
	if id == "" {
		t.Fatal("Notify returned an empty ID")
	}

	items := c.List()
	if len(items) != 1 {
		t.Fatalf("Count = %d, want 1", len(items))
	}
	if items[0].Severity != meal.SeveritySuccess {
		t.Errorf("Severity = %v", items[0].Severity)
	}
	if items[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}
	if !items[0].Dismissible {
		t.Error("shortcut notifications must be dismissible")
	}
}

func TestAutoDismissAfterTTL(t *testing.T) {
	c := New()

	c.Notify(meal.Notification{Severity: meal.SeverityInfo, Message: "vite", TTL: 20 * time.Millisecond})
	if c.Count() != 1 {
		t.Fatalf("Count = %d, want 1", c.Count())
	}

	deadline := time.Now().Add(time.Second)
	for c.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification was not auto-dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStickyNotificationStays(t *testing.T) {
	c := New(WithDefaultTTL(10 * time.Millisecond))

	id := c.Notify(meal.Notification{Severity: meal.SeverityError, Message: "reste", TTL: meal.TTLSticky})
	time.Sleep(50 * time.Millisecond)

	if c.Count() != 1 {
		t.Fatalf("Count = %d, want 1: sticky notification vanished", c.Count())
	}

	c.Dismiss(id)
	if c.Count() != 0 {
		t.Errorf("Count = %d after Dismiss, want 0", c.Count())
	}
}

func TestCapEvictsOldest(t *testing.T) {
	c := New(WithMax(2), WithDefaultTTL(time.Minute))

	first := c.Info("un")
	c.Info("deux")
	c.Info("trois")

	items := c.List()
	if len(items) != 2 {
		t.Fatalf("Count = %d, want 2", len(items))
	}
	for _, n := range items {
		if n.ID == first {
			t.Error("oldest notification was not evicted")
		}
	}
}

func TestDismissUnknownIDIsIgnored(t *testing.T) {
	c := New()
	c.Dismiss("no-such-id")
	if c.Count() != 0 {
		t.Errorf("Count = %d, want 0", c.Count())
	}
}

func TestClear(t *testing.T) {
	c := New(WithDefaultTTL(time.Minute))
	c.Info("a")
	c.Warning("b")

	c.Clear()
	if c.Count() != 0 {
		t.Errorf("Count = %d after Clear, want 0", c.Count())
	}
}
