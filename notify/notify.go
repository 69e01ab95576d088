// Package notify implements the user-facing notification center: a bounded
// queue of messages with per-item auto-dismissal.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	meal "github.com/larcherlucas/meal"
)

// Center holds the visible notifications. At most max items are shown;
// adding beyond the cap evicts the oldest. Each non-sticky item dismisses
// itself after its TTL.
type Center struct {
	mu         sync.Mutex
	items      []meal.Notification
	timers     map[string]*time.Timer
	max        int
	defaultTTL time.Duration
	logger     *slog.Logger
}

var _ meal.Notifier = (*Center)(nil)

// Option configures the Center.
type Option func(*Center)

// WithMax caps the number of simultaneously visible notifications.
func WithMax(max int) Option {
	return func(c *Center) {
		if max > 0 {
			c.max = max
		}
	}
}

// WithDefaultTTL sets the auto-dismiss delay applied when a notification
// carries a zero TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Center) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Center) { c.logger = l }
}

// New creates a Center with a cap of 5 and a 5s default TTL.
func New(opts ...Option) *Center {
	c := &Center{
		timers:     make(map[string]*time.Timer),
		max:        5,
		defaultTTL: 5 * time.Second,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Notify implements meal.Notifier. It assigns an ID and a creation time,
// schedules auto-dismissal unless the TTL is TTLSticky, and evicts the
// oldest notification when the cap is exceeded.
func (c *Center) Notify(n meal.Notification) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	if n.TTL == 0 {
		n.TTL = c.defaultTTL
	}

	if len(c.items) >= c.max {
		c.evictOldestLocked()
	}
	c.items = append(c.items, n)

	if n.TTL != meal.TTLSticky {
		id := n.ID
		c.timers[id] = time.AfterFunc(n.TTL, func() { c.Dismiss(id) })
	}

	c.logger.Debug("notification shown", "severity", string(n.Severity), "id", n.ID)
	return n.ID
}

// Dismiss implements meal.Notifier. Unknown IDs are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

// Clear removes every notification and stops their timers.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

// List returns a copy of the visible notifications, oldest first.
func (c *Center) List() []meal.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]meal.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the number of visible notifications.
func (c *Center) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Success shows a dismissible success message.
func (c *Center) Success(message string) string {
	return c.Notify(meal.Notification{Severity: meal.SeveritySuccess, Message: message, Dismissible: true})
}

// Error shows a dismissible error message.
func (c *Center) Error(message string) string {
	return c.Notify(meal.Notification{Severity: meal.SeverityError, Message: message, Dismissible: true})
}

// Warning shows a dismissible warning message.
func (c *Center) Warning(message string) string {
	return c.Notify(meal.Notification{Severity: meal.SeverityWarning, Message: message, Dismissible: true})
}

// Info shows a dismissible informational message.
func (c *Center) Info(message string) string {
	return c.Notify(meal.Notification{Severity: meal.SeverityInfo, Message: message, Dismissible: true})
}

func (c *Center) evictOldestLocked() {
	if len(c.items) == 0 {
		return
	}
	oldest := 0
	for i := 1; i < len(c.items); i++ {
		if c.items[i].CreatedAt.Before(c.items[oldest].CreatedAt) {
			oldest = i
		}
	}
	c.removeLocked(c.items[oldest].ID)
}

func (c *Center) removeLocked(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
