// Package fake provides in-memory doubles of the host-environment
// interfaces for tests: storage, navigator and notifier. They are
// thread-safe and record every interaction for assertions.
package fake

import (
	"strconv"
	"sync"

	meal "github.com/larcherlucas/meal"
)

// Storage is an in-memory meal.Storage.
type Storage struct {
	mu   sync.Mutex
	data map[string]string
}

var _ meal.Storage = (*Storage)(nil)

// StorageOption pre-populates the fake.
type StorageOption func(*Storage)

// WithEntry seeds a key/value pair.
func WithEntry(key, value string) StorageOption {
	return func(s *Storage) { s.data[key] = value }
}

// NewStorage creates an empty in-memory storage.
func NewStorage(opts ...StorageOption) *Storage {
	s := &Storage{data: make(map[string]string)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Storage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Storage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *Storage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Navigator is an in-memory meal.Navigator recording every navigation.
type Navigator struct {
	mu      sync.Mutex
	current meal.Route
	history []meal.Location
}

var _ meal.Navigator = (*Navigator)(nil)

// NewNavigator creates a Navigator positioned on the given route.
func NewNavigator(current meal.Route) *Navigator {
	return &Navigator{current: current}
}

func (n *Navigator) Current() meal.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) Navigate(to meal.Location) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, to)
	n.current = meal.Route{Path: to.Path, FullPath: to.Path, Query: to.Query}
	return nil
}

// SetCurrent repositions the navigator without recording a navigation.
func (n *Navigator) SetCurrent(r meal.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = r
}

// History returns a copy of all recorded navigations.
func (n *Navigator) History() []meal.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]meal.Location, len(n.history))
	copy(out, n.history)
	return out
}

// Notifier is an in-memory meal.Notifier recording every notification.
type Notifier struct {
	mu    sync.Mutex
	items []meal.Notification
	next  int
}

var _ meal.Notifier = (*Notifier)(nil)

// NewNotifier creates an empty recording notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(notification meal.Notification) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	notification.ID = "fake-" + strconv.Itoa(n.next)
	n.items = append(n.items, notification)
	return notification.ID
}

func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

// All returns a copy of every recorded notification.
func (n *Notifier) All() []meal.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]meal.Notification, len(n.items))
	copy(out, n.items)
	return out
}

// CountBySeverity returns how many recorded notifications carry sev.
func (n *Notifier) CountBySeverity(sev meal.Severity) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, item := range n.items {
		if item.Severity == sev {
			count++
		}
	}
	return count
}
