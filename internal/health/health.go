// Package health tracks the state of the service's external dependencies.
package health

import (
	"sort"
	"sync"
	"time"
)

// Component names reported by the service.
const (
	LLM      = "llm"
	Images   = "images"
	Database = "database"
	Archive  = "archive"
)

// Status is a point-in-time copy of one component's state.
type Status struct {
	Healthy     bool      `json:"healthy"`
	LastCheck   time.Time `json:"last_check"`
	LastSuccess time.Time `json:"last_success"`
	Message     string    `json:"message,omitempty"`
	Failures    int       `json:"consecutive_failures"`
	LastError   error     `json:"-"`
}

// Tracker records component health. It is safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	components map[string]*Status
	now        func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		components: make(map[string]*Status),
		now:        time.Now,
	}
}

func (t *Tracker) entry(component string) *Status {
	s, ok := t.components[component]
	if !ok {
		s = &Status{}
		t.components[component] = s
	}
	return s
}

// SetHealthy marks a component as healthy.
func (t *Tracker) SetHealthy(component, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	s := t.entry(component)
	s.Healthy = true
	s.LastCheck = now
	s.LastSuccess = now
	s.LastError = nil
	s.Failures = 0
	s.Message = message
}

// SetUnhealthy marks a component as unhealthy.
func (t *Tracker) SetUnhealthy(component string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.entry(component)
	s.Healthy = false
	s.LastCheck = t.now()
	s.LastError = err
	s.Failures++
	if err != nil {
		s.Message = err.Error()
	}
}

// Record updates a component from the outcome of a call.
func (t *Tracker) Record(component string, err error) {
	if err != nil {
		t.SetUnhealthy(component, err)
		return
	}
	t.SetHealthy(component, "ok")
}

// Get returns a copy of a component's status.
func (t *Tracker) Get(component string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.components[component]
	if !ok {
		return Status{}, false
	}
	return *s, true
}

// All returns copies of every component status.
func (t *Tracker) All() map[string]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Status, len(t.components))
	for name, s := range t.components {
		result[name] = *s
	}
	return result
}

// Names returns the tracked component names in sorted order.
func (t *Tracker) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.components))
	for name := range t.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Healthy reports whether every tracked component is healthy.
func (t *Tracker) Healthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, s := range t.components {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Overall returns "healthy" or "degraded".
func (t *Tracker) Overall() string {
	if t.Healthy() {
		return "healthy"
	}
	return "degraded"
}
