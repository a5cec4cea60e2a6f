package service

import (
	"sort"
	"sync"

	"github.com/nandanugg/openrelief/module/core/domain"
)

// EventRegistry is the in-memory view of the emergency event feed.
type EventRegistry struct {
	mu     sync.RWMutex
	events map[string]domain.EmergencyEvent
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{events: make(map[string]domain.EmergencyEvent)}
}

func (r *EventRegistry) Upsert(ev domain.EmergencyEvent) {
	r.mu.Lock()
	r.events[ev.ID] = ev
	r.mu.Unlock()
}

func (r *EventRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.events, id)
	r.mu.Unlock()
}

func (r *EventRegistry) Get(id string) (domain.EmergencyEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.events[id]
	return ev, ok
}

// List returns a snapshot ordered by id.
func (r *EventRegistry) List() []domain.EmergencyEvent {
	r.mu.RLock()
	out := make([]domain.EmergencyEvent, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
