package provider

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Host attaches providers to a package-management front end
type Host struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*Provider
}

// NewHost creates an empty Host
func NewHost() *Host {
	return &Host{providers: make(map[uuid.UUID]*Provider)}
}

// Register attaches p under id. An id can be registered once.
func (h *Host) Register(id uuid.UUID, p *Provider) error {
	if id == uuid.Nil {
		return fmt.Errorf("register provider: nil id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.providers[id]; ok {
		return fmt.Errorf("register provider: %s already registered", id)
	}
	h.providers[id] = p
	return nil
}

// Unregister detaches the provider registered under id
func (h *Host) Unregister(id uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.providers[id]; !ok {
		return fmt.Errorf("unregister provider: %s is not registered", id)
	}
	delete(h.providers, id)
	return nil
}

// Lookup returns the provider registered under id
func (h *Host) Lookup(id uuid.UUID) (*Provider, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.providers[id]
	return p, ok
}

// Len returns how many providers are registered
func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.providers)
}
