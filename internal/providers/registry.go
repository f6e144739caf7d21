package providers

import (
	"context"
	"fmt"
	"sync"
)

// Registry holds providers in registration order. Order matters: the
// resolution pipeline walks providers front to back and stops at the
// first one that yields results.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
}

type Descriptor struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type HealthStatus struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}

	key := provider.Key()
	if key == "" {
		return fmt.Errorf("provider key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		return fmt.Errorf("provider %q already registered", key)
	}

	r.providers[key] = provider
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) Get(key string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[key]
	return provider, ok
}

// Ordered returns providers in registration (priority) order.
func (r *Registry) Ordered() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Provider, 0, len(r.order))
	for _, key := range r.order {
		items = append(items, r.providers[key])
	}
	return items
}

func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		provider := r.providers[key]
		items = append(items, Descriptor{Key: provider.Key(), Name: provider.Name()})
	}
	return items
}

func (r *Registry) Health(ctx context.Context) []HealthStatus {
	list := r.Ordered()

	statuses := make([]HealthStatus, 0, len(list))
	for _, provider := range list {
		err := provider.HealthCheck(ctx)
		status := HealthStatus{
			Key:     provider.Key(),
			Name:    provider.Name(),
			Healthy: err == nil,
		}
		if err != nil {
			status.Error = err.Error()
		}
		statuses = append(statuses, status)
	}

	return statuses
}
