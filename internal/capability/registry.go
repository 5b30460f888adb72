package capability

import (
	"fmt"
	"sync"

	"navi/internal/api"
	"navi/pkg/logging"
)

// Registry tracks the registered provider adapters. Registration
// happens during startup; all later access is read-only. The slice
// preserves registration order so cross-provider capability lookups
// are deterministic.
type Registry struct {
	mu       sync.RWMutex
	adapters []api.ProviderAdapter
	byKey    map[string]api.ProviderAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]api.ProviderAdapter),
	}
}

// Register adds a provider adapter. Duplicate provider keys are a
// wiring bug and rejected.
func (r *Registry) Register(adapter api.ProviderAdapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := adapter.Key()
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("provider %s already registered", key)
	}
	r.adapters = append(r.adapters, adapter)
	r.byKey[key] = adapter

	logging.Debug("Registry", "Registered provider %s with %d capabilities", key, len(adapter.Capabilities()))
	return nil
}

// Resolve returns the adapter for a provider key.
func (r *Registry) Resolve(providerKey string) (api.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.byKey[providerKey]
	return adapter, ok
}

// Providers returns all adapters in registration order.
func (r *Registry) Providers() []api.ProviderAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.ProviderAdapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// FindCapability locates the adapter exposing a capability name. When
// two providers expose the same name, the one registered first wins.
func (r *Registry) FindCapability(name string) (api.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		for _, tool := range adapter.Capabilities() {
			if tool.Name == name {
				return adapter, true
			}
		}
	}
	return nil, false
}

// Flattened returns the full capability catalog as one flat list. Each
// entry is namespaced with its provider key and carries the provider
// display name in the description, so a planner can tell identically
// named capabilities apart.
func (r *Registry) Flattened() []api.FlatCapability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []api.FlatCapability
	for _, adapter := range r.adapters {
		for _, tool := range adapter.Capabilities() {
			out = append(out, api.FlatCapability{
				Name:         adapter.Key() + "_" + tool.Name,
				Description:  fmt.Sprintf("[%s] %s", adapter.DisplayName(), tool.Description),
				Schema:       tool.InputSchema,
				Provider:     adapter.Key(),
				OriginalName: tool.Name,
			})
		}
	}
	return out
}
