// Package unified aggregates calendar events across every registered
// provider that exposes the unified calendar capabilities. It fans out
// concurrently, tolerates per-provider failures and caches results at
// two levels: per provider window and per merged window.
package unified

import (
	"context"
	"sort"
	"sync"
	"time"

	"navi/internal/api"
	"navi/internal/capability"
	"navi/internal/config"
	"navi/internal/metrics"
	"navi/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Service is the calendar aggregator.
type Service struct {
	registry   *capability.Registry
	dispatcher *capability.Dispatcher
	ttl        time.Duration
	preference []string
	now        func() time.Time

	mu          sync.RWMutex
	merged      map[string]cacheEntry
	perProvider map[string]cacheEntry
}

// cacheEntry values are replaced wholesale and never mutated in place,
// so readers can hold a returned slice without a lock.
type cacheEntry struct {
	events    []api.UnifiedEvent
	fetchedAt time.Time
}

// NewService creates the aggregator over a provider registry.
func NewService(registry *capability.Registry, dispatcher *capability.Dispatcher, cfg config.AggregatorConfig) *Service {
	return &Service{
		registry:    registry,
		dispatcher:  dispatcher,
		ttl:         time.Duration(cfg.CacheTTLSeconds) * time.Second,
		preference:  cfg.CreatePreference,
		now:         time.Now,
		merged:      make(map[string]cacheEntry),
		perProvider: make(map[string]cacheEntry),
	}
}

func windowKey(startDate, endDate string) string {
	if startDate == "" {
		startDate = "default"
	}
	if endDate == "" {
		endDate = "default"
	}
	return startDate + "|" + endDate
}

func (s *Service) lookup(cache map[string]cacheEntry, key string) ([]api.UnifiedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := cache[key]
	if !ok || s.now().Sub(entry.fetchedAt) >= s.ttl {
		return nil, false
	}
	return entry.events, true
}

func (s *Service) store(cache map[string]cacheEntry, key string, events []api.UnifiedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cache[key] = cacheEntry{events: events, fetchedAt: s.now()}
}

// calendarProviders returns every registered adapter that exposes the
// unified listing capability, in registration order.
func (s *Service) calendarProviders() []api.ProviderAdapter {
	var out []api.ProviderAdapter
	for _, adapter := range s.registry.Providers() {
		for _, tool := range adapter.Capabilities() {
			if tool.Name == api.ListUnifiedEvents {
				out = append(out, adapter)
				break
			}
		}
	}
	return out
}

// FetchAllEvents returns the merged event list for a window, sorted by
// start time. Provider failures are absorbed: a provider that errors
// contributes zero events and the rest of the merge proceeds. The
// returned slice is owned by the caller.
func (s *Service) FetchAllEvents(ctx context.Context, userID, startDate, endDate string) []api.UnifiedEvent {
	mergedKey := windowKey(startDate, endDate)
	if events, ok := s.lookup(s.merged, mergedKey); ok {
		metrics.RecordCacheLookup("merged", true)
		logging.Debug("Unified", "Returning %d cached events for window %s", len(events), mergedKey)
		return copyEvents(events)
	}
	metrics.RecordCacheLookup("merged", false)

	providers := s.calendarProviders()
	results := make([][]api.UnifiedEvent, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range providers {
		g.Go(func() error {
			results[i] = s.fetchProvider(gctx, adapter, userID, startDate, endDate)
			return nil
		})
	}
	_ = g.Wait()

	var all []api.UnifiedEvent
	for _, events := range results {
		all = append(all, events...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})

	s.store(s.merged, mergedKey, all)
	return copyEvents(all)
}

func (s *Service) fetchProvider(ctx context.Context, adapter api.ProviderAdapter, userID, startDate, endDate string) []api.UnifiedEvent {
	key := adapter.Key() + "|" + windowKey(startDate, endDate)
	if events, ok := s.lookup(s.perProvider, key); ok {
		metrics.RecordCacheLookup("provider", true)
		return events
	}
	metrics.RecordCacheLookup("provider", false)

	params := make(map[string]any)
	if startDate != "" {
		params["startDate"] = startDate
	}
	if endDate != "" {
		params["endDate"] = endDate
	}

	result := s.dispatcher.Dispatch(ctx, adapter.Key(), api.ListUnifiedEvents, params, userID)
	if !result.Success {
		logging.Warn("Unified", "Provider %s failed (non-critical): %s", adapter.Key(), result.Error)
		metrics.RecordProviderFetchFailure(adapter.Key())
		return nil
	}

	events, ok := result.Data.([]api.UnifiedEvent)
	if !ok {
		logging.Warn("Unified", "Provider %s returned unexpected data shape", adapter.Key())
		metrics.RecordProviderFetchFailure(adapter.Key())
		return nil
	}

	s.store(s.perProvider, key, events)
	return events
}

// CreateEvent creates an event in targetProvider, or, when none is
// given, in the first preferred provider that accepts it. A successful
// create invalidates the cache so the next fetch sees the new event.
func (s *Service) CreateEvent(ctx context.Context, userID string, params map[string]any, targetProvider string) *api.CallResult {
	if targetProvider != "" {
		result := s.dispatcher.Dispatch(ctx, targetProvider, api.CreateUnifiedEvent, params, userID)
		if result.Success {
			s.Invalidate()
		}
		return result
	}

	for _, key := range s.orderedProviders() {
		result := s.dispatcher.Dispatch(ctx, key, api.CreateUnifiedEvent, params, userID)
		if result.Success {
			s.Invalidate()
			result.Provider = key
			result.Capability = api.CreateUnifiedEvent
			return result
		}
		logging.Warn("Unified", "Failed to create event in %s: %s", key, result.Error)
	}

	return &api.CallResult{
		Success: false,
		Error:   "Failed to create event in any provider",
	}
}

// orderedProviders returns the create-capable provider keys, preferred
// ones first, then any remaining calendar providers in registration
// order.
func (s *Service) orderedProviders() []string {
	capable := make(map[string]bool)
	var registered []string
	for _, adapter := range s.registry.Providers() {
		for _, tool := range adapter.Capabilities() {
			if tool.Name == api.CreateUnifiedEvent {
				capable[adapter.Key()] = true
				registered = append(registered, adapter.Key())
				break
			}
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, key := range s.preference {
		if capable[key] && !seen[key] {
			out = append(out, key)
			seen[key] = true
		}
	}
	for _, key := range registered {
		if !seen[key] {
			out = append(out, key)
			seen[key] = true
		}
	}
	return out
}

// Invalidate drops both cache levels.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = make(map[string]cacheEntry)
	s.perProvider = make(map[string]cacheEntry)
	logging.Debug("Unified", "Event cache invalidated")
}

// Sources returns the keys of all calendar-capable providers.
func (s *Service) Sources() []string {
	providers := s.calendarProviders()
	out := make([]string, 0, len(providers))
	for _, adapter := range providers {
		out = append(out, adapter.Key())
	}
	return out
}

func copyEvents(events []api.UnifiedEvent) []api.UnifiedEvent {
	out := make([]api.UnifiedEvent, len(events))
	copy(out, events)
	return out
}
