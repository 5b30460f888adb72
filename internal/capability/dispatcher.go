package capability

import (
	"context"
	"fmt"

	"navi/internal/api"
	"navi/internal/metrics"
	"navi/pkg/logging"

	"github.com/google/uuid"
)

// Dispatcher routes capability calls to provider adapters. It is the
// only component that turns an unknown provider into an error envelope;
// everything below it (validation, credentials, remote calls) is the
// adapter's job.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over a registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes a capability on a specific provider. The returned
// envelope is never nil and no error escapes as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, providerKey, capability string, params map[string]any, userID string) *api.CallResult {
	callID := uuid.NewString()
	logging.Debug("Dispatcher", "call=%s provider=%s capability=%s user=%s", callID, providerKey, capability, userID)

	adapter, ok := d.registry.Resolve(providerKey)
	if !ok {
		metrics.RecordDispatch(providerKey, capability, false)
		return &api.CallResult{
			Success: false,
			Error:   fmt.Sprintf("MCP server '%s' not found", providerKey),
		}
	}

	result := adapter.Execute(ctx, capability, params, userID)
	metrics.RecordDispatch(providerKey, capability, result.Success)
	if !result.Success {
		logging.Debug("Dispatcher", "call=%s failed: %s", callID, result.Error)
	}
	return result
}

// DispatchByName executes a capability located by name alone, scanning
// providers in registration order. The winning provider and capability
// name are attached to the envelope so callers can see where the call
// landed.
func (d *Dispatcher) DispatchByName(ctx context.Context, capability string, params map[string]any, userID string) *api.CallResult {
	adapter, ok := d.registry.FindCapability(capability)
	if !ok {
		metrics.RecordDispatch("", capability, false)
		return &api.CallResult{
			Success: false,
			Error:   fmt.Sprintf("Unknown function: %s", capability),
		}
	}

	result := d.Dispatch(ctx, adapter.Key(), capability, params, userID)
	result.Provider = adapter.Key()
	result.Capability = capability
	return result
}
