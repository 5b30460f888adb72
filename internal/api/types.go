package api

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// CallResult is the uniform envelope returned by every capability
// invocation. Success or failure, callers always receive exactly this
// shape; raw provider errors never cross the dispatcher boundary.
type CallResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	// Provider and Capability are attached by name-only dispatch so the
	// caller knows which provider ended up handling the call. They are
	// empty on the provider-qualified dispatch path.
	Provider   string `json:"provider,omitempty"`
	Capability string `json:"capability,omitempty"`
}

// ProviderAdapter is the contract every backend service integration
// satisfies. Adapters are constructed once at startup, hold no per-call
// state, and are safe for unbounded concurrent invocation.
type ProviderAdapter interface {
	// Key returns the stable provider key used for registration and
	// credential lookup (e.g. "gmail", "outlook").
	Key() string

	// DisplayName returns the human-readable provider name used in
	// catalogs and error messages (e.g. "Microsoft Outlook").
	DisplayName() string

	// Capabilities returns the capability descriptors this adapter
	// exposes. Pure and deterministic; called once at registration.
	Capabilities() []mcp.Tool

	// Execute looks up the named capability, validates its required
	// parameters, resolves the caller's credential, performs the remote
	// operation and folds any failure into the returned envelope.
	Execute(ctx context.Context, capability string, params map[string]any, userID string) *CallResult
}

// Well-known capability names shared between adapters and the aggregator.
// Every calendar-capable adapter exposes both; the aggregator discovers
// calendar providers by scanning registrations for ListUnifiedEvents.
const (
	// ListUnifiedEvents returns normalized UnifiedEvent values for a
	// startDate/endDate range. Used only by the aggregator.
	ListUnifiedEvents = "list_unified_events"

	// CreateUnifiedEvent creates an event from normalized UnifiedEvent
	// fields. Used by the aggregator's create-anywhere path.
	CreateUnifiedEvent = "create_unified_event"
)

// UnifiedEvent is the normalized calendar event shape produced by every
// provider's calendar-listing capability. Invariant: Start <= End unless
// AllDay, in which case End may equal Start.
type UnifiedEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
	Location    string    `json:"location"`
	Attendees   []string  `json:"attendees"`
	Source      string    `json:"source"`
	SourceID    string    `json:"sourceId"`
	URL         string    `json:"url"`
	Color       string    `json:"color"`
	Status      string    `json:"status"`
}

// FlatCapability is one entry of the flattened capability catalog handed
// to an external natural-language planner. The qualified name prevents
// collisions between providers that expose identically named capabilities.
type FlatCapability struct {
	// Name is the qualified capability name: providerKey + "_" + original.
	Name string `json:"name"`

	// Description is the capability description prefixed with the
	// provider display name, e.g. "[Gmail] Send an email via Gmail".
	Description string `json:"description"`

	// Schema is the capability's parameter schema.
	Schema mcp.ToolInputSchema `json:"parameters"`

	// Provider is the owning provider key.
	Provider string `json:"service"`

	// OriginalName is the capability name without qualification.
	OriginalName string `json:"originalName"`
}
