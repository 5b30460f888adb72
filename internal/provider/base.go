package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"navi/internal/api"
	"navi/internal/token"
	"navi/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerFunc executes one capability against the remote service. The
// access token has already been resolved and validated. Returning a
// non-nil error folds it into a "Failed to execute" envelope; returning
// a result passes it through unchanged.
type HandlerFunc func(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error)

// Base implements the parts of api.ProviderAdapter that are identical
// across providers: capability lookup, required-parameter validation,
// credential resolution and error translation. Concrete adapters embed
// it and register their capabilities at construction.
type Base struct {
	key         string
	displayName string
	tokens      *token.Manager

	tools    []mcp.Tool
	handlers map[string]HandlerFunc
}

// NewBase creates the shared adapter core for one provider.
func NewBase(key, displayName string, tokens *token.Manager) *Base {
	return &Base{
		key:         key,
		displayName: displayName,
		tokens:      tokens,
		handlers:    make(map[string]HandlerFunc),
	}
}

// Key returns the provider key.
func (b *Base) Key() string { return b.key }

// DisplayName returns the human-readable provider name.
func (b *Base) DisplayName() string { return b.displayName }

// Capabilities returns the registered capability descriptors in
// registration order.
func (b *Base) Capabilities() []mcp.Tool {
	return b.tools
}

// Handle registers one capability descriptor with its handler.
// Registration happens at construction only; Base is read-only after
// that and safe for concurrent Execute calls.
func (b *Base) Handle(tool mcp.Tool, handler HandlerFunc) {
	b.tools = append(b.tools, tool)
	b.handlers[tool.Name] = handler
}

// Execute implements the adapter contract: capability lookup, fail-fast
// required-parameter validation, credential resolution and invocation.
// Every failure below this point is folded into the envelope; no error
// escapes to the caller.
func (b *Base) Execute(ctx context.Context, capability string, params map[string]any, userID string) *api.CallResult {
	handler, ok := b.handlers[capability]
	if !ok {
		return ErrorResult("Unknown function: %s", capability)
	}

	tool := b.tool(capability)
	for _, required := range tool.InputSchema.Required {
		if isMissing(params[required]) {
			return ErrorResult("Missing required parameter: %s", required)
		}
	}

	accessToken, err := b.tokens.EnsureFresh(ctx, userID, b.key)
	if err != nil {
		if errors.Is(err, token.ErrNoCredential) {
			return ErrorResult("%s authentication tokens not found", b.displayName)
		}
		return ErrorResult("Failed to execute %s: %v", capability, err)
	}

	result, err := handler(ctx, accessToken, params)
	if err != nil {
		logging.Warn(b.displayName, "%s failed for user=%s: %v", capability, userID, err)
		return ErrorResult("Failed to execute %s: %v", capability, err)
	}
	return result
}

func (b *Base) tool(name string) mcp.Tool {
	for _, t := range b.tools {
		if t.Name == name {
			return t
		}
	}
	return mcp.Tool{}
}

// isMissing mirrors the validation the capability schema implies:
// absent, nil and empty-string parameters all count as missing.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// ErrorResult builds a failure envelope.
func ErrorResult(format string, args ...any) *api.CallResult {
	return &api.CallResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// SuccessResult builds a success envelope with optional data and a
// human-readable summary.
func SuccessResult(data any, message string) *api.CallResult {
	return &api.CallResult{Success: true, Data: data, Message: message}
}

// StringParam reads a string parameter, returning fallback when the
// parameter is absent or empty.
func StringParam(params map[string]any, key, fallback string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// IntParam reads a numeric parameter. Capability parameters arrive as
// strings from language-model planners and as float64 from JSON, so
// both are accepted.
func IntParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// BoolParam reads a boolean parameter, accepting both bool values and
// the "true"/"false" strings the capability schemas describe.
func BoolParam(params map[string]any, key string, fallback bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v))); err == nil {
			return parsed
		}
	}
	return fallback
}

// SplitList splits a comma-separated parameter into trimmed, non-empty
// entries (attendee and recipient lists).
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
