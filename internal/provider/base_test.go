package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"navi/internal/api"
	"navi/internal/credstore"
	"navi/internal/token"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase(t *testing.T, handler HandlerFunc) (*Base, credstore.Store) {
	store := credstore.NewMemoryStore()
	tokens := token.NewManager(store, map[string]token.ProviderAuth{
		"gmail": {Static: true},
	})
	base := NewBase("gmail", "Gmail", tokens)
	base.Handle(mcp.NewTool("send_email",
		mcp.WithDescription("Send an email"),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Message body")),
	), handler)
	return base, store
}

func seedCredential(t *testing.T, store credstore.Store) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), "u1", "gmail", &credstore.Credential{
		AccessToken: "token-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
}

func TestExecuteUnknownCapability(t *testing.T) {
	base, _ := newTestBase(t, nil)

	result := base.Execute(context.Background(), "teleport_home", nil, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Unknown function: teleport_home", result.Error)
}

func TestExecuteMissingRequiredParameter(t *testing.T) {
	base, store := newTestBase(t, func(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
		t.Fatal("handler must not run on validation failure")
		return nil, nil
	})
	seedCredential(t, store)

	tests := []struct {
		name    string
		params  map[string]any
		missing string
	}{
		{"nil params", nil, "to"},
		{"absent key", map[string]any{"to": "a@b.c"}, "subject"},
		{"empty string counts as missing", map[string]any{"to": "", "subject": "hi", "body": "x"}, "to"},
		{"first missing in schema order wins", map[string]any{"body": "x"}, "to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := base.Execute(context.Background(), "send_email", tt.params, "u1")
			assert.False(t, result.Success)
			assert.Equal(t, "Missing required parameter: "+tt.missing, result.Error)
		})
	}
}

func TestExecuteNoCredential(t *testing.T) {
	base, _ := newTestBase(t, func(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
		t.Fatal("handler must not run without credentials")
		return nil, nil
	})

	result := base.Execute(context.Background(), "send_email", map[string]any{
		"to": "a@b.c", "subject": "hi", "body": "x",
	}, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Gmail authentication tokens not found", result.Error)
}

func TestExecuteHandlerError(t *testing.T) {
	base, store := newTestBase(t, func(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
		return nil, errors.New("quota exceeded")
	})
	seedCredential(t, store)

	result := base.Execute(context.Background(), "send_email", map[string]any{
		"to": "a@b.c", "subject": "hi", "body": "x",
	}, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to execute send_email: quota exceeded", result.Error)
}

func TestExecuteSuccess(t *testing.T) {
	base, store := newTestBase(t, func(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
		assert.Equal(t, "token-1", accessToken)
		return SuccessResult(map[string]string{"messageId": "m-1"}, "Email sent successfully to a@b.c"), nil
	})
	seedCredential(t, store)

	result := base.Execute(context.Background(), "send_email", map[string]any{
		"to": "a@b.c", "subject": "hi", "body": "x",
	}, "u1")
	require.True(t, result.Success)
	assert.Equal(t, "Email sent successfully to a@b.c", result.Message)
}

func TestCapabilitiesKeepRegistrationOrder(t *testing.T) {
	base, _ := newTestBase(t, nil)
	base.Handle(mcp.NewTool("get_emails", mcp.WithDescription("Fetch recent emails")), nil)

	tools := base.Capabilities()
	require.Len(t, tools, 2)
	assert.Equal(t, "send_email", tools[0].Name)
	assert.Equal(t, "get_emails", tools[1].Name)
}

func TestStringParam(t *testing.T) {
	params := map[string]any{"set": "value", "empty": ""}
	assert.Equal(t, "value", StringParam(params, "set", "fallback"))
	assert.Equal(t, "fallback", StringParam(params, "empty", "fallback"))
	assert.Equal(t, "fallback", StringParam(params, "absent", "fallback"))
}

func TestIntParam(t *testing.T) {
	params := map[string]any{"str": "7", "float": float64(3), "bad": "many"}
	assert.Equal(t, 7, IntParam(params, "str", 10))
	assert.Equal(t, 3, IntParam(params, "float", 10))
	assert.Equal(t, 10, IntParam(params, "bad", 10))
	assert.Equal(t, 10, IntParam(params, "absent", 10))
}

func TestBoolParam(t *testing.T) {
	params := map[string]any{"b": true, "s": "true", "bad": "yep"}
	assert.True(t, BoolParam(params, "b", false))
	assert.True(t, BoolParam(params, "s", false))
	assert.False(t, BoolParam(params, "bad", false))
	assert.True(t, BoolParam(params, "absent", true))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a@b.c", "d@e.f"}, SplitList("a@b.c, d@e.f,"))
}
