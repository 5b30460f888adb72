package capability

import (
	"context"
	"testing"

	"navi/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	key     string
	display string
	tools   []mcp.Tool
	execute func(capability string, params map[string]any, userID string) *api.CallResult
}

func (f *fakeAdapter) Key() string                  { return f.key }
func (f *fakeAdapter) DisplayName() string          { return f.display }
func (f *fakeAdapter) Capabilities() []mcp.Tool     { return f.tools }
func (f *fakeAdapter) Execute(_ context.Context, capability string, params map[string]any, userID string) *api.CallResult {
	if f.execute != nil {
		return f.execute(capability, params, userID)
	}
	return &api.CallResult{Success: true}
}

func calendarAdapter(key, display string) *fakeAdapter {
	return &fakeAdapter{
		key:     key,
		display: display,
		tools: []mcp.Tool{
			mcp.NewTool(api.ListUnifiedEvents, mcp.WithDescription("List events in a unified shape")),
			mcp.NewTool("create_event",
				mcp.WithDescription("Create an event"),
				mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
			),
		},
	}
}

func TestRegisterRejectsDuplicateKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))

	err := reg.Register(calendarAdapter("googlecal", "Google Calendar"))
	assert.ErrorContains(t, err, "already registered")
}

func TestResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))

	adapter, ok := reg.Resolve("googlecal")
	require.True(t, ok)
	assert.Equal(t, "Google Calendar", adapter.DisplayName())

	_, ok = reg.Resolve("fax")
	assert.False(t, ok)
}

func TestFindCapabilityFirstRegisteredWins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))
	require.NoError(t, reg.Register(calendarAdapter("outlook", "Outlook")))

	adapter, ok := reg.FindCapability(api.ListUnifiedEvents)
	require.True(t, ok)
	assert.Equal(t, "googlecal", adapter.Key())

	_, ok = reg.FindCapability("summon_meeting")
	assert.False(t, ok)
}

func TestFlattenedCatalog(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))
	require.NoError(t, reg.Register(calendarAdapter("outlook", "Outlook")))

	flat := reg.Flattened()
	require.Len(t, flat, 4)

	assert.Equal(t, "googlecal_"+api.ListUnifiedEvents, flat[0].Name)
	assert.Equal(t, "[Google Calendar] List events in a unified shape", flat[0].Description)
	assert.Equal(t, "googlecal", flat[0].Provider)
	assert.Equal(t, api.ListUnifiedEvents, flat[0].OriginalName)

	assert.Equal(t, "outlook_create_event", flat[3].Name)
	assert.Contains(t, flat[3].Schema.Required, "title")
}
