package capability

import (
	"context"
	"testing"

	"navi/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnknownProvider(t *testing.T) {
	d := NewDispatcher(NewRegistry())

	result := d.Dispatch(context.Background(), "fax", "send_fax", nil, "u1")
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "MCP server 'fax' not found", result.Error)
}

func TestDispatchRoutesToAdapter(t *testing.T) {
	reg := NewRegistry()
	adapter := calendarAdapter("googlecal", "Google Calendar")
	adapter.execute = func(capability string, params map[string]any, userID string) *api.CallResult {
		assert.Equal(t, "create_event", capability)
		assert.Equal(t, "u1", userID)
		return &api.CallResult{Success: true, Message: "Event created"}
	}
	require.NoError(t, reg.Register(adapter))
	d := NewDispatcher(reg)

	result := d.Dispatch(context.Background(), "googlecal", "create_event", map[string]any{"title": "standup"}, "u1")
	require.True(t, result.Success)
	assert.Equal(t, "Event created", result.Message)
}

func TestDispatchByNameAttachesOrigin(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))
	require.NoError(t, reg.Register(calendarAdapter("outlook", "Outlook")))
	d := NewDispatcher(reg)

	result := d.DispatchByName(context.Background(), api.ListUnifiedEvents, nil, "u1")
	require.True(t, result.Success)
	assert.Equal(t, "googlecal", result.Provider, "first registered provider wins the name")
	assert.Equal(t, api.ListUnifiedEvents, result.Capability)
}

func TestDispatchByNameUnknownCapability(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(calendarAdapter("googlecal", "Google Calendar")))
	d := NewDispatcher(reg)

	result := d.DispatchByName(context.Background(), "summon_meeting", nil, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Unknown function: summon_meeting", result.Error)
	assert.Empty(t, result.Provider)
}
