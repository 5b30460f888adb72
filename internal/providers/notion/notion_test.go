package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"navi/internal/api"
	"navi/internal/credstore"
	"navi/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, databaseID string, handler http.Handler) *Adapter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := credstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "u1", "notion", &credstore.Credential{
		AccessToken: "secret-integration-token",
	}))
	tokens := token.NewManager(store, map[string]token.ProviderAuth{
		"notion": {Static: true},
	})
	return New(tokens, server.URL, databaseID, 5*time.Second)
}

func TestCreatePage(t *testing.T) {
	var got map[string]any
	adapter := newTestAdapter(t, "db-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/pages", r.URL.Path)
		require.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":  "page-1",
			"url": "https://notion.so/page-1",
		})
	}))

	result := adapter.Execute(context.Background(), "create_notion_page", map[string]any{
		"title":   "Meeting notes",
		"content": "Decisions and followups",
	}, "u1")
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, `Notion page "Meeting notes" created successfully`, result.Message)

	parent := got["parent"].(map[string]any)
	assert.Equal(t, "db-1", parent["database_id"])
	assert.Contains(t, got, "children", "content becomes a paragraph block")
}

func TestCreatePageWithoutDatabase(t *testing.T) {
	adapter := newTestAdapter(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a database")
	}))

	result := adapter.Execute(context.Background(), "create_notion_page", map[string]any{"title": "Orphan"}, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "No Notion database configured", result.Error)
}

func TestSearchNotion(t *testing.T) {
	adapter := newTestAdapter(t, "db-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "roadmap", body["query"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":  "page-2",
					"url": "https://notion.so/page-2",
					"properties": map[string]any{
						"Name": map[string]any{
							"title": []map[string]any{{"plain_text": "Roadmap 2026"}},
						},
					},
				},
			},
		})
	}))

	result := adapter.Execute(context.Background(), "search_notion", map[string]any{"query": "roadmap"}, "u1")
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Search completed for: roadmap", result.Message)
}

func TestListUnifiedEventsNormalization(t *testing.T) {
	adapter := newTestAdapter(t, "db-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "filter")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":  "page-3",
					"url": "https://notion.so/page-3",
					"properties": map[string]any{
						"Name": map[string]any{
							"title": []map[string]any{{"plain_text": "Launch day"}},
						},
						"Date": map[string]any{
							"date": map[string]string{"start": "2026-09-05"},
						},
					},
				},
				{
					"id": "page-4",
					"properties": map[string]any{
						"Name": map[string]any{
							"title": []map[string]any{{"plain_text": "Not an event"}},
						},
					},
				},
			},
		})
	}))

	result := adapter.Execute(context.Background(), api.ListUnifiedEvents, map[string]any{
		"startDate": "2026-09-01T00:00:00Z",
		"endDate":   "2026-09-07T00:00:00Z",
	}, "u1")
	require.True(t, result.Success, "error: %s", result.Error)

	events, ok := result.Data.([]api.UnifiedEvent)
	require.True(t, ok)
	require.Len(t, events, 1, "rows without a Date property are skipped")

	event := events[0]
	assert.Equal(t, "Launch day", event.Title)
	assert.Equal(t, "notion", event.Source)
	assert.Equal(t, "#000000", event.Color)
	assert.True(t, event.AllDay, "date-only value marks the event all-day")
	assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, event.Start, event.End, "missing end falls back to start")
}

func TestCreateUnifiedEventAllDay(t *testing.T) {
	var got map[string]any
	adapter := newTestAdapter(t, "db-1", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "page-5", "url": "https://notion.so/page-5"})
	}))

	result := adapter.Execute(context.Background(), api.CreateUnifiedEvent, map[string]any{
		"title":  "Company holiday",
		"start":  "2026-09-07T00:00:00Z",
		"end":    "2026-09-07T23:59:59Z",
		"allDay": "true",
	}, "u1")
	require.True(t, result.Success, "error: %s", result.Error)

	properties := got["properties"].(map[string]any)
	date := properties["Date"].(map[string]any)["date"].(map[string]any)
	assert.Equal(t, "2026-09-07", date["start"], "all-day events carry date-only values")
}
