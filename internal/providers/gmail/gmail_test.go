package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"navi/internal/credstore"
	"navi/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := credstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "u1", "gmail", &credstore.Credential{
		AccessToken: "token-1",
	}))
	tokens := token.NewManager(store, map[string]token.ProviderAuth{
		"gmail": {Static: true},
	})
	return New(tokens, server.URL, 5*time.Second)
}

func TestSendEmail(t *testing.T) {
	var gotRaw string
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRaw = body["raw"]

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-1"})
	}))

	result := adapter.Execute(context.Background(), "send_email", map[string]any{
		"to":      "kim@example.com",
		"subject": "Quarterly sync",
		"body":    "<p>Agenda attached</p>",
		"cc":      "lee@example.com",
	}, "u1")

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Email sent successfully to kim@example.com", result.Message)
	assert.Equal(t, map[string]string{"messageId": "msg-1"}, result.Data)

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	text := string(decoded)
	assert.Contains(t, text, "To: kim@example.com\r\n")
	assert.Contains(t, text, "Cc: lee@example.com\r\n")
	assert.Contains(t, text, "Subject: Quarterly sync\r\n")
	assert.True(t, strings.HasSuffix(text, "<p>Agenda attached</p>"))
}

func TestSendEmailMissingParameter(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected on validation failure")
	}))

	result := adapter.Execute(context.Background(), "send_email", map[string]any{
		"to": "kim@example.com", "subject": "hi",
	}, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Missing required parameter: body", result.Error)
}

func TestSearchEmailsBuildsQuery(t *testing.T) {
	var gotQuery string
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/gmail/v1/users/me/messages":
			gotQuery = r.URL.Query().Get("q")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m-1"}},
			})
		case strings.HasPrefix(r.URL.Path, "/gmail/v1/users/me/messages/"):
			assert.Equal(t, "metadata", r.URL.Query().Get("format"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":       "m-1",
				"threadId": "t-1",
				"snippet":  "lunch?",
				"labelIds": []string{"UNREAD"},
				"payload": map[string]any{
					"headers": []map[string]string{
						{"name": "Subject", "value": "Lunch"},
						{"name": "From", "value": "lee@example.com"},
					},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	result := adapter.Execute(context.Background(), "search_emails", map[string]any{
		"searchTerm": "lunch",
		"sender":     "lee@example.com",
		"isUnread":   "true",
		"timeframe":  "today",
	}, "u1")

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "lunch from:lee@example.com is:unread newer_than:1d", gotQuery)

	emails, ok := result.Data.([]Email)
	require.True(t, ok)
	require.Len(t, emails, 1)
	assert.Equal(t, "Lunch", emails[0].Subject)
	assert.True(t, emails[0].IsUnread)
}

func TestGetEmailsNoResults(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))

	result := adapter.Execute(context.Background(), "get_emails", map[string]any{}, "u1")
	require.True(t, result.Success)
	assert.Equal(t, "No emails found", result.Message)
}

func TestMarkEmailRead(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gmail/v1/users/me/messages/m-1/modify", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"UNREAD"}, body["removeLabelIds"])
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "m-1"})
	}))

	result := adapter.Execute(context.Background(), "mark_email_read", map[string]any{"emailId": "m-1"}, "u1")
	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Email marked as read", result.Message)
}

func TestRemoteFailureBecomesEnvelope(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Insufficient Permission"},
		})
	}))

	result := adapter.Execute(context.Background(), "create_draft", map[string]any{
		"to": "kim@example.com", "subject": "hi", "body": "x",
	}, "u1")
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to execute create_draft: Insufficient Permission", result.Error)
}
