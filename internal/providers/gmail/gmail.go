// Package gmail implements the Gmail provider adapter: sending mail,
// listing and searching messages, read-state changes and drafts over
// the Gmail REST API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"navi/internal/api"
	"navi/internal/provider"
	"navi/internal/token"

	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultBaseURL is the production Gmail API endpoint.
const DefaultBaseURL = "https://gmail.googleapis.com"

// Adapter exposes Gmail capabilities.
type Adapter struct {
	*provider.Base
	http *provider.HTTPClient
}

// New creates the Gmail adapter. baseURL is overridable for tests.
func New(tokens *token.Manager, baseURL string, timeout time.Duration) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		Base: provider.NewBase("gmail", "Gmail", tokens),
		http: provider.NewHTTPClient(baseURL, timeout),
	}

	a.Handle(mcp.NewTool("send_email",
		mcp.WithDescription("Send an email via Gmail"),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Email body content (can include HTML)")),
		mcp.WithString("cc", mcp.Description("CC recipients (comma-separated)")),
		mcp.WithString("bcc", mcp.Description("BCC recipients (comma-separated)")),
	), a.sendEmail)

	a.Handle(mcp.NewTool("get_emails",
		mcp.WithDescription("Retrieve emails from Gmail"),
		mcp.WithString("query", mcp.Description(`Gmail search query (e.g., "from:example@gmail.com", "is:unread")`)),
		mcp.WithString("maxResults", mcp.Description("Maximum number of emails to retrieve (default: 10)")),
		mcp.WithString("includeBody", mcp.Description("Whether to include email body content (true/false)")),
	), a.getEmails)

	a.Handle(mcp.NewTool("search_emails",
		mcp.WithDescription("Search emails with specific criteria"),
		mcp.WithString("searchTerm", mcp.Required(), mcp.Description("Search term to look for in emails")),
		mcp.WithString("sender", mcp.Description("Filter by sender email address")),
		mcp.WithString("timeframe", mcp.Description(`Time range (e.g., "today", "this week", "last month")`)),
		mcp.WithString("isUnread", mcp.Description("Filter unread emails only (true/false)")),
	), a.searchEmails)

	a.Handle(mcp.NewTool("mark_email_read",
		mcp.WithDescription("Mark an email as read"),
		mcp.WithString("emailId", mcp.Required(), mcp.Description("Gmail message ID")),
	), a.markEmailRead)

	a.Handle(mcp.NewTool("create_draft",
		mcp.WithDescription("Create a draft email"),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Email body content")),
	), a.createDraft)

	return a
}

var _ api.ProviderAdapter = (*Adapter)(nil)

// Email is the simplified message shape returned by get_emails and
// search_emails.
type Email struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Snippet  string `json:"snippet"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	To       string `json:"to"`
	Date     string `json:"date"`
	IsUnread bool   `json:"isUnread"`
	Body     string `json:"body,omitempty"`
}

type messageList struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type message struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"labelIds"`
	Payload  struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		Body struct {
			Data string `json:"data"`
		} `json:"body"`
	} `json:"payload"`
}

func (m *message) header(name string) string {
	for _, h := range m.Payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// rawMessage assembles an RFC 822 message and encodes it the way the
// Gmail API expects: URL-safe base64 without padding.
func rawMessage(to, cc, bcc, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", cc)
	}
	if bcc != "" {
		fmt.Fprintf(&b, "Bcc: %s\r\n", bcc)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

func (a *Adapter) sendEmail(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	to := provider.StringParam(params, "to", "")
	raw := rawMessage(
		to,
		provider.StringParam(params, "cc", ""),
		provider.StringParam(params, "bcc", ""),
		provider.StringParam(params, "subject", ""),
		provider.StringParam(params, "body", ""),
	)

	var sent struct {
		ID string `json:"id"`
	}
	err := a.http.DoJSON(ctx, "POST", "/gmail/v1/users/me/messages/send", accessToken,
		nil, map[string]string{"raw": raw}, &sent)
	if err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]string{"messageId": sent.ID},
		fmt.Sprintf("Email sent successfully to %s", to),
	), nil
}

func (a *Adapter) getEmails(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	query := provider.StringParam(params, "query", "")
	maxResults := provider.IntParam(params, "maxResults", 10)
	includeBody := provider.BoolParam(params, "includeBody", false)

	listQuery := url.Values{}
	if query != "" {
		listQuery.Set("q", query)
	}
	listQuery.Set("maxResults", strconv.Itoa(maxResults))

	var list messageList
	if err := a.http.DoJSON(ctx, "GET", "/gmail/v1/users/me/messages", accessToken, listQuery, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Messages) == 0 {
		return provider.SuccessResult([]Email{}, "No emails found"), nil
	}

	format := "metadata"
	if includeBody {
		format = "full"
	}

	emails := make([]Email, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if len(emails) >= maxResults {
			break
		}
		var msg message
		getQuery := url.Values{"format": []string{format}}
		if err := a.http.DoJSON(ctx, "GET", "/gmail/v1/users/me/messages/"+ref.ID, accessToken, getQuery, nil, &msg); err != nil {
			return nil, err
		}

		email := Email{
			ID:       msg.ID,
			ThreadID: msg.ThreadID,
			Snippet:  msg.Snippet,
			Subject:  msg.header("Subject"),
			From:     msg.header("From"),
			To:       msg.header("To"),
			Date:     msg.header("Date"),
		}
		for _, label := range msg.LabelIDs {
			if label == "UNREAD" {
				email.IsUnread = true
			}
		}
		if includeBody && msg.Payload.Body.Data != "" {
			if decoded, err := base64.RawURLEncoding.DecodeString(msg.Payload.Body.Data); err == nil {
				email.Body = string(decoded)
			}
		}
		emails = append(emails, email)
	}

	return provider.SuccessResult(emails, fmt.Sprintf("Retrieved %d emails", len(emails))), nil
}

func (a *Adapter) searchEmails(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	query := provider.StringParam(params, "searchTerm", "")
	if sender := provider.StringParam(params, "sender", ""); sender != "" {
		query += " from:" + sender
	}
	if provider.BoolParam(params, "isUnread", false) {
		query += " is:unread"
	}
	switch strings.ToLower(provider.StringParam(params, "timeframe", "")) {
	case "today":
		query += " newer_than:1d"
	case "this week":
		query += " newer_than:7d"
	case "last month":
		query += " newer_than:30d"
	}

	return a.getEmails(ctx, accessToken, map[string]any{
		"query":       query,
		"maxResults":  "20",
		"includeBody": "false",
	})
}

func (a *Adapter) markEmailRead(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	emailID := provider.StringParam(params, "emailId", "")
	body := map[string]any{"removeLabelIds": []string{"UNREAD"}}
	if err := a.http.DoJSON(ctx, "POST", "/gmail/v1/users/me/messages/"+emailID+"/modify", accessToken, nil, body, nil); err != nil {
		return nil, err
	}
	return provider.SuccessResult(nil, "Email marked as read"), nil
}

func (a *Adapter) createDraft(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	raw := rawMessage(
		provider.StringParam(params, "to", ""),
		"", "",
		provider.StringParam(params, "subject", ""),
		provider.StringParam(params, "body", ""),
	)

	var draft struct {
		ID string `json:"id"`
	}
	body := map[string]any{"message": map[string]string{"raw": raw}}
	if err := a.http.DoJSON(ctx, "POST", "/gmail/v1/users/me/drafts", accessToken, nil, body, &draft); err != nil {
		return nil, err
	}

	return provider.SuccessResult(map[string]string{"draftId": draft.ID}, "Draft created successfully"), nil
}
