// Package outlook implements the Microsoft Outlook provider adapter
// over the Microsoft Graph API: mail, calendar and the unified
// calendar capabilities.
package outlook

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"navi/internal/api"
	"navi/internal/provider"
	"navi/internal/token"

	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultBaseURL is the production Microsoft Graph endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// eventColor is the fixed source color for unified events.
const eventColor = "#0078d4"

// Adapter exposes Outlook capabilities.
type Adapter struct {
	*provider.Base
	http *provider.HTTPClient
}

// New creates the Outlook adapter. baseURL is overridable for tests.
func New(tokens *token.Manager, baseURL string, timeout time.Duration) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		Base: provider.NewBase("outlook", "Microsoft Outlook", tokens),
		http: provider.NewHTTPClient(baseURL, timeout),
	}

	a.Handle(mcp.NewTool("send_outlook_email",
		mcp.WithDescription("Send an email via Outlook/Microsoft Graph"),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Email body content (can include HTML)")),
		mcp.WithString("cc", mcp.Description("CC recipients (comma-separated)")),
		mcp.WithString("bcc", mcp.Description("BCC recipients (comma-separated)")),
		mcp.WithString("importance", mcp.Description("Email importance level"), mcp.Enum("low", "normal", "high")),
	), a.sendEmail)

	a.Handle(mcp.NewTool("get_outlook_emails",
		mcp.WithDescription("Retrieve emails from Outlook"),
		mcp.WithString("folder", mcp.Description("Email folder to search in (inbox, sent, drafts, etc.)")),
		mcp.WithString("maxResults", mcp.Description("Maximum number of emails to retrieve (default: 10)")),
		mcp.WithString("filter", mcp.Description(`OData filter query (e.g., "isRead eq false")`)),
		mcp.WithString("search", mcp.Description("Search term for email content")),
	), a.getEmails)

	a.Handle(mcp.NewTool("create_outlook_event",
		mcp.WithDescription("Create a calendar event in Outlook"),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Event title/subject")),
		mcp.WithString("startDateTime", mcp.Required(), mcp.Description("Start date and time (ISO format)")),
		mcp.WithString("endDateTime", mcp.Required(), mcp.Description("End date and time (ISO format)")),
		mcp.WithString("body", mcp.Description("Event description/body")),
		mcp.WithString("location", mcp.Description("Event location")),
		mcp.WithString("attendees", mcp.Description("Comma-separated list of attendee email addresses")),
		mcp.WithString("isAllDay", mcp.Description("Whether this is an all-day event (true/false)")),
	), a.createEvent)

	a.Handle(mcp.NewTool("get_outlook_events",
		mcp.WithDescription("Retrieve calendar events from Outlook"),
		mcp.WithString("startDate", mcp.Description("Start date for event search (ISO format)")),
		mcp.WithString("endDate", mcp.Description("End date for event search (ISO format)")),
		mcp.WithString("maxResults", mcp.Description("Maximum number of events to return (default: 20)")),
	), a.getEvents)

	a.Handle(mcp.NewTool("mark_outlook_email_read",
		mcp.WithDescription("Mark an Outlook email as read"),
		mcp.WithString("emailId", mcp.Required(), mcp.Description("Outlook message ID")),
	), a.markEmailRead)

	a.Handle(mcp.NewTool(api.ListUnifiedEvents,
		mcp.WithDescription("List Outlook events in the unified event shape"),
		mcp.WithString("startDate", mcp.Description("Start of the window (ISO format)")),
		mcp.WithString("endDate", mcp.Description("End of the window (ISO format)")),
	), a.listUnifiedEvents)

	a.Handle(mcp.NewTool(api.CreateUnifiedEvent,
		mcp.WithDescription("Create an Outlook event from a unified event"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start date and time (ISO format)")),
		mcp.WithString("end", mcp.Required(), mcp.Description("End date and time (ISO format)")),
		mcp.WithString("description", mcp.Description("Event description")),
		mcp.WithString("location", mcp.Description("Event location")),
		mcp.WithString("allDay", mcp.Description("Whether this is an all-day event (true/false)")),
	), a.createUnifiedEvent)

	return a
}

var _ api.ProviderAdapter = (*Adapter)(nil)

type emailAddress struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
	Type         string       `json:"type,omitempty"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	ID             string     `json:"id,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Body           *itemBody  `json:"body,omitempty"`
	From           *recipient `json:"from,omitempty"`
	ToRecipients   []recipient `json:"toRecipients,omitempty"`
	CcRecipients   []recipient `json:"ccRecipients,omitempty"`
	BccRecipients  []recipient `json:"bccRecipients,omitempty"`
	Importance     string     `json:"importance,omitempty"`
	ReceivedAt     string     `json:"receivedDateTime,omitempty"`
	BodyPreview    string     `json:"bodyPreview,omitempty"`
	IsRead         bool       `json:"isRead,omitempty"`
	HasAttachments bool       `json:"hasAttachments,omitempty"`
	ConversationID string     `json:"conversationId,omitempty"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphEvent struct {
	ID        string         `json:"id,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Body      *itemBody      `json:"body,omitempty"`
	Start     *graphDateTime `json:"start,omitempty"`
	End       *graphDateTime `json:"end,omitempty"`
	Location  *graphLocation `json:"location,omitempty"`
	Attendees []recipient    `json:"attendees,omitempty"`
	WebLink   string         `json:"webLink,omitempty"`
	IsAllDay  bool           `json:"isAllDay,omitempty"`
	Organizer *recipient     `json:"organizer,omitempty"`
}

type listResponse[T any] struct {
	Value []T `json:"value"`
}

// Email is the simplified message shape returned by get_outlook_emails.
type Email struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	From           string `json:"from"`
	FromName       string `json:"fromName"`
	ReceivedAt     string `json:"receivedDateTime"`
	BodyPreview    string `json:"bodyPreview"`
	IsRead         bool   `json:"isRead"`
	HasAttachments bool   `json:"hasAttachments"`
	Importance     string `json:"importance"`
	ConversationID string `json:"conversationId"`
}

// Event is the simplified shape returned by get_outlook_events.
type Event struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Location  string   `json:"location"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees []string `json:"attendees"`
	WebLink   string   `json:"webLink"`
	IsAllDay  bool     `json:"isAllDay"`
	Organizer string   `json:"organizer"`
}

func recipients(list string, typ string) []recipient {
	addresses := provider.SplitList(list)
	out := make([]recipient, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, recipient{EmailAddress: emailAddress{Address: address}, Type: typ})
	}
	return out
}

func (a *Adapter) sendEmail(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	to := provider.StringParam(params, "to", "")
	message := graphMessage{
		Subject:      provider.StringParam(params, "subject", ""),
		Body:         &itemBody{ContentType: "HTML", Content: provider.StringParam(params, "body", "")},
		ToRecipients: recipients(to, ""),
		Importance:   provider.StringParam(params, "importance", "normal"),
	}
	if cc := provider.StringParam(params, "cc", ""); cc != "" {
		message.CcRecipients = recipients(cc, "")
	}
	if bcc := provider.StringParam(params, "bcc", ""); bcc != "" {
		message.BccRecipients = recipients(bcc, "")
	}

	body := map[string]any{"message": message, "saveToSentItems": true}
	if err := a.http.DoJSON(ctx, "POST", "/me/sendMail", accessToken, nil, body, nil); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]string{"message": "Email sent successfully"},
		fmt.Sprintf("Email sent successfully to %s", to),
	), nil
}

func (a *Adapter) getEmails(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	folder := provider.StringParam(params, "folder", "inbox")
	maxResults := provider.IntParam(params, "maxResults", 10)

	query := url.Values{
		"$top":     []string{strconv.Itoa(maxResults)},
		"$orderby": []string{"receivedDateTime desc"},
	}
	if filter := provider.StringParam(params, "filter", ""); filter != "" {
		query.Set("$filter", filter)
	}
	if search := provider.StringParam(params, "search", ""); search != "" {
		query.Set("$search", strconv.Quote(search))
	}

	var list listResponse[graphMessage]
	if err := a.http.DoJSON(ctx, "GET", "/me/mailFolders/"+folder+"/messages", accessToken, query, nil, &list); err != nil {
		return nil, err
	}

	emails := make([]Email, 0, len(list.Value))
	for _, msg := range list.Value {
		email := Email{
			ID:             msg.ID,
			Subject:        msg.Subject,
			ReceivedAt:     msg.ReceivedAt,
			BodyPreview:    msg.BodyPreview,
			IsRead:         msg.IsRead,
			HasAttachments: msg.HasAttachments,
			Importance:     msg.Importance,
			ConversationID: msg.ConversationID,
		}
		if msg.From != nil {
			email.From = msg.From.EmailAddress.Address
			email.FromName = msg.From.EmailAddress.Name
		}
		emails = append(emails, email)
	}

	return provider.SuccessResult(emails, fmt.Sprintf("Retrieved %d emails from %s", len(emails), folder)), nil
}

func (a *Adapter) createEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	subject := provider.StringParam(params, "subject", "")
	event := graphEvent{
		Subject:  subject,
		Start:    &graphDateTime{DateTime: provider.StringParam(params, "startDateTime", ""), TimeZone: "UTC"},
		End:      &graphDateTime{DateTime: provider.StringParam(params, "endDateTime", ""), TimeZone: "UTC"},
		IsAllDay: provider.BoolParam(params, "isAllDay", false),
	}
	if body := provider.StringParam(params, "body", ""); body != "" {
		event.Body = &itemBody{ContentType: "HTML", Content: body}
	}
	if location := provider.StringParam(params, "location", ""); location != "" {
		event.Location = &graphLocation{DisplayName: location}
	}
	event.Attendees = recipients(provider.StringParam(params, "attendees", ""), "required")

	var created graphEvent
	if err := a.http.DoJSON(ctx, "POST", "/me/events", accessToken, nil, event, &created); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]any{
			"eventId": created.ID,
			"webLink": created.WebLink,
			"event":   created,
		},
		fmt.Sprintf("Event %q created successfully", subject),
	), nil
}

func (a *Adapter) fetchEvents(ctx context.Context, accessToken string, params map[string]any) ([]graphEvent, error) {
	query := url.Values{
		"$top":     []string{strconv.Itoa(provider.IntParam(params, "maxResults", 20))},
		"$orderby": []string{"start/dateTime"},
	}
	startDate := provider.StringParam(params, "startDate", "")
	endDate := provider.StringParam(params, "endDate", "")
	if startDate != "" && endDate != "" {
		query.Set("$filter", fmt.Sprintf("start/dateTime ge '%s' and end/dateTime le '%s'", startDate, endDate))
	}

	var list listResponse[graphEvent]
	if err := a.http.DoJSON(ctx, "GET", "/me/events", accessToken, query, nil, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (a *Adapter) getEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	items, err := a.fetchEvents(ctx, accessToken, params)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(items))
	for _, item := range items {
		event := Event{
			ID:        item.ID,
			Subject:   item.Subject,
			WebLink:   item.WebLink,
			IsAllDay:  item.IsAllDay,
			Attendees: []string{},
		}
		if item.Body != nil {
			event.Body = item.Body.Content
		}
		if item.Location != nil {
			event.Location = item.Location.DisplayName
		}
		if item.Start != nil {
			event.Start = item.Start.DateTime
		}
		if item.End != nil {
			event.End = item.End.DateTime
		}
		if item.Organizer != nil {
			event.Organizer = item.Organizer.EmailAddress.Address
		}
		for _, at := range item.Attendees {
			event.Attendees = append(event.Attendees, at.EmailAddress.Address)
		}
		events = append(events, event)
	}

	return provider.SuccessResult(events, fmt.Sprintf("Retrieved %d events", len(events))), nil
}

func (a *Adapter) markEmailRead(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	emailID := provider.StringParam(params, "emailId", "")
	if err := a.http.DoJSON(ctx, "PATCH", "/me/messages/"+emailID, accessToken, nil, map[string]bool{"isRead": true}, nil); err != nil {
		return nil, err
	}
	return provider.SuccessResult(nil, "Email marked as read"), nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func (a *Adapter) listUnifiedEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	items, err := a.fetchEvents(ctx, accessToken, map[string]any{
		"startDate":  provider.StringParam(params, "startDate", ""),
		"endDate":    provider.StringParam(params, "endDate", ""),
		"maxResults": "250",
	})
	if err != nil {
		return nil, err
	}

	unified := make([]api.UnifiedEvent, 0, len(items))
	for _, item := range items {
		unified = append(unified, normalize(item))
	}
	return provider.SuccessResult(unified, fmt.Sprintf("Retrieved %d events", len(unified))), nil
}

// normalize maps one Graph event to the unified shape. Graph returns
// event times without a zone suffix; they are documented UTC.
func normalize(item graphEvent) api.UnifiedEvent {
	event := api.UnifiedEvent{
		ID:        item.ID,
		Title:     item.Subject,
		Attendees: []string{},
		Source:    "outlook",
		SourceID:  item.ID,
		URL:       item.WebLink,
		AllDay:    item.IsAllDay,
		Color:     eventColor,
		Status:    "confirmed",
	}
	if event.Title == "" {
		event.Title = "No Title"
	}
	if item.Body != nil {
		event.Description = htmlTagRe.ReplaceAllString(item.Body.Content, "")
	}
	if item.Location != nil {
		event.Location = item.Location.DisplayName
	}
	if item.Start != nil {
		event.Start = parseGraphTime(item.Start.DateTime)
	}
	if item.End != nil {
		event.End = parseGraphTime(item.End.DateTime)
	}
	for _, at := range item.Attendees {
		name := at.EmailAddress.Name
		if name == "" {
			name = at.EmailAddress.Address
		}
		event.Attendees = append(event.Attendees, name)
	}
	return event
}

func parseGraphTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (a *Adapter) createUnifiedEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	return a.createEvent(ctx, accessToken, map[string]any{
		"subject":       provider.StringParam(params, "title", ""),
		"startDateTime": provider.StringParam(params, "start", ""),
		"endDateTime":   provider.StringParam(params, "end", ""),
		"body":          provider.StringParam(params, "description", ""),
		"location":      provider.StringParam(params, "location", ""),
		"isAllDay":      provider.StringParam(params, "allDay", ""),
	})
}
