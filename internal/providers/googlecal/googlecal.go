// Package googlecal implements the Google Calendar provider adapter.
// Besides the native event operations it exposes the unified calendar
// capabilities consumed by the aggregator.
package googlecal

import (
	"context"
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

// DefaultBaseURL is the production Calendar API endpoint.
const DefaultBaseURL = "https://www.googleapis.com"

// eventColor is the fixed source color for unified events.
const eventColor = "#4285f4"

const eventsPath = "/calendar/v3/calendars/primary/events"

// Adapter exposes Google Calendar capabilities.
type Adapter struct {
	*provider.Base
	http *provider.HTTPClient
	now  func() time.Time
}

// New creates the Google Calendar adapter. baseURL is overridable for
// tests.
func New(tokens *token.Manager, baseURL string, timeout time.Duration) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		Base: provider.NewBase("googlecal", "Google Calendar", tokens),
		http: provider.NewHTTPClient(baseURL, timeout),
		now:  time.Now,
	}

	a.Handle(mcp.NewTool("create_event",
		mcp.WithDescription("Create a new calendar event"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title/summary")),
		mcp.WithString("startDateTime", mcp.Required(), mcp.Description(`Start date and time (ISO format or natural language like "tomorrow 2pm")`)),
		mcp.WithString("endDateTime", mcp.Required(), mcp.Description("End date and time (ISO format or natural language)")),
		mcp.WithString("description", mcp.Description("Event description")),
		mcp.WithString("location", mcp.Description("Event location")),
		mcp.WithString("attendees", mcp.Description("Comma-separated list of attendee email addresses")),
		mcp.WithString("isAllDay", mcp.Description("Whether this is an all-day event (true/false)")),
	), a.createEvent)

	a.Handle(mcp.NewTool("get_events",
		mcp.WithDescription("Retrieve calendar events"),
		mcp.WithString("startDate", mcp.Description(`Start date for event search (ISO format or "today", "tomorrow", etc.)`)),
		mcp.WithString("endDate", mcp.Description(`End date for event search (ISO format or "next week", etc.)`)),
		mcp.WithString("maxResults", mcp.Description("Maximum number of events to return (default: 20)")),
		mcp.WithString("searchQuery", mcp.Description("Search term to filter events")),
	), a.getEvents)

	a.Handle(mcp.NewTool("update_event",
		mcp.WithDescription("Update an existing calendar event"),
		mcp.WithString("eventId", mcp.Required(), mcp.Description("Calendar event ID")),
		mcp.WithString("title", mcp.Description("New event title")),
		mcp.WithString("startDateTime", mcp.Description("New start date and time")),
		mcp.WithString("endDateTime", mcp.Description("New end date and time")),
		mcp.WithString("description", mcp.Description("New event description")),
		mcp.WithString("location", mcp.Description("New event location")),
	), a.updateEvent)

	a.Handle(mcp.NewTool("delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("eventId", mcp.Required(), mcp.Description("Calendar event ID to delete")),
	), a.deleteEvent)

	a.Handle(mcp.NewTool("find_available_slots",
		mcp.WithDescription("Find available time slots in calendar"),
		mcp.WithString("duration", mcp.Required(), mcp.Description(`Duration in minutes (e.g., "30", "60")`)),
		mcp.WithString("startDate", mcp.Required(), mcp.Description("Start date to search from")),
		mcp.WithString("endDate", mcp.Required(), mcp.Description("End date to search until")),
		mcp.WithString("workingHoursOnly", mcp.Description("Only show slots during working hours (9am-5pm) (true/false)")),
	), a.findAvailableSlots)

	a.Handle(mcp.NewTool("get_upcoming_events",
		mcp.WithDescription("Get upcoming events"),
		mcp.WithString("limit", mcp.Description("Number of upcoming events to retrieve (default: 10)")),
		mcp.WithString("timeframe", mcp.Description(`Time period (e.g., "today", "this week", "next 7 days")`)),
	), a.getUpcomingEvents)

	a.Handle(mcp.NewTool(api.ListUnifiedEvents,
		mcp.WithDescription("List Google Calendar events in the unified event shape"),
		mcp.WithString("startDate", mcp.Description("Start of the window (ISO format)")),
		mcp.WithString("endDate", mcp.Description("End of the window (ISO format)")),
	), a.listUnifiedEvents)

	a.Handle(mcp.NewTool(api.CreateUnifiedEvent,
		mcp.WithDescription("Create a Google Calendar event from a unified event"),
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

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

type attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type calendarEvent struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *eventTime `json:"start,omitempty"`
	End         *eventTime `json:"end,omitempty"`
	Attendees   []attendee `json:"attendees,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Status      string     `json:"status,omitempty"`
}

type eventList struct {
	Items []calendarEvent `json:"items"`
}

// Event is the simplified shape returned by get_events.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees"`
	HTMLLink    string   `json:"htmlLink"`
	IsAllDay    bool     `json:"isAllDay"`
}

// Slot is one free interval found by find_available_slots.
type Slot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

func (a *Adapter) parseParam(params map[string]any, key string) (time.Time, bool) {
	raw := provider.StringParam(params, key, "")
	if raw == "" {
		return time.Time{}, false
	}
	parsed, _ := provider.ParseDateTime(raw, a.now())
	return parsed, true
}

func (a *Adapter) createEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	title := provider.StringParam(params, "title", "")
	start, _ := a.parseParam(params, "startDateTime")
	end, _ := a.parseParam(params, "endDateTime")

	event := calendarEvent{
		Summary:     title,
		Description: provider.StringParam(params, "description", ""),
		Location:    provider.StringParam(params, "location", ""),
	}
	if provider.BoolParam(params, "isAllDay", false) {
		event.Start = &eventTime{Date: start.Format("2006-01-02")}
		event.End = &eventTime{Date: end.Format("2006-01-02")}
	} else {
		event.Start = &eventTime{DateTime: start.Format(time.RFC3339)}
		event.End = &eventTime{DateTime: end.Format(time.RFC3339)}
	}
	for _, email := range provider.SplitList(provider.StringParam(params, "attendees", "")) {
		event.Attendees = append(event.Attendees, attendee{Email: email})
	}

	query := url.Values{"sendUpdates": []string{"all"}}
	var created calendarEvent
	if err := a.http.DoJSON(ctx, "POST", eventsPath, accessToken, query, event, &created); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]any{
			"eventId":  created.ID,
			"htmlLink": created.HTMLLink,
			"event":    created,
		},
		fmt.Sprintf("Event %q created successfully", title),
	), nil
}

func (a *Adapter) fetchEvents(ctx context.Context, accessToken string, params map[string]any) ([]Event, error) {
	query := url.Values{
		"singleEvents": []string{"true"},
		"orderBy":      []string{"startTime"},
	}
	query.Set("maxResults", strconv.Itoa(provider.IntParam(params, "maxResults", 20)))
	if start, ok := a.parseParam(params, "startDate"); ok {
		query.Set("timeMin", start.Format(time.RFC3339))
	}
	if end, ok := a.parseParam(params, "endDate"); ok {
		query.Set("timeMax", end.Format(time.RFC3339))
	}
	if q := provider.StringParam(params, "searchQuery", ""); q != "" {
		query.Set("q", q)
	}

	var list eventList
	if err := a.http.DoJSON(ctx, "GET", eventsPath, accessToken, query, nil, &list); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, simplify(item))
	}
	return events, nil
}

func simplify(item calendarEvent) Event {
	event := Event{
		ID:          item.ID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		HTMLLink:    item.HTMLLink,
		Attendees:   []string{},
	}
	if item.Start != nil {
		event.Start = item.Start.DateTime
		if event.Start == "" {
			event.Start = item.Start.Date
			event.IsAllDay = true
		}
	}
	if item.End != nil {
		event.End = item.End.DateTime
		if event.End == "" {
			event.End = item.End.Date
		}
	}
	for _, at := range item.Attendees {
		event.Attendees = append(event.Attendees, at.Email)
	}
	return event
}

func (a *Adapter) getEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	events, err := a.fetchEvents(ctx, accessToken, params)
	if err != nil {
		return nil, err
	}
	return provider.SuccessResult(events, fmt.Sprintf("Retrieved %d events", len(events))), nil
}

func (a *Adapter) updateEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	eventID := provider.StringParam(params, "eventId", "")

	var existing calendarEvent
	if err := a.http.DoJSON(ctx, "GET", eventsPath+"/"+eventID, accessToken, nil, nil, &existing); err != nil {
		return nil, err
	}

	if title := provider.StringParam(params, "title", ""); title != "" {
		existing.Summary = title
	}
	if description := provider.StringParam(params, "description", ""); description != "" {
		existing.Description = description
	}
	if location := provider.StringParam(params, "location", ""); location != "" {
		existing.Location = location
	}
	if start, ok := a.parseParam(params, "startDateTime"); ok {
		existing.Start = &eventTime{DateTime: start.Format(time.RFC3339)}
	}
	if end, ok := a.parseParam(params, "endDateTime"); ok {
		existing.End = &eventTime{DateTime: end.Format(time.RFC3339)}
	}

	query := url.Values{"sendUpdates": []string{"all"}}
	var updated calendarEvent
	if err := a.http.DoJSON(ctx, "PUT", eventsPath+"/"+eventID, accessToken, query, existing, &updated); err != nil {
		return nil, err
	}

	return provider.SuccessResult(map[string]any{"event": updated}, "Event updated successfully"), nil
}

func (a *Adapter) deleteEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	eventID := provider.StringParam(params, "eventId", "")
	query := url.Values{"sendUpdates": []string{"all"}}
	if err := a.http.DoJSON(ctx, "DELETE", eventsPath+"/"+eventID, accessToken, query, nil, nil); err != nil {
		return nil, err
	}
	return provider.SuccessResult(nil, "Event deleted successfully"), nil
}

func (a *Adapter) findAvailableSlots(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	duration := provider.IntParam(params, "duration", 30)
	workingHoursOnly := provider.BoolParam(params, "workingHoursOnly", true)

	events, err := a.fetchEvents(ctx, accessToken, map[string]any{
		"startDate":  provider.StringParam(params, "startDate", ""),
		"endDate":    provider.StringParam(params, "endDate", ""),
		"maxResults": "100",
	})
	if err != nil {
		return nil, err
	}

	type busy struct{ start, end time.Time }
	busyTimes := make([]busy, 0, len(events))
	for _, event := range events {
		start, startErr := time.Parse(time.RFC3339, event.Start)
		end, endErr := time.Parse(time.RFC3339, event.End)
		if startErr != nil || endErr != nil {
			continue
		}
		busyTimes = append(busyTimes, busy{start, end})
	}

	start, _ := a.parseParam(params, "startDate")
	end, _ := a.parseParam(params, "endDate")
	slotLen := time.Duration(duration) * time.Minute

	var slots []Slot
	for current := start; current.Before(end); current = current.Add(30 * time.Minute) {
		slotEnd := current.Add(slotLen)

		conflict := false
		for _, b := range busyTimes {
			if current.Before(b.end) && slotEnd.After(b.start) {
				conflict = true
				break
			}
		}
		inWorkingHours := !workingHoursOnly || (current.Hour() >= 9 && current.Hour() < 17)

		if !conflict && inWorkingHours {
			slots = append(slots, Slot{
				Start:    current.Format(time.RFC3339),
				End:      slotEnd.Format(time.RFC3339),
				Duration: duration,
			})
		}
	}

	total := len(slots)
	if total > 10 {
		slots = slots[:10]
	}
	return provider.SuccessResult(slots, fmt.Sprintf("Found %d available slots", total)), nil
}

func (a *Adapter) getUpcomingEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	now := a.now()
	var end time.Time
	switch strings.ToLower(provider.StringParam(params, "timeframe", "this week")) {
	case "today":
		end = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		end = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, now.Location())
	default:
		end = now.AddDate(0, 0, 7)
	}

	return a.getEvents(ctx, accessToken, map[string]any{
		"startDate":  now.Format(time.RFC3339),
		"endDate":    end.Format(time.RFC3339),
		"maxResults": provider.StringParam(params, "limit", "10"),
	})
}

func (a *Adapter) listUnifiedEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	query := url.Values{
		"singleEvents": []string{"true"},
		"orderBy":      []string{"startTime"},
		"maxResults":   []string{"250"},
	}
	if start, ok := a.parseParam(params, "startDate"); ok {
		query.Set("timeMin", start.Format(time.RFC3339))
	}
	if end, ok := a.parseParam(params, "endDate"); ok {
		query.Set("timeMax", end.Format(time.RFC3339))
	}

	var list eventList
	if err := a.http.DoJSON(ctx, "GET", eventsPath, accessToken, query, nil, &list); err != nil {
		return nil, err
	}

	unified := make([]api.UnifiedEvent, 0, len(list.Items))
	for _, item := range list.Items {
		unified = append(unified, normalize(item))
	}
	return provider.SuccessResult(unified, fmt.Sprintf("Retrieved %d events", len(unified))), nil
}

// normalize maps one Google Calendar event to the unified shape.
// All-day events carry date-only start and end values.
func normalize(item calendarEvent) api.UnifiedEvent {
	event := api.UnifiedEvent{
		ID:          item.ID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Attendees:   []string{},
		Source:      "googlecal",
		SourceID:    item.ID,
		URL:         item.HTMLLink,
		Color:       eventColor,
		Status:      "confirmed",
	}
	if event.Title == "" {
		event.Title = "No Title"
	}
	if item.Status != "" {
		event.Status = item.Status
	}
	if item.Start != nil {
		if item.Start.DateTime != "" {
			event.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		} else {
			event.AllDay = true
			event.Start, _ = time.Parse("2006-01-02", item.Start.Date)
		}
	}
	if item.End != nil {
		if item.End.DateTime != "" {
			event.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		} else {
			event.End, _ = time.Parse("2006-01-02", item.End.Date)
		}
	}
	for _, at := range item.Attendees {
		name := at.DisplayName
		if name == "" {
			name = at.Email
		}
		event.Attendees = append(event.Attendees, name)
	}
	return event
}

func (a *Adapter) createUnifiedEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	return a.createEvent(ctx, accessToken, map[string]any{
		"title":         provider.StringParam(params, "title", ""),
		"startDateTime": provider.StringParam(params, "start", ""),
		"endDateTime":   provider.StringParam(params, "end", ""),
		"description":   provider.StringParam(params, "description", ""),
		"location":      provider.StringParam(params, "location", ""),
		"isAllDay":      provider.StringParam(params, "allDay", ""),
	})
}
