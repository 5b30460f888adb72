// Package notion implements the Notion provider adapter: pages,
// search, database queries and the unified calendar capabilities
// backed by a Notion database with a Date property.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"navi/internal/api"
	"navi/internal/provider"
	"navi/internal/token"

	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultBaseURL is the production Notion API endpoint.
const DefaultBaseURL = "https://api.notion.com"

// notionVersion pins the API revision on every request.
const notionVersion = "2022-06-28"

// eventColor is the fixed source color for unified events.
const eventColor = "#000000"

// Adapter exposes Notion capabilities.
type Adapter struct {
	*provider.Base
	http       *provider.HTTPClient
	databaseID string
}

// New creates the Notion adapter. databaseID is the calendar database
// used by the unified capabilities and as the default page parent.
func New(tokens *token.Manager, baseURL, databaseID string, timeout time.Duration) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		Base:       provider.NewBase("notion", "Notion", tokens),
		http:       provider.NewHTTPClient(baseURL, timeout),
		databaseID: databaseID,
	}
	a.http.SetHeader("Notion-Version", notionVersion)

	a.Handle(mcp.NewTool("create_notion_page",
		mcp.WithDescription("Create a new page in Notion"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
		mcp.WithString("databaseId", mcp.Description("Notion database ID to create the page in")),
		mcp.WithString("content", mcp.Description("Page content")),
		mcp.WithString("properties", mcp.Description("JSON string of additional properties for the page")),
	), a.createPage)

	a.Handle(mcp.NewTool("search_notion",
		mcp.WithDescription("Search for content in Notion"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("filter", mcp.Description("Filter type (page, database, etc.)")),
	), a.search)

	a.Handle(mcp.NewTool("get_notion_page",
		mcp.WithDescription("Get a specific Notion page"),
		mcp.WithString("pageId", mcp.Required(), mcp.Description("Notion page ID")),
	), a.getPage)

	a.Handle(mcp.NewTool("update_notion_page",
		mcp.WithDescription("Update a Notion page"),
		mcp.WithString("pageId", mcp.Required(), mcp.Description("Notion page ID")),
		mcp.WithString("title", mcp.Description("New page title")),
		mcp.WithString("properties", mcp.Description("JSON string of properties to update")),
	), a.updatePage)

	a.Handle(mcp.NewTool("query_notion_database",
		mcp.WithDescription("Query pages from a Notion database"),
		mcp.WithString("databaseId", mcp.Description("Notion database ID (defaults to the configured calendar database)")),
		mcp.WithString("filter", mcp.Description("JSON string with a Notion filter object")),
	), a.queryDatabase)

	a.Handle(mcp.NewTool(api.ListUnifiedEvents,
		mcp.WithDescription("List Notion calendar entries in the unified event shape"),
		mcp.WithString("startDate", mcp.Description("Start of the window (ISO format)")),
		mcp.WithString("endDate", mcp.Description("End of the window (ISO format)")),
	), a.listUnifiedEvents)

	a.Handle(mcp.NewTool(api.CreateUnifiedEvent,
		mcp.WithDescription("Create a Notion calendar entry from a unified event"),
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

type richText struct {
	PlainText string `json:"plain_text,omitempty"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

type pageProperty struct {
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
	Date     *struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date,omitempty"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select,omitempty"`
}

type page struct {
	ID         string                  `json:"id"`
	URL        string                  `json:"url"`
	Properties map[string]pageProperty `json:"properties"`
}

type queryResult struct {
	Results []page `json:"results"`
}

func plain(texts []richText) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

func titleProperty(title string) map[string]any {
	return map[string]any{
		"title": []map[string]any{
			{"text": map[string]string{"content": title}},
		},
	}
}

func (a *Adapter) resolveDatabase(params map[string]any) string {
	return provider.StringParam(params, "databaseId", a.databaseID)
}

func (a *Adapter) createPage(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	title := provider.StringParam(params, "title", "")
	databaseID := a.resolveDatabase(params)
	if databaseID == "" {
		return provider.ErrorResult("No Notion database configured"), nil
	}

	properties := map[string]any{"Name": titleProperty(title)}
	if extra := provider.StringParam(params, "properties", ""); extra != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(extra), &parsed); err != nil {
			return nil, fmt.Errorf("invalid properties JSON: %w", err)
		}
		for name, value := range parsed {
			properties[name] = value
		}
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": properties,
	}
	if content := provider.StringParam(params, "content", ""); content != "" {
		body["children"] = []map[string]any{
			{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []map[string]any{
						{"text": map[string]string{"content": content}},
					},
				},
			},
		}
	}

	var created page
	if err := a.http.DoJSON(ctx, "POST", "/v1/pages", accessToken, nil, body, &created); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]string{"pageId": created.ID, "url": created.URL, "title": title},
		fmt.Sprintf("Notion page %q created successfully", title),
	), nil
}

func (a *Adapter) search(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	query := provider.StringParam(params, "query", "")
	body := map[string]any{"query": query}
	if filter := provider.StringParam(params, "filter", ""); filter != "" {
		body["filter"] = map[string]string{"property": "object", "value": filter}
	}

	var result queryResult
	if err := a.http.DoJSON(ctx, "POST", "/v1/search", accessToken, nil, body, &result); err != nil {
		return nil, err
	}

	type hit struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	hits := make([]hit, 0, len(result.Results))
	for _, p := range result.Results {
		hits = append(hits, hit{ID: p.ID, Title: pageTitle(p), URL: p.URL})
	}

	return provider.SuccessResult(hits, fmt.Sprintf("Search completed for: %s", query)), nil
}

func pageTitle(p page) string {
	for _, prop := range p.Properties {
		if len(prop.Title) > 0 {
			return plain(prop.Title)
		}
	}
	return ""
}

func (a *Adapter) getPage(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	pageID := provider.StringParam(params, "pageId", "")

	var p page
	if err := a.http.DoJSON(ctx, "GET", "/v1/pages/"+pageID, accessToken, nil, nil, &p); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]string{"id": p.ID, "title": pageTitle(p), "url": p.URL},
		"Page retrieved successfully",
	), nil
}

func (a *Adapter) updatePage(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	pageID := provider.StringParam(params, "pageId", "")

	properties := make(map[string]any)
	if title := provider.StringParam(params, "title", ""); title != "" {
		properties["Name"] = titleProperty(title)
	}
	if extra := provider.StringParam(params, "properties", ""); extra != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(extra), &parsed); err != nil {
			return nil, fmt.Errorf("invalid properties JSON: %w", err)
		}
		for name, value := range parsed {
			properties[name] = value
		}
	}

	body := map[string]any{"properties": properties}
	if err := a.http.DoJSON(ctx, "PATCH", "/v1/pages/"+pageID, accessToken, nil, body, nil); err != nil {
		return nil, err
	}

	return provider.SuccessResult(nil, fmt.Sprintf("Page %s updated successfully", pageID)), nil
}

func (a *Adapter) queryDatabase(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	databaseID := a.resolveDatabase(params)
	if databaseID == "" {
		return provider.ErrorResult("No Notion database configured"), nil
	}

	body := make(map[string]any)
	if filter := provider.StringParam(params, "filter", ""); filter != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(filter), &parsed); err != nil {
			return nil, fmt.Errorf("invalid filter JSON: %w", err)
		}
		body["filter"] = parsed
	}

	pages, err := a.query(ctx, accessToken, databaseID, body)
	if err != nil {
		return nil, err
	}

	type row struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	rows := make([]row, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, row{ID: p.ID, Title: pageTitle(p), URL: p.URL})
	}

	return provider.SuccessResult(rows, fmt.Sprintf("Retrieved %d pages", len(rows))), nil
}

func (a *Adapter) query(ctx context.Context, accessToken, databaseID string, body map[string]any) ([]page, error) {
	var result queryResult
	if err := a.http.DoJSON(ctx, "POST", "/v1/databases/"+databaseID+"/query", accessToken, nil, body, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (a *Adapter) listUnifiedEvents(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	if a.databaseID == "" {
		return provider.ErrorResult("No Notion database configured"), nil
	}

	var conditions []map[string]any
	if start := provider.StringParam(params, "startDate", ""); start != "" {
		conditions = append(conditions, map[string]any{
			"property": "Date",
			"date":     map[string]string{"on_or_after": start},
		})
	}
	if end := provider.StringParam(params, "endDate", ""); end != "" {
		conditions = append(conditions, map[string]any{
			"property": "Date",
			"date":     map[string]string{"on_or_before": end},
		})
	}

	body := make(map[string]any)
	switch len(conditions) {
	case 1:
		body["filter"] = conditions[0]
	case 2:
		body["filter"] = map[string]any{"and": conditions}
	}

	pages, err := a.query(ctx, accessToken, a.databaseID, body)
	if err != nil {
		return nil, err
	}

	unified := make([]api.UnifiedEvent, 0, len(pages))
	for _, p := range pages {
		if event, ok := normalize(p); ok {
			unified = append(unified, event)
		}
	}
	return provider.SuccessResult(unified, fmt.Sprintf("Retrieved %d events", len(unified))), nil
}

// normalize maps one database row to the unified shape. Rows without a
// Date property are not events and are skipped.
func normalize(p page) (api.UnifiedEvent, bool) {
	dateProp, ok := p.Properties["Date"]
	if !ok || dateProp.Date == nil || dateProp.Date.Start == "" {
		return api.UnifiedEvent{}, false
	}

	event := api.UnifiedEvent{
		ID:        p.ID,
		Title:     pageTitle(p),
		Attendees: []string{},
		Source:    "notion",
		SourceID:  p.ID,
		URL:       p.URL,
		Color:     eventColor,
		Status:    "confirmed",
	}
	if event.Title == "" {
		event.Title = "No Title"
	}
	if prop, ok := p.Properties["Description"]; ok {
		event.Description = plain(prop.RichText)
	}
	if prop, ok := p.Properties["Location"]; ok {
		event.Location = plain(prop.RichText)
	}
	if prop, ok := p.Properties["Status"]; ok && prop.Select != nil {
		event.Status = prop.Select.Name
	}

	event.Start, event.AllDay = parseNotionDate(dateProp.Date.Start)
	if dateProp.Date.End != "" {
		event.End, _ = parseNotionDate(dateProp.Date.End)
	} else {
		event.End = event.Start
	}
	return event, true
}

// parseNotionDate handles both date-only and full timestamps. A
// date-only value marks the event all-day.
func parseNotionDate(value string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t, false
}

func (a *Adapter) createUnifiedEvent(ctx context.Context, accessToken string, params map[string]any) (*api.CallResult, error) {
	if a.databaseID == "" {
		return provider.ErrorResult("No Notion database configured"), nil
	}

	title := provider.StringParam(params, "title", "")
	start := provider.StringParam(params, "start", "")
	end := provider.StringParam(params, "end", "")
	if provider.BoolParam(params, "allDay", false) {
		if len(start) >= 10 {
			start = start[:10]
		}
		if len(end) >= 10 {
			end = end[:10]
		}
	}

	properties := map[string]any{
		"Name": titleProperty(title),
		"Date": map[string]any{
			"date": map[string]string{"start": start, "end": end},
		},
	}
	if description := provider.StringParam(params, "description", ""); description != "" {
		properties["Description"] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": description}},
			},
		}
	}
	if location := provider.StringParam(params, "location", ""); location != "" {
		properties["Location"] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": location}},
			},
		}
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": a.databaseID},
		"properties": properties,
	}

	var created page
	if err := a.http.DoJSON(ctx, "POST", "/v1/pages", accessToken, nil, body, &created); err != nil {
		return nil, err
	}

	return provider.SuccessResult(
		map[string]string{"pageId": created.ID, "url": created.URL},
		fmt.Sprintf("Event %q created successfully", title),
	), nil
}
