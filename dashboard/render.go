package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
)

const (
	OverviewTitle = "Cluster Overview"
	// DisconnectedNote is shown while no count could be fetched.
	DisconnectedNote = "Dashboard will be populated once the API is connected."
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	overviewTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/overview.html"))
	resourceTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/resource.html"))
)

type NavItem struct {
	Href   string
	Label  string
	Active bool
}

// Nav returns the sidebar entries with the current page marked.
func Nav(active string) []NavItem {
	items := make([]NavItem, 0, len(orchestrator.Resources)+1)
	items = append(items, NavItem{Href: "/", Label: "Overview", Active: active == "/"})

	for _, resource := range orchestrator.Resources {
		href := resource.Path()
		items = append(items, NavItem{Href: href, Label: resource.Label(), Active: active == href})
	}

	return items
}

type StatCard struct {
	Resource string
	Label    string
	Value    string
	Error    string
	Code     string
}

type OverviewPage struct {
	Title     string
	Nav       []NavItem
	Stats     []StatCard
	Connected bool
	FetchedAt string
}

func NewOverviewPage(overview orchestrator.Overview) OverviewPage {
	cards := make([]StatCard, 0, len(overview.Stats))

	for _, stat := range overview.Stats {
		cards = append(cards, StatCard{
			Resource: string(stat.Resource),
			Label:    stat.Label,
			Value:    stat.Value(),
			Error:    stat.Error,
			Code:     stat.Code,
		})
	}

	fetchedAt := ""
	if !overview.FetchedAt.IsZero() {
		fetchedAt = overview.FetchedAt.Format(time.RFC3339)
	}

	return OverviewPage{
		Title:     OverviewTitle,
		Nav:       Nav("/"),
		Stats:     cards,
		Connected: overview.Connected(),
		FetchedAt: fetchedAt,
	}
}

type ResourceRow struct {
	ID   string
	Name string
}

type ResourcePage struct {
	Title    string
	Nav      []NavItem
	Resource string
	Rows     []ResourceRow
	Total    int
	Page     int
	Error    string
	Code     string
}

// NewResourcePage lists the id and name of each item. Items that are not
// objects, or lack those fields, render with blank cells.
func NewResourcePage(resource orchestrator.Resource, page orchestrator.Page[json.RawMessage], err error) ResourcePage {
	view := ResourcePage{
		Title:    resource.Label(),
		Nav:      Nav(resource.Path()),
		Resource: string(resource),
		Rows:     make([]ResourceRow, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		Error:    "",
		Code:     "",
	}

	if err != nil {
		view.Error = err.Error()

		if clientErr, ok := apiclient.AsClientError(err); ok {
			view.Error = clientErr.Message
			view.Code = clientErr.Code
		}

		return view
	}

	for _, item := range page.Items {
		var row struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}

		_ = json.Unmarshal(item, &row)

		view.Rows = append(view.Rows, ResourceRow{ID: row.ID, Name: row.Name})
	}

	return view
}

func RenderOverview(page OverviewPage) ([]byte, error) {
	return render(overviewTemplate, page)
}

func RenderResource(page ResourcePage) ([]byte, error) {
	return render(resourceTemplate, page)
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return buf.Bytes(), nil
}
