package page

import (
	"errors"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/component"
	"github.com/devicelab-dev/pagekit/pkg/container"
	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/locator"
	"github.com/devicelab-dev/pagekit/pkg/table"
)

// savedSearchesPath is the saved searches screen under the app base URL.
const savedSearchesPath = "/app/search/saved_searches"

// SavedSearchesPage is the saved searches configuration screen: a paginated
// grid of entries, the add/edit modal and its typed fields, all sharing one
// facade over the page's session.
type SavedSearchesPage struct {
	*Page

	Table *table.Table
	Form  *container.Container

	Name        *component.TextBox
	Description *component.TextBox
	Query       *component.SearchBox
	Toast       *component.Toast

	Title    *component.Message
	Subtitle *component.Message
}

// NewSavedSearchesPage composes the saved searches page over session.
func NewSavedSearchesPage(session core.Session, baseURL string, log *zap.Logger) *SavedSearchesPage {
	if log == nil {
		log = zap.NewNop()
	}

	base := NewPage(session, baseURL, log)
	reg := locator.NewRegistry()
	reg.RegisterCSS("container", `div[role="main"]`)
	reg.RegisterCSS("wait_spinner", `[data-test="wait-spinner"]`)
	shared := base.actions.WithRegistry(reg)
	base.actions = shared

	tbl := table.New(shared, `div[role="main"]`, log)
	// The saved searches grid renders its rows with an app-specific class.
	tbl.Registry().RegisterCSS("rows", `div[role="main"] tr.list-item`)

	return &SavedSearchesPage{
		Page:        base,
		Table:       tbl,
		Form:        container.New(shared, "saved_searches", `div[role="main"]`, log),
		Name:        component.NewTextBox(shared, "name", "name"),
		Description: component.NewTextBox(shared, "description", "description"),
		Query:       component.NewSearchBox(shared, "search_query", ".search-bar-input"),
		Toast:       component.NewToast(shared, "saved_searches_toast"),
		Title:       component.NewMessage(shared, "title", `[data-test="column"] .pageTitle`),
		Subtitle:    component.NewMessage(shared, "subtitle", `[data-test="column"] .pageSubtitle`),
	}
}

// Open navigates to the saved searches screen and waits for the grid panel,
// letting the loading spinner clear first.
func (p *SavedSearchesPage) Open() error {
	if err := p.OpenPath(savedSearchesPath); err != nil {
		return err
	}
	if err := p.actions.WaitInvisible("wait_spinner"); err != nil {
		return err
	}
	_, err := p.actions.WaitVisible("container")
	return err
}

// Create opens the add dialog, fills the entry fields and saves, returning
// the three-way save outcome. Empty fields are left untouched.
func (p *SavedSearchesPage) Create(name, description, query string) container.SaveResult {
	if !p.Form.Add() {
		return container.SaveResult{}
	}
	if name != "" {
		if err := p.Name.SetValue(name); err != nil {
			p.log.Error("setting name failed", zap.Error(err))
			return container.SaveResult{}
		}
	}
	if description != "" {
		if err := p.Description.SetValue(description); err != nil {
			p.log.Error("setting description failed", zap.Error(err))
			return container.SaveResult{}
		}
	}
	if query != "" {
		if err := p.Query.SetValue(query); err != nil {
			p.log.Error("setting query failed", zap.Error(err))
			return container.SaveResult{}
		}
	}
	return p.Form.Save()
}

// Exists reports whether the grid holds an entry with the given name.
func (p *SavedSearchesPage) Exists(name string) (bool, error) {
	_, err := p.Table.GetRow(name)
	if err != nil {
		if errors.Is(err, core.ErrRowNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the named entry through the confirmation popup.
func (p *SavedSearchesPage) Delete(name string) bool {
	return p.Table.DeleteRow(name, table.Delete)
}

// Enable switches the named entry on; a no-op when already enabled.
func (p *SavedSearchesPage) Enable(name string) bool {
	return p.Table.UpdateStatus(name, true)
}

// Disable switches the named entry off; a no-op when already disabled.
func (p *SavedSearchesPage) Disable(name string) bool {
	return p.Table.UpdateStatus(name, false)
}
