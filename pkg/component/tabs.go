package component

import (
	"fmt"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// Tabs drives one tab of a tab bar, waiting out the tab's load spinner on
// open.
type Tabs struct {
	actions *actions.Actions
	name    string
	tabID   string
}

// NewTabs binds the tab whose data-test-tab-id is tabID.
func NewTabs(parent *actions.Actions, name, tabID string) *Tabs {
	reg := locator.NewRegistry()
	reg.RegisterCSS("tab_bar", `[data-test="tab-bar"]`)
	reg.RegisterCSS("tabs", `[data-test="tab"]`)
	reg.RegisterCSS(name, fmt.Sprintf(`[data-test-tab-id=%q]`, tabID))
	reg.RegisterCSS("tab_label", fmt.Sprintf(`[data-test="tab"][data-test-tab-id=%q] [data-test="label"]`, tabID))
	reg.RegisterCSS("tab_spinner", fmt.Sprintf(`[id="%sTab"] [data-test="wait-spinner"]`, tabID))
	return &Tabs{
		actions: parent.WithRegistry(reg),
		name:    name,
		tabID:   tabID,
	}
}

// Open clicks the tab and waits for its load spinner to clear.
func (t *Tabs) Open() error {
	if _, err := t.actions.WaitVisible("tab_bar"); err != nil {
		return err
	}
	if err := t.actions.Click(t.name); err != nil {
		return err
	}
	return t.actions.WaitInvisible("tab_spinner")
}

// Label returns the tab's label text.
func (t *Tabs) Label() (string, error) {
	if _, err := t.actions.WaitVisible("tab_bar"); err != nil {
		return "", err
	}
	return t.actions.Text("tab_label")
}

// All returns the labels of every tab in the bar.
func (t *Tabs) All() ([]string, error) {
	if _, err := t.actions.WaitVisible("tab_bar"); err != nil {
		return nil, err
	}
	tabs, err := t.actions.FindAll("tabs")
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		text, err := t.actions.TextOf(tab)
		if err != nil {
			return nil, err
		}
		labels = append(labels, text)
	}
	return labels, nil
}
