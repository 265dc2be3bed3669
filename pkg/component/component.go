// Package component provides typed field components over the element access
// facade: buttons, text boxes, checkboxes, toggles, tabs, selects, dropdowns,
// messages and toasts bound to the app's data-test markup. Each component
// owns a locator registry rooted at its control group and derives its facade
// from the page's shared one.
package component

import (
	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// controlGroup returns the control-group root selector for a field name.
func controlGroup(field string) string {
	return `[data-test="control-group"][data-name="` + field + `"]`
}

// Base carries the facade and the accessor locators every field component
// shares: the label, the help text under the control, and the hover tooltip.
type Base struct {
	actions *actions.Actions
	name    string
	root    string
}

// newBase builds a component registry rooted at selector, registering the
// shared accessor locators alongside the component's own root.
func newBase(parent *actions.Actions, name, root string) Base {
	reg := locator.NewRegistry()
	reg.RegisterCSS(name, root)
	reg.RegisterCSS("label_component", root+` [id][data-test="label"]`)
	reg.RegisterCSS("tooltip", `[data-test="screen-reader-content"]`)
	reg.RegisterCSS("icon", root+` [data-test="tooltip"]`)
	reg.RegisterCSS("help", root+` [data-test="help"]`)
	return Base{
		actions: parent.WithRegistry(reg),
		name:    name,
		root:    root,
	}
}

// Name returns the component's registry name.
func (b *Base) Name() string {
	return b.name
}

// Root returns the component's root selector.
func (b *Base) Root() string {
	return b.root
}

// Label returns the component's label text.
func (b *Base) Label() (string, error) {
	return b.actions.Text("label_component")
}

// HelpText returns the help text under the control.
func (b *Base) HelpText() (string, error) {
	return b.actions.Text("help")
}

// TooltipText hovers over the component's tooltip icon and returns the
// revealed tooltip text.
func (b *Base) TooltipText() (string, error) {
	if err := b.actions.Hover("icon"); err != nil {
		return "", err
	}
	if _, err := b.actions.WaitVisible("tooltip"); err != nil {
		return "", err
	}
	return b.actions.Text("tooltip")
}
