package component

import (
	"strings"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Dropdown is a menu button whose options render in a detached popover. The
// popover is tied back to the button through its data-test-popover-id
// attribute.
type Dropdown struct {
	Base
}

// NewDropdown binds a dropdown button to selector.
func NewDropdown(parent *actions.Actions, name, selector string) *Dropdown {
	b := newBase(parent, name, selector)
	reg := b.actions.Registry()
	reg.RegisterCSS("menu", `[data-test="popover"] [data-test="menu"]`)
	reg.RegisterCSS("selected_value", selector+` [data-test="select"] [data-test="label"]`)
	return &Dropdown{Base: b}
}

// Select opens the dropdown and clicks the option whose label matches value.
func (d *Dropdown) Select(value string) error {
	options, err := d.open()
	if err != nil {
		return err
	}
	for _, option := range options {
		text, err := d.actions.TextOf(option)
		if err != nil {
			return err
		}
		if strings.EqualFold(text, value) {
			return option.Click()
		}
	}
	return core.ErrValueNotFound.WithDetails(map[string]interface{}{
		"component": d.name,
		"value":     value,
	})
}

// Values opens the dropdown and returns the non-empty option labels.
func (d *Dropdown) Values() ([]string, error) {
	options, err := d.open()
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(options))
	for _, option := range options {
		text, err := d.actions.TextOf(option)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		values = append(values, text)
	}
	return values, nil
}

// SelectedValue returns the label shown on the closed dropdown button.
func (d *Dropdown) SelectedValue() (string, error) {
	return d.actions.Text("selected_value")
}

// open clicks the button, waits for the popover menu and returns the option
// labels of the popover the button points at.
func (d *Dropdown) open() ([]core.Element, error) {
	if err := d.actions.Click(d.name); err != nil {
		return nil, err
	}
	if _, err := d.actions.WaitVisible("menu"); err != nil {
		return nil, err
	}
	btn, err := d.actions.Find(d.name)
	if err != nil {
		return nil, err
	}
	popoverID, err := btn.Attribute("data-test-popover-id")
	if err != nil {
		return nil, err
	}
	return d.actions.Session().FindElements(core.CSS("#" + popoverID + ` [data-test="label"]`))
}
