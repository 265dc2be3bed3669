package component

import "github.com/devicelab-dev/pagekit/pkg/actions"

// CheckBox is a two-state switch inside a control group.
type CheckBox struct {
	Base
}

// NewCheckBox binds the checkbox of the control group whose data-name is
// field.
func NewCheckBox(parent *actions.Actions, name, field string) *CheckBox {
	root := controlGroup(field)
	b := newBase(parent, name, root)
	reg := b.actions.Registry()
	reg.RegisterCSS("checkbox_btn", root+` [data-test="controls"] [data-test="button"][role="checkbox"]`)
	reg.RegisterCSS("checkbox", root+` [data-test="controls"] [data-test="switch"]`)
	return &CheckBox{Base: b}
}

// IsChecked reports the current switch state.
func (c *CheckBox) IsChecked() (bool, error) {
	el, err := c.actions.Find("checkbox")
	if err != nil {
		return false, err
	}
	selected, err := el.Attribute("data-test-selected")
	if err != nil {
		return false, err
	}
	return selected == "true", nil
}

// Check turns the switch on. It reports whether a click was needed; a switch
// that is already on is left alone.
func (c *CheckBox) Check() (bool, error) {
	return c.set(true)
}

// Uncheck turns the switch off. It reports whether a click was needed.
func (c *CheckBox) Uncheck() (bool, error) {
	return c.set(false)
}

// Set drives the switch to the wanted state and reports whether a click was
// needed.
func (c *CheckBox) Set(checked bool) (bool, error) {
	return c.set(checked)
}

func (c *CheckBox) set(want bool) (bool, error) {
	if _, err := c.actions.WaitClickable("checkbox_btn"); err != nil {
		return false, err
	}
	current, err := c.IsChecked()
	if err != nil {
		return false, err
	}
	if current == want {
		return false, nil
	}
	if err := c.actions.Click("checkbox_btn"); err != nil {
		return false, err
	}
	return true, nil
}
