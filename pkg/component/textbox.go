package component

import (
	"strings"

	"github.com/devicelab-dev/pagekit/pkg/actions"
)

// TextBox is a single-line input inside a control group.
type TextBox struct {
	Base
}

// NewTextBox binds the input of the control group whose data-name is field.
func NewTextBox(parent *actions.Actions, name, field string) *TextBox {
	root := controlGroup(field)
	b := newBase(parent, name, root)
	b.actions.Registry().RegisterCSS("text_box", root+` [data-test="controls"] input`)
	return &TextBox{Base: b}
}

// SetValue clears the input and types text into it.
func (t *TextBox) SetValue(text string) error {
	if _, err := t.actions.WaitClickable("text_box"); err != nil {
		return err
	}
	if err := t.RemoveText(); err != nil {
		return err
	}
	return t.actions.EnterText("text_box", text)
}

// RemoveText empties the input.
func (t *TextBox) RemoveText() error {
	el, err := t.actions.Find("text_box")
	if err != nil {
		return err
	}
	return el.Clear()
}

// Value returns the input's current value, trimmed.
func (t *TextBox) Value() (string, error) {
	return t.attr("value")
}

// Placeholder returns the input's placeholder text.
func (t *TextBox) Placeholder() (string, error) {
	return t.attr("placeholder")
}

// Type returns the input's type attribute.
func (t *TextBox) Type() (string, error) {
	return t.attr("type")
}

// IsEditable reports whether the input is neither disabled nor readonly.
func (t *TextBox) IsEditable() (bool, error) {
	disabled, err := t.attr("disabled")
	if err != nil {
		return false, err
	}
	readonly, err := t.attr("readonly")
	if err != nil {
		return false, err
	}
	return disabled == "" && readonly == "", nil
}

func (t *TextBox) attr(name string) (string, error) {
	el, err := t.actions.Find("text_box")
	if err != nil {
		return "", err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
