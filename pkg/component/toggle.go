package component

import (
	"strings"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Toggle is a group of mutually exclusive option buttons where the active
// choice carries the "active" class.
type Toggle struct {
	Base
}

// NewToggle binds a toggle group to selector; the selector matches every
// option button in the group.
func NewToggle(parent *actions.Actions, name, selector string) *Toggle {
	b := newBase(parent, name, selector)
	b.actions.Registry().RegisterCSS("selected_value", selector+" .active")
	return &Toggle{Base: b}
}

// Select clicks the option whose text matches value.
func (t *Toggle) Select(value string) error {
	if _, err := t.actions.WaitVisible(t.name); err != nil {
		return err
	}
	options, err := t.actions.FindAll(t.name)
	if err != nil {
		return err
	}
	for _, option := range options {
		text, err := t.actions.TextOf(option)
		if err != nil {
			return err
		}
		if strings.EqualFold(text, value) {
			return option.Click()
		}
	}
	return core.ErrValueNotFound.WithDetails(map[string]interface{}{
		"component": t.name,
		"value":     value,
	})
}

// Value returns the text of the active option.
func (t *Toggle) Value() (string, error) {
	return t.actions.Text("selected_value")
}
