package component

import "github.com/devicelab-dev/pagekit/pkg/actions"

// Button is a clickable control addressed by a single selector.
type Button struct {
	Base
}

// NewButton binds a button component to selector under the given registry
// name.
func NewButton(parent *actions.Actions, name, selector string) *Button {
	return &Button{Base: newBase(parent, name, selector)}
}

// Click waits for the button to become clickable and clicks it.
func (b *Button) Click() error {
	return b.actions.Click(b.name)
}

// Hover moves the pointer over the button.
func (b *Button) Hover() error {
	return b.actions.Hover(b.name)
}

// Text returns the button's visible text.
func (b *Button) Text() (string, error) {
	return b.actions.Text(b.name)
}

// IsClickable reports whether the button is displayed and enabled.
func (b *Button) IsClickable() bool {
	el, err := b.actions.Find(b.name)
	if err != nil {
		return false
	}
	return b.actions.IsClickable(el)
}
