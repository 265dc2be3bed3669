package component

import (
	"time"

	"github.com/devicelab-dev/pagekit/pkg/actions"
)

// Message reads a status banner that the app shows while work is in flight.
type Message struct {
	Base
}

// NewMessage binds a message banner to selector.
func NewMessage(parent *actions.Actions, name, selector string) *Message {
	return &Message{Base: newBase(parent, name, selector)}
}

// Get waits for the banner and returns its text.
func (m *Message) Get() (string, error) {
	return m.actions.Text(m.name)
}

// WaitCycle waits for the banner to appear, captures its text and then waits
// for it to disappear again. Both waits share the given timeout.
func (m *Message) WaitCycle(timeout time.Duration) (string, error) {
	if _, err := m.actions.WaitVisible(m.name, timeout); err != nil {
		return "", err
	}
	text, err := m.actions.Text(m.name)
	if err != nil {
		return "", err
	}
	if err := m.actions.WaitInvisible(m.name, timeout); err != nil {
		return text, err
	}
	return text, nil
}
