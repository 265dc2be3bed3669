package component

import (
	"github.com/devicelab-dev/pagekit/pkg/actions"
)

// SearchBox is a query input backed by an embedded code editor, so text goes
// to the focused editor surface instead of a plain input element.
type SearchBox struct {
	Base
}

// NewSearchBox binds a search query box rooted at selector.
func NewSearchBox(parent *actions.Actions, name, selector string) *SearchBox {
	s := &SearchBox{Base: newBase(parent, name, selector)}
	reg := s.actions.Registry()
	reg.RegisterCSS("query_editor", selector+" .ace_editor")
	reg.RegisterCSS("query_content", selector+" .ace_content")
	return s
}

// SetValue focuses the editor surface and types the query. The editor keeps
// its own buffer, so there is no clear step.
func (s *SearchBox) SetValue(value string) error {
	el, err := s.actions.WaitClickable("query_editor")
	if err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return err
	}
	return el.SendKeys(value)
}

// Value returns the query text rendered in the editor's content layer.
func (s *SearchBox) Value() (string, error) {
	if _, err := s.actions.WaitVisible(s.name); err != nil {
		return "", err
	}
	return s.actions.Text("query_content")
}
