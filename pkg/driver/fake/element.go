package fake

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Element is a handle to one node in the session's document. It is valid
// only for the render generation it was created in; any document mutation
// makes it stale.
type Element struct {
	node       *html.Node
	session    *Session
	generation int
}

func (e *Element) stale() error {
	if e.session.closed {
		return core.ErrSessionClosed
	}
	if e.generation != e.session.generation {
		return core.ErrStaleElement
	}
	return nil
}

// Click runs the click hooks registered for this element. Clicking a hidden
// or disabled element fails the way a real driver refuses the interaction.
func (e *Element) Click() error {
	if err := e.stale(); err != nil {
		return err
	}
	displayed, _ := e.IsDisplayed()
	enabled, _ := e.IsEnabled()
	if !displayed || !enabled {
		return core.ErrNotClickable
	}

	for _, h := range e.session.clickHooks {
		if e.session.nodeMatches(e.node, h.selector) {
			h.fn(e.session)
		}
	}
	return nil
}

// Clear resets the element's value.
func (e *Element) Clear() error {
	if err := e.stale(); err != nil {
		return err
	}
	setAttrValue(e.node, "value", "")
	return nil
}

// SendKeys appends text to the element's value and runs type hooks with the
// resulting value.
func (e *Element) SendKeys(text string) error {
	if err := e.stale(); err != nil {
		return err
	}
	value := attrValue(e.node, "value") + text
	setAttrValue(e.node, "value", value)

	node := e.node
	for _, h := range e.session.typeHooks {
		if e.session.nodeMatches(node, h.selector) {
			h.fn(e.session, value)
		}
	}
	return nil
}

// Text returns the subtree text with whitespace collapsed, approximating
// rendered text. Screen-reader decoration spans are included, as a real
// driver includes them; the scripted read strips them.
func (e *Element) Text() (string, error) {
	if err := e.stale(); err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return collapseSpace(b.String()), nil
}

// Attribute returns an attribute value, empty when absent.
func (e *Element) Attribute(name string) (string, error) {
	if err := e.stale(); err != nil {
		return "", err
	}
	return attrValue(e.node, name), nil
}

// IsDisplayed reports whether the element and its ancestors are visible.
// Visibility is controlled by inline display:none styles and the hidden
// attribute, which is what the fixtures use.
func (e *Element) IsDisplayed() (bool, error) {
	if err := e.stale(); err != nil {
		return false, err
	}
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hasAttr(n, "hidden") {
			return false, nil
		}
		style := strings.ReplaceAll(attrValue(n, "style"), " ", "")
		if strings.Contains(style, "display:none") {
			return false, nil
		}
	}
	return true, nil
}

// IsEnabled reports whether the element accepts interaction.
func (e *Element) IsEnabled() (bool, error) {
	if err := e.stale(); err != nil {
		return false, err
	}
	if hasAttr(e.node, "disabled") {
		return false, nil
	}
	if attrValue(e.node, "aria-disabled") == "true" {
		return false, nil
	}
	return true, nil
}

// Rect returns fixed bounds; the fake has no layout engine.
func (e *Element) Rect() (core.Bounds, error) {
	if err := e.stale(); err != nil {
		return core.Bounds{}, err
	}
	return core.Bounds{X: 100, Y: 200, Width: 200, Height: 50}, nil
}

// FindElement resolves a single element inside this element's subtree.
func (e *Element) FindElement(loc core.Locator) (core.Element, error) {
	if err := e.stale(); err != nil {
		return nil, err
	}
	sel, err := resolve(e.scope(), loc)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return e.session.element(sel.Nodes[0]), nil
}

// FindElements resolves all matching elements inside this element's subtree.
func (e *Element) FindElements(loc core.Locator) ([]core.Element, error) {
	if err := e.stale(); err != nil {
		return nil, err
	}
	sel, err := resolve(e.scope(), loc)
	if err != nil {
		return nil, err
	}
	elements := make([]core.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		elements = append(elements, e.session.element(n))
	}
	return elements, nil
}

// Node exposes the underlying node for fixture hooks.
func (e *Element) Node() *html.Node {
	return e.node
}

// scope wraps the node so selector evaluation only sees its subtree.
func (e *Element) scope() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}
