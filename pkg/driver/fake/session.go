// Package fake provides a deterministic in-memory core.Session for tests.
// The DOM is a parsed HTML document; registered hooks mutate it in response
// to clicks, typing, hovers and navigation, standing in for the application
// under test. Every mutation re-renders the document and invalidates all
// outstanding element handles, the way a live page re-render would.
package fake

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Session is an in-memory core.Session over a goquery document.
type Session struct {
	doc        *goquery.Document
	generation int
	url        string
	title      string
	closed     bool

	clickHooks []hook
	typeHooks  []typeHook
	hoverHooks []hook
	scriptFns  []scriptHook
	navigateFn func(s *Session, url string)
}

type hook struct {
	selector string
	fn       func(s *Session)
}

type typeHook struct {
	selector string
	fn       func(s *Session, text string)
}

type scriptHook struct {
	match string
	fn    func(s *Session, args []interface{}) (interface{}, error)
}

// New parses the given HTML into a session.
func New(pageHTML string) (*Session, error) {
	s := &Session{}
	if err := s.SetHTML(pageHTML); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for fixtures that are known-good literals.
func MustNew(pageHTML string) *Session {
	s, err := New(pageHTML)
	if err != nil {
		panic(err)
	}
	return s
}

// SetHTML replaces the whole document and invalidates all element handles.
func (s *Session) SetHTML(pageHTML string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return fmt.Errorf("parse fixture html: %w", err)
	}
	s.doc = doc
	s.generation++
	if t := strings.TrimSpace(doc.Find("title").Text()); t != "" {
		s.title = t
	}
	return nil
}

// Mutate runs fn against the live document and invalidates all element
// handles, the way an in-place re-render would.
func (s *Session) Mutate(fn func(doc *goquery.Document)) {
	fn(s.doc)
	s.generation++
}

// Document exposes the live document for fixture assertions. Mutating it
// directly bypasses handle invalidation; use Mutate for that.
func (s *Session) Document() *goquery.Document {
	return s.doc
}

// Generation returns the current render generation.
func (s *Session) Generation() int {
	return s.generation
}

// OnClick registers fn to run when an element matching selector is clicked.
func (s *Session) OnClick(selector string, fn func(s *Session)) {
	s.clickHooks = append(s.clickHooks, hook{selector: selector, fn: fn})
}

// OnType registers fn to run when text is sent to an element matching
// selector. fn receives the element's full value after the keystrokes.
func (s *Session) OnType(selector string, fn func(s *Session, text string)) {
	s.typeHooks = append(s.typeHooks, typeHook{selector: selector, fn: fn})
}

// OnHover registers fn to run when an element matching selector is hovered.
func (s *Session) OnHover(selector string, fn func(s *Session)) {
	s.hoverHooks = append(s.hoverHooks, hook{selector: selector, fn: fn})
}

// OnScript registers fn to answer ExecuteScript calls whose script contains
// match. Registered hooks take precedence over the built-in shims.
func (s *Session) OnScript(match string, fn func(s *Session, args []interface{}) (interface{}, error)) {
	s.scriptFns = append(s.scriptFns, scriptHook{match: match, fn: fn})
}

// OnNavigate registers fn to run on Navigate, typically to swap the document.
func (s *Session) OnNavigate(fn func(s *Session, url string)) {
	s.navigateFn = fn
}

// SetTitle sets the page title reported by Title.
func (s *Session) SetTitle(title string) {
	s.title = title
}

// FindElement resolves a single element. A miss is ErrElementNotFound.
func (s *Session) FindElement(loc core.Locator) (core.Element, error) {
	if s.closed {
		return nil, core.ErrSessionClosed
	}
	sel, err := resolve(s.doc.Selection, loc)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, core.ErrElementNotFound.WithLocator(loc)
	}
	return s.element(sel.Nodes[0]), nil
}

// FindElements resolves all matching elements. No match is an empty slice,
// never an error.
func (s *Session) FindElements(loc core.Locator) ([]core.Element, error) {
	if s.closed {
		return nil, core.ErrSessionClosed
	}
	sel, err := resolve(s.doc.Selection, loc)
	if err != nil {
		return nil, err
	}
	elements := make([]core.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		elements = append(elements, s.element(n))
	}
	return elements, nil
}

// ExecuteScript answers registered script hooks first, then the built-in
// shims: the screen-reader strip and document.title. Unknown scripts fail.
func (s *Session) ExecuteScript(script string, args ...interface{}) (json.RawMessage, error) {
	if s.closed {
		return nil, core.ErrSessionClosed
	}

	for _, h := range s.scriptFns {
		if strings.Contains(script, h.match) {
			result, err := h.fn(s, args)
			if err != nil {
				return nil, err
			}
			return json.Marshal(result)
		}
	}

	switch {
	case strings.Contains(script, "screen-reader-content"):
		el, ok := firstElementArg(args)
		if !ok {
			return nil, fmt.Errorf("script expects an element argument")
		}
		if err := el.stale(); err != nil {
			return nil, err
		}
		return json.Marshal(textWithoutScreenReader(el.node))
	case strings.Contains(script, "document.title"):
		return json.Marshal(s.title)
	}
	return nil, fmt.Errorf("script not supported by fake session: %q", truncate(script, 60))
}

// Hover runs hover hooks matching the element.
func (s *Session) Hover(el core.Element) error {
	handle, ok := el.(*Element)
	if !ok {
		return fmt.Errorf("hover: element does not belong to this session")
	}
	if err := handle.stale(); err != nil {
		return err
	}
	for _, h := range s.hoverHooks {
		if s.nodeMatches(handle.node, h.selector) {
			h.fn(s)
		}
	}
	return nil
}

// Navigate records the URL and runs the navigation hook.
func (s *Session) Navigate(url string) error {
	if s.closed {
		return core.ErrSessionClosed
	}
	s.url = url
	if s.navigateFn != nil {
		s.navigateFn(s, url)
	}
	return nil
}

// URL returns the last navigated URL.
func (s *Session) URL() (string, error) {
	if s.closed {
		return "", core.ErrSessionClosed
	}
	return s.url, nil
}

// Title returns the page title.
func (s *Session) Title() (string, error) {
	if s.closed {
		return "", core.ErrSessionClosed
	}
	return s.title, nil
}

// Screenshot returns a minimal valid PNG (1x1 transparent pixel).
func (s *Session) Screenshot() ([]byte, error) {
	if s.closed {
		return nil, core.ErrSessionClosed
	}
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// Browser identifies the fake backend.
func (s *Session) Browser() core.BrowserInfo {
	return core.BrowserInfo{Name: "fake", Headless: true}
}

// Close marks the session closed; further calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

func (s *Session) element(n *html.Node) *Element {
	return &Element{node: n, session: s, generation: s.generation}
}

// nodeMatches reports whether node is among the document's matches for
// selector.
func (s *Session) nodeMatches(node *html.Node, selector string) bool {
	for _, n := range s.doc.Find(selector).Nodes {
		if n == node {
			return true
		}
	}
	return false
}

// resolve evaluates a locator against a scope. CSS and tag name go through
// the selector engine; link text strategies filter anchors by text.
func resolve(scope *goquery.Selection, loc core.Locator) (*goquery.Selection, error) {
	strategy := loc.Strategy
	if strategy == "" {
		strategy = core.StrategyCSS
	}

	switch strategy {
	case core.StrategyCSS, core.StrategyTagName:
		return scope.Find(loc.Selector), nil
	case core.StrategyLinkText:
		return scope.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.TrimSpace(a.Text()) == loc.Selector
		}), nil
	case core.StrategyPartialLinkText:
		return scope.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.Contains(a.Text(), loc.Selector)
		}), nil
	}
	return nil, fmt.Errorf("strategy %q not supported by fake session", strategy)
}

func firstElementArg(args []interface{}) (*Element, bool) {
	for _, a := range args {
		if el, ok := a.(*Element); ok {
			return el, true
		}
	}
	return nil, false
}

// textWithoutScreenReader walks the subtree skipping screen-reader-only
// decoration spans, mirroring the scripted DOM read used against real pages.
func textWithoutScreenReader(node *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "span" && attrValue(n, "data-test") == "screen-reader-content" {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return collapseSpace(b.String())
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttrValue(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// collapseSpace trims and collapses whitespace runs to single spaces,
// approximating rendered text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
