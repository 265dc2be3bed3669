// Package core defines the capability surface shared by driver backends and
// page components: element location strategies, the browser session and
// element handle interfaces, and the error taxonomy.
package core

import "encoding/json"

// Strategy is a W3C WebDriver location strategy.
type Strategy string

// Location strategies (W3C "using" values).
const (
	StrategyCSS             Strategy = "css selector"
	StrategyXPath           Strategy = "xpath"
	StrategyLinkText        Strategy = "link text"
	StrategyPartialLinkText Strategy = "partial link text"
	StrategyTagName         Strategy = "tag name"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyCSS, StrategyXPath, StrategyLinkText, StrategyPartialLinkText, StrategyTagName:
		return true
	}
	return false
}

// Locator identifies zero or more DOM elements by strategy and selector.
// Name is set when the locator is registered and carried for error messages.
type Locator struct {
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Strategy Strategy `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Selector string   `yaml:"selector" json:"selector"`
}

// CSS returns a CSS locator for the given selector.
func CSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Selector: selector}
}

// XPath returns an XPath locator for the given expression.
func XPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Selector: expr}
}

// IsZero reports whether the locator has no selector.
func (l Locator) IsZero() bool {
	return l.Selector == ""
}

// String returns a human-readable description like name (css selector: "td.cell-name").
func (l Locator) String() string {
	desc := string(l.Strategy) + ": \"" + l.Selector + "\""
	if l.Name != "" {
		return l.Name + " (" + desc + ")"
	}
	return desc
}

// Session is one browser automation session. Implementations: W3C WebDriver
// remote end, chromedp, and the in-memory fake. A Session is owned by one
// logical test at a time; it is released exactly once, at teardown.
type Session interface {
	// FindElement resolves a single element. Fails with ErrElementNotFound
	// (wrapped) when nothing matches.
	FindElement(loc Locator) (Element, error)

	// FindElements resolves all matching elements. No match is an empty
	// slice, never an error.
	FindElements(loc Locator) ([]Element, error)

	// ExecuteScript runs a script in the page and returns its JSON result.
	ExecuteScript(script string, args ...interface{}) (json.RawMessage, error)

	// Hover moves the pointer over the element and lets it settle.
	Hover(el Element) error

	// Navigate loads the given URL.
	Navigate(url string) error

	// URL returns the current page URL.
	URL() (string, error)

	// Title returns the current page title.
	Title() (string, error)

	// Screenshot captures the current page as PNG.
	Screenshot() ([]byte, error)

	// Browser returns static information about the automated browser.
	Browser() BrowserInfo

	// Close releases the session.
	Close() error
}

// Element is a handle to one on-screen DOM element. Handles are valid only
// until the DOM re-renders; afterwards calls fail with ErrStaleElement.
type Element interface {
	Click() error
	Clear() error
	SendKeys(text string) error
	Text() (string, error)
	Attribute(name string) (string, error)
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	Rect() (Bounds, error)

	// FindElement resolves a single element scoped to this element.
	FindElement(loc Locator) (Element, error)

	// FindElements resolves all matching elements scoped to this element.
	FindElements(loc Locator) ([]Element, error)
}

// BrowserInfo describes the automated browser and remote end.
type BrowserInfo struct {
	Name      string `json:"name"`                // e.g. "chrome", "firefox"
	Version   string `json:"version,omitempty"`   // e.g. "127.0.6533.88"
	Platform  string `json:"platform,omitempty"`  // e.g. "linux"
	RemoteURL string `json:"remoteUrl,omitempty"` // WebDriver endpoint, empty for local backends
	Headless  bool   `json:"headless,omitempty"`
}

// Bounds represents element position and size in CSS pixels.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}
