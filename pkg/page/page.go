// Package page provides the page objects layered over the component toolkit:
// a base page for navigation and screenshots, the login page, and the saved
// searches configuration page as the canonical composition of a table, a
// modal container and typed field components around one shared facade.
package page

import (
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// Page is the base page object: one browser session, one shared facade and
// the app's base URL.
type Page struct {
	actions *actions.Actions
	baseURL string
	log     *zap.Logger
}

// NewPage builds a base page over session rooted at baseURL.
func NewPage(session core.Session, baseURL string, log *zap.Logger) *Page {
	if log == nil {
		log = zap.NewNop()
	}
	return &Page{
		actions: actions.New(session, locator.NewRegistry(), log),
		baseURL: baseURL,
		log:     log.Named("page"),
	}
}

// Actions exposes the page's shared facade so composed components can derive
// their own around the same session.
func (p *Page) Actions() *actions.Actions {
	return p.actions
}

// Session exposes the underlying browser session.
func (p *Page) Session() core.Session {
	return p.actions.Session()
}

// BaseURL returns the app's base URL.
func (p *Page) BaseURL() string {
	return p.baseURL
}

// Open navigates to the app's base URL.
func (p *Page) Open() error {
	p.log.Info("opening page", zap.String("url", p.baseURL))
	return p.Session().Navigate(p.baseURL)
}

// OpenPath navigates to a path under the base URL.
func (p *Page) OpenPath(path string) error {
	url := p.baseURL + path
	p.log.Info("opening page", zap.String("url", url))
	return p.Session().Navigate(url)
}

// Title returns the current page title.
func (p *Page) Title() (string, error) {
	return p.Session().Title()
}

// CurrentURL returns the browser's current URL.
func (p *Page) CurrentURL() (string, error) {
	return p.Session().URL()
}

// Screenshot captures the current page as PNG.
func (p *Page) Screenshot() ([]byte, error) {
	return p.Session().Screenshot()
}

// Close releases the browser session. The session is owned by exactly one
// page lifecycle; Close is called once, at teardown.
func (p *Page) Close() error {
	p.log.Info("closing browser session")
	return p.Session().Close()
}
