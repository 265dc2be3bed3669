package page

import (
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// enterKey is the WebDriver keyboard code for Enter; the login form submits
// on Enter in the password field rather than via a button.
const enterKey = ""

// LoginPage drives the app's login form.
type LoginPage struct {
	*Page
}

// NewLoginPage builds the login page over session and registers the form's
// locators on the shared facade.
func NewLoginPage(session core.Session, baseURL string, log *zap.Logger) *LoginPage {
	p := NewPage(session, baseURL, log)
	reg := locator.NewRegistry()
	reg.RegisterCSS("username", "#username")
	reg.RegisterCSS("password", "#password")
	reg.RegisterCSS("home", `a[data-action="home"]`)
	return &LoginPage{Page: &Page{
		actions: p.actions.WithRegistry(reg),
		baseURL: baseURL,
		log:     p.log,
	}}
}

// Login enters the credentials, submits with Enter and waits for the home
// link that proves the session landed.
func (l *LoginPage) Login(username, password string) error {
	l.log.Info("logging in", zap.String("username", username))
	if err := l.actions.EnterText("username", username); err != nil {
		return err
	}
	if err := l.actions.EnterText("password", password); err != nil {
		return err
	}
	if err := l.actions.EnterText("password", enterKey); err != nil {
		return err
	}
	if _, err := l.actions.WaitVisible("home"); err != nil {
		return err
	}
	l.log.Info("login successful")
	return nil
}
