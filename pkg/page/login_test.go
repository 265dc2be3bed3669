package page

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/driver/fake"
)

const loginHTML = `<html><head><title>Login</title></head><body>
<form class="loginForm">
<input id="username" type="text"/>
<input id="password" type="password"/>
</form>
</body></html>`

const homeHTML = `<html><head><title>Home</title></head><body>
<a data-action="home">Home</a>
</body></html>`

// newLoginFixture renders the login form and swaps in the home page once the
// password field receives Enter with valid credentials typed.
func newLoginFixture(t *testing.T, wantUser, wantPass string) (*fake.Session, *LoginPage) {
	t.Helper()

	session := fake.MustNew(loginHTML)
	var user string
	session.OnType("#username", func(s *fake.Session, text string) {
		user = text
	})
	session.OnType("#password", func(s *fake.Session, text string) {
		if !strings.HasSuffix(text, enterKey) {
			return
		}
		if user == wantUser && strings.TrimSuffix(text, enterKey) == wantPass {
			if err := s.SetHTML(homeHTML); err != nil {
				t.Fatalf("fixture re-render failed: %v", err)
			}
		}
	})

	login := NewLoginPage(session, "http://127.0.0.1:8000", zap.NewNop())
	login.actions.SetTimeout(250 * time.Millisecond)
	login.actions.SetInterval(5 * time.Millisecond)
	return session, login
}

func TestLogin(t *testing.T) {
	_, login := newLoginFixture(t, "admin", "changeme")

	if err := login.Login("admin", "changeme"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	title, err := login.Title()
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "Home" {
		t.Errorf("title after login = %q, want %q", title, "Home")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	_, login := newLoginFixture(t, "admin", "changeme")

	if err := login.Login("admin", "wrong"); err == nil {
		t.Fatal("Login() with bad credentials succeeded, want error")
	}
}

func TestLoginPasswordFieldNotCleared(t *testing.T) {
	session, login := newLoginFixture(t, "admin", "changeme")

	// Pre-fill the password as a browser autofill would; EnterText must not
	// clear it, so the typed suffix lands after the existing value.
	var sawValue string
	session.OnType("#password", func(s *fake.Session, text string) {
		sawValue = text
	})
	if err := login.actions.EnterText("password", "extra"); err != nil {
		t.Fatalf("EnterText() error = %v", err)
	}
	if err := login.actions.EnterText("password", "more"); err != nil {
		t.Fatalf("EnterText() error = %v", err)
	}
	if sawValue != "extramore" {
		t.Errorf("password value = %q, want %q (no clearing between entries)", sawValue, "extramore")
	}
}

func TestOpen(t *testing.T) {
	session, login := newLoginFixture(t, "admin", "changeme")

	var navigated string
	session.OnNavigate(func(s *fake.Session, url string) {
		navigated = url
	})
	if err := login.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if navigated != "http://127.0.0.1:8000" {
		t.Errorf("navigated to %q, want base URL", navigated)
	}
}
