// Package harness manages the test-session lifecycle around the page
// objects: browser bootstrap with bounded retry, the initial login, per-test
// step recording, numbered screenshots and a LIFO cleanup stack.
package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/driver/chrome"
	"github.com/devicelab-dev/pagekit/pkg/driver/webdriver"
	"github.com/devicelab-dev/pagekit/pkg/page"
)

// Config describes one harness run: where the browser comes from, which app
// it drives and what artifacts to keep.
type Config struct {
	Name      string // run name in results, defaults to "ui-tests"
	RemoteURL string // WebDriver remote end
	BaseURL   string // application under test

	Browser      string
	Headless     bool
	WindowWidth  int
	WindowHeight int

	// Credentials for the initial login. Login is skipped when Username
	// is empty.
	Username string
	Password string

	// Retries is the number of extra bootstrap attempts after the first.
	// Bootstrap covers session creation and login; nothing is retried
	// once the session is up.
	Retries       int
	RetryInterval time.Duration // initial backoff interval, defaults to 2s

	// OutputDir is the artifact root. A per-run directory named by the
	// run ID is created under it. Empty keeps artifacts in memory only.
	OutputDir string

	Artifacts core.ArtifactConfig
}

// SessionFactory boots one browser session for the run. The default factory
// talks W3C WebDriver to cfg.RemoteURL; tests inject the in-memory fake.
type SessionFactory func(cfg Config, log *zap.Logger) (core.Session, error)

// WebDriverFactory creates a session against the configured remote end.
func WebDriverFactory(cfg Config, log *zap.Logger) (core.Session, error) {
	client := webdriver.NewClient(cfg.RemoteURL, log)
	err := client.Connect(webdriver.Options{
		Browser:      cfg.Browser,
		Headless:     cfg.Headless,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
	})
	if err != nil {
		return nil, err
	}
	// The wait facade polls on its own.
	if err := client.SetImplicitWait(0); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ChromeFactory launches a local Chrome over DevTools instead of talking to
// a remote end. Used when cfg.RemoteURL is empty.
func ChromeFactory(cfg Config, log *zap.Logger) (core.Session, error) {
	return chrome.New(chrome.Options{
		Headless:     cfg.Headless,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
	}, log)
}

// Harness owns one browser session and records test outcomes into a
// core.RunResult. It is not safe for concurrent use; one harness drives one
// session from one goroutine.
type Harness struct {
	cfg     Config
	factory SessionFactory
	log     *zap.Logger

	session  core.Session
	runDir   string
	cleanups []func() error
	shots    int

	run     core.RunResult
	current *Test
}

// New builds a harness for cfg. A nil factory means WebDriverFactory when a
// remote end is configured, ChromeFactory otherwise.
func New(cfg Config, factory SessionFactory, log *zap.Logger) *Harness {
	if factory == nil {
		if cfg.RemoteURL != "" {
			factory = WebDriverFactory
		} else {
			factory = ChromeFactory
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	name := cfg.Name
	if name == "" {
		name = "ui-tests"
	}
	return &Harness{
		cfg:     cfg,
		factory: factory,
		log:     log.Named("harness"),
		run: core.RunResult{
			Name:  name,
			RunID: uuid.NewString(),
		},
	}
}

// Start creates the run directory and boots the browser session, retrying
// the whole bootstrap (session plus login) up to cfg.Retries extra times
// with exponential backoff. A session that boots but fails to log in is
// closed before the next attempt.
func (h *Harness) Start() error {
	h.run.StartTime = time.Now()

	if h.cfg.OutputDir != "" {
		h.runDir = filepath.Join(h.cfg.OutputDir, h.run.RunID)
		if err := os.MkdirAll(h.runDir, 0o755); err != nil {
			return fmt.Errorf("create run directory: %w", err)
		}
	}

	boot := func() error {
		session, err := h.factory(h.cfg, h.log)
		if err != nil {
			h.log.Warn("session bootstrap failed", zap.Error(err))
			return err
		}
		if h.cfg.Username != "" {
			if err := h.login(session); err != nil {
				_ = session.Close()
				h.log.Warn("login failed", zap.Error(err))
				return err
			}
		}
		h.session = session
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0
	if h.cfg.RetryInterval > 0 {
		policy.InitialInterval = h.cfg.RetryInterval
	} else {
		policy.InitialInterval = 2 * time.Second
	}
	if err := backoff.Retry(boot, backoff.WithMaxRetries(policy, uint64(h.cfg.Retries))); err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}

	h.Cleanup(func() error { return h.session.Close() })
	h.log.Info("session ready",
		zap.String("run_id", h.run.RunID),
		zap.String("base_url", h.cfg.BaseURL))
	return nil
}

func (h *Harness) login(session core.Session) error {
	login := page.NewLoginPage(session, h.cfg.BaseURL, h.log)
	if err := login.Open(); err != nil {
		return err
	}
	return login.Login(h.cfg.Username, h.cfg.Password)
}

// Session returns the booted browser session, nil before Start.
func (h *Harness) Session() core.Session {
	return h.session
}

// RunID returns the unique ID of this run.
func (h *Harness) RunID() string {
	return h.run.RunID
}

// RunDir returns the per-run artifact directory, empty when OutputDir is
// unset or Start has not run.
func (h *Harness) RunDir() string {
	return h.runDir
}

// Cleanup registers fn to run at Finish. Cleanups run in LIFO order, so
// later registrations unwind first; the session close registered by Start
// always runs last.
func (h *Harness) Cleanup(fn func() error) {
	h.cleanups = append(h.cleanups, fn)
}

// Finish ends any open test, unwinds the cleanup stack and returns the
// completed run result. Cleanup failures are logged, never fatal.
func (h *Harness) Finish() *core.RunResult {
	if h.current != nil {
		h.current.End()
	}
	for i := len(h.cleanups) - 1; i >= 0; i-- {
		if err := h.cleanups[i](); err != nil {
			h.log.Warn("cleanup failed", zap.Error(err))
		}
	}
	h.cleanups = nil
	h.session = nil

	h.run.Duration = time.Since(h.run.StartTime)
	h.run.ComputeSummary()
	h.log.Info("run finished",
		zap.Int("total", h.run.TotalTests),
		zap.Int("passed", h.run.PassedTests),
		zap.Int("failed", h.run.FailedTests))
	return &h.run
}

// Screenshot captures the page and stores it under the run directory as
// NN_<name>.png, numbered in capture order across the whole run.
func (h *Harness) Screenshot(name string) (core.Attachment, error) {
	if h.session == nil {
		return core.Attachment{}, core.ErrSessionClosed
	}
	data, err := h.session.Screenshot()
	if err != nil {
		return core.Attachment{}, err
	}

	h.shots++
	file := fmt.Sprintf("%02d_%s.png", h.shots, safeName(name))
	att := core.NewScreenshotAttachment(file, data)
	if h.runDir != "" {
		if err := os.WriteFile(filepath.Join(h.runDir, file), data, 0o644); err != nil {
			return att, fmt.Errorf("write screenshot: %w", err)
		}
	}
	h.log.Debug("screenshot captured", zap.String("file", file))
	return att, nil
}

// pageSource serializes the current DOM and stores it next to the
// screenshots as NN_<name>.html.
func (h *Harness) pageSource(name string) (core.Attachment, error) {
	if h.session == nil {
		return core.Attachment{}, core.ErrSessionClosed
	}
	raw, err := h.session.ExecuteScript("return document.documentElement.outerHTML;")
	if err != nil {
		return core.Attachment{}, err
	}
	var html string
	if err := json.Unmarshal(raw, &html); err != nil {
		return core.Attachment{}, fmt.Errorf("parse page source: %w", err)
	}

	h.shots++
	file := fmt.Sprintf("%02d_%s.html", h.shots, safeName(name))
	att := core.NewPageSourceAttachment(file, []byte(html))
	if h.runDir != "" {
		if err := os.WriteFile(filepath.Join(h.runDir, file), []byte(html), 0o644); err != nil {
			return att, fmt.Errorf("write page source: %w", err)
		}
	}
	return att, nil
}

// safeName maps a step name onto a filesystem-safe lowercase slug.
func safeName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
	mapped = strings.Trim(mapped, "_")
	if mapped == "" {
		return "step"
	}
	return mapped
}
