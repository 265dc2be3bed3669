// Package actions provides the wait-based element access facade shared by
// components, tables and pages. Every operation resolves a named locator
// from the owning component's registry and polls the session until its
// condition holds or the timeout elapses.
package actions

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// Session-wide wait defaults. Overridable per facade and per call.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 250 * time.Millisecond
)

// visibleTextScript reads an element's text with screen-reader-only
// decoration spans removed, without mutating the live DOM.
const visibleTextScript = `var node = arguments[0].cloneNode(true);
node.querySelectorAll('span[data-test="screen-reader-content"]').forEach(function(n) { n.remove(); });
return node.textContent;`

// Actions is one component's element access facade: a locator registry bound
// to a browser session with polling waits. Facades are cheap; every component
// derives its own around the shared session.
type Actions struct {
	session  core.Session
	registry *locator.Registry
	timeout  time.Duration
	interval time.Duration
	log      *zap.Logger
}

// New creates a facade over session with the given registry.
func New(session core.Session, registry *locator.Registry, log *zap.Logger) *Actions {
	if log == nil {
		log = zap.NewNop()
	}
	if registry == nil {
		registry = locator.NewRegistry()
	}
	return &Actions{
		session:  session,
		registry: registry,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		log:      log.Named("actions"),
	}
}

// WithRegistry returns a facade bound to a different locator registry,
// sharing the session, timeouts and logger.
func (a *Actions) WithRegistry(registry *locator.Registry) *Actions {
	return &Actions{
		session:  a.session,
		registry: registry,
		timeout:  a.timeout,
		interval: a.interval,
		log:      a.log,
	}
}

// SetTimeout overrides the default wait timeout for this facade.
func (a *Actions) SetTimeout(d time.Duration) {
	a.timeout = d
}

// SetInterval overrides the polling interval for this facade.
func (a *Actions) SetInterval(d time.Duration) {
	a.interval = d
}

// Timeout returns the facade's default wait timeout.
func (a *Actions) Timeout() time.Duration {
	return a.timeout
}

// Session exposes the underlying browser session.
func (a *Actions) Session() core.Session {
	return a.session
}

// Registry exposes the facade's locator registry.
func (a *Actions) Registry() *locator.Registry {
	return a.registry
}

// Logger exposes the facade's logger so composed components can report
// swallowed failures.
func (a *Actions) Logger() *zap.Logger {
	return a.log
}

// Resolve returns the locator registered under name.
func (a *Actions) Resolve(name string) (core.Locator, error) {
	return a.registry.Resolve(name)
}

// Find blocks until the named element is present and returns it. Fails with
// ErrElementNotFound carrying the locator and timeout after the deadline.
func (a *Actions) Find(name string, override ...time.Duration) (core.Element, error) {
	loc, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}

	timeout := a.timeoutFor(override)
	var found core.Element
	err = a.poll(timeout, func() (bool, error) {
		el, err := a.session.FindElement(loc)
		if err != nil {
			if errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrStaleElement) {
				return false, nil
			}
			return false, err
		}
		found = el
		return true, nil
	})
	if err != nil {
		if errors.Is(err, core.ErrWaitTimeout) {
			return nil, core.ErrElementNotFound.WithDetails(map[string]interface{}{
				"locator": loc.String(),
				"timeout": timeout.String(),
			})
		}
		return nil, err
	}
	return found, nil
}

// FindAll returns all elements matching the named locator right now. No
// match is an empty slice, never an error.
func (a *Actions) FindAll(name string) ([]core.Element, error) {
	loc, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}
	return a.session.FindElements(loc)
}

// FindIn resolves a single element inside scope without polling.
func (a *Actions) FindIn(scope core.Element, loc core.Locator) (core.Element, error) {
	return scope.FindElement(loc)
}

// FindAllIn resolves all matching elements inside scope without polling.
func (a *Actions) FindAllIn(scope core.Element, loc core.Locator) ([]core.Element, error) {
	return scope.FindElements(loc)
}

// WaitVisible blocks until the named element is present and displayed.
func (a *Actions) WaitVisible(name string, override ...time.Duration) (core.Element, error) {
	loc, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}

	timeout := a.timeoutFor(override)
	var found core.Element
	err = a.poll(timeout, func() (bool, error) {
		el, err := a.session.FindElement(loc)
		if err != nil {
			if errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrStaleElement) {
				return false, nil
			}
			return false, err
		}
		visible, err := el.IsDisplayed()
		if err != nil {
			if errors.Is(err, core.ErrStaleElement) {
				return false, nil
			}
			return false, err
		}
		if !visible {
			return false, nil
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, a.waitError(err, "visible", loc, timeout)
	}
	return found, nil
}

// WaitInvisible blocks until the named element is absent or hidden.
func (a *Actions) WaitInvisible(name string, override ...time.Duration) error {
	loc, err := a.Resolve(name)
	if err != nil {
		return err
	}

	timeout := a.timeoutFor(override)
	err = a.poll(timeout, func() (bool, error) {
		el, err := a.session.FindElement(loc)
		if err != nil {
			if errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrStaleElement) {
				return true, nil
			}
			return false, err
		}
		visible, err := el.IsDisplayed()
		if err != nil {
			if errors.Is(err, core.ErrStaleElement) {
				return true, nil
			}
			return false, err
		}
		return !visible, nil
	})
	return a.waitError(err, "invisible", loc, timeout)
}

// WaitClickable blocks until the named element is displayed and enabled.
func (a *Actions) WaitClickable(name string, override ...time.Duration) (core.Element, error) {
	loc, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}

	timeout := a.timeoutFor(override)
	var found core.Element
	err = a.poll(timeout, func() (bool, error) {
		el, err := a.session.FindElement(loc)
		if err != nil {
			if errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrStaleElement) {
				return false, nil
			}
			return false, err
		}
		if !a.IsClickable(el) {
			return false, nil
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, a.waitError(err, "clickable", loc, timeout)
	}
	return found, nil
}

// WaitStale blocks until the element handle goes stale, reporting whether it
// did. A timeout is logged and swallowed: callers use staleness as a resettle
// signal, not a hard condition.
func (a *Actions) WaitStale(el core.Element, override ...time.Duration) bool {
	timeout := a.timeoutFor(override)
	err := a.poll(timeout, func() (bool, error) {
		if _, err := el.IsDisplayed(); errors.Is(err, core.ErrStaleElement) {
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		a.log.Warn("element did not go stale", zap.Duration("timeout", timeout))
		return false
	}
	return true
}

// Click waits for the named element to be clickable, then clicks it.
func (a *Actions) Click(name string, override ...time.Duration) error {
	el, err := a.WaitClickable(name, override...)
	if err != nil {
		return err
	}
	a.log.Debug("click", zap.String("name", name))
	return el.Click()
}

// EnterText waits for the named field, clears it and types text. Password
// fields are typed into without clearing so browser-managed values survive.
func (a *Actions) EnterText(name, text string, override ...time.Duration) error {
	loc, err := a.Resolve(name)
	if err != nil {
		return err
	}
	el, err := a.WaitVisible(name, override...)
	if err != nil {
		return err
	}

	if !strings.Contains(strings.ToLower(loc.Selector), "password") {
		if err := el.Clear(); err != nil {
			return err
		}
	}
	a.log.Debug("enter text", zap.String("name", name))
	return el.SendKeys(text)
}

// Hover waits for the named element and moves the pointer onto it.
func (a *Actions) Hover(name string, override ...time.Duration) error {
	el, err := a.WaitVisible(name, override...)
	if err != nil {
		return err
	}
	a.log.Debug("hover", zap.String("name", name))
	return a.session.Hover(el)
}

// TextOf returns the element's trimmed text with whitespace runs collapsed
// to single spaces.
func (a *Actions) TextOf(el core.Element) (string, error) {
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return collapseSpace(text), nil
}

// Text finds the named element and returns its collapsed text.
func (a *Actions) Text(name string, override ...time.Duration) (string, error) {
	el, err := a.Find(name, override...)
	if err != nil {
		return "", err
	}
	return a.TextOf(el)
}

// VisibleTextOf returns the element's text with screen-reader-only
// decoration spans stripped, via a scripted DOM read.
func (a *Actions) VisibleTextOf(el core.Element) (string, error) {
	raw, err := a.session.ExecuteScript(visibleTextScript, el)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", err
	}
	return collapseSpace(text), nil
}

// IsClickable reports whether the element is displayed and enabled. Errors
// count as not clickable.
func (a *Actions) IsClickable(el core.Element) bool {
	displayed, err := el.IsDisplayed()
	if err != nil || !displayed {
		return false
	}
	enabled, err := el.IsEnabled()
	if err != nil || !enabled {
		return false
	}
	return true
}

// poll runs fn immediately and then on every interval tick until it reports
// done, it fails, or the timeout elapses (ErrWaitTimeout).
func (a *Actions) poll(timeout time.Duration, fn func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return core.ErrWaitTimeout
		}
		time.Sleep(a.interval)
	}
}

// waitError annotates a wait timeout with its predicate and locator; other
// errors pass through.
func (a *Actions) waitError(err error, predicate string, loc core.Locator, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrWaitTimeout) {
		return core.ErrWaitTimeout.WithDetails(map[string]interface{}{
			"predicate": predicate,
			"locator":   loc.String(),
			"timeout":   timeout.String(),
		})
	}
	return err
}

func (a *Actions) timeoutFor(override []time.Duration) time.Duration {
	if len(override) > 0 {
		return override[0]
	}
	return a.timeout
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
