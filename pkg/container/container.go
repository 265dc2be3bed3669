// Package container composes modal workflows over the element access facade:
// opening a configuration entry, saving it with error probing, and dismissing
// it via cancel or close. Action methods report false on failure instead of
// raising, so tests can assert on per-action outcomes without aborting.
package container

import (
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/component"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// Modal markup shared by every configuration dialog.
const modal = `[data-test="modal"]`

// Wait bounds for the save workflow. Saving can kick off server-side work, so
// the modal gets a much longer invisibility wait than the error probe.
const (
	saveTimeout       = 60 * time.Second
	errorProbeTimeout = 5 * time.Second
)

// errorMessageSelector matches the dialog's inline error banner.
const errorMessageSelector = `[data-test-type="error"][data-test="message"] div[data-test="content"]`

// SaveResult is the three-way outcome of a save attempt: a clean save, a
// rejected save with the dialog's error text, or a failed attempt.
type SaveResult struct {
	OK        bool
	ErrorText string
}

// Container drives one modal dialog rooted at a container selector.
type Container struct {
	actions    *actions.Actions
	name       string
	root       string
	errorMsg   *component.Message
	saveWait   time.Duration
	errorProbe time.Duration
	log        *zap.Logger
}

// New builds a container for the dialog opened from the panel under
// rootSelector, deriving its facade from parent.
func New(parent *actions.Actions, name, rootSelector string, log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}

	reg := locator.NewRegistry()
	reg.RegisterCSS(name, rootSelector)
	reg.RegisterCSS("open_modal", modal)
	reg.RegisterCSS("wait_spinner", `[data-test="wait-spinner"]`)
	reg.RegisterCSS("add_btn", rootSelector+` button[data-test="button"][label="Add"]`)
	reg.RegisterCSS("save_btn", modal+" .saveBtn")
	reg.RegisterCSS("edit_btn", modal+" .editBtn")
	reg.RegisterCSS("close_btn", modal+` button[data-test="close"]`)
	reg.RegisterCSS("cancel_btn", modal+` button[data-test="button"][label="Cancel"]`)
	reg.RegisterCSS("config_save_btn", rootSelector+" .saveBtn")
	reg.RegisterCSS("error_msg", errorMessageSelector)

	scoped := parent.WithRegistry(reg)
	return &Container{
		actions:    scoped,
		name:       name,
		root:       rootSelector,
		errorMsg:   component.NewMessage(scoped, "error_msg", errorMessageSelector),
		saveWait:   saveTimeout,
		errorProbe: errorProbeTimeout,
		log:        log.Named("container"),
	}
}

// SetSaveTimeout overrides the modal invisibility wait after a save.
func (c *Container) SetSaveTimeout(d time.Duration) {
	c.saveWait = d
}

// SetErrorProbe overrides the wait given to the post-save error banner probe.
func (c *Container) SetErrorProbe(d time.Duration) {
	c.errorProbe = d
}

// Name returns the container's registry name.
func (c *Container) Name() string {
	return c.name
}

// Registry exposes the container's locator registry so pages can override the
// default dialog controls.
func (c *Container) Registry() *locator.Registry {
	return c.actions.Registry()
}

// Add opens the dialog by clicking the panel's add button and waiting for the
// modal to appear.
func (c *Container) Add() bool {
	if err := c.actions.Click("add_btn"); err != nil {
		c.log.Error("add failed", zap.String("container", c.name), zap.Error(err))
		return false
	}
	if _, err := c.actions.WaitVisible("open_modal"); err != nil {
		c.log.Error("modal did not open", zap.String("container", c.name), zap.Error(err))
		return false
	}
	return true
}

// Close dismisses the dialog via its close control and waits for the modal to
// clear.
func (c *Container) Close() bool {
	return c.dismiss("close_btn")
}

// Cancel dismisses the dialog via its cancel control and waits for the modal
// to clear.
func (c *Container) Cancel() bool {
	return c.dismiss("cancel_btn")
}

// Save clicks the dialog's save button, probes for an inline error banner and
// waits out the modal. A rejected save carries the banner text; an errored
// attempt is logged and reported as not-OK with no text.
func (c *Container) Save() SaveResult {
	c.log.Info("saving", zap.String("container", c.name))
	if err := c.actions.Click("save_btn"); err != nil {
		c.log.Error("save click failed", zap.String("container", c.name), zap.Error(err))
		return SaveResult{}
	}

	if text := c.probeError(); text != "" {
		c.log.Info("save rejected", zap.String("container", c.name), zap.String("error", text))
		return SaveResult{ErrorText: text}
	}

	if err := c.actions.WaitInvisible("open_modal", c.saveWait); err != nil {
		c.log.Error("modal did not close after save", zap.String("container", c.name), zap.Error(err))
		return SaveResult{}
	}
	return SaveResult{OK: true}
}

// SaveConfig clicks the panel-level save button (for inline forms without a
// modal) and waits for the panel to settle.
func (c *Container) SaveConfig() bool {
	if err := c.actions.Click("config_save_btn"); err != nil {
		c.log.Error("config save click failed", zap.String("container", c.name), zap.Error(err))
		return false
	}
	if _, err := c.actions.Find(c.name); err != nil {
		c.log.Error("panel not present after config save", zap.String("container", c.name), zap.Error(err))
		return false
	}
	return true
}

// ErrorMessage waits for the dialog's inline error banner and returns its
// text.
func (c *Container) ErrorMessage() (string, error) {
	return c.errorMsg.Get()
}

// probeError reads the inline error banner with a short wait; an absent
// banner is an empty string, not a failure.
func (c *Container) probeError() string {
	if _, err := c.actions.WaitVisible("error_msg", c.errorProbe); err != nil {
		return ""
	}
	text, err := c.actions.Text("error_msg")
	if err != nil {
		return ""
	}
	return text
}

func (c *Container) dismiss(control string) bool {
	if err := c.actions.Click(control); err != nil {
		c.log.Error("dismiss click failed",
			zap.String("container", c.name),
			zap.String("control", control),
			zap.Error(err))
		return false
	}
	if err := c.actions.WaitInvisible("open_modal"); err != nil {
		c.log.Error("modal did not close",
			zap.String("container", c.name),
			zap.String("control", control),
			zap.Error(err))
		return false
	}
	return true
}
