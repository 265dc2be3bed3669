package harness

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Test records one logical test: its steps, their outcomes and the debug
// artifacts captured along the way.
type Test struct {
	h      *Harness
	result core.TestResult
	done   bool
}

// StartTest opens a new test record. An unfinished previous test is ended
// first, so forgetting End never loses results.
func (h *Harness) StartTest(name string, tags ...string) *Test {
	if h.current != nil {
		h.current.End()
	}
	t := &Test{
		h: h,
		result: core.TestResult{
			Name:      name,
			Tags:      tags,
			StartTime: time.Now(),
		},
	}
	if h.session != nil {
		info := h.session.Browser()
		t.result.Browser = &info
	}
	h.current = t
	h.log.Info("test started", zap.String("test", name))
	return t
}

// Step runs fn and records its outcome, returning fn's error unchanged so
// callers can still branch on it. A failing step captures artifacts per the
// artifact policy; connection errors mark the step errored rather than
// failed since the page was never consulted.
func (t *Test) Step(name string, fn func() error) error {
	rec := core.StepRecord{
		Index:     len(t.result.Steps),
		Name:      name,
		StartTime: time.Now(),
	}

	err := fn()
	rec.Duration = time.Since(rec.StartTime)

	if err == nil {
		rec.Status = core.StatusPassed
	} else {
		rec.Status = core.StatusFailed
		rec.Error = err.Error()
		var derr *core.DriverError
		if errors.As(err, &derr) {
			rec.Category = derr.Category
			rec.Message = derr.Message
			if derr.Category == core.ErrCategoryConnection {
				rec.Status = core.StatusErrored
			}
		}
		t.h.log.Warn("step failed",
			zap.String("test", t.result.Name),
			zap.String("step", name),
			zap.Error(err))
	}

	capture := t.h.cfg.Artifacts.ShouldCapture(rec.Status)
	if rec.Category == core.ErrCategoryTimeout {
		capture = t.h.cfg.Artifacts.ShouldCaptureTimeout()
	}
	if capture {
		t.attachArtifacts(&rec)
	}

	t.result.Steps = append(t.result.Steps, rec)
	return err
}

// Skip records a step that did not run, typically because an earlier step
// already failed.
func (t *Test) Skip(name, reason string) {
	t.result.Steps = append(t.result.Steps, core.StepRecord{
		Index:     len(t.result.Steps),
		Name:      name,
		Status:    core.StatusSkipped,
		StartTime: time.Now(),
		Message:   reason,
	})
}

// Failed reports whether any recorded step failed or errored.
func (t *Test) Failed() bool {
	for _, s := range t.result.Steps {
		if s.Status == core.StatusFailed || s.Status == core.StatusErrored {
			return true
		}
	}
	return false
}

// End closes the test, aggregates its status and appends it to the run.
// Calling End twice is a no-op returning the same result.
func (t *Test) End() core.TestResult {
	if t.done {
		return t.result
	}
	t.done = true

	t.result.Duration = time.Since(t.result.StartTime)
	t.result.Status = t.result.AggregateStatus()
	t.result.ComputeSummary()

	// Surface the first failing step on the test itself.
	for _, s := range t.result.Steps {
		if s.Status == core.StatusFailed || s.Status == core.StatusErrored {
			t.result.Error = s.Error
			t.result.Message = s.Message
			break
		}
	}

	t.h.run.Tests = append(t.h.run.Tests, t.result)
	if t.h.current == t {
		t.h.current = nil
	}
	t.h.log.Info("test finished",
		zap.String("test", t.result.Name),
		zap.String("status", t.result.Status.String()))
	return t.result
}

func (t *Test) attachArtifacts(rec *core.StepRecord) {
	if t.h.cfg.Artifacts.Screenshot {
		if att, err := t.h.Screenshot(rec.Name); err == nil {
			rec.Attachments = append(rec.Attachments, att)
		} else {
			t.h.log.Warn("screenshot capture failed", zap.Error(err))
		}
	}
	if t.h.cfg.Artifacts.PageSource {
		if att, err := t.h.pageSource(rec.Name); err == nil {
			rec.Attachments = append(rec.Attachments, att)
		} else {
			t.h.log.Warn("page source capture failed", zap.Error(err))
		}
	}
}
