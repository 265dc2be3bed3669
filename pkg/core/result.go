package core

import (
	"time"
)

// StepRecord captures the outcome of one harness step (navigate, login,
// table action, assertion).
type StepRecord struct {
	// Identity
	Index int    `json:"index"` // 0-based position in the test
	Name  string `json:"name"`  // Human-readable step name

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Message string `json:"message,omitempty"` // Human-readable explanation
	Error   string `json:"error,omitempty"`   // Technical error message

	// Debug artifacts
	Attachments []Attachment `json:"attachments,omitempty"` // Screenshots, page source
}

// TestResult captures the complete outcome of one harness test.
type TestResult struct {
	// Identity
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`

	// Browser info (captured once per test)
	Browser *BrowserInfo `json:"browser,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepRecord `json:"steps"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error info (if the test failed)
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (r *TestResult) ComputeSummary() {
	r.TotalSteps = len(r.Steps)
	r.PassedSteps = 0
	r.FailedSteps = 0
	r.SkippedSteps = 0
	r.WarnedSteps = 0

	for _, step := range r.Steps {
		switch step.Status {
		case StatusPassed:
			r.PassedSteps++
		case StatusFailed, StatusErrored:
			r.FailedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		case StatusWarned:
			r.WarnedSteps++
		}
	}
}

// hasFailure checks if any step in the slice has failed or errored
func hasFailure(steps []StepRecord) bool {
	for _, step := range steps {
		if step.Status == StatusFailed || step.Status == StatusErrored {
			return true
		}
	}
	return false
}

// hasWarning checks if any step in the slice has warned status
func hasWarning(steps []StepRecord) bool {
	for _, step := range steps {
		if step.Status == StatusWarned {
			return true
		}
	}
	return false
}

// AggregateStatus determines the test status from step records.
// Any failed/errored step makes the test failed; warned steps alone
// downgrade it to warned; otherwise passed.
func (r *TestResult) AggregateStatus() StepStatus {
	if hasFailure(r.Steps) {
		return StatusFailed
	}
	if hasWarning(r.Steps) {
		return StatusWarned
	}
	return StatusPassed
}

// RunResult captures the complete outcome of executing multiple tests
// against one browser session configuration.
type RunResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"` // Unique execution ID (UUID)

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Tests []TestResult `json:"tests"`

	// Summary
	TotalTests   int `json:"totalTests"`
	PassedTests  int `json:"passedTests"`
	FailedTests  int `json:"failedTests"`
	SkippedTests int `json:"skippedTests"`
}

// ComputeSummary calculates test counts from the Tests slice
func (s *RunResult) ComputeSummary() {
	s.TotalTests = len(s.Tests)
	s.PassedTests = 0
	s.FailedTests = 0
	s.SkippedTests = 0

	for _, test := range s.Tests {
		switch test.Status {
		case StatusPassed, StatusWarned:
			s.PassedTests++
		case StatusFailed, StatusErrored:
			s.FailedTests++
		case StatusSkipped:
			s.SkippedTests++
		}
	}
}

// Success returns true if all tests passed (including warned)
func (s *RunResult) Success() bool {
	for _, test := range s.Tests {
		if !test.Status.IsSuccess() {
			return false
		}
	}
	return len(s.Tests) > 0
}
