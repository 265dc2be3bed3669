package core

import (
	"time"
)

// Attachment represents a debug artifact captured during step execution
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, page_source, console_log
	ContentType string `json:"contentType"` // MIME type: image/png, text/html, text/plain
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentPageSource = "page_source"
	AttachmentConsoleLog = "console_log"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewPageSourceAttachment creates a page source attachment
func NewPageSourceAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentPageSource,
		ContentType: ContentTypeHTML,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	CaptureOnTimeout bool `yaml:"captureOnTimeout" json:"captureOnTimeout"` // Default: true

	// What to capture
	Screenshot bool `yaml:"screenshot" json:"screenshot"` // Default: true
	PageSource bool `yaml:"pageSource" json:"pageSource"` // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		CaptureOnTimeout: true,
		Screenshot:       true,
		PageSource:       true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// ShouldCaptureTimeout returns true if artifacts should be captured on timeout
func (c ArtifactConfig) ShouldCaptureTimeout() bool {
	return c.CaptureOnTimeout
}

// ArtifactCollector defines the interface for capturing debug artifacts.
// Sessions satisfy the screenshot half; page source comes from a script read.
type ArtifactCollector interface {
	// CaptureScreenshot takes a screenshot and returns PNG data
	CaptureScreenshot() ([]byte, error)

	// CapturePageSource returns the current DOM serialized as HTML
	CapturePageSource() ([]byte, error)

	// CaptureConsoleLogs returns browser console entries since the given time
	CaptureConsoleLogs(since time.Time) ([]string, error)
}

// NullArtifactCollector is a no-op implementation for testing
type NullArtifactCollector struct{}

// CaptureScreenshot returns nil (no-op)
func (n NullArtifactCollector) CaptureScreenshot() ([]byte, error) { return nil, nil }

// CapturePageSource returns nil (no-op)
func (n NullArtifactCollector) CapturePageSource() ([]byte, error) { return nil, nil }

// CaptureConsoleLogs returns nil (no-op)
func (n NullArtifactCollector) CaptureConsoleLogs(_ time.Time) ([]string, error) {
	return nil, nil
}
