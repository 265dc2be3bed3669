package core

import (
	"testing"
	"time"
)

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("step-1-screenshot.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if attachment.Path != "step-1-screenshot.png" {
		t.Errorf("Path = %s, want 'step-1-screenshot.png'", attachment.Path)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewPageSourceAttachment(t *testing.T) {
	data := []byte(`<html><body></body></html>`)
	attachment := NewPageSourceAttachment("step-1-source.html", data)

	if attachment.Name != AttachmentPageSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentPageSource)
	}
	if attachment.ContentType != ContentTypeHTML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeHTML)
	}
}

func TestDefaultArtifactConfig(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.CaptureOnFailure {
		t.Error("CaptureOnFailure should be true by default")
	}
	if cfg.CaptureOnSuccess {
		t.Error("CaptureOnSuccess should be false by default")
	}
	if !cfg.CaptureOnTimeout {
		t.Error("CaptureOnTimeout should be true by default")
	}
	if !cfg.Screenshot {
		t.Error("Screenshot should be true by default")
	}
	if !cfg.PageSource {
		t.Error("PageSource should be true by default")
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status   StepStatus
		expected bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusWarned, false},
		{StatusSkipped, false},
		{StatusPending, false},
		{StatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := cfg.ShouldCapture(tt.status); got != tt.expected {
				t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestArtifactConfig_ShouldCapture_OnSuccess(t *testing.T) {
	cfg := DefaultArtifactConfig()
	cfg.CaptureOnSuccess = true

	if !cfg.ShouldCapture(StatusPassed) {
		t.Error("ShouldCapture(passed) should be true when CaptureOnSuccess is set")
	}
}

func TestNullArtifactCollector(t *testing.T) {
	var c ArtifactCollector = NullArtifactCollector{}

	if data, err := c.CaptureScreenshot(); data != nil || err != nil {
		t.Errorf("CaptureScreenshot() = (%v, %v), want (nil, nil)", data, err)
	}
	if data, err := c.CapturePageSource(); data != nil || err != nil {
		t.Errorf("CapturePageSource() = (%v, %v), want (nil, nil)", data, err)
	}
	if logs, err := c.CaptureConsoleLogs(time.Now()); logs != nil || err != nil {
		t.Errorf("CaptureConsoleLogs() = (%v, %v), want (nil, nil)", logs, err)
	}
}
