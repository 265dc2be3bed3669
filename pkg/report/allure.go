// Package report writes allure-results for harness runs: one result JSON
// per test with its steps and attachments, plus the categories, environment
// and executor metadata files the Allure generator picks up.
package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Stage       string             `json:"stage"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Steps       []AllureStep       `json:"steps"`
	Attachments []AllureAttachment `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// AllureExecutor holds executor branding info.
type AllureExecutor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ReportURL  string `json:"reportUrl"`
	ReportName string `json:"reportName"`
}

// Generator writes allure-results under the given output directory.
type Generator struct {
	outputDir string
	log       *zap.Logger
}

// NewGenerator creates a generator writing to <outputDir>/allure-results.
func NewGenerator(outputDir string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		outputDir: outputDir,
		log:       log.Named("report"),
	}
}

// Write emits the complete allure-results tree for run. Attachment bodies
// are written into allure-results; attachments stored only as files are
// copied out of runDir (the harness run directory).
func (g *Generator) Write(run *core.RunResult, runDir string) error {
	allureDir := filepath.Join(g.outputDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for i := range run.Tests {
		result := g.buildResult(run, &run.Tests[i], allureDir, runDir)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", run.Tests[i].Name, err)
		}
		path := filepath.Join(allureDir, result.UUID+"-result.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write result %s: %w", path, err)
		}
	}

	if err := writeCategories(allureDir); err != nil {
		return err
	}
	if err := writeEnvironment(allureDir, run); err != nil {
		return err
	}
	if err := writeExecutor(allureDir); err != nil {
		return err
	}

	g.log.Info("allure results written",
		zap.String("dir", allureDir),
		zap.Int("tests", len(run.Tests)))
	return nil
}

func (g *Generator) buildResult(run *core.RunResult, test *core.TestResult, allureDir, runDir string) AllureResult {
	startMs := test.StartTime.UnixMilli()
	stopMs := startMs + test.Duration.Milliseconds()

	labels := []AllureLabel{
		{Name: "suite", Value: run.Name},
		{Name: "framework", Value: "pagekit"},
		{Name: "severity", Value: "normal"},
	}
	if test.Browser != nil {
		labels = append(labels, AllureLabel{Name: "host", Value: test.Browser.Name})
		if test.Browser.RemoteURL != "" {
			labels = append(labels, AllureLabel{Name: "thread", Value: test.Browser.RemoteURL})
		}
	}
	for _, tag := range test.Tags {
		labels = append(labels, AllureLabel{Name: "tag", Value: tag})
	}

	steps := make([]AllureStep, 0, len(test.Steps))
	var testAttachments []AllureAttachment
	for _, rec := range test.Steps {
		step := AllureStep{
			Name:   rec.Name,
			Status: mapStatus(rec.Status),
			Stage:  "finished",
			Start:  rec.StartTime.UnixMilli(),
			Stop:   rec.StartTime.Add(rec.Duration).UnixMilli(),
			Steps:  []AllureStep{},
		}
		for _, att := range rec.Attachments {
			ref := g.storeAttachment(att, allureDir, runDir)
			if ref == nil {
				continue
			}
			step.Attachments = append(step.Attachments, *ref)
			testAttachments = append(testAttachments, *ref)
		}
		steps = append(steps, step)
	}

	var details AllureStatusDetails
	if test.Error != "" {
		details.Message = test.Message
		details.Trace = test.Error
		if details.Message == "" {
			details.Message = test.Error
		}
	}

	return AllureResult{
		UUID:          uuid.NewString(),
		HistoryID:     fnv32aHash(run.Name + ":" + test.Name),
		FullName:      run.Name + "/" + test.Name,
		Name:          test.Name,
		Status:        mapStatus(test.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		StatusDetails: details,
		Steps:         steps,
		Attachments:   testAttachments,
	}
}

// storeAttachment materializes one attachment inside allure-results and
// returns its reference. In-memory bodies are written directly; file-backed
// attachments are copied from the run directory. A missing file is logged
// and dropped rather than failing the whole report.
func (g *Generator) storeAttachment(att core.Attachment, allureDir, runDir string) *AllureAttachment {
	source := uuid.NewString() + "-attachment" + attachmentExt(att.ContentType)
	dst := filepath.Join(allureDir, source)

	switch {
	case len(att.Body) > 0:
		if err := os.WriteFile(dst, att.Body, 0o644); err != nil {
			g.log.Warn("attachment write failed", zap.String("name", att.Name), zap.Error(err))
			return nil
		}
	case att.Path != "":
		if err := copyFile(filepath.Join(runDir, att.Path), dst); err != nil {
			g.log.Warn("attachment copy failed",
				zap.String("name", att.Name),
				zap.String("path", att.Path),
				zap.Error(err))
			return nil
		}
	default:
		return nil
	}

	return &AllureAttachment{
		Name:   att.Name,
		Source: source,
		Type:   att.ContentType,
	}
}

func attachmentExt(contentType string) string {
	switch contentType {
	case core.ContentTypePNG:
		return ".png"
	case core.ContentTypeHTML:
		return ".html"
	case core.ContentTypeJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// mapStatus maps a step status onto the Allure vocabulary. Errored steps
// become "broken" (infrastructure trouble, not an assertion about the page);
// warned steps count as passed.
func mapStatus(s core.StepStatus) string {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return "passed"
	case core.StatusFailed:
		return "failed"
	case core.StatusErrored:
		return "broken"
	case core.StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeCategories writes categories.json matching the error taxonomy.
func writeCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*element not found.*"},
		{Name: "Stale Element", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*no longer attached.*|.*stale.*"},
		{Name: "Row Lookup Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*no table row.*|.*no table header.*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*timeout.*|.*timed out.*"},
		{Name: "Connection Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*connect.*|.*session is closed.*|.*unreachable.*"},
		{Name: "Configuration Error", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*no locator registered.*|.*invalid configuration.*|.*missing required.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeEnvironment writes environment.properties with browser metadata
// taken from the first test that recorded it.
func writeEnvironment(allureDir string, run *core.RunResult) error {
	var b strings.Builder
	b.WriteString("framework=pagekit\n")
	fmt.Fprintf(&b, "run.id=%s\n", run.RunID)

	for _, test := range run.Tests {
		if test.Browser == nil {
			continue
		}
		if test.Browser.Name != "" {
			fmt.Fprintf(&b, "browser.name=%s\n", test.Browser.Name)
		}
		if test.Browser.Version != "" {
			fmt.Fprintf(&b, "browser.version=%s\n", test.Browser.Version)
		}
		if test.Browser.Platform != "" {
			fmt.Fprintf(&b, "browser.platform=%s\n", test.Browser.Platform)
		}
		if test.Browser.RemoteURL != "" {
			fmt.Fprintf(&b, "remote.url=%s\n", test.Browser.RemoteURL)
		}
		fmt.Fprintf(&b, "browser.headless=%t\n", test.Browser.Headless)
		break
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}

// writeExecutor writes executor.json with DeviceLab branding.
func writeExecutor(allureDir string) error {
	executor := AllureExecutor{
		Name:       "DeviceLab",
		Type:       "devicelab",
		ReportURL:  "https://devicelab.dev",
		ReportName: "Powered by DeviceLab",
	}

	data, err := json.MarshalIndent(executor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor: %w", err)
	}
	path := filepath.Join(allureDir, "executor.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write executor.json: %w", err)
	}
	return nil
}
