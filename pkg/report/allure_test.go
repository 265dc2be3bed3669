package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

func sampleRun() *core.RunResult {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	run := &core.RunResult{
		Name:      "saved-searches",
		RunID:     "run-0001",
		StartTime: start,
		Duration:  90 * time.Second,
		Tests: []core.TestResult{
			{
				Name:      "create search",
				Tags:      []string{"smoke"},
				StartTime: start,
				Duration:  30 * time.Second,
				Browser: &core.BrowserInfo{
					Name:      "chrome",
					Version:   "127.0",
					Platform:  "linux",
					RemoteURL: "http://grid:4444",
					Headless:  true,
				},
				Steps: []core.StepRecord{
					{Index: 0, Name: "open page", Status: core.StatusPassed, StartTime: start, Duration: time.Second},
					{Index: 1, Name: "fill form", Status: core.StatusPassed, StartTime: start.Add(time.Second), Duration: 2 * time.Second},
				},
			},
			{
				Name:      "delete search",
				StartTime: start.Add(30 * time.Second),
				Duration:  20 * time.Second,
				Error:     "no table row matched the requested value",
				Message:   "no table row matched the requested value",
				Steps: []core.StepRecord{
					{
						Index:     0,
						Name:      "find row",
						Status:    core.StatusFailed,
						StartTime: start.Add(30 * time.Second),
						Duration:  time.Second,
						Error:     "no table row matched the requested value",
						Attachments: []core.Attachment{
							core.NewScreenshotAttachment("01_find_row.png", []byte("png-bytes")),
						},
					},
				},
			},
		},
	}
	for i := range run.Tests {
		run.Tests[i].Status = run.Tests[i].AggregateStatus()
		run.Tests[i].ComputeSummary()
	}
	run.ComputeSummary()
	return run
}

func readResults(t *testing.T, allureDir string) []AllureResult {
	t.Helper()

	entries, err := os.ReadDir(allureDir)
	if err != nil {
		t.Fatalf("read allure dir: %v", err)
	}
	var results []AllureResult
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), "-result.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(allureDir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		var r AllureResult
		if err := json.Unmarshal(data, &r); err != nil {
			t.Fatalf("parse %s: %v", e.Name(), err)
		}
		results = append(results, r)
	}
	return results
}

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zap.NewNop())
	if err := g.Write(sampleRun(), dir); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	allureDir := filepath.Join(dir, "allure-results")
	results := readResults(t, allureDir)
	if len(results) != 2 {
		t.Fatalf("result files = %d, want 2", len(results))
	}

	byName := map[string]AllureResult{}
	for _, r := range results {
		byName[r.Name] = r
	}

	created := byName["create search"]
	if created.Status != "passed" {
		t.Errorf("create search status = %q, want passed", created.Status)
	}
	if len(created.Steps) != 2 {
		t.Errorf("create search steps = %d, want 2", len(created.Steps))
	}
	if created.UUID == "" || created.HistoryID == "" {
		t.Error("uuid/historyId not populated")
	}

	deleted := byName["delete search"]
	if deleted.Status != "failed" {
		t.Errorf("delete search status = %q, want failed", deleted.Status)
	}
	if deleted.StatusDetails.Message == "" {
		t.Error("status details empty for failed test")
	}
	if len(deleted.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(deleted.Attachments))
	}
	data, err := os.ReadFile(filepath.Join(allureDir, deleted.Attachments[0].Source))
	if err != nil {
		t.Fatalf("attachment file missing: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("attachment body = %q", data)
	}
}

func TestWriteMetadataFiles(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zap.NewNop())
	if err := g.Write(sampleRun(), dir); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	allureDir := filepath.Join(dir, "allure-results")
	for _, name := range []string{"categories.json", "environment.properties", "executor.json"} {
		if _, err := os.Stat(filepath.Join(allureDir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}

	env, err := os.ReadFile(filepath.Join(allureDir, "environment.properties"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"framework=pagekit", "browser.name=chrome", "remote.url=http://grid:4444", "run.id=run-0001"} {
		if !strings.Contains(string(env), want) {
			t.Errorf("environment.properties missing %q:\n%s", want, env)
		}
	}

	var categories []AllureCategory
	data, err := os.ReadFile(filepath.Join(allureDir, "categories.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &categories); err != nil {
		t.Fatalf("parse categories.json: %v", err)
	}
	if len(categories) == 0 {
		t.Error("categories.json is empty")
	}
}

func TestHistoryIDStableAcrossRuns(t *testing.T) {
	run := sampleRun()
	dirA, dirB := t.TempDir(), t.TempDir()

	if err := NewGenerator(dirA, zap.NewNop()).Write(run, dirA); err != nil {
		t.Fatal(err)
	}
	if err := NewGenerator(dirB, zap.NewNop()).Write(run, dirB); err != nil {
		t.Fatal(err)
	}

	historyA := map[string]string{}
	for _, r := range readResults(t, filepath.Join(dirA, "allure-results")) {
		historyA[r.Name] = r.HistoryID
	}
	for _, r := range readResults(t, filepath.Join(dirB, "allure-results")) {
		if historyA[r.Name] != r.HistoryID {
			t.Errorf("historyId for %q differs across runs: %q vs %q", r.Name, historyA[r.Name], r.HistoryID)
		}
	}
}

func TestBrokenStatusForErroredSteps(t *testing.T) {
	start := time.Now()
	run := &core.RunResult{
		Name:      "infra",
		RunID:     "run-0002",
		StartTime: start,
		Tests: []core.TestResult{
			{
				Name:      "grid down",
				Status:    core.StatusFailed,
				StartTime: start,
				Steps: []core.StepRecord{
					{Name: "refresh", Status: core.StatusErrored, StartTime: start, Error: "could not connect"},
				},
			},
		},
	}

	dir := t.TempDir()
	if err := NewGenerator(dir, zap.NewNop()).Write(run, dir); err != nil {
		t.Fatal(err)
	}
	results := readResults(t, filepath.Join(dir, "allure-results"))
	if results[0].Steps[0].Status != "broken" {
		t.Errorf("errored step maps to %q, want broken", results[0].Steps[0].Status)
	}
}
