package locator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLocatorFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVetCleanFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeLocatorFile(t, dir, "common.yaml", `
rows: "tr.list-item"
docs_link:
  strategy: partial link text
  selector: Documentation
`)
	b := writeLocatorFile(t, dir, "searches.yaml", `
search_input: "input[type=search]"
`)

	if findings := Vet([]string{a, b}); len(findings) != 0 {
		t.Errorf("Vet() = %v, want no findings", findings)
	}
}

func TestVetEmptySelector(t *testing.T) {
	dir := t.TempDir()
	path := writeLocatorFile(t, dir, "bad.yaml", `
rows: ""
`)

	findings := Vet([]string{path})
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want 1", findings)
	}
	if findings[0].Name != "rows" || !strings.Contains(findings[0].Message, "empty selector") {
		t.Errorf("finding = %+v", findings[0])
	}
}

func TestVetUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	path := writeLocatorFile(t, dir, "bad.yaml", `
docs_link:
  strategy: telepathy
  selector: Documentation
`)

	findings := Vet([]string{path})
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want 1", findings)
	}
	if !strings.Contains(findings[0].Message, `unknown strategy "telepathy"`) {
		t.Errorf("finding = %+v", findings[0])
	}
}

func TestVetDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeLocatorFile(t, dir, "a.yaml", `rows: "tr.list-item"`)
	b := writeLocatorFile(t, dir, "b.yaml", `rows: "tr.other"`)

	findings := Vet([]string{a, b})
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want 1", findings)
	}
	if findings[0].File != b || !strings.Contains(findings[0].Message, "already defined in") {
		t.Errorf("finding = %+v", findings[0])
	}
}

func TestVetUnreadableFile(t *testing.T) {
	findings := Vet([]string{"/nonexistent/locators.yaml"})
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want 1", findings)
	}
	if findings[0].Name != "" {
		t.Errorf("load failure should be a file-level finding: %+v", findings[0])
	}
}

func TestVetDuplicateWithinFileAllowed(t *testing.T) {
	// YAML maps collapse duplicate keys, so within one file the later entry
	// silently wins; only cross-file duplicates are reportable.
	dir := t.TempDir()
	path := writeLocatorFile(t, dir, "a.yaml", `
rows: "tr.list-item"
add_btn: "button.add"
`)
	if findings := Vet([]string{path, path}); len(findings) != 0 {
		t.Errorf("same file listed twice reported: %v", findings)
	}
}
