package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = &buf
	// Keep exit-coded errors as return values instead of os.Exit.
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"pagekit"}, args...))
	return buf.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	coder, ok := err.(cli.ExitCoder)
	if !ok {
		t.Fatalf("error %v is not an ExitCoder", err)
	}
	return coder.ExitCode()
}

func TestCheckReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"value":{"ready":true,"message":"grid ready"}}`)
	}))
	defer srv.Close()

	out, err := runApp(t, "--remote-url", srv.URL, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "is ready") {
		t.Errorf("output = %q, want ready message", out)
	}
}

func TestCheckNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":{"ready":false,"message":"draining"}}`)
	}))
	defer srv.Close()

	_, err := runApp(t, "--remote-url", srv.URL, "check")
	if err == nil {
		t.Fatal("check succeeded against a draining remote end")
	}
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(err.Error(), "not ready") {
		t.Errorf("error = %q, want not-ready message", err)
	}
}

func TestCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := runApp(t, "--remote-url", srv.URL, "check")
	if err == nil {
		t.Fatal("check succeeded against a closed remote end")
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("error = %q, want unreachable message", err)
	}
}

func TestLocatorsClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.yaml")
	content := `
rows: "tr.list-item"
docs_link:
  strategy: partial link text
  selector: Documentation
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "locators", path)
	if err != nil {
		t.Fatalf("locators: %v", err)
	}
	if !strings.Contains(out, "1 file(s) OK") {
		t.Errorf("output = %q, want OK message", out)
	}
}

func TestLocatorsFindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte(`rows: ""`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "locators", path)
	if err == nil {
		t.Fatal("locators succeeded on a file with an empty selector")
	}
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "rows") {
		t.Errorf("output = %q, want finding for rows", out)
	}
}

func TestLocatorsNoArgs(t *testing.T) {
	_, err := runApp(t, "locators")
	if err == nil {
		t.Fatal("locators succeeded without files")
	}
}

// fakeRemoteEnd serves the handful of WebDriver endpoints the screenshot
// command touches.
func fakeRemoteEnd(t *testing.T, png []byte, navigated *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/session":
			fmt.Fprint(w, `{"value":{"sessionId":"abc123","capabilities":{"browserName":"chrome","browserVersion":"120.0"}}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/session/abc123/timeouts":
			fmt.Fprint(w, `{"value":null}`)
		case r.Method == http.MethodPost && r.URL.Path == "/session/abc123/url":
			var body struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode navigate body: %v", err)
			}
			*navigated = body.URL
			fmt.Fprint(w, `{"value":null}`)
		case r.Method == http.MethodGet && r.URL.Path == "/session/abc123/screenshot":
			fmt.Fprintf(w, `{"value":%q}`, base64.StdEncoding.EncodeToString(png))
		case r.Method == http.MethodDelete && r.URL.Path == "/session/abc123":
			fmt.Fprint(w, `{"value":null}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func TestScreenshotCommand(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	var navigated string
	srv := fakeRemoteEnd(t, png, &navigated)
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "home.png")
	out, err := runApp(t,
		"--remote-url", srv.URL,
		"--base-url", "http://app.example:8000",
		"screenshot", "--path", "/account", "--output", output)
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}

	if navigated != "http://app.example:8000/account" {
		t.Errorf("navigated to %q", navigated)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Errorf("output file = %v, want %v", data, png)
	}
	if !strings.Contains(out, "wrote "+output) {
		t.Errorf("output = %q, want write confirmation", out)
	}
}

func TestScreenshotRequiresBaseURL(t *testing.T) {
	_, err := runApp(t, "screenshot")
	if err == nil {
		t.Fatal("screenshot succeeded without --base-url")
	}
	if !strings.Contains(err.Error(), "base-url") {
		t.Errorf("error = %q, want base-url message", err)
	}
}
