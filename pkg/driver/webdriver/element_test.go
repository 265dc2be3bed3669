package webdriver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func newTestClientWithSession(handler http.HandlerFunc) (*Client, *httptest.Server) {
	client, server := newTestClient(handler)
	client.sessionID = "test-session"
	return client, server
}

func TestElementClick(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/test-session/element/elem-1/click" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	if err := el.Click(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestElementClickStale(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "stale element reference",
				"message": "element is not attached to the page document",
			},
		})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	err := el.Click()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, core.ErrStaleElement) {
		t.Errorf("expected ErrStaleElement, got %v", err)
	}
}

func TestElementClear(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/clear") {
			t.Errorf("expected /clear suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	if err := el.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestElementSendKeys(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/value") {
			t.Errorf("expected /value suffix, got %s", r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req["text"] != "admin" {
			t.Errorf("expected admin, got %s", req["text"])
		}

		writeJSON(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	if err := el.SendKeys("admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestElementText(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/text") {
			t.Errorf("expected /text suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{"value": "Errors in the last hour"})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	text, err := el.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Errors in the last hour" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestElementAttribute(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/attribute/class") {
			t.Errorf("expected /attribute/class suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{"value": "sorts active"})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	attr, err := el.Attribute("class")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attr != "sorts active" {
		t.Errorf("unexpected attribute %q", attr)
	}
}

func TestElementAttributeAbsent(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": nil})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	attr, err := el.Attribute("data-missing")
	if err != nil {
		t.Fatalf("absent attribute must not be an error, got: %v", err)
	}
	if attr != "" {
		t.Errorf("expected empty string, got %q", attr)
	}
}

func TestElementIsDisplayed(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/displayed") {
			t.Errorf("expected /displayed suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{"value": true})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	displayed, err := el.IsDisplayed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !displayed {
		t.Error("expected displayed to be true")
	}
}

func TestElementIsEnabled(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/enabled") {
			t.Errorf("expected /enabled suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{"value": false})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	enabled, err := el.IsEnabled()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enabled {
		t.Error("expected enabled to be false")
	}
}

func TestElementRect(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/element/elem-1/rect") {
			t.Errorf("expected /rect suffix, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"x":      10.0,
				"y":      20.0,
				"width":  300.0,
				"height": 40.0,
			},
		})
	})
	defer server.Close()

	el := NewTestElement("elem-1", client)
	rect, err := el.Rect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rect.X != 10 || rect.Y != 20 || rect.Width != 300 || rect.Height != 40 {
		t.Errorf("unexpected rect %+v", rect)
	}

	cx, cy := rect.Center()
	if cx != 160 || cy != 40 {
		t.Errorf("expected center (160,40), got (%d,%d)", cx, cy)
	}
}

func TestElementFindElement(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/test-session/element/row-1/element" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req["value"] != "td.cell-name" {
			t.Errorf("expected td.cell-name, got %s", req["value"])
		}

		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				w3cElementKey: "cell-7",
			},
		})
	})
	defer server.Close()

	row := NewTestElement("row-1", client)
	cell, err := row.FindElement(core.CSS("td.cell-name"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cell.(*Element).ID() != "cell-7" {
		t.Errorf("expected cell-7, got %s", cell.(*Element).ID())
	}
}

func TestElementFindElements(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/test-session/element/row-1/elements" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, map[string]interface{}{
			"value": []map[string]interface{}{
				{w3cElementKey: "td-1"},
				{w3cElementKey: "td-2"},
			},
		})
	})
	defer server.Close()

	row := NewTestElement("row-1", client)
	cells, err := row.FindElements(core.CSS("td"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
}

func TestElementFindElementNotFound(t *testing.T) {
	client, server := newTestClientWithSession(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "Unable to locate element",
			},
		})
	})
	defer server.Close()

	row := NewTestElement("row-1", client)
	_, err := row.FindElement(core.CSS("td.cell-bogus"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}
