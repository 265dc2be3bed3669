package page

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/driver/fake"
)

// searchesFixture simulates the saved searches screen: a grid of entries,
// the add modal with name/description/query fields, and the delete popup.
type searchesFixture struct {
	t       *testing.T
	session *fake.Session
	entries []string

	modalOpen bool
	popupFor  string
	formName  string
}

func newSearchesFixture(t *testing.T, entries ...string) *searchesFixture {
	t.Helper()

	f := &searchesFixture{t: t, entries: entries}
	f.session = fake.MustNew(`<html><head><title>Login</title></head><body>landing</body></html>`)

	f.session.OnNavigate(func(s *fake.Session, url string) {
		if strings.Contains(url, savedSearchesPath) {
			f.apply()
		}
	})
	f.session.OnClick(`div[role="main"] button[data-test="button"][label="Add"]`, func(s *fake.Session) {
		f.modalOpen = true
		f.formName = ""
		f.apply()
	})
	f.session.OnType(`[data-name="name"] [data-test="controls"] input`, func(s *fake.Session, text string) {
		f.formName = text
	})
	f.session.OnClick(`[data-test="modal"] .saveBtn`, func(s *fake.Session) {
		if f.formName != "" {
			f.entries = append(f.entries, f.formName)
			f.modalOpen = false
		}
		f.apply()
	})
	f.session.OnClick(`[data-test="modal"] button[data-test="button"][label="Cancel"]`, func(s *fake.Session) {
		f.modalOpen = false
		f.popupFor = ""
		f.apply()
	})
	for _, name := range entries {
		entry := name
		f.session.OnClick(fmt.Sprintf(`a.delete[data-row=%q]`, entry), func(s *fake.Session) {
			f.popupFor = entry
			f.apply()
		})
	}
	f.session.OnClick(`[data-test="modal"] button[label="Delete"]`, func(s *fake.Session) {
		f.remove(f.popupFor)
		f.popupFor = ""
		f.apply()
	})

	return f
}

func (f *searchesFixture) remove(name string) {
	for i, entry := range f.entries {
		if entry == name {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

func (f *searchesFixture) apply() {
	if err := f.session.SetHTML(f.render()); err != nil {
		f.t.Fatalf("fixture re-render failed: %v", err)
	}
}

func (f *searchesFixture) render() string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Saved Searches</title></head><body><div role="main">`)
	b.WriteString(`<button data-test="button" label="Add">Add</button>`)
	b.WriteString(`<div data-test="table"><table data-test="main-table">`)
	b.WriteString(`<thead data-test="head"><tr><th>Name</th><th></th></tr></thead><tbody>`)
	for _, entry := range f.entries {
		fmt.Fprintf(&b, `<tr class="list-item"><td class="cell-name">%s</td>`+
			`<td class="cell-actions"><a class="delete" data-row=%q>Delete</a></td></tr>`,
			entry, entry)
	}
	b.WriteString(`</tbody></table></div></div>`)
	if f.modalOpen {
		b.WriteString(`<div data-test="modal">` +
			`<div data-test="control-group" data-name="name"><div data-test="controls"><input/></div></div>` +
			`<div data-test="control-group" data-name="description"><div data-test="controls"><input/></div></div>` +
			`<div class="search-bar-input"><div class="ace_editor">q</div><div class="ace_content"></div></div>` +
			`<button class="saveBtn">Save</button>` +
			`<button data-test="button" label="Cancel">Cancel</button></div>`)
	}
	if f.popupFor != "" {
		fmt.Fprintf(&b, `<div class="deletePrompt" data-test="modal">`+
			`<p>Delete %s?</p><button label="Delete">Delete</button>`+
			`<button data-test="close">x</button>`+
			`<button data-test="button" label="Cancel">Cancel</button></div>`, f.popupFor)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func newTestSearchesPage(t *testing.T, entries ...string) (*searchesFixture, *SavedSearchesPage) {
	t.Helper()

	f := newSearchesFixture(t, entries...)
	p := NewSavedSearchesPage(f.session, "http://127.0.0.1:8000", zap.NewNop())
	p.actions.SetTimeout(250 * time.Millisecond)
	p.actions.SetInterval(5 * time.Millisecond)
	p.Table.SetSettle(0)
	p.Form.SetSaveTimeout(250 * time.Millisecond)
	p.Form.SetErrorProbe(20 * time.Millisecond)
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return f, p
}

func TestSavedSearchesOpen(t *testing.T) {
	_, p := newTestSearchesPage(t, "Errors last hour")

	title, err := p.Page.Title()
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "Saved Searches" {
		t.Errorf("title = %q, want %q", title, "Saved Searches")
	}
	url, err := p.CurrentURL()
	if err != nil {
		t.Fatalf("CurrentURL() error = %v", err)
	}
	if !strings.HasSuffix(url, savedSearchesPath) {
		t.Errorf("url = %q, want suffix %q", url, savedSearchesPath)
	}
}

func TestExists(t *testing.T) {
	_, p := newTestSearchesPage(t, "Errors last hour", "Disk usage")

	ok, err := p.Exists("Disk usage")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists(\"Disk usage\") = false, want true")
	}

	ok, err = p.Exists("No such search")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists(\"No such search\") = true, want false")
	}
}

func TestCreateAddsEntry(t *testing.T) {
	f, p := newTestSearchesPage(t, "Errors last hour")

	res := p.Create("Disk usage", "tracks free disk", "")
	if !res.OK {
		t.Fatalf("Create() = %+v, want OK", res)
	}
	if len(f.entries) != 2 {
		t.Fatalf("entries = %v, want 2", f.entries)
	}
	ok, err := p.Exists("Disk usage")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("created entry not in grid")
	}
}

func TestCreateWithoutNameStaysOpen(t *testing.T) {
	f, p := newTestSearchesPage(t)

	res := p.Create("", "", "")
	if res.OK {
		t.Fatalf("Create() = %+v, want not OK (modal never closes)", res)
	}
	if !f.modalOpen {
		t.Error("modal should remain open when save is refused")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	f, p := newTestSearchesPage(t, "Errors last hour", "Disk usage")

	if !p.Delete("Disk usage") {
		t.Fatal("Delete() = false, want true")
	}
	if len(f.entries) != 1 || f.entries[0] != "Errors last hour" {
		t.Errorf("entries after delete = %v", f.entries)
	}
}
