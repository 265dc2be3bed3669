package locator

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register("rows", core.Locator{Strategy: core.StrategyCSS, Selector: "tr.list-item"})

	loc, err := reg.Resolve("rows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Selector != "tr.list-item" {
		t.Errorf("Selector = %q, want 'tr.list-item'", loc.Selector)
	}
	if loc.Name != "rows" {
		t.Errorf("Name = %q, want 'rows'", loc.Name)
	}
}

func TestRegistry_DefaultStrategyIsCSS(t *testing.T) {
	reg := NewRegistry()
	reg.Register("modal", core.Locator{Selector: `[data-test="modal"]`})

	loc, err := reg.Resolve("modal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Strategy != core.StrategyCSS {
		t.Errorf("Strategy = %q, want %q", loc.Strategy, core.StrategyCSS)
	}
}

func TestRegistry_LastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCSS("search_box", "input.old")
	reg.RegisterCSS("search_box", "input.search-query")

	loc, err := reg.Resolve("search_box")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Selector != "input.search-query" {
		t.Errorf("Selector = %q, want the later registration", loc.Selector)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve("nope")
	if err == nil {
		t.Fatal("expected an error for unknown name")
	}
	if !errors.Is(err, core.ErrLocatorNotFound) {
		t.Errorf("error = %v, want ErrLocatorNotFound", err)
	}

	var derr *core.DriverError
	if !errors.As(err, &derr) {
		t.Fatal("expected a DriverError")
	}
	if derr.Details["name"] != "nope" {
		t.Errorf("Details[name] = %v, want 'nope'", derr.Details["name"])
	}
}

func TestRegistry_Merge(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCSS("rows", "tr.old")

	reg.Merge(map[string]core.Locator{
		"rows":  {Selector: "tr.new"},
		"popup": {Selector: "div.deletePrompt"},
	})

	loc, _ := reg.Resolve("rows")
	if loc.Selector != "tr.new" {
		t.Errorf("merge should overwrite: Selector = %q", loc.Selector)
	}
	if !reg.Has("popup") {
		t.Error("merge should add new names")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCSS("b", "2")
	reg.RegisterCSS("a", "1")
	reg.RegisterCSS("c", "3")

	names := reg.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("Names() length = %d, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q (sorted)", i, names[i], want[i])
		}
	}
}
