package chrome

import (
	"errors"
	"strings"
	"testing"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

func TestTranslateStrategies(t *testing.T) {
	tests := []struct {
		name    string
		loc     core.Locator
		wantSel string
	}{
		{"css", core.CSS("td.cell-name"), "td.cell-name"},
		{"default strategy is css", core.Locator{Selector: "#username"}, "#username"},
		{"tag name", core.Locator{Strategy: core.StrategyTagName, Selector: "table"}, "table"},
		{"xpath passthrough", core.XPath(`//tr[@data-name="x"]`), `//tr[@data-name="x"]`},
		{"link text", core.Locator{Strategy: core.StrategyLinkText, Selector: "Saved Searches"},
			`//a[normalize-space(.)="Saved Searches"]`},
		{"partial link text", core.Locator{Strategy: core.StrategyPartialLinkText, Selector: "Saved"},
			`//a[contains(normalize-space(.),"Saved")]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, opt, err := translate(tt.loc)
			if err != nil {
				t.Fatalf("translate() error = %v", err)
			}
			if sel != tt.wantSel {
				t.Errorf("selector = %q, want %q", sel, tt.wantSel)
			}
			if opt == nil {
				t.Error("query option is nil")
			}
		})
	}
}

func TestTranslateUnknownStrategy(t *testing.T) {
	_, _, err := translate(core.Locator{Strategy: "telepathy", Selector: "x"})
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestScriptDecl(t *testing.T) {
	decl := scriptDecl("return arguments[0] + arguments[1];",
		[]string{"null", `"suffix"`},
		[]string{"true", "false"})

	for _, want := range []string{
		`var vals = [null,"suffix"]`,
		"var refs = [true,false]",
		"return arguments[0] + arguments[1];",
		"apply(null, args)",
	} {
		if !strings.Contains(decl, want) {
			t.Errorf("declaration missing %q:\n%s", want, decl)
		}
	}
}

func TestNodeErrMapsStale(t *testing.T) {
	err := nodeErr(errors.New("Could not find node with given id (-32000)"))
	if !errors.Is(err, core.ErrStaleElement) {
		t.Errorf("error = %v, want ErrStaleElement", err)
	}

	plain := errors.New("something else entirely")
	if got := nodeErr(plain); got != plain {
		t.Errorf("unrelated error rewritten: %v", got)
	}
}
