package component

import (
	"strings"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/core"
)

// SelectOptions configures the flavors a select control comes in.
type SelectOptions struct {
	// Multi marks a multi-select that renders chips for chosen options.
	Multi bool
	// Searchable marks a select whose popover carries a filter box.
	Searchable bool
	// ComboBox marks a searchable single select rendered as a combo box
	// with an inline text input.
	ComboBox bool
}

// Select is a popover-backed choice control inside a control group. It
// covers the single select button, the chip-rendering multi-select and the
// combo box variant.
type Select struct {
	Base
	opts SelectOptions
}

// NewSelect binds the select of the control group whose data-name is field.
func NewSelect(parent *actions.Actions, name, field string, opts SelectOptions) *Select {
	root := controlGroup(field)
	b := newBase(parent, name, root)
	reg := b.actions.Registry()
	reg.RegisterCSS("values", `[data-test="popover"] [data-test="option"]`)
	reg.RegisterCSS("load_values", `[data-test-loading="true"]`)
	if opts.ComboBox {
		reg.RegisterCSS("search_box", root+` [data-test="combo-box"] [data-test="textbox"]`)
	} else {
		reg.RegisterCSS("search_box", `[data-test="popover"] [data-test="textbox"]`)
	}
	if opts.Multi {
		reg.RegisterCSS("open", root+` [data-test="multiselect"] [data-test="textbox"]`)
		reg.RegisterCSS("selected", root+` [data-test="selected-option"] div[data-test="label"]`)
		reg.RegisterCSS("cancel", root+` [data-test="selected-option"] div[data-test="label"]`)
	} else {
		if opts.ComboBox {
			reg.RegisterCSS("open", root+` [data-test="combo-box"]`)
			reg.RegisterCSS("cancel", root+` [data-test="combo-box"] [data-test="clear"]`)
			reg.RegisterCSS("selected", root+` [data-test="combo-box"] [data-test="textbox"]`)
		} else {
			reg.RegisterCSS("open", root+` [data-test="select"]`)
			reg.RegisterCSS("cancel", root+` [data-test="clear"]`)
			reg.RegisterCSS("selected", root+` [data-test="select"]`)
		}
	}
	return &Select{Base: b, opts: opts}
}

// Select chooses the option whose label matches value. Multi-selects are
// cleared first so the call always ends with exactly this value chosen.
func (s *Select) Select(value string) error {
	if err := s.openDropdown(); err != nil {
		return err
	}
	if s.opts.Searchable {
		if err := s.search(value); err != nil {
			return err
		}
	}
	clicked, err := s.clickOption(value)
	if err != nil {
		return err
	}
	if !clicked {
		return s.valueNotFound(value)
	}
	return nil
}

// SelectMultiple chooses every given option in a multi-select, clearing the
// current chips first.
func (s *Select) SelectMultiple(values []string) error {
	if !s.opts.Multi {
		return s.multiOnly("select multiple")
	}
	if err := s.openDropdown(); err != nil {
		return err
	}
	for _, value := range values {
		// The popover re-renders after each pick, so options are
		// re-resolved per value.
		clicked, err := s.clickOption(value)
		if err != nil {
			return err
		}
		if !clicked {
			return s.valueNotFound(value)
		}
	}
	return nil
}

// SelectedValues returns the currently chosen options: the chip labels of a
// multi-select, or a single-element slice for a single select. An empty
// slice means nothing is chosen.
func (s *Select) SelectedValues() ([]string, error) {
	if s.opts.Multi {
		chips, err := s.actions.FindAll("selected")
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(chips))
		for _, chip := range chips {
			text, err := s.actions.TextOf(chip)
			if err != nil {
				return nil, err
			}
			if text == "" {
				continue
			}
			values = append(values, text)
		}
		return values, nil
	}
	el, err := s.actions.Find("selected")
	if err != nil {
		return nil, err
	}
	if s.opts.ComboBox {
		value, err := el.Attribute("value")
		if err != nil {
			return nil, err
		}
		if value == "" {
			return nil, nil
		}
		return []string{value}, nil
	}
	marker, err := el.Attribute("data-test-value")
	if err != nil {
		return nil, err
	}
	if marker == "" {
		return nil, nil
	}
	label, err := el.Attribute("label")
	if err != nil {
		return nil, err
	}
	return []string{label}, nil
}

// SelectedValue returns the single chosen option, or the empty string when
// nothing is chosen.
func (s *Select) SelectedValue() (string, error) {
	values, err := s.SelectedValues()
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

// Deselect clears a single select through its clear control.
func (s *Select) Deselect() error {
	if s.opts.Multi {
		return s.multiOnly("deselect requires a single select; use DeselectAll")
	}
	if s.opts.ComboBox {
		if err := s.actions.WaitInvisible("load_values"); err != nil {
			return err
		}
	}
	return s.actions.Click("cancel")
}

// DeselectValue removes one chip from a multi-select.
func (s *Select) DeselectValue(value string) error {
	if !s.opts.Multi {
		return s.multiOnly("deselect value")
	}
	chips, err := s.actions.FindAll("cancel")
	if err != nil {
		return err
	}
	for _, chip := range chips {
		text, err := s.actions.TextOf(chip)
		if err != nil {
			return err
		}
		if strings.EqualFold(text, value) {
			return chip.Click()
		}
	}
	return s.valueNotFound(value)
}

// DeselectAll removes every chip from a multi-select.
func (s *Select) DeselectAll() error {
	if !s.opts.Multi {
		return s.multiOnly("deselect all")
	}
	for {
		chips, err := s.actions.FindAll("cancel")
		if err != nil {
			return err
		}
		if len(chips) == 0 {
			return nil
		}
		// Chips re-render after each removal, so only the first
		// resolved handle is safe to click.
		if err := chips[0].Click(); err != nil {
			return err
		}
	}
}

// Options opens the popover and returns every option label. For a
// multi-select the already chosen chips are appended, since the popover
// hides them.
func (s *Select) Options() ([]string, error) {
	if err := s.openDropdown(); err != nil {
		return nil, err
	}
	options, err := s.waitOptions()
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(options))
	for _, option := range options {
		text, err := s.actions.TextOf(option)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		values = append(values, text)
	}
	if s.opts.Multi {
		selected, err := s.SelectedValues()
		if err != nil {
			return nil, err
		}
		values = append(values, selected...)
	}
	return values, nil
}

// HasValue reports whether the popover offers (or a chip already holds) the
// given option.
func (s *Select) HasValue(value string) (bool, error) {
	options, err := s.Options()
	if err != nil {
		return false, err
	}
	for _, option := range options {
		if strings.EqualFold(option, value) {
			return true, nil
		}
	}
	return false, nil
}

// SearchOptions types value into the popover's filter box and returns the
// option labels left over.
func (s *Select) SearchOptions(value string) ([]string, error) {
	if err := s.openDropdown(); err != nil {
		return nil, err
	}
	if err := s.search(value); err != nil {
		return nil, err
	}
	options, err := s.waitOptions()
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(options))
	for _, option := range options {
		text, err := s.actions.TextOf(option)
		if err != nil {
			return nil, err
		}
		values = append(values, text)
	}
	return values, nil
}

// IsEditable reports whether the open control is neither disabled nor
// readonly.
func (s *Select) IsEditable() (bool, error) {
	el, err := s.actions.Find("open")
	if err != nil {
		return false, err
	}
	disabled, err := el.Attribute("disabled")
	if err != nil {
		return false, err
	}
	readonly, err := el.Attribute("readonly")
	if err != nil {
		return false, err
	}
	return disabled == "" && readonly == "", nil
}

// openDropdown brings the popover up. Multi-selects are cleared first and a
// combo box gets its stale text cleared so the filter starts fresh.
func (s *Select) openDropdown() error {
	if s.opts.Multi {
		if err := s.DeselectAll(); err != nil {
			return err
		}
	} else if s.opts.ComboBox {
		current, err := s.SelectedValue()
		if err != nil {
			return err
		}
		if current != "" {
			if err := s.Deselect(); err != nil {
				return err
			}
		}
	}
	return s.actions.Click("open")
}

// search types into the filter box and waits for the option list to stop
// loading.
func (s *Select) search(value string) error {
	if err := s.actions.EnterText("search_box", value); err != nil {
		return err
	}
	return s.actions.WaitInvisible("load_values")
}

// clickOption resolves the popover options and clicks the one matching
// value, reporting whether a match was found.
func (s *Select) clickOption(value string) (bool, error) {
	options, err := s.waitOptions()
	if err != nil {
		return false, err
	}
	for _, option := range options {
		text, err := s.actions.TextOf(option)
		if err != nil {
			return false, err
		}
		if strings.EqualFold(text, value) {
			if err := option.Click(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *Select) waitOptions() ([]core.Element, error) {
	if _, err := s.actions.WaitVisible("values"); err != nil {
		return nil, err
	}
	return s.actions.FindAll("values")
}

func (s *Select) valueNotFound(value string) error {
	return core.ErrValueNotFound.WithDetails(map[string]interface{}{
		"component": s.name,
		"value":     value,
	})
}

func (s *Select) multiOnly(op string) error {
	return core.ErrInvalidConfig.WithMessage(op + " does not fit this select flavor").
		WithDetails(map[string]interface{}{"component": s.name, "multi": s.opts.Multi})
}
