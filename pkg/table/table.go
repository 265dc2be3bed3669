// Package table implements the paginated grid engine: row enumeration across
// pages, row lookup by column value, search with staleness resettlement,
// header sorting, delete-with-confirmation and the status toggle.
package table

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/actions"
	"github.com/devicelab-dev/pagekit/pkg/core"
	"github.com/devicelab-dev/pagekit/pkg/locator"
)

// Order is a sort direction as carried by the header's sort attribute.
type Order string

// Sort directions.
const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// FirstClickOrder is the direction an unsorted column takes on its first
// header click. The grid cycles unsorted -> asc -> desc, so sorting an
// unsorted column descending needs a second click.
const FirstClickOrder = Ascending

// DeleteAction selects what to do once the delete confirmation popup is open.
type DeleteAction string

// Delete popup actions. Peek opens the popup to read it, pauses, and cancels.
const (
	Delete DeleteAction = "delete"
	Close  DeleteAction = "close"
	Cancel DeleteAction = "cancel"
	Peek   DeleteAction = ""
)

// sortSettle is the default pause letting the grid re-render between sort
// clicks and during the delete popup peek.
const sortSettle = 2 * time.Second

// Table drives one paginated grid rooted at a container selector. It owns a
// locator registry scoped to that root; pages override entries (the row
// selector in particular) for app-specific markup.
type Table struct {
	actions *actions.Actions
	root    string
	settle  time.Duration
	log     *zap.Logger
}

// New builds a table engine for the grid under rootSelector, deriving its
// facade from parent with a registry of the grid's default locators.
func New(parent *actions.Actions, rootSelector string, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}

	reg := locator.NewRegistry()
	reg.RegisterCSS("table_container", rootSelector+` [data-test="table"]`)
	reg.RegisterCSS("main_table", `table[data-test="main-table"]`)
	reg.RegisterCSS("table_head", `[data-test="head"]`)
	reg.RegisterCSS("table_headers", rootSelector+" th")
	reg.RegisterCSS("rows", rootSelector+" tr.list-item")
	reg.RegisterCSS("loader", rootSelector+` [data-test="wait-spinner"]`)
	reg.RegisterCSS("collection_count", rootSelector+" .shared-collectioncount")
	reg.RegisterCSS("switch_to_page", rootSelector+" .pull-right li a")

	reg.RegisterCSS("search_box", `[data-name="nameFilter"] input.search-query`)
	reg.RegisterCSS("clear_filter", `[data-test="clear"]`)

	// Row-scoped controls, resolved inside a row handle.
	reg.RegisterCSS("status_column", `[data-test="status"]`)
	reg.RegisterCSS("status_button", `[data-test="button"][role="switch"]`)
	reg.RegisterCSS("delete_btn", "a.delete")
	reg.RegisterCSS("clone_btn", "a.clone")
	reg.RegisterCSS("edit_btn", ".edit-alert")
	reg.RegisterCSS("expand", `[data-test="expand"]`)

	// Expanded-row detail view; pages override for their own markup.
	reg.RegisterCSS("expanded_row", `tr[data-test="expanded-row"]`)
	reg.RegisterCSS("expanded_row_term", `tr[data-test="expanded-row"] dt`)
	reg.RegisterCSS("expanded_row_desc", `tr[data-test="expanded-row"] dd`)

	// Delete confirmation popup and its modal controls.
	reg.RegisterCSS("popup", "div.deletePrompt")
	reg.RegisterCSS("open_modal", `[data-test="modal"]`)
	reg.RegisterCSS("popup_delete_btn", `[data-test="modal"] button[label="Delete"]`)
	reg.RegisterCSS("popup_close_btn", `[data-test="modal"] button[data-test="close"]`)
	reg.RegisterCSS("popup_cancel_btn", `[data-test="modal"] button[data-test="button"][label="Cancel"]`)

	return &Table{
		actions: parent.WithRegistry(reg),
		root:    rootSelector,
		settle:  sortSettle,
		log:     log.Named("table"),
	}
}

// Root returns the table's root selector.
func (t *Table) Root() string {
	return t.root
}

// Registry exposes the table's locator registry so pages can override the
// grid's default locators.
func (t *Table) Registry() *locator.Registry {
	return t.actions.Registry()
}

// SetSettle overrides the re-render settle pause.
func (t *Table) SetSettle(d time.Duration) {
	t.settle = d
}

// Rows returns a lazy iterator over all rows across pages, starting from the
// current page.
func (t *Table) Rows() *RowStream {
	return &RowStream{table: t}
}

// ListRows eagerly collects every row across all pages. Handles gathered
// from earlier pages are already stale once traversal advances; use Rows
// when cell values must be read during the walk.
func (t *Table) ListRows() ([]Row, error) {
	var rows []Row
	stream := t.Rows()
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the total number of rows across all pages.
func (t *Table) Count() (int, error) {
	rows, err := t.ListRows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetRow returns the first row whose name column equals value exactly.
func (t *Table) GetRow(value string) (Row, error) {
	return t.GetRowBy(value, RowQuery{})
}

// GetRowBy scans rows across pages for the first match of the query. It
// fails with ErrRowNotFound when the traversal runs off the last page.
func (t *Table) GetRowBy(value string, query RowQuery) (Row, error) {
	if query.Column == "" {
		query.Column = "name"
	}
	stream := t.Rows()
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		cell, err := t.cellValue(row, query.Column)
		if err != nil {
			return Row{}, err
		}
		if query.matches(cell, value) {
			return row, nil
		}
	}
	if err := stream.Err(); err != nil {
		return Row{}, err
	}
	return Row{}, core.ErrRowNotFound.WithDetails(map[string]interface{}{
		"value":  value,
		"column": query.Column,
	})
}

// ColumnValue looks up the row named value and returns its text in column.
func (t *Table) ColumnValue(value, column string) (string, error) {
	row, err := t.GetRow(value)
	if err != nil {
		return "", err
	}
	return t.cellValue(row, column)
}

// ColumnValues collects the column's value from every row across pages.
func (t *Table) ColumnValues(column string) ([]string, error) {
	var values []string
	stream := t.Rows()
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		value, err := t.cellValue(row, column)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Search types text into the grid's filter box, waits for the rows visible
// before typing to go stale (proof of re-render), and returns the filtered
// rows from page one. On an empty grid there is nothing to observe, so the
// staleness wait is skipped.
func (t *Table) Search(text string) ([]Row, error) {
	if _, err := t.actions.WaitVisible("table_container"); err != nil {
		return nil, err
	}
	before, err := t.actions.FindAll("rows")
	if err != nil {
		return nil, err
	}
	t.log.Info("searching table", zap.String("query", text))
	if err := t.actions.EnterText("search_box", text); err != nil {
		return nil, err
	}
	if len(before) > 0 {
		t.actions.WaitStale(before[0])
	}
	return t.ListRows()
}

// ClearSearch empties the grid's filter via the clear control.
func (t *Table) ClearSearch() error {
	if _, err := t.actions.WaitVisible("table_container"); err != nil {
		return err
	}
	// Typing anything makes the clear control render.
	if err := t.actions.EnterText("search_box", "test text"); err != nil {
		return err
	}
	return t.actions.Click("clear_filter")
}

// Sort brings the column into the requested order. Zero clicks when the
// header already matches, one when it shows the exact opposite, and from the
// unsorted state one click plus a second one whenever the request differs
// from FirstClickOrder. The header is re-resolved between clicks because the
// first click re-renders the grid.
func (t *Table) Sort(column string, order Order) (bool, error) {
	th, current, err := t.findHeader(column)
	if err != nil {
		return false, err
	}
	t.log.Info("sorting table",
		zap.String("column", column),
		zap.String("order", string(order)),
		zap.String("current", string(current)))

	switch {
	case current == order:
		return true, nil
	case current == Ascending || current == Descending:
		if err := th.Click(); err != nil {
			return false, err
		}
		return true, nil
	default:
		if err := th.Click(); err != nil {
			return false, err
		}
		if order != FirstClickOrder {
			time.Sleep(t.settle)
			th, _, err = t.findHeader(column)
			if err != nil {
				return false, err
			}
			if err := th.Click(); err != nil {
				return false, err
			}
		}
		return true, nil
	}
}

// Headers returns the trimmed, non-empty header cell texts.
func (t *Table) Headers() ([]string, error) {
	if _, err := t.actions.WaitVisible("table_head"); err != nil {
		return nil, err
	}
	ths, err := t.actions.FindAll("table_headers")
	if err != nil {
		return nil, err
	}
	var headers []string
	for _, th := range ths {
		text, err := t.actions.TextOf(th)
		if err != nil {
			return nil, err
		}
		if text != "" {
			headers = append(headers, text)
		}
	}
	return headers, nil
}

// NextPage clicks the pager's "next" control. False without error when the
// pager is absent or the control is not clickable (last page).
func (t *Table) NextPage() (bool, error) {
	return t.pagerClick("next")
}

// PrevPage clicks the pager's "prev" control. False without error when the
// pager is absent or the control is not clickable (first page).
func (t *Table) PrevPage() (bool, error) {
	return t.pagerClick("prev")
}

// SwitchTo clicks the pager control with the given label (a page number or
// "next"/"prev"). A pager without that label fails with ErrValueNotFound.
func (t *Table) SwitchTo(label string) (bool, error) {
	return t.pagerClick(label)
}

// DeleteRow opens the delete confirmation popup for the row named value and
// performs the action, then waits for the popup to clear. Any failure is
// logged and reported as false, never raised.
func (t *Table) DeleteRow(value string, action DeleteAction) bool {
	t.log.Info("deleting row", zap.String("row", value), zap.String("action", string(action)))
	if err := t.deleteRow(value, action); err != nil {
		t.log.Error("delete row failed",
			zap.String("row", value),
			zap.String("action", string(action)),
			zap.Error(err))
		return false
	}
	return true
}

// UpdateStatus toggles the row's status switch when its current state
// differs from enable; matching state is an idempotent no-op. Any failure is
// logged and reported as false.
func (t *Table) UpdateStatus(value string, enable bool) bool {
	row, err := t.GetRow(value)
	if err != nil {
		t.log.Error("status update failed", zap.String("row", value), zap.Error(err))
		return false
	}
	label, err := t.cellValue(row, "status")
	if err != nil {
		t.log.Error("status read failed", zap.String("row", value), zap.Error(err))
		return false
	}
	enabled := strings.EqualFold(label, "enabled")
	if enabled == enable {
		t.log.Debug("status already in desired state",
			zap.String("row", value), zap.Bool("enabled", enabled))
		return true
	}
	toggle, err := t.findInRow(row, "status_button")
	if err != nil {
		t.log.Error("status toggle not found", zap.String("row", value), zap.Error(err))
		return false
	}
	if err := toggle.Click(); err != nil {
		t.log.Error("status toggle click failed", zap.String("row", value), zap.Error(err))
		return false
	}
	return true
}

// EditRow clicks the row's edit control and waits for the modal to open.
func (t *Table) EditRow(value string) error {
	t.log.Info("editing row", zap.String("row", value))
	if err := t.clickRowControl(value, "edit_btn"); err != nil {
		return err
	}
	_, err := t.actions.WaitVisible("open_modal")
	return err
}

// CloneRow clicks the row's clone control and waits for the modal to open.
func (t *Table) CloneRow(value string) error {
	t.log.Info("cloning row", zap.String("row", value))
	if err := t.clickRowControl(value, "clone_btn"); err != nil {
		return err
	}
	_, err := t.actions.WaitVisible("open_modal")
	return err
}

// ExpandedRowValues expands the row named value and returns the detail
// view's term/description pairs.
func (t *Table) ExpandedRowValues(value string) (map[string]string, error) {
	t.log.Info("expanding row", zap.String("row", value))
	if err := t.clickRowControl(value, "expand"); err != nil {
		return nil, err
	}
	if _, err := t.actions.WaitVisible("expanded_row"); err != nil {
		return nil, err
	}
	terms, err := t.actions.FindAll("expanded_row_term")
	if err != nil {
		return nil, err
	}
	descs, err := t.actions.FindAll("expanded_row_desc")
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(terms))
	for i, term := range terms {
		if i >= len(descs) {
			break
		}
		key, err := t.actions.TextOf(term)
		if err != nil {
			return nil, err
		}
		val, err := t.actions.TextOf(descs[i])
		if err != nil {
			return nil, err
		}
		values[key] = val
	}
	return values, nil
}

// CollectionCount returns the text of the grid's count badge.
func (t *Table) CollectionCount() (string, error) {
	el, err := t.actions.Find("collection_count")
	if err != nil {
		return "", err
	}
	return t.actions.TextOf(el)
}

// ColumnSelector returns the row-scoped cell selector for a column name.
func ColumnSelector(column string) string {
	return "td.cell-" + normalizeColumn(column)
}

// normalizeColumn lowercases a column name and turns spaces into underscores.
func normalizeColumn(column string) string {
	return strings.ReplaceAll(strings.ToLower(column), " ", "_")
}

// isStatusColumn reports whether the normalized column addresses the
// dedicated status cell, whatever the spacing of the spelling.
func isStatusColumn(normalized string) bool {
	return strings.ReplaceAll(normalized, "_", "") == "status"
}

// currentRows returns the current page's rows once the grid root is visible.
// Row enumeration against a not-yet-rendered root would return an empty set
// rather than failing, so the visibility wait comes first.
func (t *Table) currentRows() ([]Row, error) {
	if _, err := t.actions.WaitVisible("table_container"); err != nil {
		return nil, err
	}
	els, err := t.actions.FindAll("rows")
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(els))
	for i, el := range els {
		rows[i] = Row{el: el, table: t}
	}
	return rows, nil
}

// cellValue reads the row's text in the given column, choosing the dedicated
// status selector over the generic cell template when the column names the
// status.
func (t *Table) cellValue(row Row, column string) (string, error) {
	normalized := normalizeColumn(column)
	var loc core.Locator
	if isStatusColumn(normalized) {
		resolved, err := t.actions.Resolve("status_column")
		if err != nil {
			return "", err
		}
		loc = resolved
	} else {
		loc = core.CSS(ColumnSelector(column))
	}
	cell, err := row.el.FindElement(loc)
	if err != nil {
		return "", err
	}
	return t.actions.TextOf(cell)
}

func (t *Table) findInRow(row Row, name string) (core.Element, error) {
	loc, err := t.actions.Resolve(name)
	if err != nil {
		return nil, err
	}
	return row.el.FindElement(loc)
}

// clickRowControl resolves the row named value and clicks the named control
// inside it.
func (t *Table) clickRowControl(value, control string) error {
	row, err := t.GetRow(value)
	if err != nil {
		return err
	}
	btn, err := t.findInRow(row, control)
	if err != nil {
		return err
	}
	return btn.Click()
}

func (t *Table) deleteRow(value string, action DeleteAction) error {
	if err := t.clickRowControl(value, "delete_btn"); err != nil {
		return err
	}
	if _, err := t.actions.WaitVisible("popup"); err != nil {
		return err
	}
	var err error
	switch action {
	case Delete:
		err = t.actions.Click("popup_delete_btn")
	case Close:
		err = t.actions.Click("popup_close_btn")
	case Cancel:
		err = t.actions.Click("popup_cancel_btn")
	default:
		t.log.Warn("opening and closing the popup to read the confirmation message")
		time.Sleep(t.settle)
		err = t.actions.Click("popup_cancel_btn")
	}
	if err != nil {
		return err
	}
	return t.actions.WaitInvisible("popup")
}

// pagerClick finds the pager control whose text matches label and clicks it.
// No pager at all, or a control that is present but not clickable, is false
// without error; a pager that lacks the label entirely is ErrValueNotFound.
func (t *Table) pagerClick(label string) (bool, error) {
	if _, err := t.actions.WaitVisible("table_container"); err != nil {
		return false, err
	}
	pages, err := t.actions.FindAll("switch_to_page")
	if err != nil {
		return false, err
	}
	if len(pages) == 0 {
		return false, nil
	}
	for _, page := range pages {
		text, err := t.actions.TextOf(page)
		if err != nil {
			return false, err
		}
		if !strings.EqualFold(text, label) {
			continue
		}
		if !t.actions.IsClickable(page) {
			t.log.Debug("pager control not clickable", zap.String("page", label))
			return false, nil
		}
		if err := page.Click(); err != nil {
			t.log.Warn("pager click failed", zap.String("page", label), zap.Error(err))
			return false, nil
		}
		return true, nil
	}
	return false, core.ErrValueNotFound.WithDetails(map[string]interface{}{
		"page": label,
	})
}

// findHeader locates the header whose text matches column case-insensitively
// and returns it with its current sort direction. Headers with empty text
// are skipped. No match fails with ErrSortColumnNotFound.
func (t *Table) findHeader(column string) (core.Element, Order, error) {
	if _, err := t.actions.WaitVisible("table_head"); err != nil {
		return nil, "", err
	}
	ths, err := t.actions.FindAll("table_headers")
	if err != nil {
		return nil, "", err
	}
	for _, th := range ths {
		text, err := t.actions.TextOf(th)
		if err != nil {
			return nil, "", err
		}
		if text == "" || !strings.EqualFold(text, column) {
			continue
		}
		dir, err := th.Attribute("data-test-sort-dir")
		if err != nil {
			return nil, "", err
		}
		return th, Order(dir), nil
	}
	return nil, "", core.ErrSortColumnNotFound.WithDetails(map[string]interface{}{
		"column": column,
	})
}
