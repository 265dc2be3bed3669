package table

import (
	"strings"

	"github.com/devicelab-dev/pagekit/pkg/core"
)

// Row is a handle to one on-screen table row. It is valid only until the
// grid re-renders; pagination, search and sort all invalidate it.
type Row struct {
	el    core.Element
	table *Table
}

// Element exposes the underlying element handle.
func (r Row) Element() core.Element {
	return r.el
}

// Column returns the row's value in the given column.
func (r Row) Column(column string) (string, error) {
	return r.table.cellValue(r, column)
}

// Text returns the row's full collapsed text.
func (r Row) Text() (string, error) {
	return r.table.actions.TextOf(r.el)
}

// RowQuery tunes row matching: which column to compare and whether the match
// is substring containment (filtered search results) or exact equality.
type RowQuery struct {
	Column    string // defaults to "name"
	Substring bool
}

func (q RowQuery) matches(cell, value string) bool {
	if q.Substring {
		return strings.Contains(cell, value)
	}
	return cell == value
}

// RowStream is a lazy forward-only iterator over the table's rows across
// pagination. It is restartable via Table.Rows but never resumable after a
// DOM mutation: any search, sort or page change made elsewhere invalidates
// the walk.
type RowStream struct {
	table   *Table
	pending []Row
	last    Row
	primed  bool
	done    bool
	err     error
}

// Next yields the next row. It advances to the next page only once the
// current page is exhausted. After it returns false, Err reports whether the
// traversal stopped on an error or ran off the last page.
func (s *RowStream) Next() (Row, bool) {
	if s.done {
		return Row{}, false
	}
	if !s.primed {
		if !s.load() {
			return Row{}, false
		}
		s.primed = true
	}
	for len(s.pending) == 0 {
		prev := s.last
		ok, err := s.table.NextPage()
		if err != nil {
			s.fail(err)
			return Row{}, false
		}
		if !ok {
			s.done = true
			return Row{}, false
		}
		// The click re-renders the grid; let the previous page settle out
		// before reading rows again.
		if prev.el != nil {
			s.table.actions.WaitStale(prev.el)
		}
		if !s.load() {
			return Row{}, false
		}
	}
	row := s.pending[0]
	s.pending = s.pending[1:]
	s.last = row
	return row, true
}

// Err returns the traversal error, if any, once Next has returned false.
func (s *RowStream) Err() error {
	return s.err
}

func (s *RowStream) load() bool {
	rows, err := s.table.currentRows()
	if err != nil {
		s.fail(err)
		return false
	}
	s.pending = rows
	return true
}

func (s *RowStream) fail(err error) {
	s.err = err
	s.done = true
}
