// Package table binds an in-memory slice of rows to a column specification
// with single-column sorting and fixed-size pagination.
package table

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultPageSize is used when no page size option is supplied.
const DefaultPageSize = 4

// maxVisiblePages caps the page buttons shown at once.
const maxVisiblePages = 3

// CellKind selects how a cell is rendered.
type CellKind int

const (
	CellText CellKind = iota
	CellDate
	CellBadge
	CellAction
)

func (k CellKind) String() string {
	switch k {
	case CellDate:
		return "date"
	case CellBadge:
		return "badge"
	case CellAction:
		return "action"
	default:
		return "text"
	}
}

// SortDirection is the sort state of a column.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

// Next is the direction a header click moves to: asc, desc, then none.
func (d SortDirection) Next() SortDirection {
	switch d {
	case SortNone:
		return SortAsc
	case SortAsc:
		return SortDesc
	default:
		return SortNone
	}
}

// ParseSortDirection reads "asc" or "desc". Anything else is SortNone.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}

// Column describes one column of a table over rows of type T.
type Column[T any] struct {
	ID       string
	Header   string
	Accessor func(T) any
	Kind     CellKind
	// Format renders the accessor value. Nil falls back to fmt.Sprint.
	Format   func(any) string
	Sortable bool
}

// Cell is a rendered value ready for a template.
type Cell struct {
	ColumnID string
	Kind     CellKind
	Text     string
	Value    any
}

// Header is a rendered column header.
type Header struct {
	ID       string
	Label    string
	Sortable bool
	Sort     SortDirection
}

// Row pairs the source row with its rendered cells.
type Row[T any] struct {
	Source T
	Cells  []Cell
}

// View is the current page rendered for display.
type View[T any] struct {
	Headers      []Header
	Rows         []Row[T]
	PageIndex    int
	PageCount    int
	VisiblePages []int
	CanPrevious  bool
	CanNext      bool
}

// Option configures a Table.
type Option func(*options)

type options struct {
	pageSize int
}

// WithPageSize sets the number of rows per page. Values below one are ignored.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// Table holds the sort and page state for a fixed set of rows.
type Table[T any] struct {
	data     []T
	columns  []Column[T]
	pageSize int

	sortColumn string
	sortDir    SortDirection
	pageIndex  int

	sorted []T
}

// New builds a table over rows. The slice is never modified.
func New[T any](rows []T, columns []Column[T], opts ...Option) *Table[T] {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[T]{
		data:     rows,
		columns:  columns,
		pageSize: o.pageSize,
	}
}

// PageSize returns the configured page size.
func (t *Table[T]) PageSize() int {
	return t.pageSize
}

// Sort returns the sorted column id and its direction.
func (t *Table[T]) Sort() (string, SortDirection) {
	return t.sortColumn, t.sortDir
}

// SetSort applies a sort state directly. Unknown or unsortable columns clear
// the sort.
func (t *Table[T]) SetSort(columnID string, dir SortDirection) {
	col, ok := t.column(columnID)
	if !ok || !col.Sortable || dir == SortNone {
		t.sortColumn, t.sortDir = "", SortNone
	} else {
		t.sortColumn, t.sortDir = columnID, dir
	}
	t.sorted = nil
	t.pageIndex = 0
}

// ToggleSort cycles a column through ascending, descending and unsorted.
// Switching to another column starts it at ascending. The page resets to the
// first one.
func (t *Table[T]) ToggleSort(columnID string) {
	col, ok := t.column(columnID)
	if !ok || !col.Sortable {
		return
	}

	next := SortAsc
	if t.sortColumn == columnID {
		switch t.sortDir {
		case SortAsc:
			next = SortDesc
		case SortDesc:
			next = SortNone
		}
	}
	t.SetSort(columnID, next)
}

// Rows returns every row in the current sort order.
func (t *Table[T]) Rows() []T {
	if t.sorted != nil {
		return t.sorted
	}
	rows := make([]T, len(t.data))
	copy(rows, t.data)

	if col, ok := t.column(t.sortColumn); ok && t.sortDir != SortNone {
		desc := t.sortDir == SortDesc
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(col.Accessor(rows[i]), col.Accessor(rows[j]))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	t.sorted = rows
	return rows
}

// Page returns the rows of the current page.
func (t *Table[T]) Page() []T {
	rows := t.Rows()
	start := t.pageIndex * t.pageSize
	if start >= len(rows) {
		return nil
	}
	end := start + t.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageIndex returns the zero-based current page.
func (t *Table[T]) PageIndex() int {
	return t.pageIndex
}

// PageCount returns the number of pages; an empty table has none.
func (t *Table[T]) PageCount() int {
	return (len(t.data) + t.pageSize - 1) / t.pageSize
}

// SetPage moves to page index, clamped to the valid range.
func (t *Table[T]) SetPage(index int) {
	last := t.PageCount() - 1
	if index > last {
		index = last
	}
	if index < 0 {
		index = 0
	}
	t.pageIndex = index
}

func (t *Table[T]) CanPreviousPage() bool {
	return t.pageIndex > 0
}

func (t *Table[T]) CanNextPage() bool {
	return t.pageIndex < t.PageCount()-1
}

func (t *Table[T]) NextPage() {
	if t.CanNextPage() {
		t.pageIndex++
	}
}

func (t *Table[T]) PreviousPage() {
	if t.CanPreviousPage() {
		t.pageIndex--
	}
}

// VisiblePages returns up to three page indexes around the current page,
// pinned to the first or last pages near either end.
func (t *Table[T]) VisiblePages() []int {
	count := t.PageCount()
	cur := t.pageIndex

	var first int
	switch {
	case count <= maxVisiblePages:
		first = 0
	case cur < 2:
		first = 0
	case cur > count-maxVisiblePages:
		first = count - maxVisiblePages
	default:
		first = cur - 1
	}

	n := maxVisiblePages
	if count < n {
		n = count
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = first + i
	}
	return pages
}

// View renders the headers and the current page.
func (t *Table[T]) View() View[T] {
	headers := make([]Header, len(t.columns))
	for i, col := range t.columns {
		h := Header{ID: col.ID, Label: col.Header, Sortable: col.Sortable}
		if col.ID == t.sortColumn {
			h.Sort = t.sortDir
		}
		headers[i] = h
	}

	page := t.Page()
	rows := make([]Row[T], len(page))
	for i, src := range page {
		cells := make([]Cell, len(t.columns))
		for j, col := range t.columns {
			cells[j] = render(col, src)
		}
		rows[i] = Row[T]{Source: src, Cells: cells}
	}

	return View[T]{
		Headers:      headers,
		Rows:         rows,
		PageIndex:    t.pageIndex,
		PageCount:    t.PageCount(),
		VisiblePages: t.VisiblePages(),
		CanPrevious:  t.CanPreviousPage(),
		CanNext:      t.CanNextPage(),
	}
}

func (t *Table[T]) column(id string) (Column[T], bool) {
	if id == "" {
		return Column[T]{}, false
	}
	for _, col := range t.columns {
		if col.ID == id {
			return col, col.Accessor != nil
		}
	}
	return Column[T]{}, false
}

func render[T any](col Column[T], row T) Cell {
	cell := Cell{ColumnID: col.ID, Kind: col.Kind}
	if col.Accessor == nil {
		return cell
	}
	cell.Value = col.Accessor(row)
	if col.Format != nil {
		cell.Text = col.Format(cell.Value)
	} else if cell.Value != nil {
		cell.Text = fmt.Sprint(cell.Value)
	}
	return cell
}

// compare orders two accessor values. Strings compare case-insensitively;
// mismatched or unknown types fall back to their printed form.
func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return cmp.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	}
	return strings.Compare(printed(a), printed(b))
}

func printed(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return strings.ToLower(s.String())
	}
	return strings.ToLower(fmt.Sprint(v))
}
