package pool

import "errors"

// ErrExhausted is returned when an arena or table row has no free slot left.
var ErrExhausted = errors.New("pool: capacity exhausted")

// Arena is a fixed-capacity object pool. Entries are addressed by index, are
// never released one by one, and all of them are dropped at once by Reset.
type Arena[T any] struct {
	items []T
}

// NewArena allocates an arena able to hold capacity entries.
func NewArena[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Alloc reserves the next zeroed entry and returns its index.
func (a *Arena[T]) Alloc() (int, error) {
	if len(a.items) == cap(a.items) {
		return -1, ErrExhausted
	}
	var zero T
	a.items = append(a.items, zero)
	return len(a.items) - 1, nil
}

// At returns the entry at index i. It panics when i is not a used index.
func (a *Arena[T]) At(i int) *T {
	return &a.items[i]
}

// Valid reports whether i addresses a used entry.
func (a *Arena[T]) Valid(i int) bool {
	return i >= 0 && i < len(a.items)
}

// Len returns the used-count watermark.
func (a *Arena[T]) Len() int { return len(a.items) }

// Cap returns the fixed capacity.
func (a *Arena[T]) Cap() int { return cap(a.items) }

// Reset drops every entry without releasing the backing array.
func (a *Arena[T]) Reset() {
	clear(a.items)
	a.items = a.items[:0]
}

// Table is a set of fixed-capacity rows carved out of a single backing array.
// Row i never holds more than the per-row capacity given to NewTable, and
// appending to a row never allocates.
type Table[T any] struct {
	rows [][]T
}

// NewTable allocates rows rows of perRow slots each.
func NewTable[T any](rows, perRow int) *Table[T] {
	if rows < 0 {
		rows = 0
	}
	if perRow < 0 {
		perRow = 0
	}
	backing := make([]T, rows*perRow)
	t := &Table[T]{rows: make([][]T, rows)}
	for i := range t.rows {
		lo := i * perRow
		t.rows[i] = backing[lo:lo:(lo + perRow)]
	}
	return t
}

// Append adds v to the end of row.
func (t *Table[T]) Append(row int, v T) error {
	r := t.rows[row]
	if len(r) == cap(r) {
		return ErrExhausted
	}
	t.rows[row] = append(r, v)
	return nil
}

// Full reports whether row has no free slot.
func (t *Table[T]) Full(row int) bool {
	return len(t.rows[row]) == cap(t.rows[row])
}

// Row returns the used part of row. The slice must be treated as read-only.
func (t *Table[T]) Row(row int) []T {
	return t.rows[row]
}

// Reset empties every row.
func (t *Table[T]) Reset() {
	for i := range t.rows {
		clear(t.rows[i])
		t.rows[i] = t.rows[i][:0]
	}
}
