// Package memo holds lazily computed per-paper results.
//
// A Table maps a key (the arXiv ID) to a cell that is filled the first time
// Get succeeds for it. Failed computations leave the cell empty so that a
// later call computes again.
package memo

import "sync"

// Table is a keyed set of lazily populated result cells. Computations for
// different keys run independently; callers for the same key wait for the
// one in progress.
type Table[V any] struct {
	mu    sync.Mutex
	cells map[string]*cell[V]
}

type cell[V any] struct {
	mu     sync.Mutex
	value  V
	filled bool
}

// New returns an empty Table.
func New[V any]() *Table[V] {
	return &Table[V]{cells: make(map[string]*cell[V])}
}

func (t *Table[V]) cell(key string) *cell[V] {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.cells[key]
	if !ok {
		c = &cell[V]{}
		t.cells[key] = c
	}
	return c
}

// Get returns the cached value for key, calling compute to fill the cell
// when it is empty.
func (t *Table[V]) Get(key string, compute func() (V, error)) (V, error) {
	c := t.cell(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filled {
		return c.value, nil
	}
	v, err := compute()
	if err != nil {
		t.drop(key, c)
		var zero V
		return zero, err
	}
	c.value, c.filled = v, true
	return v, nil
}

// drop removes an empty cell unless it has been replaced meanwhile.
func (t *Table[V]) drop(key string, c *cell[V]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cells[key] == c {
		delete(t.cells, key)
	}
}

// Lookup returns the cached value for key, if any. It waits for a
// computation of key that is in progress.
func (t *Table[V]) Lookup(key string) (V, bool) {
	t.mu.Lock()
	c, ok := t.cells[key]
	t.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.filled
}

// Forget releases the cell for key.
func (t *Table[V]) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cells, key)
}

// Len returns the number of cells held. A cell counts while its first
// computation is running.
func (t *Table[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cells)
}
