package ipc

import (
	"fmt"
	"sync/atomic"
)

// Region is the flat array of integer cells shared by every attached actor.
// Cells are only read or written while the bank mutex is held; the atomic
// cells keep a forced teardown report from racing with a live writer.
type Region struct {
	cells []atomic.Int64
}

func NewRegion(words int) *Region {
	return &Region{cells: make([]atomic.Int64, words)}
}

func (r *Region) Len() int {
	return len(r.cells)
}

func (r *Region) Load(offset int) int64 {
	return r.cells[r.check(offset)].Load()
}

func (r *Region) Store(offset int, v int64) {
	r.cells[r.check(offset)].Store(v)
}

func (r *Region) Add(offset int, delta int64) int64 {
	return r.cells[r.check(offset)].Add(delta)
}

func (r *Region) check(offset int) int {
	if offset < 0 || offset >= len(r.cells) {
		panic(fmt.Sprintf("ipc: region offset %d out of range [0,%d)", offset, len(r.cells)))
	}
	return offset
}
