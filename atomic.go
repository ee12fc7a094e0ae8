package fiberio

import "sync/atomic"

// Cell is a word-sized atomic slot holding an opaque pointer, per
// spec.md §4.1 (Atomic Cell). It is grounded on
// lib_fiber/c/src/common/atomic.c's ATOMIC type, which wraps a single
// void* behind __sync_lock_test_and_set / __sync_val_compare_and_swap.
//
// Go's atomic.Pointer already gives indivisible reads/writes of a
// word-sized slot, so Cell is a thin wrapper rather than a reimplemented
// primitive — there is no platform on which Go's atomic package fails to
// support this, so the "platform-unsupported, log and return a
// sentinel" failure mode the original C exercises (no __sync builtins)
// cannot occur here, for Cell or for [CellInt64]; it is kept documented
// for API parity only.
type Cell struct {
	v atomic.Pointer[any]
}

// NewCell creates a new, empty Cell. Mirrors atomic_new/atomic_free's
// explicit create/destroy lifecycle; Cell itself needs no Free, since Go
// reclaims it via GC once unreferenced.
func NewCell() *Cell {
	return &Cell{}
}

// Set atomically replaces the stored value with v (release-store).
func (c *Cell) Set(v any) {
	c.v.Store(&v)
}

// Swap atomically replaces the stored value with v and returns the
// prior value.
func (c *Cell) Swap(v any) (prior any) {
	old := c.v.Swap(&v)
	if old == nil {
		return nil
	}
	return *old
}

// CAS returns the value observed in the slot at the instant of the
// attempt: if it equals expected, new has been stored; the caller
// determines success by comparing the return value to expected. This is
// the value-returning variant per spec.md §4.1 — there is no
// boolean-returning variant in this contract.
func (c *Cell) CAS(expected, new any) (observed any) {
	for {
		oldPtr := c.v.Load()
		var old any
		if oldPtr != nil {
			old = *oldPtr
		}
		if old != expected {
			return old
		}
		newCopy := new
		if c.v.CompareAndSwap(oldPtr, &newCopy) {
			return old
		}
		// lost the race against a concurrent mutator; observe again
	}
}

// CellInt64 is the 64-bit signed integer variant of Cell, per spec.md
// §4.1. Unlike the original C (which, per spec.md's design note,
// mistakenly dereferences the cell's stored pointer value as the
// intrinsic's target address — almost certainly a defect), this stores
// an inline int64 and operates on its own address.
type CellInt64 struct {
	v atomic.Int64
}

// NewCellInt64 creates a new CellInt64 initialized to 0.
func NewCellInt64() *CellInt64 {
	return &CellInt64{}
}

// Set atomically replaces the stored value with n.
func (c *CellInt64) Set(n int64) {
	c.v.Store(n)
}

// FetchAdd atomically adds n to the stored value, returning the value
// prior to the add.
func (c *CellInt64) FetchAdd(n int64) int64 {
	return c.v.Add(n) - n
}

// AddFetch atomically adds n to the stored value, returning the value
// after the add.
func (c *CellInt64) AddFetch(n int64) int64 {
	return c.v.Add(n)
}

// CAS returns the value observed in the slot at the instant of the
// attempt; the caller determines success by comparing against expected.
func (c *CellInt64) CAS(expected, new int64) (observed int64) {
	for {
		old := c.v.Load()
		if old != expected {
			return old
		}
		if c.v.CompareAndSwap(old, new) {
			return old
		}
	}
}
