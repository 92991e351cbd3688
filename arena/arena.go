// Package arena implements the scope-bounded ownership component (spec.md
// §4.C "Arena"): an ordered, growable sequence of owned tensors with a
// lockable push gate. Grounded on original_source/src/tensor/environ.c's
// Environment (a growable owning array of Tensor pointers), with the lock
// flag layered on top per spec.md's Arena invariants.
package arena

import "github.com/zerfoo/gotensor/tensorerr"

// Owned is the minimal contract an arena-managed value must satisfy:
// pointer identity is what RemoveAndFree compares against.
type Owned interface {
	// Release is called exactly once, when the arena drops this value.
	Release()
}

// Arena owns a sequence of values and releases them together when dropped.
// An Arena is exclusively owned and must never be shared across goroutines
// (spec.md §5).
type Arena struct {
	items  []Owned
	locked bool
}

// New returns an empty, unlocked Arena.
func New() *Arena {
	return &Arena{}
}

// Push appends item to the arena. Fails with EnvPushFailure if the arena is
// locked.
func (a *Arena) Push(item Owned) error {
	if a.locked {
		return tensorerr.New(tensorerr.EnvPushFailure, "cannot push into a locked arena")
	}

	a.items = append(a.items, item)

	return nil
}

// Pop removes and returns the last item, or nil if the arena is empty. It
// does not release the popped item — ownership transfers to the caller.
func (a *Arena) Pop() Owned {
	if len(a.items) == 0 {
		return nil
	}

	last := a.items[len(a.items)-1]
	a.items = a.items[:len(a.items)-1]

	return last
}

// RemoveAndFree scans for a pointer-equal target, releases it, and shifts
// the remaining entries down. It is a no-op if target is not found.
func (a *Arena) RemoveAndFree(target Owned) {
	for i, it := range a.items {
		if it == target {
			it.Release()
			a.items = append(a.items[:i], a.items[i+1:]...)

			return
		}
	}
}

// Len reports how many items the arena currently owns.
func (a *Arena) Len() int {
	return len(a.items)
}

// SetLock prevents further Push calls.
func (a *Arena) SetLock() {
	a.locked = true
}

// OpenLock re-enables Push calls.
func (a *Arena) OpenLock() {
	a.locked = false
}

// Locked reports the arena's current lock state.
func (a *Arena) Locked() bool {
	return a.locked
}

// Release drops every item the arena owns, in order, exactly once.
func (a *Arena) Release() {
	for _, it := range a.items {
		it.Release()
	}

	a.items = nil
}

// Resolve returns whichever of a, b is not locked, preferring a. Fails with
// EnvResolveFailure if both are locked — used by binary operators where one
// operand may live in a locked parameter arena.
func Resolve(a, b *Arena) (*Arena, error) {
	if a != nil && !a.locked {
		return a, nil
	}

	if b != nil && !b.locked {
		return b, nil
	}

	return nil, tensorerr.New(tensorerr.EnvResolveFailure, "both candidate arenas are locked")
}
