// Package alloc implements a bump allocator with a same-size-only free
// list, used to hand out slot offsets for each class's variable-state
// slots without ever relocating a slot once assigned.
package alloc

// freeBlock is one previously-freed, still-unused range.
type freeBlock struct {
	offset uint32
	amount uint32
}

// RangeAllocator hands out non-overlapping byte ranges. Freed ranges are
// only ever reused by a later Allocate call requesting the exact same
// amount — there is no coalescing of adjacent free blocks, matching the
// reference allocator exactly.
type RangeAllocator struct {
	totalCapacity uint32
	freeList      []freeBlock
}

// Allocate returns the offset of a range of amount bytes: it is either a
// previously Free'd range of the same amount (the most recently freed
// one, to keep the common stack-like alloc/free pattern O(1)), or a
// brand new range grown off the end of the allocator's capacity.
func (a *RangeAllocator) Allocate(amount uint32) uint32 {
	for i := len(a.freeList) - 1; i >= 0; i-- {
		if a.freeList[i].amount == amount {
			offset := a.freeList[i].offset
			a.freeList = append(a.freeList[:i], a.freeList[i+1:]...)
			return offset
		}
	}

	offset := a.totalCapacity
	a.totalCapacity += amount
	return offset
}

// Free returns a previously allocated range to the allocator for reuse
// by a future Allocate call of the same amount.
func (a *RangeAllocator) Free(offset, amount uint32) {
	a.freeList = append(a.freeList, freeBlock{offset: offset, amount: amount})
}

// Capacity returns the total number of bytes ever handed out by
// Allocate, i.e. the size a caller's backing buffer must have.
func (a *RangeAllocator) Capacity() uint32 {
	return a.totalCapacity
}
