package alloc_test

import (
	"testing"

	"github.com/hearthnet/deltasync/internal/alloc"
)

func TestAllocateGrowsCapacity(t *testing.T) {
	var a alloc.RangeAllocator

	o0 := a.Allocate(4)
	o1 := a.Allocate(8)
	o2 := a.Allocate(4)

	if o0 != 0 {
		t.Fatalf("o0 = %d, want 0", o0)
	}
	if o1 != 4 {
		t.Fatalf("o1 = %d, want 4", o1)
	}
	if o2 != 12 {
		t.Fatalf("o2 = %d, want 12", o2)
	}
	if got := a.Capacity(); got != 16 {
		t.Fatalf("capacity = %d, want 16", got)
	}
}

func TestFreeReusesSameSizeOnly(t *testing.T) {
	var a alloc.RangeAllocator

	o0 := a.Allocate(4)
	a.Allocate(8)
	a.Free(o0, 4)

	// A request for a different size must not consume the freed block.
	if got := a.Allocate(8); got == o0 {
		t.Fatalf("allocate(8) reused a 4-byte free block at offset %d", o0)
	}

	// A request for the same size reuses the freed block instead of
	// growing capacity.
	before := a.Capacity()
	if got := a.Allocate(4); got != o0 {
		t.Fatalf("allocate(4) = %d, want reused offset %d", got, o0)
	}
	if a.Capacity() != before {
		t.Fatalf("capacity grew from %d to %d on a reused allocation", before, a.Capacity())
	}
}

func TestFreeListIsLastInFirstOut(t *testing.T) {
	var a alloc.RangeAllocator

	o0 := a.Allocate(4)
	o1 := a.Allocate(4)
	a.Free(o0, 4)
	a.Free(o1, 4)

	// The most recently freed block (o1) is handed back first.
	if got := a.Allocate(4); got != o1 {
		t.Fatalf("got %d, want most-recently-freed offset %d", got, o1)
	}
	if got := a.Allocate(4); got != o0 {
		t.Fatalf("got %d, want %d", got, o0)
	}
}
