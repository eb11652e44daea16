package descriptor

import "testing"

func TestFreeListSkipsReservedRange(t *testing.T) {
	f := newFreeList(10, 5)
	for i := uint32(0); i < 5; i++ {
		if f.alloc(10) < 5 {
			t.Fatalf("alloc returned an index inside the reserved range")
		}
	}
}

func TestFreeListLIFOReuse(t *testing.T) {
	f := newFreeList(20, 1)
	for i := 0; i < 9; i++ {
		f.alloc(20)
	}
	nine := f.alloc(20) // index 10 at this point; release it and re-alloc
	f.release(nine)
	again := f.alloc(20)
	if again != nine {
		t.Fatalf("expected LIFO reuse of %d, got %d", nine, again)
	}
}

func TestFreeListExhaustionReturnsZero(t *testing.T) {
	f := newFreeList(3, 1)
	f.alloc(3) // index 1
	f.alloc(3) // index 2
	if got := f.alloc(3); got != 0 {
		t.Fatalf("expected 0 once capacity is reached, got %d", got)
	}
}

func TestFreeListReleaseIgnoresZeroAndReserved(t *testing.T) {
	f := newFreeList(10, 3)
	f.release(0)
	f.release(1)
	if len(f.free) != 0 {
		t.Fatalf("releasing the sentinel or a reserved index must be a no-op, got free list %v", f.free)
	}
}
