package descriptor

// freeList is a LIFO pool of reusable uint32 indices starting above
// reserved, used for the bindless texture/cubemap slot tables and the
// material SSBO row allocator. LIFO reuse matches scenario 4 in §8
// ("free index 9, then allocate one more: the returned index is 9").
type freeList struct {
	next     uint32
	reserved uint32
	free     []uint32
}

func newFreeList(capacity, reserved uint32) *freeList {
	return &freeList{next: reserved, reserved: reserved}
}

// alloc returns 0 iff the table is exhausted (§8 boundary behavior).
func (f *freeList) alloc(capacity uint32) uint32 {
	if n := len(f.free); n > 0 {
		idx := f.free[n-1]
		f.free = f.free[:n-1]
		return idx
	}
	if f.next >= capacity {
		return 0
	}
	idx := f.next
	f.next++
	return idx
}

func (f *freeList) release(idx uint32) {
	if idx == 0 || idx < f.reserved {
		return
	}
	f.free = append(f.free, idx)
}
