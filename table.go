package interntab

import (
	"reflect"
	"unsafe"

	"github.com/philpearl/mmap"
	"github.com/pkg/errors"
)

type slotState uint8

const (
	// slotEmpty has not held a String since the table was built. Searches stop here.
	slotEmpty slotState = iota
	// slotTombstone held a String that was reclaimed. Searches step over it and
	// inserts may reuse it.
	slotTombstone
	slotOccupied
)

// table represents a hash table. The slot states and hashes hold no Go pointers, so
// we keep them off-heap. The Strings must stay where the GC can see them.
type table struct {
	states []slotState
	// We keep the primary hash of each entry to speed up rebuilding, and to step
	// through entries that share a probe sequence without comparing bytes
	hashes []uint64
	strs   []*String
}

func (t *table) init(size int) {
	t.states = makeStateSlice(size)
	t.hashes = makeUint64Slice(size)
	t.strs = make([]*String, size)
}

func (t table) len() int {
	return len(t.states)
}

func (t *table) close() {
	if t.states != nil {
		mmap.Free(*(*reflect.SliceHeader)(unsafe.Pointer(&t.states)), unsafe.Sizeof(slotState(0)))
		t.states = nil
	}
	if t.hashes != nil {
		mmap.Free(*(*reflect.SliceHeader)(unsafe.Pointer(&t.hashes)), unsafe.Sizeof(uint64(0)))
		t.hashes = nil
	}
	t.strs = nil
}

// set fills slot i with s
func (t table) set(i int, s *String, hash uint64) {
	t.states[i] = slotOccupied
	t.hashes[i] = hash
	t.strs[i] = s
}

// bury turns occupied slot i into a tombstone
func (t table) bury(i int) {
	t.states[i] = slotTombstone
	t.hashes[i] = 0
	t.strs[i] = nil
}

// Anonymous mappings are zeroed, so every slot starts out slotEmpty

func makeStateSlice(size int) []slotState {
	slice := mapSlice(unsafe.Sizeof(slotState(0)), size)
	return *(*[]slotState)(unsafe.Pointer(&slice))
}

func makeUint64Slice(size int) []uint64 {
	slice := mapSlice(unsafe.Sizeof(uint64(0)), size)
	return *(*[]uint64)(unsafe.Pointer(&slice))
}

func mapSlice(itemSize uintptr, size int) reflect.SliceHeader {
	slice, err := mmap.Alloc(itemSize, size)
	if err != nil {
		panic(errors.Wrapf(err, "interntab: failed to map table of %d slots", size))
	}
	slice.Len = size
	slice.Cap = size
	return slice
}
