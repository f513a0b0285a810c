package arena

import (
	"math/bits"
	"reflect"
	"sort"
	"unsafe"

	"github.com/philpearl/mmap"
	"github.com/pkg/errors"
)

const (
	// slabSize is the size of each mapping carved into blocks of one size class
	slabSize = 1 << 18

	minClassShift = 5  // 32 bytes
	maxClassShift = 16 // 64k
	numClasses    = maxClassShift - minClassShift + 1
)

// Slab allocates blocks off-heap. Requests are rounded up to a power-of-two size
// class, and each class carves its blocks out of 256k mappings. Requests larger
// than the biggest class get a mapping of their own, which is released as soon as
// it is freed. Compact releases slabs that have no blocks in use.
//
// The zero value is ready to use. Memory from a Slab is invisible to the Go
// garbage collector, so blocks must not hold Go pointers.
type Slab struct {
	classes   [numClasses]sizeClass
	allocated int
	claimed   int
	// idle is the number of slabs with no blocks in use
	idle int
}

type sizeClass struct {
	size int
	// slabs is kept sorted by address so a block can be traced to its slab
	slabs []*slab
	free  [][]byte
}

type slab struct {
	mem  []byte
	live int
	dead bool
}

func (s *slab) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s.mem)))
}

// classFor returns the size class for a block of n bytes, or -1 if the block
// needs a mapping to itself
func classFor(n int) int {
	shift := bits.Len(uint(n - 1))
	if shift < minClassShift {
		shift = minClassShift
	}
	if shift > maxClassShift {
		return -1
	}
	return shift - minClassShift
}

// Alloc returns a block of n bytes. Its capacity is the size of its class, and
// must be kept so Free can find the class again.
func (s *Slab) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	c := classFor(n)
	if c < 0 {
		b := mapBytes(n)
		s.claimed += n
		s.allocated += n
		return b
	}

	sc := &s.classes[c]
	if sc.size == 0 {
		sc.size = 1 << uint(c+minClassShift)
	}
	if len(sc.free) == 0 {
		s.claimed += sc.grow()
		s.idle++
	}
	b := sc.free[len(sc.free)-1]
	sc.free = sc.free[:len(sc.free)-1]
	sl := sc.slabFor(b)
	if sl.live == 0 {
		s.idle--
	}
	sl.live++
	s.allocated += sc.size
	return b[:n:sc.size]
}

// Free puts a block back on its class's free list, or unmaps it if it had a
// mapping of its own
func (s *Slab) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	c := classFor(cap(b))
	if c < 0 {
		s.claimed -= cap(b)
		s.allocated -= cap(b)
		unmapBytes(b)
		return
	}
	sc := &s.classes[c]
	if cap(b) != sc.size {
		panic("arena: freeing block that did not come from this Slab")
	}
	b = b[:sc.size]
	sl := sc.slabFor(b)
	sl.live--
	if sl.live == 0 {
		s.idle++
	}
	sc.free = append(sc.free, b)
	s.allocated -= sc.size
}

// BytesAllocated counts blocks in use at the size of their class
func (s *Slab) BytesAllocated() int { return s.allocated }

// BytesClaimed is the total size of all mappings
func (s *Slab) BytesClaimed() int { return s.claimed }

// Compact releases every slab that has no blocks in use. It costs nothing when
// every slab is in use.
func (s *Slab) Compact() {
	if s.idle == 0 {
		return
	}
	for c := range s.classes {
		s.claimed -= s.classes[c].compact()
	}
	s.idle = 0
}

// grow maps a new slab and adds its blocks to the free list. It returns the number
// of bytes mapped.
func (sc *sizeClass) grow() int {
	sl := &slab{mem: mapBytes(slabSize)}
	for off := 0; off+sc.size <= slabSize; off += sc.size {
		sc.free = append(sc.free, sl.mem[off:off+sc.size:off+sc.size])
	}
	base := sl.base()
	i := sort.Search(len(sc.slabs), func(i int) bool { return sc.slabs[i].base() > base })
	sc.slabs = append(sc.slabs, nil)
	copy(sc.slabs[i+1:], sc.slabs[i:])
	sc.slabs[i] = sl
	return slabSize
}

func (sc *sizeClass) slabFor(b []byte) *slab {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	i := sort.Search(len(sc.slabs), func(i int) bool { return sc.slabs[i].base() > addr }) - 1
	if i < 0 || addr >= sc.slabs[i].base()+slabSize {
		panic("arena: block is not in any slab")
	}
	return sc.slabs[i]
}

// compact unmaps empty slabs and drops their blocks from the free list. It returns
// the number of bytes released.
func (sc *sizeClass) compact() int {
	var dead int
	for _, sl := range sc.slabs {
		if sl.live == 0 {
			sl.dead = true
			dead++
		}
	}
	if dead == 0 {
		return 0
	}

	free := sc.free[:0]
	for _, b := range sc.free {
		if !sc.slabFor(b).dead {
			free = append(free, b)
		}
	}
	for i := len(free); i < len(sc.free); i++ {
		sc.free[i] = nil
	}
	sc.free = free

	slabs := sc.slabs[:0]
	for _, sl := range sc.slabs {
		if sl.dead {
			unmapBytes(sl.mem)
			continue
		}
		slabs = append(slabs, sl)
	}
	for i := len(slabs); i < len(sc.slabs); i++ {
		sc.slabs[i] = nil
	}
	sc.slabs = slabs
	return dead * slabSize
}

func mapBytes(n int) []byte {
	slice, err := mmap.Alloc(1, n)
	if err != nil {
		panic(errors.Wrapf(err, "arena: failed to map %d bytes", n))
	}
	slice.Len = n
	slice.Cap = n
	return *(*[]byte)(unsafe.Pointer(&slice))
}

func unmapBytes(b []byte) {
	b = b[:cap(b)]
	mmap.Free(*(*reflect.SliceHeader)(unsafe.Pointer(&b)), 1)
}
