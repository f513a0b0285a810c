// Package interntab is a string interning table. It stores each distinct byte
// string once, as a *String, so equal strings can be compared by pointer and share
// storage.
//
// Strings are reference counted by their holders, but a String whose count drops
// to zero is not freed straight away. It is reclaimed by the next garbage
// collection pass, which runs when the table needs room or when GC is called.
//
// The table is an open-addressing hash set with a prime number of slots and double
// hashing. Reclaimed slots become tombstones, which are cleared by rebuilding the
// table. An InternTab is not safe for concurrent use.
package interntab

import (
	"math"

	"github.com/philpearl/interntab/arena"
	"github.com/philpearl/interntab/hashing"
	"github.com/philpearl/interntab/prime"
)

// DefaultSize is the number of slots in a table created by its zero value
const DefaultSize = 19

// minSize is the smallest table we build. Double hashing needs at least 3 slots,
// and we always keep 2 free.
const minSize = 5

// stepSeed seeds the secondary hash that gives the probe step
const stepSeed = 0x9e3779b97f4a7c15

// InternTab is the intern table. The zero value is ready to use, or allocate one
// with New.
type InternTab struct {
	ready       bool
	cfg         config
	hasher      hashing.Hasher
	defaultHash bool
	alloc       arena.Allocator

	table table

	// initialSize is the size the table starts at, and returns to after Finalize
	initialSize int
	used        int
	tombstones  int

	stats Stats
}

// Option configures an InternTab created by New
type Option func(i *InternTab)

// WithAllocator sets the allocator that holds long strings. The default is an
// arena.Slab.
func WithAllocator(a arena.Allocator) Option {
	return func(i *InternTab) { i.alloc = a }
}

// WithHasher sets the hash functions used to place strings. The default is
// hashing.Default.
func WithHasher(h hashing.Hasher) Option {
	return func(i *InternTab) { i.hasher = h }
}

// New creates a new InternTab. size is the initial number of slots, which is
// rounded up to a prime. The table grows automatically when needed.
func New(size int, opts ...Option) *InternTab {
	i := &InternTab{initialSize: size}
	for _, opt := range opts {
		opt(i)
	}
	i.init()
	return i
}

func (i *InternTab) init() {
	if i.ready {
		return
	}
	i.ready = true
	i.cfg = defaultConfig()
	if i.hasher == nil {
		i.hasher = hashing.Default
	}
	i.defaultHash = i.hasher == hashing.Default
	if i.alloc == nil {
		i.alloc = &arena.Slab{}
	}
	if i.initialSize == 0 {
		i.initialSize = DefaultSize
	}
	i.initialSize = int(prime.Next(uint64(max(i.initialSize, minSize))))
}

// Len returns the number of Strings in the table, including collectible ones that
// have not yet been reclaimed
func (i *InternTab) Len() int {
	return i.used
}

// Cap returns the number of slots in the table
func (i *InternTab) Cap() int {
	return i.table.len()
}

// Allocator returns the allocator holding the table's long strings
func (i *InternTab) Allocator() arena.Allocator {
	i.init()
	return i.alloc
}

// GetOrCreate returns the String with content b, adding it to the table if it is
// not already there. The reference count is not changed, so a String that was just
// created has a count of zero and may be reclaimed by the next garbage collection,
// which any later GetOrCreate can trigger. Call IncRef before interning anything
// else, or use Intern.
//
// b is copied, and may be reused by the caller.
func (i *InternTab) GetOrCreate(b []byte) *String {
	i.init()
	if i.table.len() == 0 {
		i.table.init(i.initialSize)
	}

	hash := i.hasher.Hash(b)
	cursor, free := i.findInTable(b, hash)
	if cursor >= 0 {
		return i.table.strs[cursor]
	}

	// Not found, so we add it. Making room may rebuild the table, in which case the
	// free slot we found is no longer meaningful
	if i.expand() || free < 0 {
		free = i.freeSlot(b, hash)
	}

	s := i.construct(b, hash)
	if i.table.states[free] == slotTombstone {
		i.tombstones--
	}
	i.table.set(free, s, hash)
	i.used++
	return s
}

// GetOrCreateString is GetOrCreate for a string
func (i *InternTab) GetOrCreateString(val string) *String {
	return i.GetOrCreate(unsafeBytes(val))
}

// Intern returns the String with content b, creating it if needed, and takes a
// reference to it. Drop the reference with Release.
func (i *InternTab) Intern(b []byte) *String {
	s := i.GetOrCreate(b)
	s.IncRef()
	return s
}

// InternString is Intern for a string
func (i *InternTab) InternString(val string) *String {
	return i.Intern(unsafeBytes(val))
}

// Release drops a reference taken by Intern or IncRef
func (i *InternTab) Release(s *String) {
	s.DecRef()
}

// Find returns the String with content b, or nil if there is none
func (i *InternTab) Find(b []byte) *String {
	if i.table.len() == 0 {
		return nil
	}
	cursor, _ := i.findInTable(b, i.hasher.Hash(b))
	if cursor < 0 {
		return nil
	}
	return i.table.strs[cursor]
}

// FindString is Find for a string
func (i *InternTab) FindString(val string) *String {
	return i.Find(unsafeBytes(val))
}

// Range calls fn for each String in the table until fn returns false. fn must not
// add Strings or collect garbage.
func (i *InternTab) Range(fn func(s *String) bool) {
	for k, state := range i.table.states {
		if state == slotOccupied && !fn(i.table.strs[k]) {
			return
		}
	}
}

// construct makes a new String for b. hash is b's hash from our hasher.
func (i *InternTab) construct(b []byte, hash uint64) *String {
	if isShort(len(b)) {
		return newShort(b)
	}
	if !i.defaultHash {
		hash = hashing.Default.Hash(b)
	}
	return newLong(b, i.alloc, hash)
}

// step returns the probe step for b in a table of the given size. The result is in
// [1, size-1], so with a prime size the probe sequence visits every slot.
func (i *InternTab) step(b []byte, size int) int {
	return 1 + int(i.hasher.HashSeed(b, stepSeed)%uint64(size-1))
}

// findInTable searches the table for b. If b is present it returns its slot as
// cursor, otherwise cursor is -1. free is the first slot on b's probe sequence
// that an insert could use, or -1 if the search met none.
func (i *InternTab) findInTable(b []byte, hash uint64) (cursor, free int) {
	t := i.table
	l := t.len()
	cursor = int(hash % uint64(l))
	free = -1
	var step int
	for n := 0; n < l; n++ {
		switch t.states[cursor] {
		case slotEmpty:
			if free < 0 {
				free = cursor
			}
			return -1, free
		case slotTombstone:
			if free < 0 {
				free = cursor
			}
		case slotOccupied:
			if t.hashes[cursor] == hash && t.strs[cursor].Equal(b) {
				return cursor, free
			}
		}
		if step == 0 {
			// Only work out the step once we have a collision
			step = i.step(b, l)
		}
		cursor += step
		if cursor >= l {
			cursor -= l
		}
	}
	// We've visited every slot. We keep empty slots around so this should not happen
	return -1, free
}

// freeSlot returns the first slot on b's probe sequence that is not occupied. b
// must not be in the table.
func (i *InternTab) freeSlot(b []byte, hash uint64) int {
	cursor := placeInTable(i.table, hash, func(size int) int { return i.step(b, size) })
	if cursor < 0 {
		panic("interntab: out of space!")
	}
	return cursor
}

// placeInTable walks the probe sequence for hash until it meets a slot that is not
// occupied, and returns it. It returns -1 if every slot is occupied.
func placeInTable(t table, hash uint64, step func(size int) int) int {
	l := t.len()
	cursor := int(hash % uint64(l))
	var s int
	for n := 0; n < l; n++ {
		if t.states[cursor] != slotOccupied {
			return cursor
		}
		if s == 0 {
			s = step(l)
		}
		cursor += s
		if cursor >= l {
			cursor -= l
		}
	}
	return -1
}

// hasRoom reports whether a table of the given size would stay within bounds after
// one more insert: under the max load factor, with at least 2 slots still free.
func (i *InternTab) hasRoom(size int) bool {
	pending := i.used + 1
	return float64(pending) < i.cfg.maxLoadFactor*float64(size) && size-pending >= 2
}

// expand makes sure there is room to insert a String. It tries collecting garbage
// before growing the table. It returns true if the table was rebuilt.
func (i *InternTab) expand() (rebuilt bool) {
	size := i.table.len()
	if i.hasRoom(size) && size-i.used-i.tombstones >= 2 {
		return false
	}

	_, rebuilt = i.collect()
	size = i.table.len()
	if i.hasRoom(size) {
		if size-i.used-i.tombstones >= 2 {
			return rebuilt
		}
		// Enough space, but nearly all of it is tombstones. Searches for absent
		// strings would wander the whole table, so clear them out.
		i.rebuild(size)
		i.stats.Rehashes++
		return true
	}

	i.rebuild(i.growSize())
	i.stats.Grows++
	return true
}

// growSize picks the size for growing the table
func (i *InternTab) growSize() int {
	size := i.table.len()
	target := int(math.Ceil(float64(size) * i.cfg.resizeFactor))
	target = max(target, i.used+3)
	// Make sure the pending insert stays under the max load factor
	target = max(target, int(float64(i.used+1)/i.cfg.maxLoadFactor)+1)
	for {
		size = int(prime.Next(uint64(target)))
		if i.hasRoom(size) {
			return size
		}
		target = size + 1
	}
}

// shrinkSize picks the size for a table that has fallen below the min load factor.
// It aims for the middle of the min and max load factors.
func (i *InternTab) shrinkSize() int {
	mid := (i.cfg.minLoadFactor + i.cfg.maxLoadFactor) / 2
	target := int(math.Ceil(float64(i.used) / mid))
	target = max(target, i.used+3, minSize)
	for {
		size := int(prime.Next(uint64(target)))
		if i.hasRoom(size) {
			return size
		}
		target = size + 1
	}
}

// rebuild moves every String into a new table of the given size, leaving no
// tombstones
func (i *InternTab) rebuild(size int) {
	var newTable table
	newTable.init(size)

	old := i.table
	for k, state := range old.states {
		if state != slotOccupied {
			continue
		}
		s := old.strs[k]
		cursor := placeInTable(newTable, old.hashes[k], func(size int) int { return i.step(s.content(), size) })
		if cursor < 0 {
			panic("interntab: out of space (rebuild)!")
		}
		newTable.set(cursor, s, old.hashes[k])
	}

	old.close()
	i.table = newTable
	i.tombstones = 0
}

// GC reclaims every String with a reference count of zero and returns how many
// were reclaimed. It may then shrink the table, or rebuild it to clear tombstones,
// and may ask the allocator to compact. It is safe to call at any time.
func (i *InternTab) GC() int {
	reclaimed, _ := i.collect()
	return reclaimed
}

func (i *InternTab) collect() (reclaimed int, rebuilt bool) {
	i.init()
	t := i.table
	if t.len() == 0 {
		return 0, false
	}

	for k, state := range t.states {
		if state != slotOccupied || t.strs[k].RefCount() != 0 {
			continue
		}
		t.strs[k].release(i.alloc)
		t.bury(k)
		reclaimed++
	}
	i.used -= reclaimed
	i.tombstones += reclaimed
	i.stats.Collections++
	i.stats.Reclaimed += reclaimed

	size := t.len()
	if size > minSize && float64(i.used) < i.cfg.minLoadFactor*float64(size) {
		if newSize := i.shrinkSize(); newSize < size {
			i.rebuild(newSize)
			i.stats.Shrinks++
			rebuilt = true
		}
	}
	if !rebuilt && i.tombstones > 0 &&
		float64(i.tombstones) > i.cfg.deletedRehashRatio*float64(size-i.used) {
		i.rebuild(size)
		i.stats.Rehashes++
		rebuilt = true
	}

	i.maybeCompact()
	return reclaimed, rebuilt
}

// maybeCompact asks the allocator to compact if it is using little of the memory
// it holds. Compactions counts only the calls that gave memory back.
func (i *InternTab) maybeCompact() {
	claimed := i.alloc.BytesClaimed()
	if claimed == 0 {
		return
	}
	if float64(i.alloc.BytesAllocated()) < i.cfg.compactThreshold*float64(claimed) {
		i.alloc.Compact()
		if i.alloc.BytesClaimed() < claimed {
			i.stats.Compactions++
		}
	}
}

// Finalize frees every String, whatever its reference count, and the table itself.
// Strings obtained from the table must not be used afterwards. The table may be
// used again, and starts out empty at its initial size.
func (i *InternTab) Finalize() {
	i.init()
	t := i.table
	for k, state := range t.states {
		if state == slotOccupied {
			t.strs[k].release(i.alloc)
		}
	}
	i.table.close()
	i.used = 0
	i.tombstones = 0
	i.alloc.Compact()
}
