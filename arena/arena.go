// Package arena provides the allocators that hold the bytes of long interned
// strings. The intern table allocates a block when it creates a long string and
// frees it when garbage collection reclaims the string.
package arena

// Allocator hands out byte blocks. The slice returned by Alloc must be passed back
// to Free unmodified (same length and capacity). Allocators are not safe for
// concurrent use.
type Allocator interface {
	// Alloc returns a block of exactly n bytes. It panics if memory cannot be
	// obtained.
	Alloc(n int) []byte
	// Free returns a block obtained from Alloc.
	Free(b []byte)
	// BytesAllocated is the number of bytes in blocks currently handed out.
	BytesAllocated() int
	// BytesClaimed is the number of bytes the allocator holds from the system,
	// including free space.
	BytesClaimed() int
	// Compact returns unused memory to the system where possible.
	Compact()
}

// Heap allocates from the Go heap. Freed blocks are left to the garbage collector.
type Heap struct {
	allocated int
}

// Alloc returns a new heap block of n bytes, or nil if n is 0
func (h *Heap) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	h.allocated += n
	return make([]byte, n)
}

// Free drops the block from the accounting. The memory goes when the GC finds it.
func (h *Heap) Free(b []byte) {
	h.allocated -= len(b)
}

// BytesAllocated is the number of bytes in blocks not yet freed
func (h *Heap) BytesAllocated() int { return h.allocated }

// BytesClaimed is the same as BytesAllocated: freed blocks belong to the GC
func (h *Heap) BytesClaimed() int { return h.allocated }

// Compact does nothing
func (h *Heap) Compact() {}
