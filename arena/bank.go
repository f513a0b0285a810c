package arena

import (
	"unsafe"

	"github.com/philpearl/stringbank"
)

// bankMax is the largest block stored in the bank. A stringbank allocation is 256k
// and a string must fit in one along with its length prefix.
const bankMax = 1<<18 - 8

// Bank allocates from a stringbank, so blocks live in a few large allocations that
// the garbage collector does not need to scan. A stringbank never releases memory:
// Free only updates the accounting and Compact does nothing. Bank suits tables
// whose long strings are rarely collected.
//
// Blocks larger than the bank's allocation size come from the Go heap.
type Bank struct {
	sb        stringbank.Stringbank
	allocated int
	large     int
	zeros     []byte
}

// Alloc returns a block of n bytes from the bank
func (b *Bank) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	b.allocated += n
	if n > bankMax {
		b.large += n
		return make([]byte, n)
	}
	if len(b.zeros) < n {
		b.zeros = make([]byte, n)
	}
	// A stringbank can only save a string, so we reserve the space by saving n zero
	// bytes, then hand out the saved copy for writing. The string returned by Get
	// aliases the bank's own []byte allocation, and nothing else ever reads it as a
	// string, so writing through it is safe. The zero bytes are copied only to be
	// overwritten; that is the price of reserving space through Save.
	s := b.sb.Get(b.sb.Save(unsafe.String(&b.zeros[0], n)))
	return unsafe.Slice(unsafe.StringData(s), n)
}

// Free drops the block from the accounting. Bank memory is never reused.
func (b *Bank) Free(buf []byte) {
	b.allocated -= len(buf)
	if len(buf) > bankMax {
		b.large -= len(buf)
	}
}

// BytesAllocated is the number of bytes in blocks not yet freed
func (b *Bank) BytesAllocated() int { return b.allocated }

// BytesClaimed is the size of the underlying stringbank plus any large blocks. This
// includes the length prefixes the bank writes and space wasted at the end of each
// bank allocation.
func (b *Bank) BytesClaimed() int { return b.sb.Size() + b.large }

// Compact does nothing: a stringbank cannot give memory back
func (b *Bank) Compact() {}
