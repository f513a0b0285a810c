package interntab

import (
	"bytes"
	"cmp"
	"unsafe"

	"github.com/philpearl/interntab/arena"
	"github.com/philpearl/interntab/hashing"
)

// ShortCapacity is the size of the inline buffer of a short String, including the
// terminator. Content of up to ShortCapacity-1 bytes is stored inline.
const ShortCapacity = 32

// String is an interned, immutable byte string. Equal content interned in the same
// InternTab gives the same *String, so Strings can be compared by pointer.
//
// A String carries a reference count that starts at zero. Holders call IncRef and
// DecRef. A count of zero does not free anything: the String stays valid until a
// garbage collection pass of its table reclaims it, after which any use of it
// panics.
type String struct {
	refs int64
	rep  rep
}

// rep holds the content of a String. It is a *shortRep or a *longRep, or nil once
// the String has been reclaimed.
type rep interface {
	content() []byte
}

// shortRep keeps content inline. The byte after the content is always zero.
type shortRep struct {
	n   uint8
	buf [ShortCapacity]byte
}

func (r *shortRep) content() []byte { return r.buf[:r.n] }

// longRep keeps content in a block from the table's allocator. buf holds the content
// followed by a zero byte.
type longRep struct {
	buf  []byte
	hash uint64
}

func (r *longRep) content() []byte { return r.buf[:len(r.buf)-1] }

func newShort(b []byte) *String {
	r := &shortRep{n: uint8(len(b))}
	copy(r.buf[:], b)
	return &String{rep: r}
}

// newLong copies b into a block from alloc. hash must be the default hash of b.
func newLong(b []byte, alloc arena.Allocator, hash uint64) *String {
	buf := alloc.Alloc(len(b) + 1)
	copy(buf, b)
	buf[len(b)] = 0
	return &String{rep: &longRep{buf: buf, hash: hash}}
}

func isShort(n int) bool {
	return n+1 <= ShortCapacity
}

func (s *String) content() []byte {
	if s.rep == nil {
		panic("interntab: use of reclaimed String")
	}
	return s.rep.content()
}

// Bytes returns the content of the String. The slice aliases the interned storage
// and must not be modified, nor used after the String is reclaimed.
func (s *String) Bytes() []byte {
	return s.content()
}

// String returns a copy of the content
func (s *String) String() string {
	return string(s.content())
}

// Len returns the length of the content in bytes
func (s *String) Len() int {
	switch r := s.rep.(type) {
	case *shortRep:
		return int(r.n)
	case *longRep:
		return len(r.buf) - 1
	}
	panic("interntab: use of reclaimed String")
}

// IsShort reports whether the content is stored inline
func (s *String) IsShort() bool {
	_, ok := s.rep.(*shortRep)
	return ok
}

// Hash returns the hashing.Default hash of the content. Long Strings cache it,
// short ones recompute it.
func (s *String) Hash() uint64 {
	switch r := s.rep.(type) {
	case *shortRep:
		return hashing.Default.Hash(r.content())
	case *longRep:
		return r.hash
	}
	panic("interntab: use of reclaimed String")
}

// Equal reports whether the content is exactly b
func (s *String) Equal(b []byte) bool {
	return bytes.Equal(s.content(), b)
}

// EqualString reports whether the content is exactly str
func (s *String) EqualString(str string) bool {
	return string(s.content()) == str
}

// Compare orders the content against b, shorter strings first and equal lengths
// byte by byte. It returns -1, 0 or +1.
func (s *String) Compare(b []byte) int {
	c := s.content()
	if r := cmp.Compare(len(c), len(b)); r != 0 {
		return r
	}
	return bytes.Compare(c, b)
}

// Less reports whether s orders before o under Compare
func (s *String) Less(o *String) bool {
	return s.Compare(o.content()) < 0
}

// IncRef adds a reference
func (s *String) IncRef() {
	s.refs++
}

// DecRef drops a reference and returns the remaining count. Dropping the last
// reference makes the String collectible but does not reclaim it.
func (s *String) DecRef() int64 {
	if s.refs <= 0 {
		panic("interntab: DecRef on String with no references")
	}
	s.refs--
	return s.refs
}

// RefCount returns the number of references held
func (s *String) RefCount() int64 {
	return s.refs
}

// Reclaimed reports whether garbage collection has freed the String
func (s *String) Reclaimed() bool {
	return s.rep == nil
}

// release frees the String's storage. Only the owning table calls this.
func (s *String) release(alloc arena.Allocator) {
	if r, ok := s.rep.(*longRep); ok {
		alloc.Free(r.buf)
	}
	s.rep = nil
}

func unsafeBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
