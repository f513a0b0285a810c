package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFor(t *testing.T) {
	tests := []struct {
		n, class int
	}{
		{1, 0},
		{32, 0},
		{33, 1},
		{64, 1},
		{65, 2},
		{1 << 16, numClasses - 1},
		{1<<16 + 1, -1},
	}
	for _, test := range tests {
		assert.Equal(t, test.class, classFor(test.n), "classFor(%d)", test.n)
	}
}

func TestAllocators(t *testing.T) {
	allocators := map[string]func() Allocator{
		"slab": func() Allocator { return &Slab{} },
		"bank": func() Allocator { return &Bank{} },
		"heap": func() Allocator { return &Heap{} },
	}

	for name, newAlloc := range allocators {
		t.Run(name, func(t *testing.T) {
			a := newAlloc()
			assert.Zero(t, a.BytesAllocated())
			assert.Nil(t, a.Alloc(0))

			b := a.Alloc(40)
			require.Len(t, b, 40)
			for i := range b {
				b[i] = byte(i)
			}
			c := a.Alloc(100)
			require.Len(t, c, 100)
			copy(c, "hello")

			// Blocks do not overlap
			for i := range b {
				assert.Equal(t, byte(i), b[i])
			}
			assert.Equal(t, "hello", string(c[:5]))

			assert.True(t, a.BytesAllocated() >= 140)
			assert.True(t, a.BytesClaimed() >= a.BytesAllocated())

			a.Free(b)
			a.Free(c)
			assert.Zero(t, a.BytesAllocated())
			a.Compact()
		})
	}
}

func TestSlabReuse(t *testing.T) {
	var s Slab
	b := s.Alloc(50)
	assert.Equal(t, 64, cap(b))
	assert.Equal(t, 64, s.BytesAllocated())
	assert.Equal(t, slabSize, s.BytesClaimed())

	s.Free(b)
	assert.Zero(t, s.BytesAllocated())

	// The freed block comes straight back
	c := s.Alloc(60)
	assert.Equal(t, &b[0], &c[0])
	assert.Equal(t, slabSize, s.BytesClaimed())
	s.Free(c)
}

func TestSlabCompact(t *testing.T) {
	var s Slab

	// Fill more than one slab of 1k blocks
	perSlab := slabSize / 1024
	blocks := make([][]byte, perSlab+1)
	for i := range blocks {
		blocks[i] = s.Alloc(1000)
		blocks[i][0] = byte(i)
	}
	assert.Equal(t, 2*slabSize, s.BytesClaimed())

	// Nothing to release while every slab has a live block
	s.Compact()
	assert.Equal(t, 2*slabSize, s.BytesClaimed())

	for _, b := range blocks[:perSlab] {
		s.Free(b)
	}
	s.Free(blocks[perSlab])
	s.Compact()
	assert.Zero(t, s.BytesClaimed())
	assert.Zero(t, s.BytesAllocated())

	// And we can allocate again afterwards
	b := s.Alloc(1000)
	b[999] = 1
	assert.Equal(t, slabSize, s.BytesClaimed())
	s.Free(b)
}

func TestSlabCompactKeepsLiveSlabs(t *testing.T) {
	var s Slab
	small := s.Alloc(40)
	big := s.Alloc(4000)
	s.Free(big)
	s.Compact()

	assert.Equal(t, slabSize, s.BytesClaimed())
	copy(small, "still here")
	assert.Equal(t, "still here", string(small[:10]))

	// The live slab still hands out blocks from its free list
	other := s.Alloc(40)
	assert.NotEqual(t, &small[0], &other[0])
	s.Free(other)
	s.Free(small)
}

func TestSlabCompactWithNothingIdle(t *testing.T) {
	var s Slab
	b := s.Alloc(40)
	assert.Zero(t, s.idle)
	s.Compact()
	assert.Equal(t, slabSize, s.BytesClaimed())

	s.Free(b)
	assert.Equal(t, 1, s.idle)
	s.Compact()
	assert.Zero(t, s.idle)
	assert.Zero(t, s.BytesClaimed())
}

func TestSlabLarge(t *testing.T) {
	var s Slab
	b := s.Alloc(1 << 20)
	assert.Len(t, b, 1<<20)
	b[len(b)-1] = 7
	assert.Equal(t, 1<<20, s.BytesAllocated())
	assert.Equal(t, 1<<20, s.BytesClaimed())

	s.Free(b)
	assert.Zero(t, s.BytesAllocated())
	assert.Zero(t, s.BytesClaimed())
}

func TestSlabFreeForeign(t *testing.T) {
	var s Slab
	b := s.Alloc(40)
	defer s.Free(b)
	assert.Panics(t, func() { s.Free(make([]byte, 64)) })
}

func TestBankBlocksAreIndependent(t *testing.T) {
	var b Bank
	blocks := make([][]byte, 100)
	for k := range blocks {
		blocks[k] = b.Alloc(33 + k)
		for j := range blocks[k] {
			blocks[k][j] = byte(k)
		}
	}
	// Writing a block neither spills into its neighbours nor disturbs later saves
	for k, blk := range blocks {
		assert.Len(t, blk, 33+k)
		for _, v := range blk {
			assert.Equal(t, byte(k), v)
		}
	}
	// Fresh blocks start out zeroed even after earlier writes
	fresh := b.Alloc(50)
	assert.Equal(t, make([]byte, 50), fresh)
}

func TestBankLarge(t *testing.T) {
	var b Bank
	buf := b.Alloc(bankMax + 1)
	assert.Len(t, buf, bankMax+1)
	assert.Equal(t, bankMax+1, b.BytesClaimed())
	b.Free(buf)
	assert.Zero(t, b.BytesAllocated())
	assert.Zero(t, b.BytesClaimed())
}
