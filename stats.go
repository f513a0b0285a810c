package interntab

// Stats describes the state of an InternTab and the work it has done
type Stats struct {
	// Used is the number of Strings in the table
	Used int
	// Size is the number of slots
	Size int
	// Tombstones is the number of slots freed by garbage collection since the table
	// was last rebuilt
	Tombstones int
	// Empty is the number of slots that have not been used since the table was
	// last rebuilt
	Empty int

	Grows       int
	Shrinks     int
	Rehashes    int
	Collections int
	Reclaimed   int
	Compactions int

	// BytesAllocated and BytesClaimed come from the allocator holding long strings
	BytesAllocated int
	BytesClaimed   int
}

// Stats returns a snapshot of the table's statistics
func (i *InternTab) Stats() Stats {
	i.init()
	s := i.stats
	s.Used = i.used
	s.Size = i.table.len()
	s.Tombstones = i.tombstones
	s.Empty = s.Size - s.Used - s.Tombstones
	s.BytesAllocated = i.alloc.BytesAllocated()
	s.BytesClaimed = i.alloc.BytesClaimed()
	return s
}
