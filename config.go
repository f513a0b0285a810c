package interntab

import "math"

// Tuning bounds. Setters clamp to these rather than rejecting values, so a table
// can never be configured into a state where it cannot make progress.
const (
	MinResizeFactor     = 1.1
	MaxResizeFactor     = 8
	DefaultResizeFactor = 1.618

	MinMinLoadFactor     = 0
	MaxMinLoadFactor     = 0.4
	DefaultMinLoadFactor = 0.25

	MinMaxLoadFactor     = 0.5
	MaxMaxLoadFactor     = 0.95
	DefaultMaxLoadFactor = 0.75

	MinDeletedRehashRatio     = 0.05
	MaxDeletedRehashRatio     = 1
	DefaultDeletedRehashRatio = 0.5

	DefaultCompactThreshold = 0.5
)

// config holds the tunables of an InternTab
type config struct {
	resizeFactor       float64
	minLoadFactor      float64
	maxLoadFactor      float64
	deletedRehashRatio float64
	compactThreshold   float64
}

func defaultConfig() config {
	return config{
		resizeFactor:       DefaultResizeFactor,
		minLoadFactor:      DefaultMinLoadFactor,
		maxLoadFactor:      DefaultMaxLoadFactor,
		deletedRehashRatio: DefaultDeletedRehashRatio,
		compactThreshold:   DefaultCompactThreshold,
	}
}

// clamp limits v to [lo, hi]. NaN becomes lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetResizeFactor sets how much the table grows when it is too full. It returns
// the value actually applied.
func (i *InternTab) SetResizeFactor(f float64) float64 {
	i.init()
	i.cfg.resizeFactor = clamp(f, MinResizeFactor, MaxResizeFactor)
	return i.cfg.resizeFactor
}

// SetMinLoadFactor sets the utilization below which garbage collection shrinks the
// table. 0 means never shrink. It returns the value actually applied.
func (i *InternTab) SetMinLoadFactor(f float64) float64 {
	i.init()
	i.cfg.minLoadFactor = clamp(f, MinMinLoadFactor, MaxMinLoadFactor)
	return i.cfg.minLoadFactor
}

// SetMaxLoadFactor sets the utilization the table is kept under. It returns the
// value actually applied.
func (i *InternTab) SetMaxLoadFactor(f float64) float64 {
	i.init()
	i.cfg.maxLoadFactor = clamp(f, MinMaxLoadFactor, MaxMaxLoadFactor)
	return i.cfg.maxLoadFactor
}

// SetDeletedRehashRatio sets the share of free slots that may be tombstones before
// garbage collection rebuilds the table at the same size to clear them. It returns
// the value actually applied.
func (i *InternTab) SetDeletedRehashRatio(f float64) float64 {
	i.init()
	i.cfg.deletedRehashRatio = clamp(f, MinDeletedRehashRatio, MaxDeletedRehashRatio)
	return i.cfg.deletedRehashRatio
}

// SetCompactThreshold sets the allocator utilization (bytes allocated over bytes
// claimed) below which garbage collection asks the allocator to compact. 0 never
// compacts. It returns the value actually applied.
func (i *InternTab) SetCompactThreshold(f float64) float64 {
	i.init()
	i.cfg.compactThreshold = clamp(f, 0, 1)
	return i.cfg.compactThreshold
}

// ResizeFactor returns the growth factor set by SetResizeFactor
func (i *InternTab) ResizeFactor() float64 { i.init(); return i.cfg.resizeFactor }

// MinLoadFactor returns the shrink threshold set by SetMinLoadFactor
func (i *InternTab) MinLoadFactor() float64 { i.init(); return i.cfg.minLoadFactor }

// MaxLoadFactor returns the utilization limit set by SetMaxLoadFactor
func (i *InternTab) MaxLoadFactor() float64 { i.init(); return i.cfg.maxLoadFactor }

// DeletedRehashRatio returns the tombstone threshold set by SetDeletedRehashRatio
func (i *InternTab) DeletedRehashRatio() float64 { i.init(); return i.cfg.deletedRehashRatio }

// CompactThreshold returns the allocator threshold set by SetCompactThreshold
func (i *InternTab) CompactThreshold() float64 { i.init(); return i.cfg.compactThreshold }
