// Package cluster builds compressed-sparse-row (CSR) indexes that group
// every byte coordinate of a multi-page buffer by its resonance class.
//
// A View is built in one pass over the input and is read-only afterwards:
// concurrent readers are safe, concurrent builders of the same View are not
// (and are impossible through this API, since Build returns a fresh View).
package cluster

import (
	"github.com/atlas12288/atlas/conservation"
	"github.com/atlas12288/atlas/resonance"
)

// MaxPages bounds a single build. It mirrors conservation.MaxCapacity, the
// largest buffer accepted anywhere in the library, and keeps
// pages*PageSize safely inside the int range.
const MaxPages = conservation.MaxCapacity / resonance.PageSize

// View is a CSR index over pages*256 byte coordinates.
//
// Offsets has resonance.Classes+1 entries: Offsets[r] is the start of class
// r's range in Indices and Offsets[96] is the total coordinate count.
// Indices holds linearized coordinates (page*256 + offset), ascending within
// each class's range. Together the ranges partition [0, pages*256): every
// coordinate appears in exactly one class.
type View struct {
	Offsets [resonance.Classes + 1]uint32
	Indices []uint32
}

// Build constructs a CSR view over the first pages pages of buf.
//
// The index is built with a stable counting sort: one pass counts class
// populations, a prefix sum turns counts into offsets, and a second pass
// scatters coordinates through per-class cursors. Scanning coordinates in
// ascending order keeps each class's range ascending without a final sort.
//
// Build returns a CodeInvalidArgument error if buf is nil, pages is outside
// (0, MaxPages], or buf is shorter than pages full pages. The pages bound is
// checked before any size arithmetic so an absurd page count fails cleanly
// instead of overflowing.
func Build(buf []byte, pages int) (*View, error) {
	if buf == nil {
		return nil, conservation.Errorf(conservation.CodeInvalidArgument, "cluster_build", "nil buffer")
	}
	if pages <= 0 {
		return nil, conservation.Errorf(conservation.CodeInvalidArgument, "cluster_build", "pages must be positive, got %d", pages)
	}
	if pages > MaxPages {
		return nil, conservation.Errorf(conservation.CodeInvalidArgument, "cluster_build", "pages %d exceeds maximum %d", pages, MaxPages)
	}
	n := pages * resonance.PageSize
	if len(buf) < n {
		return nil, conservation.Errorf(conservation.CodeInvalidArgument, "cluster_build", "buffer holds %d bytes, need %d for %d pages", len(buf), n, pages)
	}

	var counts [resonance.Classes]uint32
	for i := 0; i < n; i++ {
		counts[buf[i]%resonance.Classes]++
	}

	v := &View{Indices: make([]uint32, n)}
	for r := 0; r < resonance.Classes; r++ {
		v.Offsets[r+1] = v.Offsets[r] + counts[r]
	}

	// cursors[r] tracks the next free slot inside class r's range.
	var cursors [resonance.Classes]uint32
	copy(cursors[:], v.Offsets[:resonance.Classes])
	for i := 0; i < n; i++ {
		r := buf[i] % resonance.Classes
		v.Indices[cursors[r]] = uint32(i)
		cursors[r]++
	}

	return v, nil
}

// Len returns the total number of indexed coordinates.
func (v *View) Len() int {
	return int(v.Offsets[resonance.Classes])
}

// CountForClass returns the number of coordinates classified as r.
// An empty class is a valid zero count, not an error.
func (v *View) CountForClass(r uint8) int {
	r %= resonance.Classes
	return int(v.Offsets[r+1] - v.Offsets[r])
}

// CoordinatesForClass returns the ascending coordinates of class r. The
// returned slice aliases the view's backing array and must not be mutated.
func (v *View) CoordinatesForClass(r uint8) []uint32 {
	r %= resonance.Classes
	return v.Indices[v.Offsets[r]:v.Offsets[r+1]]
}
