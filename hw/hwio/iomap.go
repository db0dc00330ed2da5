package hwio

import (
	"fmt"
	"sort"
)

// rangeTable is an ordered set of non-overlapping [begin,end] address ranges,
// each bound to an io value. The I/O maps we route are small (a few dozen
// registers), so a sorted slice with binary search beats a full radix tree
// over the 32-bit space both in memory and in lookup constant factor.
type rangeTable struct {
	ranges []ioRange
}

type ioRange struct {
	begin, end uint32 // inclusive bounds
	io         any
}

// InsertRange binds [begin,end] to io. Overlapping an existing range is an
// error: banks must be unmapped before being remapped.
func (t *rangeTable) InsertRange(begin, end uint32, io any) error {
	if begin > end {
		return fmt.Errorf("invalid range [%08x, %08x]", begin, end)
	}

	idx := sort.Search(len(t.ranges), func(i int) bool {
		return t.ranges[i].end >= begin
	})
	if idx < len(t.ranges) && t.ranges[idx].begin <= end {
		r := t.ranges[idx]
		return fmt.Errorf("range [%08x, %08x] overlaps [%08x, %08x]",
			begin, end, r.begin, r.end)
	}

	t.ranges = append(t.ranges, ioRange{})
	copy(t.ranges[idx+1:], t.ranges[idx:])
	t.ranges[idx] = ioRange{begin: begin, end: end, io: io}
	return nil
}

// RemoveRange unbinds [begin,end]. Ranges partially covered are trimmed, and
// a range strictly containing [begin,end] is split in two.
func (t *rangeTable) RemoveRange(begin, end uint32) {
	out := t.ranges[:0]
	var split []ioRange

	for _, r := range t.ranges {
		switch {
		case r.end < begin || r.begin > end:
			out = append(out, r)
		case r.begin < begin && r.end > end:
			split = append(split,
				ioRange{begin: r.begin, end: begin - 1, io: r.io},
				ioRange{begin: end + 1, end: r.end, io: r.io})
		case r.begin < begin:
			out = append(out, ioRange{begin: r.begin, end: begin - 1, io: r.io})
		case r.end > end:
			out = append(out, ioRange{begin: end + 1, end: r.end, io: r.io})
		}
	}

	t.ranges = append(out, split...)
	sort.Slice(t.ranges, func(i, j int) bool {
		return t.ranges[i].begin < t.ranges[j].begin
	})
}

// Search returns the io bound to addr, or nil.
func (t *rangeTable) Search(addr uint32) any {
	lo, hi := 0, len(t.ranges)
	for lo < hi {
		mid := (lo + hi) / 2
		r := &t.ranges[mid]
		switch {
		case addr < r.begin:
			hi = mid
		case addr > r.end:
			lo = mid + 1
		default:
			return r.io
		}
	}
	return nil
}
