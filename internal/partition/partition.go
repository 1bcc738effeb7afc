// Package partition splits an alignment into sub-alignments of equal
// state-space size.
//
// Every site is assigned the number of distinct, non-ambiguous states it
// carries (or, for morphological data, the number of states its character
// label declares). Sites sharing a count form one bucket, and each bucket
// becomes a filtered alignment with a data type sized to that count.
// Buckets partition the site range: each site lands in exactly one bucket.
package partition

import (
	"slices"
	"strconv"
	"strings"

	"github.com/zzenonn/morphsplit/internal/domain"
)

// Buckets maps a state count to the ascending 0-based sites that have it.
type Buckets map[int][]int

// Counts returns the state counts in ascending order.
func (b Buckets) Counts() []int {
	counts := make([]int, 0, len(b))
	for count := range b {
		counts = append(counts, count)
	}
	slices.Sort(counts)
	return counts
}

// SiteCount returns the number of sites across all buckets.
func (b Buckets) SiteCount() int {
	n := 0
	for _, sites := range b {
		n += len(sites)
	}
	return n
}

// ComputeStateCount returns the number of distinct codes at a site that the
// alignment's data type does not classify as ambiguous.
func ComputeStateCount(alignment *domain.Alignment, site int) int {
	pattern := alignment.Pattern(alignment.PatternIndex(site))
	dataType := alignment.DataType
	states := make(map[int]struct{}, len(pattern))
	for _, code := range pattern {
		if !dataType.IsAmbiguous(code) {
			states[code] = struct{}{}
		}
	}
	return len(states)
}

// Partition buckets every site of the alignment by its state count. A state
// count declared by the data type for a site wins over the observed one.
func Partition(alignment *domain.Alignment) Buckets {
	buckets := make(Buckets)
	dataType := alignment.DataType
	for site := 0; site < alignment.SiteCount(); site++ {
		count, declared := dataType.DeclaredStateCount(site)
		if !declared {
			count = ComputeStateCount(alignment, site)
		}
		buckets[count] = append(buckets[count], site)
	}
	return buckets
}

// FormatRange renders 0-based sites as a 1-based filter expression. Without
// compression every site is its own term ("1,3,4,5"); with compression runs
// of consecutive sites collapse ("1,3-5"). Sites must be ascending.
func FormatRange(sites []int, compress bool) string {
	var b strings.Builder
	for i := 0; i < len(sites); i++ {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(sites[i] + 1))
		if !compress {
			continue
		}
		j := i
		for j+1 < len(sites) && sites[j+1] == sites[j]+1 {
			j++
		}
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(sites[j] + 1))
			i = j
		}
	}
	return b.String()
}
