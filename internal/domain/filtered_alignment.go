package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FilteredAlignment is a read-only view of a source alignment restricted to
// the sites selected by a 1-based filter expression.
type FilteredAlignment struct {
	ID       string
	Source   *Alignment
	Filter   string
	DataType DataType

	indices []int
}

// NewFilteredAlignment resolves filter against the source. A nil data type
// means the view shares the source's data type.
func NewFilteredAlignment(id string, source *Alignment, filter string, dataType DataType) (*FilteredAlignment, error) {
	if source == nil {
		return nil, fmt.Errorf("filtered alignment %s: source alignment must be set", id)
	}
	indices, err := ParseFilter(filter, source.SiteCount())
	if err != nil {
		return nil, fmt.Errorf("filtered alignment %s: %w", id, err)
	}
	if dataType == nil {
		dataType = source.DataType
	}
	return &FilteredAlignment{
		ID:       id,
		Source:   source,
		Filter:   filter,
		DataType: dataType,
		indices:  indices,
	}, nil
}

func (f *FilteredAlignment) GetID() string { return f.ID }

// Indices returns the selected 0-based source sites in ascending order.
func (f *FilteredAlignment) Indices() []int { return slices.Clone(f.indices) }

// SiteCount returns the number of selected sites.
func (f *FilteredAlignment) SiteCount() int { return len(f.indices) }

// Materialize copies the selected columns into a standalone alignment.
// When the view shares the source's data type, per-site metadata is
// re-indexed to follow the selection.
func (f *FilteredAlignment) Materialize() (*Alignment, error) {
	dataType := f.DataType
	if dataType == f.Source.DataType {
		dataType = dataType.Restrict(f.indices)
	}
	return f.Source.Select(f.ID, f.indices, dataType)
}

// ParseFilter turns a comma separated, 1-based filter expression into sorted,
// distinct 0-based site indices. Accepted terms are "7", "3-9", "3-" (to the
// last site), "3-9\2" and "3:9:2" (every second site).
func ParseFilter(expr string, siteCount int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty filter")
	}
	seen := make([]bool, siteCount)
	var indices []int
	for _, term := range strings.Split(expr, ",") {
		from, to, stride, err := parseFilterTerm(strings.TrimSpace(term), siteCount)
		if err != nil {
			return nil, err
		}
		for site := from; site <= to; site += stride {
			if !seen[site-1] {
				seen[site-1] = true
				indices = append(indices, site-1)
			}
		}
	}
	slices.Sort(indices)
	return indices, nil
}

func parseFilterTerm(term string, siteCount int) (from, to, stride int, err error) {
	stride = 1
	switch {
	case term == "":
		return 0, 0, 0, fmt.Errorf("empty filter term")
	case strings.Contains(term, ":"):
		parts := strings.Split(term, ":")
		if len(parts) != 3 {
			return 0, 0, 0, fmt.Errorf("filter term %q: expected from:to:stride", term)
		}
		if from, err = atoiSite(parts[0]); err != nil {
			return 0, 0, 0, err
		}
		if to, err = atoiSite(parts[1]); err != nil {
			return 0, 0, 0, err
		}
		if stride, err = atoiSite(parts[2]); err != nil {
			return 0, 0, 0, err
		}
	case strings.Contains(term, "-"):
		rangePart, stridePart, hasStride := strings.Cut(term, `\`)
		lo, hi, _ := strings.Cut(rangePart, "-")
		if from, err = atoiSite(lo); err != nil {
			return 0, 0, 0, err
		}
		if strings.TrimSpace(hi) == "" {
			to = siteCount
		} else if to, err = atoiSite(hi); err != nil {
			return 0, 0, 0, err
		}
		if hasStride {
			if stride, err = atoiSite(stridePart); err != nil {
				return 0, 0, 0, err
			}
		}
	default:
		if from, err = atoiSite(term); err != nil {
			return 0, 0, 0, err
		}
		to = from
	}

	if stride < 1 {
		return 0, 0, 0, fmt.Errorf("filter term %q: stride must be positive", term)
	}
	if from < 1 || to > siteCount {
		return 0, 0, 0, fmt.Errorf("filter term %q: outside sites 1-%d", term, siteCount)
	}
	if from > to {
		return 0, 0, 0, fmt.Errorf("filter term %q: start after end", term)
	}
	return from, to, stride, nil
}

func atoiSite(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid site number %q", s)
	}
	return n, nil
}
