package domain

import (
	"fmt"
	"slices"
	"strconv"
)

// Alignment is a multiple-sequence alignment of symbol codes.
// Sequences[t][s] is the code of taxon t at site s.
type Alignment struct {
	ID        string
	Taxa      []string
	Sequences [][]int
	DataType  DataType

	patterns     [][]int
	patternIndex []int
}

// NewAlignment validates the sequences and compresses identical site columns
// into shared patterns.
func NewAlignment(id string, taxa []string, sequences [][]int, dataType DataType) (*Alignment, error) {
	if id == "" {
		return nil, fmt.Errorf("alignment id must not be empty")
	}
	if dataType == nil {
		return nil, fmt.Errorf("alignment %s: data type must be set", id)
	}
	if len(taxa) != len(sequences) {
		return nil, fmt.Errorf("alignment %s: %d taxa but %d sequences", id, len(taxa), len(sequences))
	}
	siteCount := 0
	for t, seq := range sequences {
		if t == 0 {
			siteCount = len(seq)
			continue
		}
		if len(seq) != siteCount {
			return nil, fmt.Errorf("alignment %s: taxon %s has %d sites, expected %d", id, taxa[t], len(seq), siteCount)
		}
	}

	a := &Alignment{
		ID:        id,
		Taxa:      taxa,
		Sequences: sequences,
		DataType:  dataType,
	}
	a.compressPatterns(siteCount)
	return a, nil
}

func (a *Alignment) compressPatterns(siteCount int) {
	a.patternIndex = make([]int, siteCount)
	lookup := make(map[string]int)
	key := make([]byte, 0, 4*len(a.Sequences))
	for s := 0; s < siteCount; s++ {
		key = key[:0]
		column := make([]int, len(a.Sequences))
		for t, seq := range a.Sequences {
			column[t] = seq[s]
			key = strconv.AppendInt(key, int64(seq[s]), 10)
			key = append(key, ',')
		}
		idx, ok := lookup[string(key)]
		if !ok {
			idx = len(a.patterns)
			lookup[string(key)] = idx
			a.patterns = append(a.patterns, column)
		}
		a.patternIndex[s] = idx
	}
}

func (a *Alignment) GetID() string { return a.ID }

// SiteCount returns the number of columns.
func (a *Alignment) SiteCount() int { return len(a.patternIndex) }

// TaxonCount returns the number of rows.
func (a *Alignment) TaxonCount() int { return len(a.Taxa) }

// PatternCount returns the number of distinct site columns.
func (a *Alignment) PatternCount() int { return len(a.patterns) }

// PatternIndex returns the pattern shared by a site.
func (a *Alignment) PatternIndex(site int) int { return a.patternIndex[site] }

// Pattern returns the codes of a pattern, one per taxon. Callers must not
// modify the result.
func (a *Alignment) Pattern(i int) []int { return a.patterns[i] }

// Select builds a new alignment made of the given 0-based sites.
func (a *Alignment) Select(id string, indices []int, dataType DataType) (*Alignment, error) {
	sequences := make([][]int, len(a.Sequences))
	for t, seq := range a.Sequences {
		row := make([]int, len(indices))
		for i, site := range indices {
			if site < 0 || site >= len(seq) {
				return nil, fmt.Errorf("alignment %s: site %d out of range", a.ID, site)
			}
			row[i] = seq[site]
		}
		sequences[t] = row
	}
	return NewAlignment(id, slices.Clone(a.Taxa), sequences, dataType)
}
