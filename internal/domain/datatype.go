package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MissingCode is the symbol code for missing data and gaps.
const MissingCode = -1

// Entity is anything that can be registered in a document under an identifier.
type Entity interface {
	GetID() string
}

// DataType describes how symbol codes of an alignment map onto character states.
//
// The set of implementations is closed: StandardData for morphological
// characters with explicit state labels, and GenericData for every other
// alphabet (nucleotides, amino acids, synthesized user types).
type DataType interface {
	Entity
	// TypeName returns a short name such as "standard" or "nucleotide".
	TypeName() string
	// StateCount returns the number of concrete states.
	StateCount() int
	// IsAmbiguous reports whether a code denotes missing data or a set of states.
	IsAmbiguous(code int) bool
	// DeclaredStateCount returns the state count declared for a site, if any.
	DeclaredStateCount(site int) (int, bool)
	// Sized returns a fresh data type of the same variant with nrOfStates states.
	Sized(id string, nrOfStates int) DataType
	// Restrict returns a data type whose per-site metadata follows the given
	// source site indices.
	Restrict(indices []int) DataType

	sealed()
}

// CharStateLabel names a character and, optionally, its states.
type CharStateLabel struct {
	Name   string   `json:"name"`
	States []string `json:"states,omitempty"`
}

// StateCount returns the number of declared states.
func (l CharStateLabel) StateCount() int {
	return len(l.States)
}

// StandardData is the morphological data type. Codes below NrOfStates are
// concrete states; code NrOfStates+i is the i-th entry of Ambiguities.
type StandardData struct {
	ID          string
	NrOfStates  int
	Ambiguities []string
	// CharStateLabels is positional: entry i describes site i. A nil States
	// slice means the character is named but its states are not declared.
	CharStateLabels []CharStateLabel
}

func (d *StandardData) GetID() string    { return d.ID }
func (d *StandardData) TypeName() string { return "standard" }
func (d *StandardData) StateCount() int  { return d.NrOfStates }
func (d *StandardData) sealed()          {}

func (d *StandardData) IsAmbiguous(code int) bool {
	return code < 0 || code >= d.NrOfStates
}

func (d *StandardData) DeclaredStateCount(site int) (int, bool) {
	if site < 0 || site >= len(d.CharStateLabels) {
		return 0, false
	}
	label := d.CharStateLabels[site]
	if len(label.States) == 0 {
		return 0, false
	}
	return label.StateCount(), true
}

// Sized copies the ambiguity list verbatim; it does not depend on the state count.
func (d *StandardData) Sized(id string, nrOfStates int) DataType {
	return &StandardData{
		ID:          id,
		NrOfStates:  nrOfStates,
		Ambiguities: slices.Clone(d.Ambiguities),
	}
}

func (d *StandardData) Restrict(indices []int) DataType {
	restricted := &StandardData{
		ID:          d.ID,
		NrOfStates:  d.NrOfStates,
		Ambiguities: slices.Clone(d.Ambiguities),
	}
	if len(d.CharStateLabels) == 0 {
		return restricted
	}
	restricted.CharStateLabels = make([]CharStateLabel, len(indices))
	for i, site := range indices {
		if site < len(d.CharStateLabels) {
			restricted.CharStateLabels[i] = d.CharStateLabels[site]
		}
	}
	return restricted
}

// CodeMapEntry maps one symbol onto one or more states.
type CodeMapEntry struct {
	Symbol string
	States []int
}

// GenericData is a user-defined alphabet described by a code map such as
// "A = 0, C = 1, G = 2, T = 3, ? = 0 1 2 3".
type GenericData struct {
	ID         string
	Name       string
	States     int
	CodeLength int
	CodeMap    string

	entries []CodeMapEntry
	codes   map[string]int
}

// NewGenericData parses codeMap and builds the symbol lookup.
func NewGenericData(id, name string, states, codeLength int, codeMap string) (*GenericData, error) {
	entries, err := ParseCodeMap(codeMap, states)
	if err != nil {
		return nil, err
	}
	d := &GenericData{
		ID:         id,
		Name:       name,
		States:     states,
		CodeLength: codeLength,
		CodeMap:    codeMap,
		entries:    entries,
		codes:      make(map[string]int, len(entries)),
	}
	ambiguous := 0
	for _, e := range entries {
		if len(e.States) == 1 {
			d.codes[e.Symbol] = e.States[0]
			continue
		}
		d.codes[e.Symbol] = states + ambiguous
		ambiguous++
	}
	return d, nil
}

func (d *GenericData) GetID() string    { return d.ID }
func (d *GenericData) TypeName() string { return d.Name }
func (d *GenericData) StateCount() int  { return d.States }
func (d *GenericData) sealed()          {}

func (d *GenericData) IsAmbiguous(code int) bool {
	return code < 0 || code >= d.States
}

func (d *GenericData) DeclaredStateCount(int) (int, bool) {
	return 0, false
}

// Sized synthesizes a user data type with states 0..n-1 and a "?" wildcard.
// Ambiguity coding of the source alphabet is not carried over.
func (d *GenericData) Sized(id string, nrOfStates int) DataType {
	sized, err := NewGenericData(id, "user", nrOfStates, 1, FormatCodeMap(nrOfStates))
	if err != nil {
		// FormatCodeMap always yields a valid map for its own state count.
		panic(err)
	}
	return sized
}

func (d *GenericData) Restrict([]int) DataType {
	return d
}

// Code returns the code for a symbol.
func (d *GenericData) Code(symbol string) (int, bool) {
	code, ok := d.codes[symbol]
	return code, ok
}

// Entries returns the parsed code map.
func (d *GenericData) Entries() []CodeMapEntry {
	return slices.Clone(d.entries)
}

// FormatCodeMap builds "0 = 0, 1 = 1, ..., ? = 0 1 ..." for n states.
func FormatCodeMap(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d = %d, ", i, i)
	}
	b.WriteString("? =")
	for i := 0; i < n; i++ {
		b.WriteString(" " + strconv.Itoa(i))
	}
	return b.String()
}

// ParseCodeMap parses a comma separated code map. Every state must lie in
// [0, states).
func ParseCodeMap(codeMap string, states int) ([]CodeMapEntry, error) {
	var entries []CodeMapEntry
	seen := make(map[string]bool)
	for _, part := range strings.Split(codeMap, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, rhs, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("code map entry %q has no '='", part)
		}
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			return nil, fmt.Errorf("code map entry %q has no symbol", part)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("symbol %q mapped twice", symbol)
		}
		seen[symbol] = true

		entry := CodeMapEntry{Symbol: symbol}
		for _, field := range strings.Fields(rhs) {
			state, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("symbol %q: invalid state %q", symbol, field)
			}
			if state < 0 || state >= states {
				return nil, fmt.Errorf("symbol %q: state %d outside [0, %d)", symbol, state, states)
			}
			entry.States = append(entry.States, state)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
