package nexus

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

const (
	nucleotideAmbiguities = "R = 0 2, Y = 1 3, M = 0 1, W = 0 3, S = 1 2, K = 2 3, B = 1 2 3, D = 0 2 3, H = 0 1 3, V = 0 1 2, N = 0 1 2 3"
	dnaCodeMap            = "A = 0, C = 1, G = 2, T = 3, U = 3, " + nucleotideAmbiguities
	rnaCodeMap            = "A = 0, C = 1, G = 2, U = 3, T = 3, " + nucleotideAmbiguities
	aminoAcids            = "ACDEFGHIKLMNPQRSTVWY"
)

func proteinCodeMap() string {
	var b strings.Builder
	all := make([]string, len(aminoAcids))
	for i, aa := range aminoAcids {
		fmt.Fprintf(&b, "%c = %d, ", aa, i)
		all[i] = strconv.Itoa(i)
	}
	// B = D or N, Z = E or Q
	b.WriteString("B = 2 11, Z = 3 13, X = " + strings.Join(all, " "))
	return b.String()
}

// matrix reads the MATRIX command. Each row starts with a taxon name. Rows
// of an interleaved matrix repeat taxon names; in a sequential matrix a row
// shorter than NCHAR continues on the following lines.
func (p *parser) matrix() error {
	line := p.s.line
	body, err := p.s.rawUntilSemicolon()
	if err != nil {
		return err
	}
	if p.nchar == 0 {
		return fmt.Errorf("line %d: MATRIX before DIMENSIONS NCHAR", line)
	}
	p.sawMatrix = true
	p.rows = make(map[string][]string)

	current := ""
	for i, raw := range strings.Split(body, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if !p.interleave && current != "" && len(p.rows[current]) < p.nchar {
			sites, err := splitSites(text)
			if err != nil {
				return fmt.Errorf("line %d: %w", line+i, err)
			}
			p.rows[current] = append(p.rows[current], sites...)
			continue
		}
		name, rest, err := splitTaxonName(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line+i, err)
		}
		sites, err := splitSites(rest)
		if err != nil {
			return fmt.Errorf("line %d: %w", line+i, err)
		}
		if _, ok := p.rows[name]; !ok {
			p.rowOrder = append(p.rowOrder, name)
		}
		p.rows[name] = append(p.rows[name], sites...)
		current = name
	}
	return nil
}

// splitTaxonName separates a leading, possibly quoted, taxon name.
func splitTaxonName(text string) (string, string, error) {
	if text[0] != '\'' {
		name, rest, _ := strings.Cut(text, " ")
		if tab := strings.IndexByte(name, '\t'); tab >= 0 {
			return name[:tab], name[tab+1:] + " " + rest, nil
		}
		return name, rest, nil
	}
	var b strings.Builder
	for i := 1; i < len(text); i++ {
		if text[i] != '\'' {
			b.WriteByte(text[i])
			continue
		}
		if i+1 < len(text) && text[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), text[i+1:], nil
	}
	return "", "", fmt.Errorf("unterminated taxon name")
}

// splitSites splits sequence text into one entry per site. A polymorphism
// such as "(01)" or "{01}" is a single site.
func splitSites(text string) ([]string, error) {
	var sites []string
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case ' ', '\t', '\r':
			continue
		case '(', '{':
			closing := byte(')')
			if c == '{' {
				closing = '}'
			}
			end := strings.IndexByte(text[i:], closing)
			if end < 0 {
				return nil, fmt.Errorf("unterminated polymorphism %q", text[i:])
			}
			sites = append(sites, text[i:i+end+1])
			i += end
		default:
			sites = append(sites, string(c))
		}
	}
	return sites, nil
}

func (p *parser) build() (*Result, error) {
	taxa := p.taxa
	if len(taxa) == 0 {
		taxa = p.rowOrder
	}
	if p.ntax > 0 && len(taxa) != p.ntax {
		return nil, fmt.Errorf("NTAX=%d but %d taxa found", p.ntax, len(taxa))
	}
	if len(p.rowOrder) != len(taxa) {
		return nil, fmt.Errorf("%d taxa declared but matrix has %d rows", len(taxa), len(p.rowOrder))
	}
	for _, name := range taxa {
		row, ok := p.rows[name]
		if !ok {
			return nil, fmt.Errorf("taxon %s has no row in the matrix", name)
		}
		if len(row) != p.nchar {
			return nil, fmt.Errorf("taxon %s has %d characters, NCHAR=%d", name, len(row), p.nchar)
		}
	}

	enc, err := p.encoder()
	if err != nil {
		return nil, err
	}
	sequences := make([][]int, len(taxa))
	for t, name := range taxa {
		sequences[t] = make([]int, p.nchar)
		for s, site := range p.rows[name] {
			if p.matchChar != 0 && site == string(p.matchChar) {
				if t == 0 {
					return nil, fmt.Errorf("taxon %s: match character in first row", name)
				}
				sequences[t][s] = sequences[0][s]
				continue
			}
			code, err := enc.encode(site)
			if err != nil {
				return nil, fmt.Errorf("taxon %s, character %d: %w", name, s+1, err)
			}
			sequences[t][s] = code
		}
	}

	alignment, err := domain.NewAlignment(p.id, slices.Clone(taxa), sequences, enc.dataType())
	if err != nil {
		return nil, err
	}

	result := &Result{Alignment: alignment}
	for _, cs := range p.charsets {
		expr, err := p.filterExpression(cs)
		if err != nil {
			return nil, err
		}
		filtered, err := domain.NewFilteredAlignment(cs.name, alignment, expr, nil)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", cs.line, err)
		}
		result.Filtered = append(result.Filtered, filtered)
	}
	return result, nil
}

// encoder turns site text into symbol codes for one data type.
type encoder interface {
	encode(site string) (int, error)
	dataType() domain.DataType
}

func (p *parser) encoder() (encoder, error) {
	id := "dataType." + p.id
	switch p.dataType {
	case "", "STANDARD":
		return &standardEncoder{
			missing: p.missing,
			gap:     p.gap,
			symbols: strings.ToUpper(p.symbols),
			dt: &domain.StandardData{
				ID:              id,
				NrOfStates:      len(p.symbols),
				CharStateLabels: p.labels,
			},
		}, nil
	case "DNA", "NUCLEOTIDE":
		return newGenericEncoder(p, id, "nucleotide", 4, dnaCodeMap)
	case "RNA":
		return newGenericEncoder(p, id, "nucleotide", 4, rnaCodeMap)
	case "PROTEIN":
		return newGenericEncoder(p, id, "aminoacid", len(aminoAcids), proteinCodeMap())
	default:
		return nil, fmt.Errorf("DATATYPE=%s: %w", p.dataType, apperrors.ErrUnsupportedDataType)
	}
}

type standardEncoder struct {
	missing byte
	gap     byte
	symbols string
	dt      *domain.StandardData
}

func (e *standardEncoder) dataType() domain.DataType { return e.dt }

func (e *standardEncoder) encode(site string) (int, error) {
	if len(site) == 1 {
		if site[0] == e.missing || site[0] == e.gap {
			return domain.MissingCode, nil
		}
		return e.state(site[0])
	}

	var states []int
	for i := 1; i < len(site)-1; i++ {
		c := site[i]
		if c == ' ' || c == ',' {
			continue
		}
		if c == e.missing || c == e.gap {
			return domain.MissingCode, nil
		}
		state, err := e.state(c)
		if err != nil {
			return 0, err
		}
		states = append(states, state)
	}
	slices.Sort(states)
	states = slices.Compact(states)
	switch len(states) {
	case 0:
		return domain.MissingCode, nil
	case 1:
		return states[0], nil
	}

	var set strings.Builder
	for _, s := range states {
		set.WriteByte(e.symbols[s])
	}
	idx := slices.Index(e.dt.Ambiguities, set.String())
	if idx < 0 {
		idx = len(e.dt.Ambiguities)
		e.dt.Ambiguities = append(e.dt.Ambiguities, set.String())
	}
	return e.dt.NrOfStates + idx, nil
}

func (e *standardEncoder) state(c byte) (int, error) {
	idx := strings.IndexByte(e.symbols, upper(c))
	if idx < 0 {
		return 0, fmt.Errorf("symbol %q not in SYMBOLS %q", c, e.symbols)
	}
	return idx, nil
}

type genericEncoder struct {
	missing byte
	gap     byte
	dt      *domain.GenericData
	states  map[byte][]int
	bySet   map[string]int
}

func newGenericEncoder(p *parser, id, name string, states int, codeMap string) (*genericEncoder, error) {
	dt, err := domain.NewGenericData(id, name, states, 1, codeMap)
	if err != nil {
		return nil, err
	}
	e := &genericEncoder{
		missing: p.missing,
		gap:     p.gap,
		dt:      dt,
		states:  make(map[byte][]int),
		bySet:   make(map[string]int),
	}
	for _, entry := range dt.Entries() {
		if len(entry.Symbol) == 1 {
			e.states[entry.Symbol[0]] = entry.States
		}
		key := stateKey(entry.States)
		if _, ok := e.bySet[key]; !ok {
			code, _ := dt.Code(entry.Symbol)
			e.bySet[key] = code
		}
	}
	return e, nil
}

func (e *genericEncoder) dataType() domain.DataType { return e.dt }

func (e *genericEncoder) encode(site string) (int, error) {
	if len(site) == 1 {
		if site[0] == e.missing || site[0] == e.gap {
			return domain.MissingCode, nil
		}
		code, ok := e.dt.Code(string(upper(site[0])))
		if !ok {
			return 0, fmt.Errorf("unknown %s symbol %q", e.dt.Name, site)
		}
		return code, nil
	}

	// a polymorphism takes the code whose state set matches, if there is one
	var states []int
	for i := 1; i < len(site)-1; i++ {
		c := upper(site[i])
		if c == ' ' || c == ',' {
			continue
		}
		if c == e.missing || c == e.gap {
			return domain.MissingCode, nil
		}
		s, ok := e.states[c]
		if !ok {
			return 0, fmt.Errorf("unknown %s symbol %q", e.dt.Name, string(c))
		}
		states = append(states, s...)
	}
	slices.Sort(states)
	states = slices.Compact(states)
	if code, ok := e.bySet[stateKey(states)]; ok {
		return code, nil
	}
	return domain.MissingCode, nil
}

func stateKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, " ")
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
