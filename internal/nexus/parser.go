// Package nexus reads character matrices and character sets from Nexus files.
//
// Only the parts needed to build alignments are understood: the TAXA,
// DATA/CHARACTERS and ASSUMPTIONS/SETS blocks. Every other block is skipped.
package nexus

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

// Result is the content of one Nexus file. Each character set becomes a
// filtered alignment over the full matrix.
type Result struct {
	Alignment *domain.Alignment
	Filtered  []*domain.FilteredAlignment
}

// Overlap names two character sets that select a common site.
type Overlap struct {
	First  string
	Second string
}

// Overlaps reports pairs of character sets that share sites. Each pair is
// reported once, ordered by the position of the sets in the file.
func (r *Result) Overlaps() []Overlap {
	if r.Alignment == nil || len(r.Filtered) < 2 {
		return nil
	}
	// owner[i] is 1 + the index of the first set claiming site i
	owner := make([]int, r.Alignment.SiteCount())
	type pair struct{ first, second int }
	found := make(map[pair]bool)
	var pairs []pair
	for n, filtered := range r.Filtered {
		for _, site := range filtered.Indices() {
			if owner[site] == 0 {
				owner[site] = n + 1
				continue
			}
			p := pair{owner[site] - 1, n}
			if !found[p] {
				found[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		if a.first != b.first {
			return a.first - b.first
		}
		return a.second - b.second
	})

	overlaps := make([]Overlap, len(pairs))
	for i, p := range pairs {
		overlaps[i] = Overlap{First: r.Filtered[p.first].ID, Second: r.Filtered[p.second].ID}
	}
	return overlaps
}

// Parse reads a Nexus document. The alignment is named id.
func Parse(r io.Reader, id string) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		s:       newScanner(string(data)),
		id:      id,
		missing: '?',
		gap:     '-',
		symbols: "01",
	}
	return p.parse()
}

type charset struct {
	name  string
	terms []string
	line  int
}

type parser struct {
	s  *scanner
	id string

	taxa       []string
	ntax       int
	nchar      int
	dataType   string
	symbols    string
	missing    byte
	gap        byte
	matchChar  byte
	interleave bool
	labels     []domain.CharStateLabel
	rows       map[string][]string
	rowOrder   []string
	charsets   []charset
	sawMatrix  bool
}

func (p *parser) parse() (*Result, error) {
	header, err := p.s.next()
	if err != nil || !header.is("#NEXUS") {
		return nil, fmt.Errorf("not a Nexus file: missing #NEXUS header")
	}

	for {
		tok, err := p.s.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !tok.is("BEGIN") {
			return nil, fmt.Errorf("line %d: expected BEGIN, found %q", tok.line, tok.text)
		}
		name, err := p.s.mustNext()
		if err != nil {
			return nil, err
		}
		if err := p.s.expect(";"); err != nil {
			return nil, err
		}

		switch strings.ToUpper(name.text) {
		case "TAXA":
			err = p.block(p.taxaCommand)
		case "DATA", "CHARACTERS":
			err = p.block(p.characterCommand)
		case "ASSUMPTIONS", "SETS":
			err = p.block(p.setsCommand)
		default:
			err = p.block(nil)
		}
		if err != nil {
			return nil, err
		}
	}

	if !p.sawMatrix {
		return nil, apperrors.ErrNoAlignment
	}
	return p.build()
}

// block runs handle for every command until END. A nil handler skips the block.
func (p *parser) block(handle func(cmd token) error) error {
	for {
		cmd, err := p.s.mustNext()
		if err != nil {
			return err
		}
		if cmd.is("END") || cmd.is("ENDBLOCK") {
			return p.s.expect(";")
		}
		if handle == nil {
			if _, err := p.s.rawUntilSemicolon(); err != nil {
				return err
			}
			continue
		}
		if err := handle(cmd); err != nil {
			return err
		}
	}
}

func (p *parser) taxaCommand(cmd token) error {
	switch strings.ToUpper(cmd.text) {
	case "DIMENSIONS":
		return p.dimensions()
	case "TAXLABELS":
		tokens, err := p.s.untilSemicolon()
		if err != nil {
			return err
		}
		for _, t := range tokens {
			p.taxa = append(p.taxa, t.text)
		}
		return nil
	default:
		_, err := p.s.rawUntilSemicolon()
		return err
	}
}

func (p *parser) characterCommand(cmd token) error {
	switch strings.ToUpper(cmd.text) {
	case "DIMENSIONS":
		return p.dimensions()
	case "FORMAT":
		return p.format()
	case "CHARSTATELABELS":
		return p.charStateLabels()
	case "MATRIX":
		return p.matrix()
	default:
		_, err := p.s.rawUntilSemicolon()
		return err
	}
}

func (p *parser) setsCommand(cmd token) error {
	if !cmd.is("CHARSET") {
		_, err := p.s.rawUntilSemicolon()
		return err
	}
	tokens, err := p.s.untilSemicolon()
	if err != nil {
		return err
	}
	if len(tokens) > 0 && tokens[0].is("*") {
		tokens = tokens[1:]
	}
	eq := slices.IndexFunc(tokens, func(t token) bool { return t.is("=") })
	if eq != 1 {
		return fmt.Errorf("line %d: malformed CHARSET", cmd.line)
	}
	terms := make([]string, 0, len(tokens)-2)
	for _, t := range tokens[2:] {
		terms = append(terms, t.text)
	}
	p.charsets = append(p.charsets, charset{name: tokens[0].text, terms: terms, line: cmd.line})
	return nil
}

func (p *parser) dimensions() error {
	tokens, err := p.s.untilSemicolon()
	if err != nil {
		return err
	}
	for i := 0; i+2 < len(tokens); i++ {
		if !tokens[i+1].is("=") {
			continue
		}
		n, err := strconv.Atoi(tokens[i+2].text)
		if err != nil || n < 0 {
			return fmt.Errorf("line %d: invalid %s value %q", tokens[i].line, tokens[i].text, tokens[i+2].text)
		}
		switch strings.ToUpper(tokens[i].text) {
		case "NTAX":
			p.ntax = n
		case "NCHAR":
			p.nchar = n
		}
	}
	return nil
}

func (p *parser) format() error {
	tokens, err := p.s.untilSemicolon()
	if err != nil {
		return err
	}
	for i := 0; i < len(tokens); i++ {
		key := strings.ToUpper(tokens[i].text)
		value := ""
		if i+2 < len(tokens) && tokens[i+1].is("=") {
			value = tokens[i+2].text
			i += 2
		}
		switch key {
		case "DATATYPE":
			p.dataType = strings.ToUpper(value)
		case "SYMBOLS":
			p.symbols = strings.Join(strings.Fields(value), "")
		case "MISSING":
			if len(value) != 1 {
				return fmt.Errorf("line %d: MISSING must be a single character", tokens[i].line)
			}
			p.missing = value[0]
		case "GAP":
			if len(value) != 1 {
				return fmt.Errorf("line %d: GAP must be a single character", tokens[i].line)
			}
			p.gap = value[0]
		case "MATCHCHAR":
			if len(value) != 1 {
				return fmt.Errorf("line %d: MATCHCHAR must be a single character", tokens[i].line)
			}
			p.matchChar = value[0]
		case "INTERLEAVE":
			p.interleave = value == "" || strings.EqualFold(value, "yes")
		case "TRANSPOSE":
			if value == "" || strings.EqualFold(value, "yes") {
				return fmt.Errorf("line %d: transposed matrices are not supported", tokens[i].line)
			}
		}
	}
	return nil
}

// charStateLabels reads "1 name / state state, 2 name, ..." into positional labels.
func (p *parser) charStateLabels() error {
	tokens, err := p.s.untilSemicolon()
	if err != nil {
		return err
	}
	for i := 0; i < len(tokens); {
		n, err := strconv.Atoi(tokens[i].text)
		if err != nil || n < 1 {
			return fmt.Errorf("line %d: expected character number, found %q", tokens[i].line, tokens[i].text)
		}
		i++
		label := domain.CharStateLabel{}
		if i < len(tokens) && !tokens[i].is(",") && !tokens[i].is("/") {
			label.Name = tokens[i].text
			i++
		}
		if i < len(tokens) && tokens[i].is("/") {
			i++
			for i < len(tokens) && !tokens[i].is(",") {
				label.States = append(label.States, tokens[i].text)
				i++
			}
		}
		if i < len(tokens) {
			if !tokens[i].is(",") {
				return fmt.Errorf("line %d: expected ',' in CHARSTATELABELS, found %q", tokens[i].line, tokens[i].text)
			}
			i++
		}
		for len(p.labels) < n {
			p.labels = append(p.labels, domain.CharStateLabel{})
		}
		p.labels[n-1] = label
	}
	return nil
}

var (
	spacedDash      = regexp.MustCompile(`\s*-\s*`)
	spacedBackslash = regexp.MustCompile(`\s*\\\s*`)
)

// filterExpression converts a Nexus character set ("1-3 5 7-.\2") into a
// comma separated filter expression ("1-3,5,7-10\2").
func (p *parser) filterExpression(cs charset) (string, error) {
	joined := strings.Join(cs.terms, " ")
	joined = spacedDash.ReplaceAllString(joined, "-")
	joined = spacedBackslash.ReplaceAllString(joined, `\`)
	fields := strings.Fields(joined)
	if len(fields) == 0 {
		return "", fmt.Errorf("line %d: character set %s is empty", cs.line, cs.name)
	}
	last := strconv.Itoa(p.nchar)
	for i, f := range fields {
		rangePart, stride, hasStride := strings.Cut(f, `\`)
		lo, hi, isRange := strings.Cut(rangePart, "-")
		if lo == "." {
			lo = last
		}
		if hi == "." {
			hi = last
		}
		term := lo
		if isRange {
			term += "-" + hi
		}
		if hasStride {
			term += `\` + stride
		}
		fields[i] = term
	}
	return strings.Join(fields, ","), nil
}
