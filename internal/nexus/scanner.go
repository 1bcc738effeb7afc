package nexus

import (
	"fmt"
	"io"
	"strings"
)

const punctuation = ";=,(){}/"

type token struct {
	text   string
	quoted bool
	line   int
}

// is reports whether the token is the given keyword or punctuation, ignoring case.
func (t token) is(word string) bool {
	return !t.quoted && strings.EqualFold(t.text, word)
}

// scanner splits Nexus text into words, quoted strings and punctuation.
// Bracketed comments, which may nest, are skipped.
type scanner struct {
	src  string
	pos  int
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

func (s *scanner) skipSpace() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\n':
			s.line++
			s.pos++
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
		case c == '[':
			if err := s.skipComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) skipComment() error {
	start := s.line
	depth := 0
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '[':
			depth++
		case ']':
			depth--
		case '\n':
			s.line++
		}
		s.pos++
		if depth == 0 {
			return nil
		}
	}
	return fmt.Errorf("line %d: unterminated comment", start)
}

// next returns the next token or io.EOF.
func (s *scanner) next() (token, error) {
	if err := s.skipSpace(); err != nil {
		return token{}, err
	}
	if s.pos >= len(s.src) {
		return token{}, io.EOF
	}

	c := s.src[s.pos]
	if c == '\'' || c == '"' {
		return s.quoted(c)
	}
	if strings.IndexByte(punctuation, c) >= 0 {
		s.pos++
		return token{text: string(c), line: s.line}, nil
	}

	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '[' || c == '\'' || c == '"' ||
			strings.IndexByte(punctuation, c) >= 0 {
			break
		}
		s.pos++
	}
	return token{text: s.src[start:s.pos], line: s.line}, nil
}

// quoted reads a quoted token; a doubled quote character stands for itself.
func (s *scanner) quoted(quote byte) (token, error) {
	line := s.line
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		if c == '\n' {
			s.line++
		}
		if c == quote {
			if s.pos < len(s.src) && s.src[s.pos] == quote {
				b.WriteByte(quote)
				s.pos++
				continue
			}
			return token{text: b.String(), quoted: true, line: line}, nil
		}
		b.WriteByte(c)
	}
	return token{}, fmt.Errorf("line %d: unterminated quoted string", line)
}

// expect consumes the next token and fails unless it is word.
func (s *scanner) expect(word string) error {
	tok, err := s.next()
	if err == io.EOF {
		return s.errorf("expected %q, found end of file", word)
	}
	if err != nil {
		return err
	}
	if !tok.is(word) {
		return fmt.Errorf("line %d: expected %q, found %q", tok.line, word, tok.text)
	}
	return nil
}

// mustNext is next with end of file reported as an error.
func (s *scanner) mustNext() (token, error) {
	tok, err := s.next()
	if err == io.EOF {
		return token{}, s.errorf("unexpected end of file")
	}
	return tok, err
}

// untilSemicolon collects tokens up to, and consuming, the next ';'.
func (s *scanner) untilSemicolon() ([]token, error) {
	var tokens []token
	for {
		tok, err := s.mustNext()
		if err != nil {
			return nil, err
		}
		if tok.is(";") {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// rawUntilSemicolon returns the text up to the next ';' that is outside
// quotes and comments, with comments removed, and consumes the ';'.
func (s *scanner) rawUntilSemicolon() (string, error) {
	start := s.line
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case ';':
			s.pos++
			return b.String(), nil
		case '[':
			if err := s.skipComment(); err != nil {
				return "", err
			}
			continue
		case '\'':
			tok, err := s.quoted(c)
			if err != nil {
				return "", err
			}
			b.WriteString("'" + strings.ReplaceAll(tok.text, "'", "''") + "'")
			continue
		case '\n':
			s.line++
		}
		b.WriteByte(c)
		s.pos++
	}
	return "", fmt.Errorf("line %d: missing ';'", start)
}
