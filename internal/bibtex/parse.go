package bibtex

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminated is returned when an entry or value isn't closed before EOF.
var ErrUnterminated = errors.New("unterminated entry")

// Parse reads every entry in src. Text outside entries is ignored, as are
// @comment blocks.
func Parse(src string) (*Database, error) {
	p := &parser{src: src}
	db := &Database{}

	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return db, nil
		}
		start := p.pos + at
		p.pos = start + 1

		entry, err := p.entry(start)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			db.Entries = append(db.Entries, *entry)
		}
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.peek())) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	line := strings.Count(p.src[:min(p.pos, len(p.src))], "\n") + 1
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

// entry parses one record whose '@' is at start. Returns nil for comments.
func (p *parser) entry(start int) (*Entry, error) {
	typ := p.ident()
	if typ == "" {
		return nil, nil // stray '@' outside an entry
	}
	p.skipSpace()
	if p.eof() {
		return nil, nil
	}

	var closer byte
	switch p.peek() {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return nil, nil // "@word" in free text
	}

	switch strings.ToLower(typ) {
	case "comment":
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
		return nil, nil
	case "string", "preamble":
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
		return &Entry{Type: strings.ToLower(typ), Raw: p.src[start:p.pos]}, nil
	}
	p.pos++ // opening delimiter

	e := &Entry{Type: strings.ToLower(typ)}
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		p.pos++
	}
	if p.eof() {
		return nil, fmt.Errorf("%w: @%s", ErrUnterminated, typ)
	}
	e.Key = strings.TrimSpace(p.src[keyStart:p.pos])

	for {
		p.skipSpace()
		for !p.eof() && p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if p.eof() {
			return nil, fmt.Errorf("%w: @%s{%s", ErrUnterminated, typ, e.Key)
		}
		if p.peek() == closer {
			p.pos++
			return e, nil
		}

		name := p.ident()
		if name == "" {
			return nil, p.errorf("expected field name in %s", e.Key)
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return nil, p.errorf("expected '=' after %s in %s", name, e.Key)
		}
		p.pos++

		value, err := p.value(closer)
		if err != nil {
			return nil, err
		}
		e.Fields = append(e.Fields, Field{Name: strings.ToLower(name), Value: value})
	}
}

// ident reads an entry type, field name or bare value.
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || strings.IndexByte("_-:.+/", c) >= 0 {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// value reads one field value, joining '#' concatenations.
func (p *parser) value(closer byte) (string, error) {
	var parts []string
	for {
		p.skipSpace()
		if p.eof() {
			return "", ErrUnterminated
		}

		switch p.peek() {
		case '{':
			start := p.pos + 1
			if err := p.skipBalanced(); err != nil {
				return "", err
			}
			parts = append(parts, p.src[start:p.pos-1])
		case '"':
			s, err := p.quoted()
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		default:
			word := p.ident()
			if word == "" {
				return "", p.errorf("expected value")
			}
			parts = append(parts, word)
		}

		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			continue
		}
		if !p.eof() && p.peek() != ',' && p.peek() != closer {
			return "", p.errorf("unexpected %q after value", p.peek())
		}
		return strings.Join(parts, ""), nil
	}
}

// skipBalanced advances past a {...} or (...) group starting at pos.
func (p *parser) skipBalanced() error {
	open := p.peek()
	closeCh := byte('}')
	if open == '(' {
		closeCh = ')'
	}
	depth := 0
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return ErrUnterminated
}

// quoted reads a "..." value; braces inside protect embedded quotes.
func (p *parser) quoted() (string, error) {
	p.pos++ // opening quote
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0:
			s := p.src[start:p.pos]
			p.pos++
			return s, nil
		}
		p.pos++
	}
	return "", ErrUnterminated
}
