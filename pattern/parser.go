package pattern

import (
	"fmt"
	"sort"
)

// Parse compiles pattern text into an ordered section list. It is a pure
// function: the same (pattern, config) pair always yields the same sections.
func Parse(expr string, cfg Config) ([]Section, error) {
	p := &parser{input: []rune(expr), cfg: cfg}
	return p.parse()
}

type parser struct {
	input []rune
	pos   int
	cfg   Config
}

func (p *parser) parse() ([]Section, error) {
	var sections []Section
	for !p.eof() {
		sec, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		min, max, err := p.parseQuantifier()
		if err != nil {
			return nil, err
		}
		sec.Min = min
		sec.Max = max
		sections = append(sections, sec)
	}
	return sections, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) next() rune {
	r := p.input[p.pos]
	p.pos++
	return r
}

func (p *parser) errorf(pos int, fragment, format string, args ...any) error {
	return &ParseError{Pos: pos, Fragment: fragment, Msg: fmt.Sprintf(format, args...)}
}

// parseAtom consumes one literal or bracket expression.
func (p *parser) parseAtom() (Section, error) {
	pos := p.pos
	switch r := p.peek(); r {
	case '[':
		return p.parseBracket()
	case '\\':
		p.next()
		if p.eof() {
			return Section{}, p.errorf(pos, "\\", "trailing escape")
		}
		return Section{Kind: Literal, Ch: p.next()}, nil
	case '*', '+', '?', '{':
		return Section{}, p.errorf(pos, string(r), "quantifier must follow a single atom")
	case ']', '}', '(', ')', '|', '.':
		return Section{}, p.errorf(pos, string(r), "unescaped special character")
	default:
		p.next()
		return Section{Kind: Literal, Ch: r}, nil
	}
}

// parseBracket consumes a [...] class. A single a-z range becomes a Range
// section; anything else becomes a sorted, deduplicated Set. A lone leading
// or trailing '-' is a literal dash.
func (p *parser) parseBracket() (Section, error) {
	open := p.pos
	p.next() // consume '['

	type span struct{ lo, hi rune }
	var spans []span
	var singles []rune

	for {
		if p.eof() {
			return Section{}, p.errorf(open, "[", "unterminated bracket expression")
		}
		r := p.next()
		if r == ']' {
			break
		}
		if r == '\\' {
			if p.eof() {
				return Section{}, p.errorf(p.pos-1, "\\", "trailing escape in bracket expression")
			}
			singles = append(singles, p.next())
			continue
		}
		// Range if a '-' follows and is itself followed by a class member.
		if p.peek() == '-' && p.pos+1 < len(p.input) && p.input[p.pos+1] != ']' {
			dash := p.pos
			p.next() // consume '-'
			hi := p.next()
			if hi == '\\' {
				if p.eof() {
					return Section{}, p.errorf(dash, "-", "trailing escape in bracket expression")
				}
				hi = p.next()
			}
			if hi < r {
				return Section{}, p.errorf(dash, fmt.Sprintf("%c-%c", r, hi), "inverted range")
			}
			spans = append(spans, span{lo: r, hi: hi})
			continue
		}
		singles = append(singles, r)
	}

	if len(spans) == 0 && len(singles) == 0 {
		return Section{}, p.errorf(open, "[]", "empty bracket expression")
	}
	if len(spans) == 1 && len(singles) == 0 {
		s := spans[0]
		if s.lo == s.hi {
			return Section{Kind: Literal, Ch: s.lo}, nil
		}
		return Section{Kind: Range, Lo: s.lo, Hi: s.hi}, nil
	}
	if len(spans) == 0 && len(singles) == 1 {
		return Section{Kind: Literal, Ch: singles[0]}, nil
	}

	// General class: expand to an explicit code-point set.
	seen := make(map[rune]struct{})
	for _, s := range spans {
		for r := s.lo; r <= s.hi; r++ {
			seen[r] = struct{}{}
		}
	}
	for _, r := range singles {
		seen[r] = struct{}{}
	}
	chars := make([]rune, 0, len(seen))
	for r := range seen {
		chars = append(chars, r)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return Section{Kind: Set, Chars: chars}, nil
}

// parseQuantifier consumes an optional postfix quantifier and resolves its
// repeat bounds.
func (p *parser) parseQuantifier() (min, max int, err error) {
	if p.eof() {
		return 1, 1, nil
	}
	pos := p.pos
	switch p.peek() {
	case '?':
		p.next()
		return 0, 1, nil
	case '+':
		p.next()
		b, ok := p.cfg.QuantifierBounds["+"]
		if !ok {
			return 0, 0, &UnboundedRepetitionError{Pos: pos, Quantifier: "+"}
		}
		min = 1
		if b.Min > min {
			min = b.Min
		}
		return p.checkBounds(pos, "+", min, b.Max)
	case '*':
		p.next()
		b, ok := p.cfg.QuantifierBounds["*"]
		if !ok {
			return 0, 0, &UnboundedRepetitionError{Pos: pos, Quantifier: "*"}
		}
		min = 0
		if b.Min > min {
			min = b.Min
		}
		return p.checkBounds(pos, "*", min, b.Max)
	case '{':
		return p.parseRepeat(pos)
	default:
		return 1, 1, nil
	}
}

// parseRepeat handles {m}, {m,n} and the open-ended {m,}, which borrows the
// configured "*" upper bound.
func (p *parser) parseRepeat(open int) (int, int, error) {
	p.next() // consume '{'
	m, ok := p.readInt()
	if !ok {
		return 0, 0, p.errorf(open, "{", "repeat count must be a non-negative integer")
	}
	switch p.peek() {
	case '}':
		p.next()
		return m, m, nil
	case ',':
		p.next()
	default:
		return 0, 0, p.errorf(open, "{", "malformed repeat: expected ',' or '}'")
	}
	if p.peek() == '}' {
		p.next()
		b, ok := p.cfg.QuantifierBounds["*"]
		if !ok {
			return 0, 0, &UnboundedRepetitionError{Pos: open, Quantifier: fmt.Sprintf("{%d,}", m)}
		}
		return p.checkBounds(open, fmt.Sprintf("{%d,}", m), m, b.Max)
	}
	n, ok := p.readInt()
	if !ok || p.peek() != '}' {
		return 0, 0, p.errorf(open, "{", "malformed repeat: expected '{m,n}'")
	}
	p.next() // consume '}'
	if n < m {
		return 0, 0, p.errorf(open, fmt.Sprintf("{%d,%d}", m, n), "inverted repeat bounds")
	}
	return m, n, nil
}

func (p *parser) checkBounds(pos int, quant string, min, max int) (int, int, error) {
	if max < min {
		return 0, 0, p.errorf(pos, quant, "configured bound max %d below min %d", max, min)
	}
	return min, max, nil
}

func (p *parser) readInt() (int, bool) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.next()
	}
	if p.pos == start {
		return 0, false
	}
	n := 0
	for _, r := range p.input[start:p.pos] {
		n = n*10 + int(r-'0')
	}
	return n, true
}
