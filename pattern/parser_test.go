package pattern

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Literals(t *testing.T) {
	secs, err := Parse("abc", NewConfig(3))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(secs) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(secs))
	}
	for i, want := range []rune{'a', 'b', 'c'} {
		if secs[i].Kind != Literal || secs[i].Ch != want {
			t.Errorf("section %d = %v, want literal %q", i, secs[i], want)
		}
		if secs[i].Min != 1 || secs[i].Max != 1 {
			t.Errorf("section %d bounds = {%d,%d}, want {1,1}", i, secs[i].Min, secs[i].Max)
		}
	}
}

func TestParse_EscapedSpecials(t *testing.T) {
	secs, err := Parse(`\{\"\}`, NewConfig(3))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []rune{'{', '"', '}'}
	for i, r := range want {
		if secs[i].Kind != Literal || secs[i].Ch != r {
			t.Errorf("section %d = %v, want literal %q", i, secs[i], r)
		}
	}
}

func TestParse_Brackets(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		kind    SectionKind
		check   func(t *testing.T, s Section)
	}{
		{
			name:    "single range",
			pattern: "[a-z]",
			kind:    Range,
			check: func(t *testing.T, s Section) {
				if s.Lo != 'a' || s.Hi != 'z' {
					t.Errorf("range = [%c-%c], want [a-z]", s.Lo, s.Hi)
				}
			},
		},
		{
			name:    "explicit set",
			pattern: "[cab]",
			kind:    Set,
			check: func(t *testing.T, s Section) {
				if !reflect.DeepEqual(s.Chars, []rune{'a', 'b', 'c'}) {
					t.Errorf("chars = %q, want sorted abc", string(s.Chars))
				}
			},
		},
		{
			name:    "multi range",
			pattern: "[a-cx-z]",
			kind:    Set,
			check: func(t *testing.T, s Section) {
				if !reflect.DeepEqual(s.Chars, []rune{'a', 'b', 'c', 'x', 'y', 'z'}) {
					t.Errorf("chars = %q", string(s.Chars))
				}
			},
		},
		{
			name:    "mixed range and singles",
			pattern: "[a-c_]",
			kind:    Set,
			check: func(t *testing.T, s Section) {
				if !s.Accepts('_') || !s.Accepts('b') || s.Accepts('d') {
					t.Errorf("unexpected accepted set %q", string(s.Chars))
				}
			},
		},
		{
			name:    "single char class collapses to literal",
			pattern: "[x]",
			kind:    Literal,
			check: func(t *testing.T, s Section) {
				if s.Ch != 'x' {
					t.Errorf("ch = %q, want x", s.Ch)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secs, err := Parse(tt.pattern, NewConfig(1))
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if len(secs) != 1 {
				t.Fatalf("expected 1 section, got %d", len(secs))
			}
			if secs[0].Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", secs[0].Kind, tt.kind)
			}
			tt.check(t, secs[0])
		})
	}
}

func TestParse_Quantifiers(t *testing.T) {
	cfg := NewConfig(10).WithBound("+", 1, 5).WithBound("*", 0, 4)

	tests := []struct {
		pattern  string
		min, max int
	}{
		{"a?", 0, 1},
		{"a+", 1, 5},
		{"a*", 0, 4},
		{"a{3}", 3, 3},
		{"a{2,6}", 2, 6},
		{"a{2,}", 2, 4},
		{"a{0,0}", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			secs, err := Parse(tt.pattern, cfg)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if secs[0].Min != tt.min || secs[0].Max != tt.max {
				t.Errorf("bounds = {%d,%d}, want {%d,%d}", secs[0].Min, secs[0].Max, tt.min, tt.max)
			}
		})
	}
}

func TestParse_UnboundedRepetition(t *testing.T) {
	// No configured bound for + means the circuit has no finite row budget.
	for _, pat := range []string{"[a-z]+", "a*", "b{2,}"} {
		t.Run(pat, func(t *testing.T) {
			_, err := Parse(pat, NewConfig(10))
			var ure *UnboundedRepetitionError
			if !errors.As(err, &ure) {
				t.Fatalf("expected UnboundedRepetitionError, got %v", err)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cfg := NewConfig(10)
	tests := []struct {
		name    string
		pattern string
	}{
		{"empty bracket", "a[]b"},
		{"inverted range", "[z-a]"},
		{"unterminated bracket", "[abc"},
		{"leading quantifier", "+a"},
		{"double quantifier", "a?*"},
		{"unescaped special", "a|b"},
		{"unescaped dot", "a.b"},
		{"trailing escape", `ab\`},
		{"inverted repeat", "a{3,1}"},
		{"malformed repeat", "a{x}"},
		{"dangling close bracket", "a]b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.pattern, cfg)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Pos < 0 || pe.Pos > len(tt.pattern) {
				t.Errorf("position %d out of bounds for %q", pe.Pos, tt.pattern)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	cfg := NewConfig(12).WithBound("+", 1, 6)
	a, err := Parse(`\{"[a-z]+":[0-9]{3}\}`, cfg)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	b, err := Parse(`\{"[a-z]+":[0-9]{3}\}`, cfg)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical pattern and config produced different sections")
	}
}

func TestSection_Accepts(t *testing.T) {
	set := Section{Kind: Set, Chars: []rune{'a', 'c', 'e'}}
	for _, r := range []rune{'a', 'c', 'e'} {
		if !set.Accepts(r) {
			t.Errorf("set should accept %q", r)
		}
	}
	for _, r := range []rune{'b', 'd', 'f'} {
		if set.Accepts(r) {
			t.Errorf("set should reject %q", r)
		}
	}

	rng := Section{Kind: Range, Lo: '0', Hi: '9'}
	if !rng.Accepts('5') || rng.Accepts('a') {
		t.Error("range accept/reject mismatch")
	}
	if rng.Size() != 10 {
		t.Errorf("range size = %d, want 10", rng.Size())
	}
}
