package iotaint

import "strings"

// PatternSet is an immutable, ordered list of literal substrings that
// identify assembly which reads hardware input.
//
// Matching is plain, case-sensitive substring containment. This is a
// heuristic seed filter: coincidental matches are accepted.
type PatternSet struct {
	patterns []string
}

// DefaultPatterns recognizes port reads and segment-relative loads, both
// as GNU inline assembly templates and as Go assembler mnemonics.
var DefaultPatterns = NewPatternSet(
	// GNU inline assembly templates.
	"inb",
	"inw",
	"inl",
	"movb $1,$0",
	"movl $1,$0",
	"movw $1,$0",
	"movq $1,$0",
	"movb %gs:$1,$0",
	"movl %gs:$1,$0",
	"movw %gs:$1,$0",
	"movq %gs:$1,$0",
	"movb %fs:$1,$0",
	"movl %fs:$1,$0",
	"movw %fs:$1,$0",
	"movq %fs:$1,$0",

	// Go assembler.
	"INB",
	"INW",
	"INL",
	"(TLS)",
	"(FS)",
	"(GS)",
)

// NewPatternSet returns a PatternSet holding a copy of the given
// patterns. Empty patterns are dropped, since they would match any text.
func NewPatternSet(patterns ...string) PatternSet {
	ps := PatternSet{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		ps.patterns = append(ps.patterns, p)
	}
	return ps
}

// Patterns returns a copy of the patterns in order.
func (ps PatternSet) Patterns() []string {
	return append([]string(nil), ps.patterns...)
}

// Len returns the number of patterns.
func (ps PatternSet) Len() int {
	return len(ps.patterns)
}

// With returns a new PatternSet with the given patterns appended.
func (ps PatternSet) With(patterns ...string) PatternSet {
	return NewPatternSet(append(ps.Patterns(), patterns...)...)
}

// IsInputRead returns true if any pattern is a substring of asm.
func (ps PatternSet) IsInputRead(asm string) bool {
	_, ok := ps.Match(asm)
	return ok
}

// Match returns the first pattern contained in asm.
func (ps PatternSet) Match(asm string) (string, bool) {
	for _, p := range ps.patterns {
		if strings.Contains(asm, p) {
			return p, true
		}
	}
	return "", false
}
