package traceutil

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
)

// MatchStrategy is the way a FunctionMatcher compares its pattern
// against a function name.
type MatchStrategy int

const (
	MatchExact MatchStrategy = iota
	MatchFuzzy
	MatchGlob
	MatchRegex
)

// strategyNames maps the accepted pattern prefixes to a strategy. The
// first name listed for each strategy is its canonical form.
var strategyNames = []struct {
	strategy MatchStrategy
	names    []string
}{
	{MatchExact, []string{"exact"}},
	{MatchFuzzy, []string{"fuzzy", "fuzz", "substring"}},
	{MatchGlob, []string{"glob", "pattern"}},
	{MatchRegex, []string{"regex", "regexp", "re"}},
}

func (m MatchStrategy) String() string {
	for _, s := range strategyNames {
		if s.strategy == m {
			return s.names[0]
		}
	}
	return "unknown"
}

func lookupStrategy(prefix string) (MatchStrategy, bool) {
	prefix = strings.ToLower(prefix)
	for _, s := range strategyNames {
		if slices.Contains(s.names, prefix) {
			return s.strategy, true
		}
	}
	return MatchExact, false
}

// FunctionMatcher selects functions by name. The tracer uses it to focus
// a scan on a subset of the program, e.g. a single driver routine.
//
// Names are matched in every spelling a user is likely to type: the
// fully qualified SSA name ("(*example.com/uart.Port).Read"), the name
// qualified by the package's last path element ("(*uart.Port).Read"),
// the receiver form ("Port.Read") and the bare name ("Read"). A name
// matches if any of its spellings does.
type FunctionMatcher struct {
	pattern  string
	strategy MatchStrategy
	test     func(string) bool
}

// NewFunctionMatcher returns a matcher for pattern using the given
// strategy. Only regular expressions can fail to compile.
func NewFunctionMatcher(pattern string, strategy MatchStrategy) (*FunctionMatcher, error) {
	m := &FunctionMatcher{pattern: pattern, strategy: strategy}

	switch strategy {
	case MatchExact:
		m.test = func(name string) bool { return name == pattern }
	case MatchFuzzy:
		m.test = func(name string) bool { return strings.Contains(name, pattern) }
	case MatchGlob:
		m.test = func(name string) bool {
			ok, err := path.Match(pattern, name)
			if err != nil {
				// A malformed glob only matches itself.
				return name == pattern
			}
			return ok
		}
	case MatchRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		m.test = re.MatchString
	default:
		return nil, fmt.Errorf("unknown match strategy %d", strategy)
	}

	return m, nil
}

// NewFunctionMatcherFromString parses a focus expression of the form
// "[strategy:]pattern", where strategy is one of exact, fuzzy, glob or
// regex. Without a known prefix the whole input is matched exactly, so
// "cpu:rdtsc" looks for a function literally named that.
func NewFunctionMatcherFromString(input string) (*FunctionMatcher, error) {
	if prefix, rest, ok := strings.Cut(input, ":"); ok {
		if strategy, known := lookupStrategy(prefix); known {
			return NewFunctionMatcher(rest, strategy)
		}
	}
	return NewFunctionMatcher(input, MatchExact)
}

// Match reports whether any spelling of the function name matches.
func (m *FunctionMatcher) Match(funcName string) bool {
	if m == nil || m.test == nil {
		return false
	}
	for _, form := range NameForms(funcName) {
		if m.test(form) {
			return true
		}
	}
	return false
}

func (m *FunctionMatcher) Strategy() MatchStrategy { return m.strategy }

func (m *FunctionMatcher) Pattern() string { return m.pattern }

func (m *FunctionMatcher) String() string {
	return m.strategy.String() + ":" + m.pattern
}

// NameForms returns the spellings of an SSA function name, from the
// most to the least qualified, without duplicates. Type arguments of an
// instantiated generic are kept on every form.
//
//	example.com/rtc.readReg       → rtc.readReg, readReg
//	(*example.com/uart.Port).Read → (*uart.Port).Read, Port.Read, Read
func NameForms(name string) []string {
	forms := []string{name}
	add := func(s string) {
		if s != "" && !slices.Contains(forms, s) {
			forms = append(forms, s)
		}
	}

	if strings.HasPrefix(name, "(") {
		recv, method, ok := strings.Cut(name[1:], ").")
		if !ok {
			return forms
		}
		star := ""
		if strings.HasPrefix(recv, "*") {
			star, recv = "*", recv[1:]
		}
		recv, rargs := splitTypeArgs(recv)
		recv = trimImportPath(recv)
		add("(" + star + recv + rargs + ")." + method)
		add(afterLastDot(recv) + "." + method)
		add(method)
		return forms
	}

	body, targs := splitTypeArgs(name)
	short := trimImportPath(body)
	add(short + targs)
	add(afterLastDot(short) + targs)
	return forms
}

// splitTypeArgs separates "pkg.F[int]" into "pkg.F" and "[int]".
func splitTypeArgs(s string) (string, string) {
	if i := strings.IndexByte(s, '['); i > 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// trimImportPath drops everything up to the last slash, leaving the
// package's last path element as the qualifier.
func trimImportPath(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func afterLastDot(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
