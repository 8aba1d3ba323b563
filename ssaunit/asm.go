package ssaunit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseAsm reads Go assembler source and returns the body of every TEXT
// block, keyed by the symbol's name without its package qualifier, so
// "TEXT ·inb(SB), NOSPLIT, $0-9" is keyed "inb".
//
// Comments of either form and preprocessor lines are dropped. The TEXT
// line itself is not part of the body, so a routine's name never matches
// a pattern.
func ParseAsm(r io.Reader) (map[string]string, error) {
	bodies := make(map[string]string)

	var (
		name    string
		body    strings.Builder
		comment bool
	)

	flush := func() {
		if name == "" {
			return
		}
		text := strings.TrimRight(body.String(), "\n")
		if prev, ok := bodies[name]; ok {
			text = prev + "\n" + text
		}
		bodies[name] = text
		body.Reset()
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var line string
		line, comment = stripComments(sc.Text(), comment)
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if sym, ok := textSymbol(line); ok {
			flush()
			name = sym
			continue
		}

		if name != "" {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assembly: %w", err)
	}
	flush()

	return bodies, nil
}

// ParseAsmFiles parses every file and merges their TEXT blocks. Files
// that are not assembly are ignored.
func ParseAsmFiles(paths ...string) (map[string]string, error) {
	bodies := make(map[string]string)

	for _, path := range paths {
		if !strings.HasSuffix(path, ".s") {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open assembly file: %w", err)
		}

		fileBodies, err := ParseAsm(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		for name, text := range fileBodies {
			if prev, ok := bodies[name]; ok {
				text = prev + "\n" + text
			}
			bodies[name] = text
		}
	}

	return bodies, nil
}

// stripComments removes line and block comments from line. inBlock
// reports whether line starts inside a block comment, and the returned
// bool whether the next line does.
func stripComments(line string, inBlock bool) (string, bool) {
	var out strings.Builder
	for line != "" {
		if inBlock {
			end := strings.Index(line, "*/")
			if end < 0 {
				return out.String(), true
			}
			line, inBlock = line[end+2:], false
			out.WriteByte(' ')
			continue
		}

		lineComment := strings.Index(line, "//")
		blockComment := strings.Index(line, "/*")
		switch {
		case blockComment >= 0 && (lineComment < 0 || blockComment < lineComment):
			out.WriteString(line[:blockComment])
			line, inBlock = line[blockComment+2:], true
		case lineComment >= 0:
			out.WriteString(line[:lineComment])
			return out.String(), false
		default:
			out.WriteString(line)
			return out.String(), false
		}
	}
	return out.String(), inBlock
}

// textSymbol returns the unqualified symbol name of a TEXT directive.
func textSymbol(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "TEXT")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	rest = strings.TrimSpace(rest)

	end := strings.Index(rest, "(SB)")
	if end < 0 {
		return "", false
	}
	sym := rest[:end]

	// Drop an ABI selector, e.g. "·f<ABIInternal>".
	if i := strings.Index(sym, "<"); i >= 0 {
		sym = sym[:i]
	}

	if i := strings.LastIndex(sym, "·"); i >= 0 {
		sym = sym[i+len("·"):]
	} else if i := strings.LastIndex(sym, "."); i >= 0 {
		sym = sym[i+1:]
	}

	if sym == "" {
		return "", false
	}
	return sym, true
}
