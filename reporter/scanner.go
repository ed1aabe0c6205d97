// Package reporter classifies raw subprocess output: structured batch
// results, heuristic error spans, and test source boundaries.
package reporter

// This file contains the shared brace/quote-aware source scanner used
// by both the error extractor and test source boundary lookup.

import "strings"

// ScanBlock scans src from index from, looking for the first opening
// brace, and returns the index just past the brace that balances it.
// String literals (single, double, template) and single-line comments
// are skipped; template literals may nest interpolation expressions
// which themselves contain strings. Returns -1 when no balanced block
// is found.
func ScanBlock(src string, from int) int {
	depth := 0
	opened := false

	i := from
	for i < len(src) {
		ch := src[i]
		switch ch {
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				i = skipLine(src, i)
				continue
			}
		case '\'', '"':
			i = skipString(src, i, ch)
			continue
		case '`':
			i = skipTemplate(src, i)
			continue
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return -1
}

// skipLine advances past the end of the current line.
func skipLine(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

// skipString advances past a quoted string starting at src[i] == quote,
// honoring backslash escapes. Returns the index just past the closing
// quote, or len(src) if unterminated.
func skipString(src string, i int, quote byte) int {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			// Single/double-quoted strings don't span lines; bail so a
			// stray quote can't swallow the rest of the file.
			return i
		}
		i++
	}
	return i
}

// skipTemplate advances past a template literal starting at src[i] == '`'.
// Interpolation expressions (${ ... }) are tracked with their own brace
// depth, and quotes inside them are skipped with full string awareness.
func skipTemplate(src string, i int) int {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '`':
			return i + 1
		case '$':
			if i+1 < len(src) && src[i+1] == '{' {
				i = skipInterpolation(src, i+2)
				continue
			}
		}
		i++
	}
	return i
}

// skipInterpolation advances past a ${...} expression body, starting
// just after the opening brace.
func skipInterpolation(src string, i int) int {
	depth := 1
	for i < len(src) {
		switch src[i] {
		case '\'', '"':
			i = skipString(src, i, src[i])
			continue
		case '`':
			i = skipTemplate(src, i)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}

// TestSourceSpan locates the source boundaries of the test declared at
// the given 1-based line. It scans forward from that line for the test
// body's opening brace and returns the 1-based start and end lines of
// the balanced block. ok is false when no balanced block exists.
func TestSourceSpan(src string, line int) (start, end int, ok bool) {
	if line < 1 {
		return 0, 0, false
	}

	offset := 0
	current := 1
	for current < line {
		nl := strings.IndexByte(src[offset:], '\n')
		if nl < 0 {
			return 0, 0, false
		}
		offset += nl + 1
		current++
	}

	// Anchor on the body's opening brace. Declarations like
	// `test('x', async ({ page }) => {` carry parameter braces earlier
	// in the line, so the last brace on the declaration line wins.
	lineEnd := strings.IndexByte(src[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src) - offset
	}
	from := offset
	if brace := strings.LastIndexByte(src[offset:offset+lineEnd], '{'); brace >= 0 {
		from = offset + brace
	}

	stop := ScanBlock(src, from)
	if stop < 0 {
		return 0, 0, false
	}

	end = line + strings.Count(src[offset:stop], "\n")
	return line, end, true
}
