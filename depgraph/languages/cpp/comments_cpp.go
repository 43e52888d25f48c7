package cpp

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripComments removes // and /* */ comments from C++ source in a single pass.
//
// A line comment is replaced by the line break that ends it. A block comment is
// replaced by the line breaks it spanned, or by one space when it spanned none,
// so line numbers survive and tokens on either side stay separate. Text outside
// comments is copied byte for byte, including double-quoted string and character
// literals, which may contain comment markers. A leading UTF-8 byte order mark
// is dropped so a declaration on the first line is still seen at line start.
//
// This is a lexical approximation, not a tokenizer. Known gaps: raw string
// literals (R"(...)") containing quotes or comment markers, line comments
// continued with a trailing backslash, and u8'x' character literals, whose
// quote is read as a digit separator.
func StripComments(src []byte) []byte {
	src = bytes.TrimPrefix(src, utf8BOM)
	out := make([]byte, 0, len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || (c == '\'' && !isDigitSeparator(src, i)):
			end := literalEnd(src, i)
			out = append(out, src[i:end]...)
			i = end

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			j := i + 2
			for j < len(src) && src[j] != '\n' {
				j++
			}
			if j < len(src) {
				out = append(out, '\n')
				j++
			}
			i = j

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			j := i + 2
			newlines := 0
			for j < len(src) && !(src[j] == '*' && j+1 < len(src) && src[j+1] == '/') {
				if src[j] == '\n' {
					newlines++
				}
				j++
			}
			if j < len(src) {
				j += 2
			}
			if newlines == 0 {
				out = append(out, ' ')
			}
			for ; newlines > 0; newlines-- {
				out = append(out, '\n')
			}
			i = j

		default:
			out = append(out, c)
			i++
		}
	}

	return out
}

// literalEnd returns the index just past the string or character literal opening at start.
// An unterminated literal ends at the line break.
func literalEnd(src []byte, start int) int {
	quote := src[start]
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(src)
}

// isDigitSeparator reports whether the quote at i sits between two digits, as in 1'000'000.
func isDigitSeparator(src []byte, i int) bool {
	return i > 0 && i+1 < len(src) && isHexDigit(src[i-1]) && isHexDigit(src[i+1])
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
