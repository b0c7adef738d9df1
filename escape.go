package yamlscan

import "unicode/utf8"

// unescapeScalar applies the per-flavor unescaping rule to a scalar's
// already fold-assembled raw content.
func unescapeScalar(flavor ScalarFlavor, raw []byte) []byte {
	switch flavor {
	case FlavorPlain:
		return unescapeBackslashes(raw)
	case FlavorSingleQuoted:
		return unescapeSingleQuoted(raw)
	case FlavorDoubleQuoted:
		return unescapeDoubleQuoted(raw)
	default: // literal, folded: passed through verbatim
		return raw
	}
}

func unescapeBackslashes(b []byte) []byte {
	if indexByte(b, '\\') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			switch b[i+1] {
			case 'n':
				out = append(out, '\n')
				i++
				continue
			case 't':
				out = append(out, '\t')
				i++
				continue
			case 'r':
				out = append(out, '\r')
				i++
				continue
			case '\\':
				out = append(out, '\\')
				i++
				continue
			}
		}
		out = append(out, b[i])
	}
	return out
}

func unescapeSingleQuoted(b []byte) []byte {
	if indexByte(b, '\'') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\'' && i+1 < len(b) && b[i+1] == '\'' {
			out = append(out, '\'')
			i++
			continue
		}
		out = append(out, b[i])
	}
	return out
}

// unescapeDoubleQuoted decodes the escape set validated by the scanner's
// double-quoted scalar reader: the single-letter escapes, the bare
// backslash-space/backslash-quote/backslash-slash forms, and the
// \xHH / \uHHHH / \UHHHHHHHH numeric escapes.
func unescapeDoubleQuoted(b []byte) []byte {
	if indexByte(b, '\\') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	var rbuf [utf8.UTFMax]byte
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		c := b[i+1]
		switch c {
		case '0':
			out = append(out, 0)
			i++
		case 'a':
			out = append(out, '\a')
			i++
		case 'b':
			out = append(out, '\b')
			i++
		case 't', '\t':
			out = append(out, '\t')
			i++
		case 'n':
			out = append(out, '\n')
			i++
		case 'v':
			out = append(out, '\v')
			i++
		case 'f':
			out = append(out, '\f')
			i++
		case 'r':
			out = append(out, '\r')
			i++
		case 'e':
			out = append(out, 0x1b)
			i++
		case ' ':
			out = append(out, ' ')
			i++
		case '"':
			out = append(out, '"')
			i++
		case '/':
			out = append(out, '/')
			i++
		case '\\':
			out = append(out, '\\')
			i++
		case 'N':
			n := utf8.EncodeRune(rbuf[:], 0x85)
			out = append(out, rbuf[:n]...)
			i++
		case '_':
			n := utf8.EncodeRune(rbuf[:], 0xA0)
			out = append(out, rbuf[:n]...)
			i++
		case 'L':
			n := utf8.EncodeRune(rbuf[:], 0x2028)
			out = append(out, rbuf[:n]...)
			i++
		case 'P':
			n := utf8.EncodeRune(rbuf[:], 0x2029)
			out = append(out, rbuf[:n]...)
			i++
		case 'x':
			if r, consumed, ok := parseHexEscape(b[i+2:], 2); ok {
				n := utf8.EncodeRune(rbuf[:], r)
				out = append(out, rbuf[:n]...)
				i += 1 + consumed
			} else {
				out = append(out, b[i], b[i+1])
				i++
			}
		case 'u':
			if r, consumed, ok := parseHexEscape(b[i+2:], 4); ok {
				n := utf8.EncodeRune(rbuf[:], r)
				out = append(out, rbuf[:n]...)
				i += 1 + consumed
			} else {
				out = append(out, b[i], b[i+1])
				i++
			}
		case 'U':
			if r, consumed, ok := parseHexEscape(b[i+2:], 8); ok {
				n := utf8.EncodeRune(rbuf[:], r)
				out = append(out, rbuf[:n]...)
				i += 1 + consumed
			} else {
				out = append(out, b[i], b[i+1])
				i++
			}
		default:
			out = append(out, b[i], b[i+1])
			i++
		}
	}
	return out
}

// parseHexEscape reads exactly n hex digits from the front of rest and
// returns the decoded rune and how many bytes were consumed.
func parseHexEscape(rest []byte, n int) (rune, int, bool) {
	if len(rest) < n {
		return 0, 0, false
	}
	var v rune
	for i := 0; i < n; i++ {
		d, ok := hexDigit(rest[i])
		if !ok {
			return 0, 0, false
		}
		v = v<<4 | rune(d)
	}
	return v, n, true
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// percentDecode decodes %XX escapes in a tag suffix or verbatim URI.
func percentDecode(b []byte) []byte {
	if indexByte(b, '%') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '%' && i+2 < len(b) {
			hi, ok1 := hexDigit(b[i+1])
			lo, ok2 := hexDigit(b[i+2])
			if ok1 && ok2 {
				out = append(out, byte(hi<<4|lo))
				i += 2
				continue
			}
		}
		out = append(out, b[i])
	}
	return out
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
