package pdf

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// textRuns scans a page content stream and returns the string operands of the
// show-text operators (Tj, TJ, ' and ") in stream order. A TJ array yields one
// run. Glyph codes are mapped as WinAnsi bytes, or UTF-16BE when the string
// carries a byte order mark; font CMaps are not consulted.
func textRuns(stream []byte) []string {
	lx := &lexer{data: stream}

	var (
		runs     []string
		operands []operand
	)
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}

		if tok.kind != tokOperator {
			operands = append(operands, tok.operand)
			continue
		}

		switch tok.text {
		case "Tj", "'", "\"":
			if s, ok := lastString(operands); ok {
				runs = appendRun(runs, s)
			}
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].isArray {
				runs = appendRun(runs, strings.Join(operands[n-1].array, ""))
			}
		case "BI":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
	return runs
}

func appendRun(runs []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return runs
	}
	return append(runs, s)
}

func lastString(ops []operand) (string, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].isString {
			return ops[i].str, true
		}
	}
	return "", false
}

type tokenKind int

const (
	tokOperand tokenKind = iota
	tokOperator
)

type operand struct {
	isString bool
	str      string
	isArray  bool
	array    []string // string elements of an array; numbers are dropped
}

type token struct {
	kind    tokenKind
	text    string
	operand operand
}

type lexer struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isWhite(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, bool) {
	lx.skipSpace()
	if lx.pos >= len(lx.data) {
		return token{}, false
	}

	c := lx.data[lx.pos]
	switch {
	case c == '(':
		lx.pos++
		return token{operand: operand{isString: true, str: decodeText(lx.literal())}}, true
	case c == '<' && lx.peek(1) == '<':
		lx.pos += 2
		return token{operand: operand{}}, true
	case c == '>' && lx.peek(1) == '>':
		lx.pos += 2
		return token{operand: operand{}}, true
	case c == '<':
		lx.pos++
		return token{operand: operand{isString: true, str: decodeText(lx.hex())}}, true
	case c == '[':
		lx.pos++
		return token{operand: lx.array()}, true
	case c == '/':
		lx.pos++
		lx.word()
		return token{operand: operand{}}, true
	case isDelim(c):
		// stray ) ] { } >
		lx.pos++
		return token{operand: operand{}}, true
	}

	w := lx.word()
	if isNumber(w) || w == "true" || w == "false" || w == "null" {
		return token{operand: operand{}}, true
	}
	return token{kind: tokOperator, text: w}, true
}

func (lx *lexer) peek(off int) byte {
	if lx.pos+off < len(lx.data) {
		return lx.data[lx.pos+off]
	}
	return 0
}

func (lx *lexer) word() string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isWhite(lx.data[lx.pos]) && !isDelim(lx.data[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start {
		// never stall on an unexpected byte
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func isNumber(w string) bool {
	if w == "" {
		return false
	}
	digits := 0
	for i := 0; i < len(w); i++ {
		c := w[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' || ((c == '-' || c == '+') && i == 0):
		default:
			return false
		}
	}
	return digits > 0
}

// literal reads a (string) body after the opening parenthesis.
func (lx *lexer) literal() []byte {
	var out []byte
	depth := 1
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			out = lx.escape(out)
		default:
			out = append(out, c)
		}
	}
	return out
}

func (lx *lexer) escape(out []byte) []byte {
	if lx.pos >= len(lx.data) {
		return out
	}
	c := lx.data[lx.pos]
	lx.pos++
	switch c {
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'b':
		return append(out, '\b')
	case 'f':
		return append(out, '\f')
	case '\r':
		if lx.peek(0) == '\n' {
			lx.pos++
		}
		return out
	case '\n':
		return out
	}
	if c >= '0' && c <= '7' {
		val := int(c - '0')
		for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
			d := lx.data[lx.pos]
			if d < '0' || d > '7' {
				break
			}
			val = val*8 + int(d-'0')
			lx.pos++
		}
		return append(out, byte(val))
	}
	return append(out, c)
}

// hex reads a <hex string> body after the opening bracket.
func (lx *lexer) hex() []byte {
	var (
		out  []byte
		hi   byte
		half bool
	)
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (lx *lexer) array() operand {
	op := operand{isArray: true}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.data) {
			return op
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return op
		}
		tok, ok := lx.next()
		if !ok {
			return op
		}
		if tok.operand.isString {
			op.array = append(op.array, tok.operand.str)
		}
	}
}

// skipInlineImage jumps past inline image data up to the EI operator.
func (lx *lexer) skipInlineImage() {
	for lx.pos+2 <= len(lx.data) {
		if lx.data[lx.pos] == 'E' && lx.data[lx.pos+1] == 'I' &&
			(lx.pos == 0 || isWhite(lx.data[lx.pos-1])) &&
			(lx.pos+2 == len(lx.data) || isWhite(lx.data[lx.pos+2])) {
			lx.pos += 2
			return
		}
		lx.pos++
	}
	lx.pos = len(lx.data)
}

// decodeText maps string bytes to text. Single bytes are read as WinAnsi
// (Windows-1252), the encoding simple fonts in generated documents declare, so
// 0x80-0x9F become quotes, dashes and the euro sign rather than C1 controls.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return sb.String()
}
