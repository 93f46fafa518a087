package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

type operandKind int

const (
	numberOperand operandKind = iota
	literalOperand
	hexOperand
	nameOperand
	arrayOperand
	otherOperand
)

type operand struct {
	kind  operandKind
	num   float64
	raw   []byte
	items []operand
}

func isWhite(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
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

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'
}

// contentLexer tokenizes a decoded page content stream.
type contentLexer struct {
	data []byte
	pos  int
}

// scanContent calls emit for every operator with the operands preceding it.
// The args slice is reused between calls.
func scanContent(data []byte, emit func(op string, args []operand)) {
	lx := &contentLexer{data: data}
	var stack []operand
	var arrays [][]operand

	push := func(o operand) {
		if n := len(arrays); n > 0 {
			arrays[n-1] = append(arrays[n-1], o)
			return
		}
		stack = append(stack, o)
	}

	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isWhite(c):
			lx.pos++
		case c == '%':
			lx.skipComment()
		case c == '(':
			push(operand{kind: literalOperand, raw: lx.literal()})
		case c == '<':
			if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
				lx.pos += 2
				continue
			}
			push(operand{kind: hexOperand, raw: lx.hex()})
		case c == '[':
			arrays = append(arrays, nil)
			lx.pos++
		case c == ']':
			lx.pos++
			if n := len(arrays); n > 0 {
				items := arrays[n-1]
				arrays = arrays[:n-1]
				push(operand{kind: arrayOperand, items: items})
			}
		case c == '/':
			lx.pos++
			push(operand{kind: nameOperand, raw: lx.regular()})
		case isDelim(c):
			lx.pos++
		default:
			word := lx.regular()
			if len(word) == 0 {
				lx.pos++
				continue
			}
			if isNumberStart(word[0]) {
				if n, err := strconv.ParseFloat(string(word), 64); err == nil {
					push(operand{kind: numberOperand, num: n})
					continue
				}
			}
			op := string(word)
			switch op {
			case "true", "false", "null":
				push(operand{kind: otherOperand, raw: word})
				continue
			}
			emit(op, stack)
			stack = stack[:0]
			arrays = nil
			if op == "ID" {
				lx.skipInlineImage()
			}
		}
	}
}

func (lx *contentLexer) skipComment() {
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
		lx.pos++
	}
}

func (lx *contentLexer) regular() []byte {
	start := lx.pos
	for lx.pos < len(lx.data) && !isWhite(lx.data[lx.pos]) && !isDelim(lx.data[lx.pos]) {
		lx.pos++
	}
	return lx.data[start:lx.pos]
}

// literal reads a parenthesized string, honoring nesting and escapes.
func (lx *contentLexer) literal() []byte {
	lx.pos++
	depth := 1
	var out []byte
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '\\':
			if lx.pos >= len(lx.data) {
				return out
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
					lx.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for k := 0; k < 2 && lx.pos < len(lx.data); k++ {
					d := lx.data[lx.pos]
					if d < '0' || d > '7' {
						break
					}
					v = v*8 + int(d-'0')
					lx.pos++
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a <...> string. An odd trailing digit is padded with zero.
func (lx *contentLexer) hex() []byte {
	lx.pos++
	var digits []byte
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		if _, ok := hexValue(c); ok {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi, _ := hexValue(digits[2*i])
		lo, _ := hexValue(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexValue(c byte) (byte, bool) {
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

// skipInlineImage jumps over binary image data up to the closing EI.
func (lx *contentLexer) skipInlineImage() {
	d := lx.data
	for i := lx.pos; i+2 <= len(d); i++ {
		if d[i] != 'E' || d[i+1] != 'I' {
			continue
		}
		if i > 0 && !isWhite(d[i-1]) {
			continue
		}
		if i+2 < len(d) && !isWhite(d[i+2]) {
			continue
		}
		lx.pos = i + 2
		return
	}
	lx.pos = len(d)
}

const (
	// kerningSpace is the TJ adjustment, in thousandths of an em, past which
	// a gap is read as a word break.
	kerningSpace = -200
	// sameLineTolerance is the baseline difference, in user space units,
	// under which text from separate text objects joins one line.
	sameLineTolerance = 1.0
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// translate returns [1 0 0 1 tx ty] x m.
func (m matrix) translate(tx, ty float64) matrix {
	m[4] += tx*m[0] + ty*m[2]
	m[5] += tx*m[1] + ty*m[3]
	return m
}

// textCollector turns text operators into lines of text. composite names
// the page fonts that use two-byte codes.
type textCollector struct {
	b         strings.Builder
	composite map[string]bool
	twoByte   bool
	tm, tlm   matrix
	leading   float64
	lastY     float64
	shown     bool
	inObject  bool
	moved     bool
	lineBreak bool
}

func (tc *textCollector) handle(op string, args []operand) {
	switch op {
	case "BT":
		tc.tm, tc.tlm = identity, identity
		tc.inObject = false
	case "Tf":
		if len(args) >= 2 && args[0].kind == nameOperand {
			tc.twoByte = tc.composite[string(args[0].raw)]
		}
	case "TL":
		if len(args) > 0 && args[len(args)-1].kind == numberOperand {
			tc.leading = args[len(args)-1].num
		}
	case "Td", "TD":
		if tx, ty, ok := twoNumbers(args); ok {
			if op == "TD" {
				tc.leading = -ty
			}
			tc.moveLine(tx, ty)
			if tx != 0 {
				tc.moved = true
			}
		}
	case "Tm":
		if m, ok := sixNumbers(args); ok {
			tc.tm, tc.tlm = m, m
			tc.moved = true
		}
	case "T*":
		tc.nextLine()
	case "Tj":
		if len(args) > 0 {
			tc.show(args[len(args)-1])
		}
	case "'", "\"":
		tc.nextLine()
		if len(args) > 0 {
			tc.show(args[len(args)-1])
		}
	case "TJ":
		if len(args) == 0 || args[len(args)-1].kind != arrayOperand {
			return
		}
		for _, item := range args[len(args)-1].items {
			switch item.kind {
			case numberOperand:
				if item.num < kerningSpace && tc.shown {
					tc.space()
				}
			case literalOperand, hexOperand:
				tc.show(item)
			}
		}
	}
}

// moveLine applies a Td offset. A vertical move after text has been shown
// in the same text object always starts a new line.
func (tc *textCollector) moveLine(tx, ty float64) {
	tc.tlm = tc.tlm.translate(tx, ty)
	tc.tm = tc.tlm
	if ty != 0 && tc.inObject {
		tc.lineBreak = true
	}
}

func (tc *textCollector) nextLine() {
	tc.tlm = tc.tlm.translate(0, -tc.leading)
	tc.tm = tc.tlm
	tc.lineBreak = true
}

func twoNumbers(args []operand) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	a, b := args[len(args)-2], args[len(args)-1]
	if a.kind != numberOperand || b.kind != numberOperand {
		return 0, 0, false
	}
	return a.num, b.num, true
}

func sixNumbers(args []operand) (matrix, bool) {
	var m matrix
	if len(args) < 6 {
		return m, false
	}
	for i, a := range args[len(args)-6:] {
		if a.kind != numberOperand {
			return m, false
		}
		m[i] = a.num
	}
	return m, true
}

func (tc *textCollector) show(o operand) {
	text := decodeString(o, tc.twoByte)
	if text == "" {
		return
	}
	y := tc.tm[5]
	switch {
	case !tc.shown:
	case tc.lineBreak || math.Abs(y-tc.lastY) > sameLineTolerance:
		tc.b.WriteByte('\n')
	case tc.moved:
		tc.space()
	}
	tc.b.WriteString(text)
	tc.shown = true
	tc.inObject = true
	tc.lastY = y
	tc.moved = false
	tc.lineBreak = false
}

func (tc *textCollector) space() {
	s := tc.b.String()
	if s == "" || strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n") {
		return
	}
	tc.b.WriteByte(' ')
}

func (tc *textCollector) text() string { return tc.b.String() }

// decodeString turns a string operand into text. Strings shown with a
// composite font are rendered as "(cid:n)" markers, two bytes per code.
func decodeString(o operand, twoByte bool) string {
	if twoByte {
		var b strings.Builder
		for i := 0; i+1 < len(o.raw); i += 2 {
			fmt.Fprintf(&b, "(cid:%d)", int(o.raw[i])<<8|int(o.raw[i+1]))
		}
		return b.String()
	}
	s, err := charmap.Windows1252.NewDecoder().String(string(o.raw))
	if err != nil {
		s = string(o.raw)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
