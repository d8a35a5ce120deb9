package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders v as display text.
//
// Strings are returned as-is, numbers the way Lua's tostring prints them,
// lists and tables as compact Lua literals.
func Format(v Value) string {
	var b strings.Builder
	format(&b, v, false)
	return b.String()
}

// FormatNumber renders n the way Lua's tostring does: integral values without
// a fractional part, everything else in shortest form.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1<<63 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Quote renders s as a double-quoted Lua string literal. Control characters
// use decimal escapes, which every Lua 5.x reader accepts.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// Three digits so a following digit cannot extend the escape.
				fmt.Fprintf(&b, "\\%03d", c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func format(b *strings.Builder, v Value, nested bool) {
	switch val := v.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case String:
		if nested {
			b.WriteString(Quote(string(val)))
		} else {
			b.WriteString(string(val))
		}
	case Number:
		b.WriteString(FormatNumber(float64(val)))
	case Bool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case List:
		b.WriteByte('{')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, elem, true)
		}
		b.WriteByte('}')
	case Table:
		b.WriteByte('{')
		for i, f := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Key)
			b.WriteString(" = ")
			format(b, f.Value, true)
		}
		b.WriteByte('}')
	case *Function:
		b.WriteString("function")
	}
}
