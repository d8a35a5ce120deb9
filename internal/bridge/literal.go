package bridge

import (
	"io"
	"math"
	"strings"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

// ExportLua renders t as a Lua table constructor. Evaluating the result in a
// Lua context and passing the value to ValueToTree reproduces t, except that
// attributes come back ordered by name and a repeated attribute name keeps
// only its last value.
func ExportLua(t *node.Tree) string {
	return literal(DocumentValue(t)) + "\n"
}

// WriteLua writes ExportLua output to w.
func WriteLua(w io.Writer, t *node.Tree) error {
	_, err := io.WriteString(w, ExportLua(t))
	return err
}

// literal renders v as Lua source. Functions have no literal form and render
// as nil.
func literal(v script.Value) string {
	var b strings.Builder
	writeLiteral(&b, v, 0)
	return b.String()
}

func writeLiteral(b *strings.Builder, v script.Value, depth int) {
	switch val := v.(type) {
	case nil, script.Nil, *script.Function:
		b.WriteString("nil")
	case script.String:
		b.WriteString(script.Quote(string(val)))
	case script.Number:
		writeNumber(b, float64(val))
	case script.Bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case script.List:
		writeConstructor(b, len(val), depth, isFlat([]script.Value{val}), func(i int) {
			writeLiteral(b, val[i], depth+1)
		})
	case script.Table:
		writeConstructor(b, len(val), depth, isFlat(tableValues(val)), func(i int) {
			writeKey(b, val[i].Key)
			b.WriteString(" = ")
			writeLiteral(b, val[i].Value, depth+1)
		})
	}
}

// writeConstructor writes n entries between braces, on one line when flat
// and one entry per line otherwise.
func writeConstructor(b *strings.Builder, n, depth int, flat bool, entry func(i int)) {
	if n == 0 {
		b.WriteString("{}")
		return
	}
	if flat {
		b.WriteByte('{')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			entry(i)
		}
		b.WriteByte('}')
		return
	}

	indent := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i := 0; i < n; i++ {
		b.WriteString(indent)
		entry(i)
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('}')
}

// isFlat reports whether values fit on one line: no list among them holds
// a list or table, at any depth.
func isFlat(values []script.Value) bool {
	for _, v := range values {
		switch val := v.(type) {
		case script.List:
			for _, e := range val {
				switch e.(type) {
				case script.List, script.Table:
					return false
				}
			}
		case script.Table:
			if !isFlat(tableValues(val)) {
				return false
			}
		}
	}
	return true
}

func tableValues(t script.Table) []script.Value {
	values := make([]script.Value, len(t))
	for i, f := range t {
		values[i] = f.Value
	}
	return values
}

func writeNumber(b *strings.Builder, n float64) {
	switch {
	case math.IsNaN(n):
		b.WriteString("(0/0)")
	case math.IsInf(n, 1):
		b.WriteString("(1/0)")
	case math.IsInf(n, -1):
		b.WriteString("(-1/0)")
	default:
		b.WriteString(script.FormatNumber(n))
	}
}

func writeKey(b *strings.Builder, key string) {
	if isIdentifier(key) {
		b.WriteString(key)
		return
	}
	b.WriteByte('[')
	b.WriteString(script.Quote(key))
	b.WriteByte(']')
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

func isIdentifier(s string) bool {
	if s == "" || luaKeywords[s] {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
