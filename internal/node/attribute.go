package node

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind names the three attribute value types.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a sealed interface for attribute values.
// Only Text, Number, and Boolean implement it.
type Value interface {
	attributeValue()
	Kind() Kind
}

// Text is a string attribute value.
type Text string

func (Text) attributeValue() {}

// Kind returns KindText.
func (Text) Kind() Kind { return KindText }

// Number is a single-precision attribute value. Not suitable for exact
// decimal amounts.
type Number float32

func (Number) attributeValue() {}

// Kind returns KindNumber.
func (Number) Kind() Kind { return KindNumber }

// Boolean is a true/false attribute value.
type Boolean bool

func (Boolean) attributeValue() {}

// Kind returns KindBoolean.
func (Boolean) Kind() Kind { return KindBoolean }

// Attribute is a named, typed value attached to a Node.
// Names need not be unique within a node; declaration order is kept.
type Attribute struct {
	Name  string
	Value Value
}

// NewText creates a text attribute.
func NewText(name, value string) Attribute {
	return Attribute{Name: name, Value: Text(value)}
}

// NewNumber creates a number attribute.
func NewNumber(name string, value float32) Attribute {
	return Attribute{Name: name, Value: Number(value)}
}

// NewBoolean creates a boolean attribute.
func NewBoolean(name string, value bool) Attribute {
	return Attribute{Name: name, Value: Boolean(value)}
}

// String renders the attribute in sofer form: name=value;
func (a Attribute) String() string {
	var b strings.Builder
	writeAttribute(&b, a)
	return b.String()
}

// FormatNumber renders a number the way sofer persists it: the shortest
// decimal that reads back to the same float32, never in exponent form.
func FormatNumber(n float32) string {
	return strconv.FormatFloat(float64(n), 'f', -1, 32)
}

// ValidateName checks that name can be written to a sofer attribute field.
// Names must be non-empty and must not contain a space, '=', ';', '"' or a
// line break: EncodeAttributes does not escape them.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("empty attribute name")
	}
	if strings.ContainsAny(name, " =;\"\r\n") {
		return fmt.Errorf("invalid attribute name %q", name)
	}
	return nil
}

// EncodeAttributes renders attributes as a sofer attribute field:
// name=value; entries with no separators between them.
//
// Text values are written between double quotes without escaping, so a
// text value containing '"' does not read back intact. Names are written as
// they are; a name that fails ValidateName produces a field ParseAttributes
// rejects.
func EncodeAttributes(attrs []Attribute) string {
	var b strings.Builder
	for _, a := range attrs {
		writeAttribute(&b, a)
	}
	return b.String()
}

func writeAttribute(b *strings.Builder, a Attribute) {
	b.WriteString(a.Name)
	b.WriteByte('=')
	switch v := a.Value.(type) {
	case Text:
		b.WriteByte('"')
		b.WriteString(string(v))
		b.WriteByte('"')
	case Number:
		b.WriteString(FormatNumber(float32(v)))
	case Boolean:
		if v {
			b.WriteByte('T')
		} else {
			b.WriteByte('F')
		}
	}
	b.WriteByte(';')
}

// AttributeError describes malformed attribute text.
type AttributeError struct {
	Input   string // the complete attribute field
	Offset  int    // byte offset of the offending entry
	Message string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attributes %q at offset %d: %s", e.Input, e.Offset, e.Message)
}

// ParseAttributes decodes a sofer attribute field.
//
// Grammar: ( name '=' value ';' )* where value is "text", T, F or a finite
// decimal number. Any '"' ends a text value. Every malformed entry is an error.
func ParseAttributes(s string) ([]Attribute, error) {
	var attrs []Attribute
	pos := 0
	for pos < len(s) {
		start := pos
		fail := func(msg string, args ...any) ([]Attribute, error) {
			return nil, &AttributeError{Input: s, Offset: start, Message: fmt.Sprintf(msg, args...)}
		}

		eq := strings.IndexByte(s[pos:], '=')
		if eq < 0 {
			return fail("missing '=' in %q", s[pos:])
		}
		name := s[pos : pos+eq]
		if err := ValidateName(name); err != nil {
			return fail("%v", err)
		}
		pos += eq + 1

		if pos < len(s) && s[pos] == '"' {
			end := strings.IndexByte(s[pos+1:], '"')
			if end < 0 {
				return fail("unterminated text value for %q", name)
			}
			value := s[pos+1 : pos+1+end]
			pos += end + 2
			if pos >= len(s) || s[pos] != ';' {
				return fail("expected ';' after text value for %q", name)
			}
			pos++
			attrs = append(attrs, NewText(name, value))
			continue
		}

		semi := strings.IndexByte(s[pos:], ';')
		if semi < 0 {
			return fail("missing ';' after %q", name)
		}
		token := s[pos : pos+semi]
		pos += semi + 1

		switch token {
		case "":
			return fail("empty value for %q", name)
		case "T":
			attrs = append(attrs, NewBoolean(name, true))
		case "F":
			attrs = append(attrs, NewBoolean(name, false))
		default:
			n, err := strconv.ParseFloat(token, 32)
			if err != nil {
				return fail("invalid number %q for %q", token, name)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return fail("number %q for %q is not finite", token, name)
			}
			attrs = append(attrs, NewNumber(name, float32(n)))
		}
	}
	return attrs, nil
}
