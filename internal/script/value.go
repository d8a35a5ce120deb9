package script

import (
	"slices"
	"strings"
)

// Value is a sealed interface representing script values.
// Only Nil, String, Number, Bool, List, Table, and *Function implement it.
type Value interface {
	scriptValue() // Sealed - only these types implement it
}

// Nil is the absence of a value.
type Nil struct{}

func (Nil) scriptValue() {}

// String is a text value.
type String string

func (String) scriptValue() {}

// Number is a numeric value. Scripts have a single number type.
type Number float64

func (Number) scriptValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) scriptValue() {}

// List is a sequence of values.
type List []Value

func (List) scriptValue() {}

// Field is one named entry of a Table.
type Field struct {
	Key   string
	Value Value
}

// Table is an associative value with named fields. Field order is kept so
// conversions and renderings are deterministic.
type Table []Field

func (Table) scriptValue() {}

// F is a shorthand for Field for ergonomic construction.
// Example: Table{F("raw", String("hello"))}
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// Get returns the value of the first field called key.
func (t Table) Get(key string) (Value, bool) {
	for _, f := range t {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// SortByKey orders fields by name. Used for values coming from scripts,
// whose tables have no inherent order.
func (t Table) SortByKey() {
	slices.SortStableFunc(t, func(a, b Field) int {
		return strings.Compare(a.Key, b.Key)
	})
}

// Function is a callable script value. It is only valid while the Context
// that produced it is open.
type Function struct {
	name string
	call func(arg Value) (Value, error)
}

func (*Function) scriptValue() {}

// NewFunction wraps a Go function as a script callable.
func NewFunction(name string, call func(arg Value) (Value, error)) *Function {
	return &Function{name: name, call: call}
}

// Name returns a description of the function for diagnostics.
func (f *Function) Name() string {
	return f.name
}

// Call invokes the function with one argument and returns its first result.
func (f *Function) Call(arg Value) (Value, error) {
	return f.call(arg)
}

// TypeName names the kind of v for diagnostics.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case List:
		return "list"
	case Table:
		return "table"
	case *Function:
		return "function"
	default:
		return "unknown"
	}
}
