package bridge

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
	"github.com/roach88/sofer/internal/tree"
)

// ConversionError reports a script value that does not have the shape of a
// document tree.
type ConversionError struct {
	Path     string // location of the mismatch, e.g. "$.children[1].value.raw"
	Expected string
	Got      string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

func mismatch(path, expected string, got script.Value) *ConversionError {
	return &ConversionError{Path: path, Expected: expected, Got: script.TypeName(got)}
}

// ValueToTree rebuilds a tree from a script value shaped like TreeToValue or
// DocumentValue output. Identifiers may be canonical or compact. Children are
// attached in list order.
func ValueToTree(v script.Value) (*node.Tree, error) {
	return valueToTree(v, "$")
}

func valueToTree(v script.Value, path string) (*node.Tree, error) {
	tbl, ok := v.(script.Table)
	if !ok {
		return nil, mismatch(path, "table", v)
	}

	rawValue, ok := tbl.Get("value")
	if !ok {
		return nil, &ConversionError{Path: path + ".value", Expected: "table", Got: "nothing"}
	}
	n, err := valueToNode(rawValue, path+".value")
	if err != nil {
		return nil, err
	}

	rawID, ok := tbl.Get("uuid")
	if !ok {
		return nil, &ConversionError{Path: path + ".uuid", Expected: "identifier string", Got: "nothing"}
	}
	idText, ok := rawID.(script.String)
	if !ok {
		return nil, mismatch(path+".uuid", "identifier string", rawID)
	}
	id, err := uuid.Parse(string(idText))
	if err != nil {
		return nil, &ConversionError{Path: path + ".uuid", Expected: "identifier", Got: fmt.Sprintf("%q", string(idText))}
	}

	rawChildren, ok := tbl.Get("children")
	if !ok {
		return nil, &ConversionError{Path: path + ".children", Expected: "list", Got: "nothing"}
	}
	children, err := asList(rawChildren, path+".children")
	if err != nil {
		return nil, err
	}

	t := tree.NewWithID(id, n)
	for i, child := range children {
		c, err := valueToTree(child, fmt.Sprintf("%s.children[%d]", path, i+1))
		if err != nil {
			return nil, err
		}
		t.Insert(t.ID, c)
	}
	return t, nil
}

func valueToNode(v script.Value, path string) (node.Node, error) {
	tbl, ok := v.(script.Table)
	if !ok {
		return node.Node{}, mismatch(path, "table", v)
	}

	rawText, ok := tbl.Get("raw")
	if !ok {
		return node.Node{}, &ConversionError{Path: path + ".raw", Expected: "string", Got: "nothing"}
	}
	raw, ok := rawText.(script.String)
	if !ok {
		return node.Node{}, mismatch(path+".raw", "string", rawText)
	}
	n := node.New(string(raw))

	if ev, ok := tbl.Get("evaled"); ok {
		switch e := ev.(type) {
		case script.Nil:
		case script.String:
			n.SetEvaled(string(e))
		default:
			return node.Node{}, mismatch(path+".evaled", "string or nil", ev)
		}
	}

	if av, ok := tbl.Get("attributes"); ok {
		attrs, err := valueToAttributes(av, path+".attributes")
		if err != nil {
			return node.Node{}, err
		}
		n.Attributes = attrs
	}
	return n, nil
}

func valueToAttributes(v script.Value, path string) ([]node.Attribute, error) {
	var fields script.Table
	switch val := v.(type) {
	case script.Nil:
		return nil, nil
	case script.Table:
		fields = val
	case script.List:
		// An empty Lua table reads back as whichever kind is empty.
		if len(val) != 0 {
			return nil, mismatch(path, "table of attributes", v)
		}
		return nil, nil
	default:
		return nil, mismatch(path, "table of attributes", v)
	}

	attrs := make([]node.Attribute, 0, len(fields))
	for _, f := range fields {
		fieldPath := path + "." + f.Key
		if err := node.ValidateName(f.Key); err != nil {
			return nil, &ConversionError{Path: fieldPath, Expected: "attribute name", Got: strconv.Quote(f.Key)}
		}
		switch val := f.Value.(type) {
		case script.String:
			attrs = append(attrs, node.NewText(f.Key, string(val)))
		case script.Number:
			if n := float64(val); math.IsNaN(n) || math.Abs(n) > math.MaxFloat32 {
				return nil, &ConversionError{Path: fieldPath, Expected: "finite 32-bit number", Got: script.FormatNumber(n)}
			}
			attrs = append(attrs, node.NewNumber(f.Key, float32(val)))
		case script.Bool:
			attrs = append(attrs, node.NewBoolean(f.Key, bool(val)))
		default:
			return nil, mismatch(fieldPath, "string, number or boolean", f.Value)
		}
	}
	return attrs, nil
}

func asList(v script.Value, path string) (script.List, error) {
	switch val := v.(type) {
	case script.List:
		return val, nil
	case script.Table:
		if len(val) == 0 {
			return nil, nil
		}
	}
	return nil, mismatch(path, "list", v)
}
