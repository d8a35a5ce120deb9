package bridge

import (
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

// CompactID renders id as 32 lowercase hex digits without hyphens.
func CompactID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// NodeToValue projects a node for use as a call argument. Only the raw text
// is exposed.
func NodeToValue(n node.Node) script.Value {
	return script.Table{script.F("raw", script.String(n.Raw))}
}

// TreeToValue projects t and its descendants. Siblings of t are not
// included.
func TreeToValue(t *node.Tree) script.Value {
	children := t.Children()
	list := make(script.List, len(children))
	for i, c := range children {
		list[i] = TreeToValue(c)
	}
	return script.Table{
		script.F("value", NodeToValue(t.Value)),
		script.F("uuid", script.String(CompactID(t.ID))),
		script.F("children", list),
	}
}

// DocumentValue projects t with everything needed to rebuild it: canonical
// identifiers, evaluated text (nil when never evaluated) and attributes.
func DocumentValue(t *node.Tree) script.Value {
	children := t.Children()
	list := make(script.List, len(children))
	for i, c := range children {
		list[i] = DocumentValue(c)
	}
	return script.Table{
		script.F("value", nodeDocumentValue(t.Value)),
		script.F("uuid", script.String(t.ID.String())),
		script.F("children", list),
	}
}

func nodeDocumentValue(n node.Node) script.Table {
	var evaled script.Value = script.Nil{}
	if n.Evaled != nil {
		evaled = script.String(*n.Evaled)
	}

	attrs := make(script.Table, 0, len(n.Attributes))
	for _, a := range n.Attributes {
		attrs = append(attrs, script.F(a.Name, attributeValue(a.Value)))
	}

	return script.Table{
		script.F("raw", script.String(n.Raw)),
		script.F("evaled", evaled),
		script.F("attributes", attrs),
	}
}

func attributeValue(v node.Value) script.Value {
	switch val := v.(type) {
	case node.Text:
		return script.String(val)
	case node.Number:
		// Widen through the shortest decimal form so 0.1 stays 0.1.
		f, err := strconv.ParseFloat(node.FormatNumber(float32(val)), 64)
		if err != nil {
			return script.Number(float32(val))
		}
		return script.Number(f)
	case node.Boolean:
		return script.Bool(val)
	default:
		return script.Nil{}
	}
}
