// Package node defines the payload stored at every position of a sofer
// document: authored text, the cached result of the last evaluation, and an
// ordered list of typed attributes.
package node

import (
	"fmt"
	"slices"

	"github.com/roach88/sofer/internal/tree"
)

// Node is the payload of a document tree.
type Node struct {
	// Raw is the authored text. Anything after the first '@' is a formula.
	Raw string

	// Evaled holds the text produced by the last evaluation pass.
	// Nil until a pass has run; replaced, never merged, on every pass.
	Evaled *string

	// Attributes in declaration order.
	Attributes []Attribute
}

// Tree is a document tree.
type Tree = tree.Tree[Node]

// New creates a node that has never been evaluated.
func New(raw string, attrs ...Attribute) Node {
	return Node{Raw: raw, Attributes: attrs}
}

// NewDocument creates an empty document: a root with the nil identifier and
// empty text.
func NewDocument() *Tree {
	return tree.NewRoot(Node{})
}

// SetEvaled stores the result of an evaluation pass.
func (n *Node) SetEvaled(text string) {
	n.Evaled = &text
}

// Display returns the evaluated text when present, the raw text otherwise.
func (n Node) Display() string {
	if n.Evaled != nil {
		return *n.Evaled
	}
	return n.Raw
}

// Text selects raw or display text.
func (n Node) Text(mode TextMode) string {
	if mode == EvaledText {
		return n.Display()
	}
	return n.Raw
}

// Attribute returns the first attribute called name.
func (n Node) Attribute(name string) (Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Clone returns a copy sharing no memory with n.
func (n Node) Clone() Node {
	c := Node{Raw: n.Raw, Attributes: slices.Clone(n.Attributes)}
	if n.Evaled != nil {
		c.SetEvaled(*n.Evaled)
	}
	return c
}

// CloneTree deep-copies a document, payloads included.
func CloneTree(t *Tree) *Tree {
	return t.Clone(Node.Clone)
}

// TextMode selects which text of a node is exported.
type TextMode int

const (
	// RawText exports the authored text.
	RawText TextMode = iota
	// EvaledText exports the evaluated text, falling back to raw text.
	EvaledText
)

func (m TextMode) String() string {
	if m == EvaledText {
		return "evaled"
	}
	return "raw"
}

// ParseTextMode accepts "raw" or "evaled".
func ParseTextMode(s string) (TextMode, error) {
	switch s {
	case "raw":
		return RawText, nil
	case "evaled":
		return EvaledText, nil
	default:
		return RawText, fmt.Errorf("invalid text mode %q: must be raw or evaled", s)
	}
}
