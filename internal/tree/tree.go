package tree

import "github.com/google/uuid"

// Tree is one position of a rose tree holding a payload of type T.
type Tree[T any] struct {
	Value       T
	ID          uuid.UUID
	FirstChild  *Tree[T]
	NextSibling *Tree[T]
}

// Entry is one step of a pre-order traversal.
type Entry[T any] struct {
	Depth int
	Node  *Tree[T]
}

// NewRoot creates a standalone root carrying the nil identifier.
func NewRoot[T any](value T) *Tree[T] {
	return &Tree[T]{Value: value, ID: uuid.Nil}
}

// NewDetached creates an unlinked node with a fresh time-ordered identifier.
// It is the unit of insertion.
func NewDetached[T any](value T) *Tree[T] {
	return NewDetachedFrom(TimeOrderedIDs{}, value)
}

// NewDetachedFrom creates an unlinked node with an identifier drawn from ids.
func NewDetachedFrom[T any](ids IDSource, value T) *Tree[T] {
	return &Tree[T]{Value: value, ID: ids.NewID()}
}

// NewWithID creates an unlinked node carrying an already known identifier.
// Used when decoding persisted documents.
func NewWithID[T any](id uuid.UUID, value T) *Tree[T] {
	return &Tree[T]{Value: value, ID: id}
}

// Insert attaches node as the last child of the node whose identifier is
// parentID. The search is pre-order: the receiver, then its first-child
// subtree, then its following siblings.
//
// Returns false and leaves the tree untouched when no node carries parentID.
// A miss is not an error; callers that require attachment must check.
func (t *Tree[T]) Insert(parentID uuid.UUID, node *Tree[T]) bool {
	parent := t.Find(parentID)
	if parent == nil {
		return false
	}
	parent.AppendChild(node)
	return true
}

// AppendChild links node at the end of the receiver's child list.
func (t *Tree[T]) AppendChild(node *Tree[T]) {
	if t.FirstChild == nil {
		t.FirstChild = node
		return
	}
	last := t.FirstChild
	for last.NextSibling != nil {
		last = last.NextSibling
	}
	last.NextSibling = node
}

// Find returns the first node in pre-order whose identifier equals id, or nil.
func (t *Tree[T]) Find(id uuid.UUID) *Tree[T] {
	var found *Tree[T]
	t.walk(func(_ int, n *Tree[T]) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Traverse returns every reachable node in pre-order with its depth.
//
// Depth is 0 for the receiver, grows by one per first-child descent and is
// unchanged across next-sibling steps. The receiver's own siblings are part
// of the walk. Entries point at live nodes; each call builds a new slice.
func (t *Tree[T]) Traverse() []Entry[T] {
	var entries []Entry[T]
	t.walk(func(depth int, n *Tree[T]) bool {
		entries = append(entries, Entry[T]{Depth: depth, Node: n})
		return true
	})
	return entries
}

// Len counts the reachable nodes, the receiver and its siblings included.
func (t *Tree[T]) Len() int {
	count := 0
	t.walk(func(int, *Tree[T]) bool {
		count++
		return true
	})
	return count
}

// Children returns the full child list in order.
func (t *Tree[T]) Children() []*Tree[T] {
	if t.FirstChild == nil {
		return nil
	}
	return append([]*Tree[T]{t.FirstChild}, t.FirstChild.Siblings()...)
}

// Siblings returns the nodes after the receiver on its level, in order.
func (t *Tree[T]) Siblings() []*Tree[T] {
	var siblings []*Tree[T]
	for s := t.NextSibling; s != nil; s = s.NextSibling {
		siblings = append(siblings, s)
	}
	return siblings
}

// Clone copies the receiver, its descendants and its following siblings.
// Payloads are copied by assignment; copy reference fields in copyValue when
// the clone must not share them. copyValue may be nil.
func (t *Tree[T]) Clone(copyValue func(T) T) *Tree[T] {
	if copyValue == nil {
		copyValue = func(v T) T { return v }
	}
	var clone func(src *Tree[T]) *Tree[T]
	clone = func(src *Tree[T]) *Tree[T] {
		head := &Tree[T]{Value: copyValue(src.Value), ID: src.ID}
		dst := head
		for {
			if src.FirstChild != nil {
				dst.FirstChild = clone(src.FirstChild)
			}
			if src.NextSibling == nil {
				return head
			}
			src = src.NextSibling
			dst.NextSibling = &Tree[T]{Value: copyValue(src.Value), ID: src.ID}
			dst = dst.NextSibling
		}
	}
	return clone(t)
}

type frame[T any] struct {
	node  *Tree[T]
	depth int
}

// walk visits nodes in pre-order until fn returns false.
func (t *Tree[T]) walk(fn func(depth int, n *Tree[T]) bool) {
	stack := []frame[T]{{node: t}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.depth, f.node) {
			return
		}
		// Sibling pushed first so the first-child subtree is visited before it.
		if f.node.NextSibling != nil {
			stack = append(stack, frame[T]{node: f.node.NextSibling, depth: f.depth})
		}
		if f.node.FirstChild != nil {
			stack = append(stack, frame[T]{node: f.node.FirstChild, depth: f.depth + 1})
		}
	}
}
