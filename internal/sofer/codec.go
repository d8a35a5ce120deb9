package sofer

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/tree"
)

// Option configures parsing.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report records left out of the tree.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse decodes a sofer document into a tree rooted at the nil identifier.
func Parse(text string, opts ...Option) (*node.Tree, error) {
	records, err := ParseRecords(text)
	if err != nil {
		return nil, err
	}
	return Assemble(records, opts...), nil
}

// Read decodes a sofer document from r.
func Read(r io.Reader, opts ...Option) (*node.Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sofer document: %w", err)
	}
	return Parse(string(data), opts...)
}

// Assemble builds a tree from records in any order.
//
// Records whose parent is not the identifier of any record (the nil
// identifier included) become top-level nodes. Every other record is
// attached under the record carrying its parent identifier, repeatedly,
// until nothing more can be placed. Siblings are ordered by identifier.
// Records caught in a parent cycle are never reached; they are dropped and
// reported at debug level.
func Assemble(records []Record, opts ...Option) *node.Tree {
	o := buildOptions(opts)

	ids := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		ids[rec.ID] = struct{}{}
	}

	byParent := make(map[uuid.UUID][]*node.Tree)
	detached := 0
	for _, rec := range records {
		n := tree.NewWithID(rec.ID, node.New(rec.Content, rec.Attributes...))
		parent := rec.ParentID
		if _, ok := ids[parent]; !ok {
			if parent != uuid.Nil {
				detached++
			}
			parent = uuid.Nil
		}
		byParent[parent] = append(byParent[parent], n)
	}
	if detached > 0 {
		o.logger.Debug("records with an absent parent placed at top level", "count", detached)
	}

	root := node.NewDocument()
	placed := 0
	queue := []*node.Tree{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children := byParent[parent.ID]
		delete(byParent, parent.ID)
		if len(children) == 0 {
			continue
		}
		slices.SortFunc(children, func(a, b *node.Tree) int {
			return bytes.Compare(a.ID[:], b.ID[:])
		})
		for i, c := range children {
			if i+1 < len(children) {
				c.NextSibling = children[i+1]
			}
		}
		parent.AppendChild(children[0])
		placed += len(children)
		queue = append(queue, children...)
	}

	if dropped := len(records) - placed; dropped > 0 {
		o.logger.Debug("records in a parent cycle left out of tree",
			"dropped", dropped,
			"placed", placed)
	}
	return root
}

// Flatten lists every node of t as a record, sorted by identifier.
//
// Each record carries the node's structural parent; the receiver and its
// siblings get the nil parent. Content is the text selected by mode. The
// record for the nil-identifier root is included; Serialize skips it.
func Flatten(t *node.Tree, mode node.TextMode) []Record {
	type item struct {
		n      *node.Tree
		parent uuid.UUID
	}

	var records []Record
	stack := []item{{n: t, parent: uuid.Nil}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		records = append(records, Record{
			ID:         it.n.ID,
			ParentID:   it.parent,
			Attributes: it.n.Value.Attributes,
			Content:    it.n.Value.Text(mode),
		})
		if it.n.NextSibling != nil {
			stack = append(stack, item{n: it.n.NextSibling, parent: it.parent})
		}
		if it.n.FirstChild != nil {
			stack = append(stack, item{n: it.n.FirstChild, parent: it.n.ID})
		}
	}

	sortByID(records)
	return records
}

// Serialize renders t as a sofer document.
func Serialize(t *node.Tree, mode node.TextMode) string {
	var b strings.Builder
	for _, rec := range Flatten(t, mode) {
		if rec.ID == uuid.Nil {
			continue
		}
		b.WriteString(rec.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Write renders t as a sofer document to w.
func Write(w io.Writer, t *node.Tree, mode node.TextMode) error {
	if _, err := io.WriteString(w, Serialize(t, mode)); err != nil {
		return fmt.Errorf("write sofer document: %w", err)
	}
	return nil
}
