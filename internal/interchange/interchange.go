package interchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/bridge"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
	"github.com/roach88/sofer/internal/sofer"
	"github.com/roach88/sofer/internal/tree"
)

// Format names.
const (
	Sofer = "sofer"
	Lua   = "lua"
	JSON  = "json"
	CUE   = "cue"
	OPML  = "opml"
)

// ErrUnknownFormat is returned for format names with no importer or
// exporter.
var ErrUnknownFormat = errors.New("unknown format")

type importFunc func(c *Codec, ctx context.Context, src []byte) (*node.Tree, error)

type exportFunc func(c *Codec, w io.Writer, t *node.Tree, mode node.TextMode) error

var importers = map[string]importFunc{
	Sofer: (*Codec).importSofer,
	Lua:   (*Codec).importLua,
	JSON:  (*Codec).importCUE,
	CUE:   (*Codec).importCUE,
	OPML:  (*Codec).importOPML,
}

// ErrRepeatedAttribute is returned when exporting JSON for a node that
// carries two attributes with the same name.
var ErrRepeatedAttribute = errors.New("attribute name repeated on one node")

var exporters = map[string]exportFunc{
	Sofer: (*Codec).exportSofer,
	Lua:   (*Codec).exportLua,
	JSON:  (*Codec).exportJSON,
}

// ImportFormats lists the importable format names in sorted order.
func ImportFormats() []string {
	return sortedKeys(importers)
}

// ExportFormats lists the exportable format names in sorted order.
func ExportFormats() []string {
	return sortedKeys(exporters)
}

// ValidateImport reports whether name is an importable format.
func ValidateImport(name string) error {
	if _, ok := importers[name]; !ok {
		return fmt.Errorf("%w %q for import: must be one of %v", ErrUnknownFormat, name, ImportFormats())
	}
	return nil
}

// ValidateExport reports whether name is an exportable format.
func ValidateExport(name string) error {
	if _, ok := exporters[name]; !ok {
		return fmt.Errorf("%w %q for export: must be one of %v", ErrUnknownFormat, name, ExportFormats())
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger passed on to the sofer parser.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// WithScripts sets the factory used to run Lua imports. The default is a
// Lua factory with the default libraries.
func WithScripts(f script.Factory) Option {
	return func(c *Codec) { c.scripts = f }
}

// WithIDs sets the identifier source for formats that carry no identifiers.
func WithIDs(ids tree.IDSource) Option {
	return func(c *Codec) { c.ids = ids }
}

// Codec imports and exports documents.
type Codec struct {
	logger  *slog.Logger
	scripts script.Factory
	ids     tree.IDSource
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		logger: slog.Default(),
		ids:    tree.TimeOrderedIDs{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Import reads a whole document in the named format.
func (c *Codec) Import(ctx context.Context, format string, r io.Reader) (*node.Tree, error) {
	imp, ok := importers[format]
	if !ok {
		return nil, ValidateImport(format)
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", format, err)
	}
	t, err := imp(c, ctx, src)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", format, err)
	}
	return t, nil
}

// Export writes t in the named format.
func (c *Codec) Export(w io.Writer, format string, t *node.Tree, mode node.TextMode) error {
	exp, ok := exporters[format]
	if !ok {
		return ValidateExport(format)
	}
	if err := exp(c, w, t, mode); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

func (c *Codec) importSofer(_ context.Context, src []byte) (*node.Tree, error) {
	return sofer.Parse(string(src), sofer.WithLogger(c.logger))
}

func (c *Codec) exportSofer(w io.Writer, t *node.Tree, mode node.TextMode) error {
	return sofer.Write(w, t, mode)
}

func (c *Codec) importLua(ctx context.Context, src []byte) (*node.Tree, error) {
	factory := c.scripts
	if factory == nil {
		f, err := script.NewLuaFactory(script.LuaOptions{})
		if err != nil {
			return nil, err
		}
		factory = f
	}

	sc, err := factory.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create script context: %w", err)
	}
	defer sc.Close()

	v, err := sc.Eval(ctx, string(src))
	if err != nil {
		return nil, err
	}
	t, err := bridge.ValueToTree(v)
	if err != nil {
		return nil, err
	}
	return c.asDocument(t), nil
}

func (c *Codec) exportLua(w io.Writer, t *node.Tree, _ node.TextMode) error {
	return bridge.WriteLua(w, t)
}

// exportJSON writes the document projection as indented JSON. Attributes
// become object members, so a node repeating an attribute name has no JSON
// form that imports back; such documents fail with ErrRepeatedAttribute
// before anything is written.
func (c *Codec) exportJSON(w io.Writer, t *node.Tree, _ node.TextMode) error {
	for _, e := range t.Traverse() {
		seen := make(map[string]bool, len(e.Node.Value.Attributes))
		for _, a := range e.Node.Value.Attributes {
			if seen[a.Name] {
				return fmt.Errorf("%w: %q on node %s", ErrRepeatedAttribute, a.Name, e.Node.ID)
			}
			seen[a.Name] = true
		}
	}

	data, err := script.MarshalValue(bridge.DocumentValue(t))
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}

// asDocument returns t when it is a document root, otherwise a new document
// holding t as its only child.
func (c *Codec) asDocument(t *node.Tree) *node.Tree {
	if t.ID == uuid.Nil {
		return t
	}
	doc := node.NewDocument()
	doc.AppendChild(t)
	return doc
}
