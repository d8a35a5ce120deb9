package sofer

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/sofer/internal/node"
)

// Record is the flat form of one node: the node itself plus its attachment
// point. It only exists while building or flattening a tree.
type Record struct {
	ID         uuid.UUID
	ParentID   uuid.UUID
	Attributes []node.Attribute
	Content    string
}

// String renders the record as a sofer line without the trailing newline.
func (r Record) String() string {
	return fmt.Sprintf("%s %s %s %s", r.ID, r.ParentID, node.EncodeAttributes(r.Attributes), r.Content)
}

// ParseError reports a malformed record. Parsing stops at the first one.
type ParseError struct {
	Line  int    // 1-based line number
	Field string // "id", "parent_id" or "attributes"
	Text  string // the offending fragment
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q: %v", e.Line, e.Field, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseRecords decodes every line of text into a Record.
//
// Trailing blank lines end the stream; a blank line followed by more
// records is malformed. A trailing carriage return on a line is ignored.
func ParseRecords(text string) ([]Record, error) {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	records := make([]Record, 0, len(lines))
	seen := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		rec, err := parseLine(i+1, strings.TrimSuffix(line, "\r"))
		if err != nil {
			return nil, err
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, &ParseError{
				Line:  i + 1,
				Field: "id",
				Text:  rec.ID.String(),
				Err:   fmt.Errorf("duplicate identifier, first declared on line %d", first),
			}
		}
		seen[rec.ID] = i + 1
		records = append(records, rec)
	}
	return records, nil
}

func parseLine(lineNo int, line string) (Record, error) {
	idText, rest, _ := strings.Cut(line, " ")
	parentText, rest, _ := strings.Cut(rest, " ")
	attrText, content := cutAttributes(rest)

	id, err := parseID(idText)
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "id", Text: idText, Err: err}
	}
	if id == uuid.Nil {
		return Record{}, &ParseError{Line: lineNo, Field: "id", Text: idText, Err: fmt.Errorf("nil identifier is reserved for the root")}
	}
	parent, err := parseID(parentText)
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "parent_id", Text: parentText, Err: err}
	}
	attrs, err := node.ParseAttributes(attrText)
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "attributes", Text: attrText, Err: err}
	}

	return Record{ID: id, ParentID: parent, Attributes: attrs, Content: content}, nil
}

// parseID accepts only the canonical 36-character hyphenated form.
func parseID(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.Nil, fmt.Errorf("expected 36-character hyphenated UUID, got %d characters", len(s))
	}
	return uuid.Parse(s)
}

// cutAttributes splits at the first space outside a quoted text value.
func cutAttributes(s string) (attrs, content string) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ' ':
			if !quoted {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func sortByID(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
