package interchange

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/tree"
)

// importOPML streams outline elements into a tree. The "text" attribute of
// each outline becomes the raw text; every other attribute is kept as a
// text attribute. Elements other than outline are ignored, along with
// anything nested inside them.
func (c *Codec) importOPML(ctx context.Context, src []byte) (*node.Tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.CharsetReader = charsetReader

	doc := node.NewDocument()
	// One entry per open element: the node outlines inside it attach to,
	// or nil where outlines are ignored. <body> opens the document root.
	stack := []*node.Tree{nil}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading OPML: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			top := stack[len(stack)-1]
			switch {
			case el.Name.Local == "body":
				stack = append(stack, doc)
			case el.Name.Local == "outline" && top != nil:
				n := tree.NewDetachedFrom(c.ids, outlineNode(el))
				top.AppendChild(n)
				stack = append(stack, n)
			default:
				stack = append(stack, nil)
			}
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return doc, nil
}

func outlineNode(el xml.StartElement) node.Node {
	n := node.Node{}
	for _, attr := range el.Attr {
		if attr.Name.Space != "" {
			continue
		}
		if attr.Name.Local == "text" {
			n.Raw = attr.Value
			continue
		}
		n.Attributes = append(n.Attributes, node.NewText(attr.Name.Local, attr.Value))
	}
	return n
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
