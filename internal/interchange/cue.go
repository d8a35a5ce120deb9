package interchange

import (
	"context"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/sofer/internal/bridge"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

// importCUE compiles src as CUE (JSON is accepted as a subset) and converts
// the resulting concrete value into a tree.
func (c *Codec) importCUE(_ context.Context, src []byte) (*node.Tree, error) {
	value := cuecontext.New().CompileBytes(src, cue.Filename("document"))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("document is not concrete: %w", err)
	}

	v, err := fromCUE(value)
	if err != nil {
		return nil, err
	}
	t, err := bridge.ValueToTree(v)
	if err != nil {
		return nil, err
	}
	return c.asDocument(t), nil
}

// fromCUE converts a concrete CUE value. Struct field order is kept.
func fromCUE(v cue.Value) (script.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return script.Nil{}, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return script.Bool(b), nil

	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Path(), err)
		}
		return script.Number(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return script.String(s), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, fmt.Errorf("iterating %s: %w", v.Path(), err)
		}
		list := script.List{}
		for iter.Next() {
			elem, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, fmt.Errorf("iterating %s: %w", v.Path(), err)
		}
		table := script.Table{}
		for iter.Next() {
			field, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			table = append(table, script.F(iter.Label(), field))
		}
		return table, nil

	default:
		return nil, fmt.Errorf("%s: unsupported CUE kind %s", v.Path(), v.Kind())
	}
}
