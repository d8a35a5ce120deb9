package bridge

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
	"github.com/roach88/sofer/internal/testutil"
	"github.com/roach88/sofer/internal/tree"
)

// groceries builds:
//
//	root
//	├── 1 Groceries kind="section"
//	│   └── 2 Apples @ 1+1 qty=2 done=F (evaled "Apples 2")
//	└── 3 Total
func groceries() *node.Tree {
	doc := node.NewDocument()
	doc.Insert(doc.ID, tree.NewWithID(testutil.ID(1), node.New("Groceries", node.NewText("kind", "section"))))

	apples := node.New("Apples @ 1+1", node.NewNumber("qty", 2), node.NewBoolean("done", false))
	apples.SetEvaled("Apples 2")
	doc.Insert(testutil.ID(1), tree.NewWithID(testutil.ID(2), apples))

	doc.Insert(doc.ID, tree.NewWithID(testutil.ID(3), node.New("Total")))
	return doc
}

func TestTreeToValue(t *testing.T) {
	doc := groceries()

	got := TreeToValue(doc.Find(testutil.ID(1)))

	want := script.Table{
		script.F("value", script.Table{script.F("raw", script.String("Groceries"))}),
		script.F("uuid", script.String("00000000000000000000000000000001")),
		script.F("children", script.List{
			script.Table{
				script.F("value", script.Table{script.F("raw", script.String("Apples @ 1+1"))}),
				script.F("uuid", script.String("00000000000000000000000000000002")),
				script.F("children", script.List{}),
			},
		}),
	}
	assert.Equal(t, want, got, "siblings of the projected node are left out")
}

func TestNodeToValue_ExposesOnlyRaw(t *testing.T) {
	n := node.New("x @ 1", node.NewText("a", "b"))
	n.SetEvaled("x 1")

	assert.Equal(t, script.Table{script.F("raw", script.String("x @ 1"))}, NodeToValue(n))
}

func TestDocumentValue_JSON(t *testing.T) {
	data, err := script.MarshalValue(DocumentValue(groceries().Find(testutil.ID(1))))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"value": {"raw": "Groceries", "evaled": null, "attributes": {"kind": "section"}},
		"uuid": "00000000-0000-0000-0000-000000000001",
		"children": [{
			"value": {"raw": "Apples @ 1+1", "evaled": "Apples 2", "attributes": {"qty": 2, "done": false}},
			"uuid": "00000000-0000-0000-0000-000000000002",
			"children": []
		}]
	}`, string(data))
}

func TestDocumentValue_NumberKeepsShortestForm(t *testing.T) {
	n := node.New("n", node.NewNumber("ratio", 0.1))
	v := DocumentValue(tree.NewWithID(testutil.ID(1), n))

	value, _ := v.(script.Table).Get("value")
	attrs, _ := value.(script.Table).Get("attributes")
	ratio, _ := attrs.(script.Table).Get("ratio")
	assert.Equal(t, script.Number(0.1), ratio)
}

func TestValueToTree_ReversesDocumentValue(t *testing.T) {
	doc := groceries()

	got, err := ValueToTree(DocumentValue(doc))
	require.NoError(t, err)

	assertSameTree(t, doc, got)
}

func TestValueToTree_AcceptsCompactIdentifiers(t *testing.T) {
	doc := groceries()

	got, err := ValueToTree(TreeToValue(doc))
	require.NoError(t, err)

	assert.Equal(t, doc.Len(), got.Len())
	apples := got.Find(testutil.ID(2))
	require.NotNil(t, apples)
	assert.Equal(t, "Apples @ 1+1", apples.Value.Raw)
	assert.Nil(t, apples.Value.Evaled, "the call projection carries no evaluated text")
	assert.Empty(t, apples.Value.Attributes)
}

func TestValueToTree_Errors(t *testing.T) {
	valid := func(mutate func(script.Table) script.Table) script.Value {
		base := script.Table{
			script.F("value", script.Table{script.F("raw", script.String("x"))}),
			script.F("uuid", script.String("00000000-0000-0000-0000-000000000001")),
			script.F("children", script.List{}),
		}
		return mutate(base)
	}
	set := func(key string, v script.Value) func(script.Table) script.Table {
		return func(t script.Table) script.Table {
			out := script.Table{}
			for _, f := range t {
				if f.Key != key {
					out = append(out, f)
				}
			}
			if v != nil {
				out = append(out, script.F(key, v))
			}
			return out
		}
	}

	tests := []struct {
		name     string
		input    script.Value
		path     string
		expected string
	}{
		{"not a table", script.String("x"), "$", "table"},
		{"missing value", valid(set("value", nil)), "$.value", "table"},
		{"value not a table", valid(set("value", script.Number(1))), "$.value", "table"},
		{"missing raw", valid(set("value", script.Table{})), "$.value.raw", "string"},
		{"raw not a string", valid(set("value", script.Table{script.F("raw", script.Bool(true))})), "$.value.raw", "string"},
		{"evaled wrong type", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("evaled", script.Number(1)),
		})), "$.value.evaled", "string or nil"},
		{"attribute wrong type", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.Table{script.F("tags", script.List{script.String("a")})}),
		})), "$.value.attributes.tags", "string, number or boolean"},
		{"attribute name with space", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.Table{script.F("due date", script.String("today"))}),
		})), "$.value.attributes.due date", "attribute name"},
		{"attribute nan", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.Table{script.F("n", script.Number(math.NaN()))}),
		})), "$.value.attributes.n", "finite 32-bit number"},
		{"attribute infinity", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.Table{script.F("n", script.Number(math.Inf(1)))}),
		})), "$.value.attributes.n", "finite 32-bit number"},
		{"attributes not a table", valid(set("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.String("a=1;")),
		})), "$.value.attributes", "table of attributes"},
		{"missing uuid", valid(set("uuid", nil)), "$.uuid", "identifier string"},
		{"uuid not a string", valid(set("uuid", script.Number(7))), "$.uuid", "identifier string"},
		{"malformed uuid", valid(set("uuid", script.String("not-a-uuid"))), "$.uuid", "identifier"},
		{"missing children", valid(set("children", nil)), "$.children", "list"},
		{"children not a list", valid(set("children", script.String("none"))), "$.children", "list"},
		{"bad child", valid(set("children", script.List{script.Table{}})), "$.children[1].value", "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValueToTree(tt.input)
			require.Error(t, err)

			var cerr *ConversionError
			require.True(t, errors.As(err, &cerr), "got %T", err)
			assert.Equal(t, tt.path, cerr.Path)
			assert.Equal(t, tt.expected, cerr.Expected)
			assert.Contains(t, err.Error(), "expected "+tt.expected)
		})
	}
}

func TestValueToTree_OptionalFields(t *testing.T) {
	v := script.Table{
		script.F("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("evaled", script.Nil{}),
			script.F("attributes", script.List{}),
		}),
		script.F("uuid", script.String("00000000000000000000000000000009")),
		script.F("children", script.Table{}),
	}

	got, err := ValueToTree(v)
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(9), got.ID)
	assert.Nil(t, got.Value.Evaled)
	assert.Empty(t, got.Value.Attributes)
	assert.Nil(t, got.FirstChild)
}

func TestValueToTree_RejectsOversizedNumber(t *testing.T) {
	v := script.Table{
		script.F("value", script.Table{
			script.F("raw", script.String("x")),
			script.F("attributes", script.Table{script.F("big", script.Number(1e300))}),
		}),
		script.F("uuid", script.String("00000000000000000000000000000009")),
		script.F("children", script.List{}),
	}

	_, err := ValueToTree(v)
	var cerr *ConversionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "$.value.attributes.big", cerr.Path)
}

func TestExportLua_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "document.lua", []byte(ExportLua(groceries())))
}

func TestExportLua_ReadsBackThroughLua(t *testing.T) {
	factory, err := script.NewLuaFactory(script.LuaOptions{})
	require.NoError(t, err)
	lctx, err := factory.NewContext()
	require.NoError(t, err)
	defer lctx.Close()

	doc := groceries()
	doc.Find(testutil.ID(3)).Value.Attributes = []node.Attribute{
		node.NewText("end", `quoted "word"`),
		node.NewText("two words", "a;b"),
		node.NewNumber("ratio", 0.25),
	}

	v, err := lctx.Eval(context.Background(), ExportLua(doc))
	require.NoError(t, err)

	got, err := ValueToTree(v)
	require.NoError(t, err)
	assertSameTree(t, doc, got)

	apples := got.Find(testutil.ID(2))
	done, ok := apples.Value.Attribute("done")
	require.True(t, ok)
	assert.Equal(t, node.Boolean(false), done.Value, "false is written as false")
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		v    script.Value
		want string
	}{
		{"nil", script.Nil{}, "nil"},
		{"function", script.NewFunction("f", nil), "nil"},
		{"string", script.String("a\"b"), `"a\"b"`},
		{"number", script.Number(1.5), "1.5"},
		{"nan", script.Number(math.NaN()), "(0/0)"},
		{"inf", script.Number(math.Inf(-1)), "(-1/0)"},
		{"bools", script.List{script.Bool(true), script.Bool(false)}, "{true, false}"},
		{"keys", script.Table{
			script.F("plain", script.Number(1)),
			script.F("end", script.Number(2)),
			script.F("has space", script.Number(3)),
			script.F("9lives", script.Number(4)),
		}, `{plain = 1, ["end"] = 2, ["has space"] = 3, ["9lives"] = 4}`},
		{"nested list breaks lines", script.List{script.Table{}}, "{\n  {},\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, literal(tt.v))
		})
	}
}

// assertSameTree compares identifiers, text and attributes node by node in
// pre-order. Attribute order is ignored.
func assertSameTree(t *testing.T, want, got *node.Tree) {
	t.Helper()

	wantNodes := want.Traverse()
	gotNodes := got.Traverse()
	require.Len(t, gotNodes, len(wantNodes))

	for i := range wantNodes {
		w, g := wantNodes[i], gotNodes[i]
		assert.Equal(t, w.Depth, g.Depth, "depth at %d", i)
		assert.Equal(t, w.Node.ID, g.Node.ID, "id at %d", i)
		assert.Equal(t, w.Node.Value.Raw, g.Node.Value.Raw, "raw at %d", i)
		assert.Equal(t, w.Node.Value.Evaled, g.Node.Value.Evaled, "evaled at %d", i)
		assert.ElementsMatch(t, w.Node.Value.Attributes, g.Node.Value.Attributes, "attributes at %d", i)
	}
}
