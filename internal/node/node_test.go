package node

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Text("x")
	var _ Value = Number(1)
	var _ Value = Boolean(true)

	assert.Equal(t, KindText, Text("x").Kind())
	assert.Equal(t, KindNumber, Number(1).Kind())
	assert.Equal(t, KindBoolean, Boolean(false).Kind())
	assert.Equal(t, "boolean", KindBoolean.String())
}

func TestAttributeString(t *testing.T) {
	tests := []struct {
		attr Attribute
		want string
	}{
		{NewText("a", "x"), `a="x";`},
		{NewText("empty", ""), `empty="";`},
		{NewBoolean("b", true), "b=T;"},
		{NewBoolean("b", false), "b=F;"},
		{NewNumber("c", 3), "c=3;"},
		{NewNumber("c", 2.5), "c=2.5;"},
		{NewNumber("c", -0.125), "c=-0.125;"},
		{NewNumber("big", 1e6), "big=1000000;"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attr.String())
		})
	}
}

func TestEncodeAttributes_PreservesOrder(t *testing.T) {
	attrs := []Attribute{
		NewText("a", "x"),
		NewBoolean("b", true),
		NewNumber("a", 1),
	}

	assert.Equal(t, `a="x";b=T;a=1;`, EncodeAttributes(attrs))
	assert.Equal(t, "", EncodeAttributes(nil))
}

func TestParseAttributes(t *testing.T) {
	attrs, err := ParseAttributes(`a="x";b=T;c=3;d=F;e="with space; and semicolon";f=-1.5;`)
	require.NoError(t, err)

	assert.Equal(t, []Attribute{
		NewText("a", "x"),
		NewBoolean("b", true),
		NewNumber("c", 3),
		NewBoolean("d", false),
		NewText("e", "with space; and semicolon"),
		NewNumber("f", -1.5),
	}, attrs)
}

func TestParseAttributes_Empty(t *testing.T) {
	attrs, err := ParseAttributes("")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"a", "qty", "due-date", "ünïcode"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", "a b", "a=b", "a;b", `a"b`, "a\nb"} {
		assert.Error(t, ValidateName(name), "%q", name)
	}
}

func TestEncodeAttributes_ValidNamesReadBack(t *testing.T) {
	attrs := []Attribute{NewText("due-date", "2024-01-01"), NewNumber("qty", 2), NewBoolean("done", false)}
	for _, a := range attrs {
		require.NoError(t, ValidateName(a.Name))
	}

	back, err := ParseAttributes(EncodeAttributes(attrs))
	require.NoError(t, err)
	assert.Equal(t, attrs, back)
}

func TestParseAttributes_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"missing equals", "abc;", "missing '='"},
		{"empty name", "=3;", "empty attribute name"},
		{"quote in name", `a"b=3;`, "invalid attribute name"},
		{"nan", "a=NaN;", "not finite"},
		{"infinity", "a=Inf;", "not finite"},
		{"negative infinity", "a=-Inf;", "not finite"},
		{"unterminated text", `a="abc;`, "unterminated text value"},
		{"text without semicolon", `a="abc"`, "expected ';'"},
		{"text with trailing junk", `a="abc"x;`, "expected ';'"},
		{"missing semicolon", "a=3", "missing ';'"},
		{"empty value", "a=;", "empty value"},
		{"bad number", "a=12x;", "invalid number"},
		{"lowercase boolean", "a=t;", "invalid number"},
		{"long boolean", "a=TRUE;", "invalid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAttributes(tt.input)
			require.Error(t, err)

			var attrErr *AttributeError
			require.True(t, errors.As(err, &attrErr))
			assert.Equal(t, tt.input, attrErr.Input)
			assert.Contains(t, attrErr.Message, tt.msg)
		})
	}
}

func TestParseAttributes_ErrorOffset(t *testing.T) {
	_, err := ParseAttributes("a=1;b=oops;")

	var attrErr *AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, 4, attrErr.Offset)
}

func TestAttributes_RoundTrip(t *testing.T) {
	attrs := []Attribute{
		NewText("title", "Ünïcödé text"),
		NewNumber("weight", 0.1),
		NewBoolean("done", false),
		NewBoolean("open", true),
		NewNumber("n", 123456),
	}

	got, err := ParseAttributes(EncodeAttributes(attrs))
	require.NoError(t, err)
	assert.Equal(t, attrs, got)
}

func TestNode_Display(t *testing.T) {
	n := New("raw text")
	assert.Nil(t, n.Evaled)
	assert.Equal(t, "raw text", n.Display())
	assert.Equal(t, "raw text", n.Text(EvaledText))

	n.SetEvaled("evaluated")
	assert.Equal(t, "evaluated", n.Display())
	assert.Equal(t, "evaluated", n.Text(EvaledText))
	assert.Equal(t, "raw text", n.Text(RawText))

	n.SetEvaled("")
	assert.Equal(t, "", n.Display(), "empty evaluated text still wins over raw")
}

func TestNode_Attribute(t *testing.T) {
	n := New("x", NewNumber("a", 1), NewNumber("a", 2))

	a, ok := n.Attribute("a")
	require.True(t, ok)
	assert.Equal(t, Number(1), a.Value)

	_, ok = n.Attribute("missing")
	assert.False(t, ok)
}

func TestNode_CloneSharesNothing(t *testing.T) {
	n := New("x", NewText("a", "1"))
	n.SetEvaled("y")

	c := n.Clone()
	c.Attributes[0] = NewText("a", "2")
	*c.Evaled = "z"

	assert.Equal(t, Text("1"), n.Attributes[0].Value)
	assert.Equal(t, "y", *n.Evaled)
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, uuid.Nil, doc.ID)
	assert.Equal(t, "", doc.Value.Raw)
	assert.Nil(t, doc.FirstChild)
}

func TestCloneTree(t *testing.T) {
	doc := NewDocument()
	child := New("child", NewBoolean("x", true))
	doc.AppendChild(&Tree{Value: child, ID: uuid.New()})

	c := CloneTree(doc)
	c.FirstChild.Value.Attributes[0] = NewBoolean("x", false)

	assert.Equal(t, Boolean(true), doc.FirstChild.Value.Attributes[0].Value)
}

func TestParseTextMode(t *testing.T) {
	m, err := ParseTextMode("raw")
	require.NoError(t, err)
	assert.Equal(t, RawText, m)

	m, err = ParseTextMode("evaled")
	require.NoError(t, err)
	assert.Equal(t, EvaledText, m)
	assert.Equal(t, "evaled", m.String())

	_, err = ParseTextMode("cooked")
	assert.Error(t, err)
}
