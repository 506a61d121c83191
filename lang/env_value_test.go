package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sag/rational"
)

func mustNumber(t *testing.T, lit string) rational.Number {
	t.Helper()
	n, err := rational.Parse(lit)
	require.NoError(t, err)
	return n
}

func TestEnvParentLookupAndErrors(t *testing.T) {
	parent := NewEnv(nil)
	parent.Define("x", IntValue(1), true)
	parent.Define("k", IntValue(7), false)
	child := NewEnv(parent)

	require.NoError(t, child.Set("x", IntValue(2)))
	val, err := parent.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "2", val.Repr())

	err = child.Set("k", IntValue(0))
	assert.True(t, IsKind(err, ImmutableAssignment), "got %v", err)
	assert.EqualError(t, err, "ImmutableAssignment: cannot assign to k: declared with val, not val mut")

	err = child.Set("missing", IntValue(0))
	assert.True(t, IsKind(err, UnboundIdentifier), "got %v", err)
	_, err = child.Get("missing")
	assert.True(t, IsKind(err, UnboundIdentifier), "got %v", err)

	mutable, found := child.IsMutable("x")
	assert.True(t, mutable)
	assert.True(t, found)
	mutable, found = child.IsMutable("k")
	assert.False(t, mutable)
	assert.True(t, found)
	_, found = child.IsMutable("missing")
	assert.False(t, found)

	assert.Same(t, parent, child.Parent())
}

func TestEnvShadowing(t *testing.T) {
	parent := NewEnv(nil)
	parent.Define("x", IntValue(1), false)
	child := NewEnv(parent)
	child.Define("x", IntValue(2), true)

	require.NoError(t, child.Set("x", IntValue(3)))
	val, _ := parent.Get("x")
	assert.Equal(t, "1", val.Repr())
	val, _ = child.Get("x")
	assert.Equal(t, "3", val.Repr())
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Set("b", IntValue(1))
	d.Set("a", IntValue(2))
	d.Set("b", IntValue(3))
	assert.Equal(t, []string{"b", "a"}, d.Keys())

	old, ok := d.Delete("b")
	assert.True(t, ok)
	assert.Equal(t, "3", old.Repr())
	assert.Equal(t, []string{"a"}, d.Keys())

	_, ok = d.Delete("b")
	assert.False(t, ok)
	d.Clear()
	assert.Equal(t, 0, d.Len())
}

func TestValueRendering(t *testing.T) {
	point := &StructDef{Name: "Point", Fields: []string{"x", "y"}}
	self := ListValue(IntValue(1))
	self.List().Items = append(self.List().Items, self)

	tests := []struct {
		val   Value
		str   string
		repr  string
		tname string
	}{
		{IntValue(5), "5", "5", "number"},
		{NumberValue(mustNumber(t, "-3/4")), "-3/4", "-3/4", "number"},
		{StringValue("a\"b"), "a\"b", `"a\"b"`, "string"},
		{BoolValue(true), "true", "true", "bool"},
		{ListValue(StringValue("x"), IntValue(1)), `["x", 1]`, `["x", 1]`, "list"},
		{DictValue(NewDict()), "{::}", "{::}", "dict"},
		{StructValue(&StructInstance{Def: point, Fields: map[string]Value{"x": IntValue(1), "y": IntValue(2)}}),
			"Point{x: 1, y: 2}", "Point{x: 1, y: 2}", "Point"},
		{StructDefValue(point), "<struct Point>", "<struct Point>", "struct definition"},
		{SomeValue(StringValue("s")), `Some("s")`, `Some("s")`, "option"},
		{None, "None", "None", "option"},
		{SucValue(IntValue(1)), "Suc(1)", "Suc(1)", "result"},
		{FailValue(StringValue("e")), `Fail("e")`, `Fail("e")`, "result"},
		{FunctionValue(&Closure{Name: "f"}), "<fun f>", "<fun f>", "function"},
		{FunctionValue(&Closure{}), "<lambda>", "<lambda>", "function"},
		{Void, "void", "void", "void"},
		{self, "[1, [...]]", "[1, [...]]", "list"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.str, tt.val.String())
		assert.Equal(t, tt.repr, tt.val.Repr())
		assert.Equal(t, tt.tname, tt.val.TypeName())
	}
}

func TestValueEquality(t *testing.T) {
	fn := FunctionValue(&Closure{Name: "f"})
	d1, d2 := NewDict(), NewDict()
	d1.Set("a", IntValue(1))
	d1.Set("b", IntValue(2))
	d2.Set("b", IntValue(2))
	d2.Set("a", IntValue(1))

	assert.True(t, Equal(NumberValue(mustNumber(t, "2/4")), NumberValue(mustNumber(t, "1/2"))))
	assert.True(t, Equal(ListValue(IntValue(1), StringValue("a")), ListValue(IntValue(1), StringValue("a"))))
	assert.False(t, Equal(ListValue(IntValue(1)), ListValue(IntValue(1), IntValue(2))))
	assert.True(t, Equal(DictValue(d1), DictValue(d2)))
	assert.True(t, Equal(SomeValue(IntValue(1)), SomeValue(IntValue(1))))
	assert.False(t, Equal(SomeValue(IntValue(1)), None))
	assert.False(t, Equal(SucValue(IntValue(1)), FailValue(IntValue(1))))
	assert.False(t, Equal(IntValue(1), StringValue("1")))
	assert.True(t, Equal(fn, fn))
	assert.False(t, Equal(fn, FunctionValue(&Closure{Name: "f"})))
}

func TestValueEqualitySelfReferential(t *testing.T) {
	selfList := func(extra ...Value) Value {
		l := ListValue(extra...)
		l.List().Items = append(l.List().Items, l)
		return l
	}
	assert.True(t, Equal(selfList(), selfList()))
	assert.True(t, Equal(selfList(IntValue(1)), selfList(IntValue(1))))
	assert.False(t, Equal(selfList(IntValue(1)), selfList(IntValue(2))))

	d1, d2 := NewDict(), NewDict()
	d1.Set("self", DictValue(d1))
	d2.Set("self", DictValue(d2))
	assert.True(t, Equal(DictValue(d1), DictValue(d2)))

	node := &StructDef{Name: "Node", Fields: []string{"next"}}
	n1 := &StructInstance{Def: node, Fields: map[string]Value{}}
	n2 := &StructInstance{Def: node, Fields: map[string]Value{}}
	n1.Fields["next"] = SomeValue(StructValue(n1))
	n2.Fields["next"] = SomeValue(StructValue(n2))
	assert.True(t, Equal(StructValue(n1), StructValue(n2)))
	n2.Fields["next"] = None
	assert.False(t, Equal(StructValue(n1), StructValue(n2)))
}
