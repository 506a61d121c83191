package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sergev/sag/parser"
)

func TestMatchPattern(t *testing.T) {
	some := func(inner parser.Pattern) parser.Pattern {
		return &parser.ConstructorPattern{Name: "Some", Inner: inner}
	}
	bind := func(name string) parser.Pattern { return &parser.BindingPattern{Name: name} }
	num := func(lit string) parser.Pattern {
		return &parser.LiteralPattern{Literal: &parser.NumberExpr{Value: mustNumber(t, lit), Literal: lit}}
	}

	tests := []struct {
		name    string
		pattern parser.Pattern
		value   Value
		ok      bool
		binds   map[string]string
	}{
		{"wildcard", &parser.WildcardPattern{}, IntValue(3), true, map[string]string{}},
		{"binding", bind("x"), StringValue("s"), true, map[string]string{"x": `"s"`}},
		{"number literal", num("1/2"), NumberValue(mustNumber(t, "2/4")), true, map[string]string{}},
		{"number mismatch", num("1"), IntValue(2), false, nil},
		{"string literal", &parser.LiteralPattern{Literal: &parser.StringExpr{Value: "a"}}, StringValue("a"), true, map[string]string{}},
		{"bool vs number", &parser.LiteralPattern{Literal: &parser.BoolExpr{Value: true}}, IntValue(1), false, nil},
		{"none", &parser.ConstructorPattern{Name: "None"}, None, true, map[string]string{}},
		{"none vs some", &parser.ConstructorPattern{Name: "None"}, SomeValue(IntValue(1)), false, nil},
		{"some binding", some(bind("v")), SomeValue(IntValue(9)), true, map[string]string{"v": "9"}},
		{"some vs none", some(bind("v")), None, false, nil},
		{"nested", some(some(num("2"))), SomeValue(SomeValue(IntValue(2))), true, map[string]string{}},
		{"suc", &parser.ConstructorPattern{Name: "Suc", Inner: bind("r")}, SucValue(IntValue(1)), true, map[string]string{"r": "1"}},
		{"fail vs suc", &parser.ConstructorPattern{Name: "Fail", Inner: bind("e")}, SucValue(IntValue(1)), false, nil},
		{"fail", &parser.ConstructorPattern{Name: "Fail", Inner: bind("e")}, FailValue(StringValue("bad")), true, map[string]string{"e": `"bad"`}},
		{"some vs result", some(bind("v")), SucValue(IntValue(1)), false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := MatchPattern(tt.pattern, tt.value)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, b)
				return
			}
			got := make(map[string]string, len(b))
			for name, v := range b {
				got[name] = v.Repr()
			}
			assert.Equal(t, tt.binds, got)
		})
	}
}

func TestOptionMatchIsExhaustive(t *testing.T) {
	src := `
fun describe(o) {
    match o {
        Some(x) => "some"
        None => "none"
    }
}
[describe(Some(1)), describe(None), describe(Some(None))]
`
	val, _ := mustRun(t, src)
	assert.Equal(t, `["some", "none", "some"]`, val.Repr())

	_, _, err := run(t, `match Suc(1) { Fail(e) => e }`)
	assert.True(t, IsKind(err, NonExhaustiveMatch), "got %v", err)
}

func TestMatchArmScopes(t *testing.T) {
	val, _ := mustRun(t, `
val x = 1
val y = match Some(2) {
    Some(x) => x * 10
    _ => 0
}
[x, y]
`)
	assert.Equal(t, "[1, 20]", val.Repr())

	val, _ = mustRun(t, `
match -3 {
    -3 => "neg"
    _ => "other"
}
`)
	assert.Equal(t, `"neg"`, val.Repr())
}
