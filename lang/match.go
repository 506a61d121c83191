package lang

import (
	"github.com/sergev/sag/parser"
)

// Bindings maps the names captured by a pattern to the matched values.
type Bindings map[string]Value

// MatchPattern matches v against p. On success it returns the captured
// bindings, which may be empty.
func MatchPattern(p parser.Pattern, v Value) (Bindings, bool) {
	b := Bindings{}
	if !matchInto(p, v, b) {
		return nil, false
	}
	return b, true
}

func matchInto(p parser.Pattern, v Value, b Bindings) bool {
	switch p := p.(type) {
	case *parser.WildcardPattern:
		return true
	case *parser.BindingPattern:
		b[p.Name] = v
		return true
	case *parser.LiteralPattern:
		lit, ok := literalValue(p.Literal)
		return ok && Equal(lit, v)
	case *parser.ConstructorPattern:
		switch p.Name {
		case "None":
			_, some := v.Option()
			return v.Type == TypeOption && !some
		case "Some":
			inner, some := v.Option()
			return v.Type == TypeOption && some && matchInto(p.Inner, inner, b)
		case "Suc":
			inner, ok := v.Result()
			return v.Type == TypeResult && ok && matchInto(p.Inner, inner, b)
		case "Fail":
			inner, ok := v.Result()
			return v.Type == TypeResult && !ok && matchInto(p.Inner, inner, b)
		}
	}
	return false
}

func literalValue(e parser.Expr) (Value, bool) {
	switch e := e.(type) {
	case *parser.NumberExpr:
		return NumberValue(e.Value), true
	case *parser.StringExpr:
		return StringValue(e.Value), true
	case *parser.BoolExpr:
		return BoolValue(e.Value), true
	}
	return Value{}, false
}
