package lang

import (
	"strings"
)

// valueMethod is a method built into a non-struct value type.
type valueMethod struct {
	arity   int
	mutates bool // requires a mutable receiver binding
	fn      func(recv Value, args []Value) (Value, error)
}

var numberMethods = map[string]valueMethod{
	"round": {fn: func(v Value, _ []Value) (Value, error) { return NumberValue(v.Number().Round()), nil }},
	"floor": {fn: func(v Value, _ []Value) (Value, error) { return NumberValue(v.Number().Floor()), nil }},
	"ceil":  {fn: func(v Value, _ []Value) (Value, error) { return NumberValue(v.Number().Ceil()), nil }},
	"abs":   {fn: func(v Value, _ []Value) (Value, error) { return NumberValue(v.Number().Abs()), nil }},
	"sqrt": {fn: func(v Value, _ []Value) (Value, error) {
		n, err := v.Number().Sqrt()
		if err != nil {
			return Void, Errorf(InvalidArgument, "sqrt of %s: %v", v.Number(), err)
		}
		return NumberValue(n), nil
	}},
}

var listMethods = map[string]valueMethod{
	"push": {arity: 1, mutates: true, fn: func(v Value, args []Value) (Value, error) {
		l := v.List()
		l.Items = append(l.Items, args[0])
		return Void, nil
	}},
	"pop": {mutates: true, fn: func(v Value, _ []Value) (Value, error) {
		l := v.List()
		if len(l.Items) == 0 {
			return None, nil
		}
		last := l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return SomeValue(last), nil
	}},
	"len": {fn: func(v Value, _ []Value) (Value, error) {
		return IntValue(int64(len(v.List().Items))), nil
	}},
	"is_empty": {fn: func(v Value, _ []Value) (Value, error) {
		return BoolValue(len(v.List().Items) == 0), nil
	}},
	"first": {fn: func(v Value, _ []Value) (Value, error) {
		items := v.List().Items
		if len(items) == 0 {
			return None, nil
		}
		return SomeValue(items[0]), nil
	}},
	"last": {fn: func(v Value, _ []Value) (Value, error) {
		items := v.List().Items
		if len(items) == 0 {
			return None, nil
		}
		return SomeValue(items[len(items)-1]), nil
	}},
	"contains": {arity: 1, fn: func(v Value, args []Value) (Value, error) {
		for _, item := range v.List().Items {
			if Equal(item, args[0]) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	}},
	"reverse": {mutates: true, fn: func(v Value, _ []Value) (Value, error) {
		items := v.List().Items
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return Void, nil
	}},
	"clear": {mutates: true, fn: func(v Value, _ []Value) (Value, error) {
		v.List().Items = []Value{}
		return Void, nil
	}},
}

var dictMethods = map[string]valueMethod{
	"get": {arity: 1, fn: func(v Value, args []Value) (Value, error) {
		key, err := dictKey(args[0])
		if err != nil {
			return Void, err
		}
		if val, ok := v.Dict().Get(key); ok {
			return SomeValue(val), nil
		}
		return None, nil
	}},
	"insert": {arity: 2, mutates: true, fn: func(v Value, args []Value) (Value, error) {
		key, err := dictKey(args[0])
		if err != nil {
			return Void, err
		}
		v.Dict().Set(key, args[1])
		return Void, nil
	}},
	"remove": {arity: 1, mutates: true, fn: func(v Value, args []Value) (Value, error) {
		key, err := dictKey(args[0])
		if err != nil {
			return Void, err
		}
		if old, ok := v.Dict().Delete(key); ok {
			return SomeValue(old), nil
		}
		return None, nil
	}},
	"contains_key": {arity: 1, fn: func(v Value, args []Value) (Value, error) {
		key, err := dictKey(args[0])
		if err != nil {
			return Void, err
		}
		_, ok := v.Dict().Get(key)
		return BoolValue(ok), nil
	}},
	"keys": {fn: func(v Value, _ []Value) (Value, error) {
		keys := v.Dict().Keys()
		items := make([]Value, len(keys))
		for i, k := range keys {
			items[i] = StringValue(k)
		}
		return ListValue(items...), nil
	}},
	"values": {fn: func(v Value, _ []Value) (Value, error) {
		d := v.Dict()
		items := make([]Value, 0, d.Len())
		for _, k := range d.keys {
			items = append(items, d.items[k])
		}
		return ListValue(items...), nil
	}},
	"len": {fn: func(v Value, _ []Value) (Value, error) {
		return IntValue(int64(v.Dict().Len())), nil
	}},
	"is_empty": {fn: func(v Value, _ []Value) (Value, error) {
		return BoolValue(v.Dict().Len() == 0), nil
	}},
	"clear": {mutates: true, fn: func(v Value, _ []Value) (Value, error) {
		v.Dict().Clear()
		return Void, nil
	}},
}

var stringMethods = map[string]valueMethod{
	"len": {fn: func(v Value, _ []Value) (Value, error) {
		return IntValue(int64(len([]rune(v.Str())))), nil
	}},
	"is_empty": {fn: func(v Value, _ []Value) (Value, error) {
		return BoolValue(v.Str() == ""), nil
	}},
	"to_uppercase": {fn: func(v Value, _ []Value) (Value, error) {
		return StringValue(strings.ToUpper(v.Str())), nil
	}},
	"to_lowercase": {fn: func(v Value, _ []Value) (Value, error) {
		return StringValue(strings.ToLower(v.Str())), nil
	}},
	"trim": {fn: func(v Value, _ []Value) (Value, error) {
		return StringValue(strings.TrimSpace(v.Str())), nil
	}},
	"contains":    {arity: 1, fn: stringPredicate(strings.Contains)},
	"starts_with": {arity: 1, fn: stringPredicate(strings.HasPrefix)},
	"ends_with":   {arity: 1, fn: stringPredicate(strings.HasSuffix)},
	"split": {arity: 1, fn: func(v Value, args []Value) (Value, error) {
		sep, err := stringArg(args[0])
		if err != nil {
			return Void, err
		}
		parts := strings.Split(v.Str(), sep)
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = StringValue(p)
		}
		return ListValue(items...), nil
	}},
	"replace": {arity: 2, fn: func(v Value, args []Value) (Value, error) {
		from, err := stringArg(args[0])
		if err != nil {
			return Void, err
		}
		to, err := stringArg(args[1])
		if err != nil {
			return Void, err
		}
		return StringValue(strings.ReplaceAll(v.Str(), from, to)), nil
	}},
}

func stringPredicate(pred func(s, sub string) bool) func(Value, []Value) (Value, error) {
	return func(v Value, args []Value) (Value, error) {
		sub, err := stringArg(args[0])
		if err != nil {
			return Void, err
		}
		return BoolValue(pred(v.Str(), sub)), nil
	}
}

func stringArg(v Value) (string, error) {
	if v.Type != TypeString {
		return "", Errorf(TypeError, "expected string argument, got %s", v.TypeName())
	}
	return v.Str(), nil
}

func dictKey(v Value) (string, error) {
	if v.Type != TypeString {
		return "", Errorf(TypeError, "dict keys must be strings, got %s", v.TypeName())
	}
	return v.Str(), nil
}

func methodTable(t ValueType) map[string]valueMethod {
	switch t {
	case TypeNumber:
		return numberMethods
	case TypeList:
		return listMethods
	case TypeDict:
		return dictMethods
	case TypeString:
		return stringMethods
	}
	return nil
}

// callValueMethod dispatches a method call on a number, list, dict, string,
// bool, option or result. Every value answers to_string.
func callValueMethod(recv Value, name string, args []Value, rc receiver) (Value, error) {
	m, ok := methodTable(recv.Type)[name]
	if !ok {
		if name == "to_string" {
			if len(args) != 0 {
				return Void, Errorf(InvalidArgument, "to_string expects 0 argument(s), got %d", len(args))
			}
			return StringValue(recv.String()), nil
		}
		return Void, Errorf(UnknownMethod, "%s has no method %s", recv.TypeName(), name)
	}
	if len(args) != m.arity {
		return Void, Errorf(InvalidArgument, "%s.%s expects %d argument(s), got %d", recv.TypeName(), name, m.arity, len(args))
	}
	if m.mutates && !rc.mutable {
		return Void, Errorf(ImmutableReceiver, "cannot call %s on immutable %s; declare it with val mut", name, rc.describe())
	}
	return m.fn(recv, args)
}
