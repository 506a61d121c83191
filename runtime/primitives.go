package runtime

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sergev/sag/lang"
	"github.com/sergev/sag/rational"
)

func installPrimitives(ev *lang.Evaluator) {
	ev.DefineBuiltin("print", primPrint)
	ev.DefineBuiltin("len", primLen)
	ev.DefineBuiltin("range", primRange)

	ev.DefineBuiltin("Some", wrapper("Some", lang.SomeValue))
	ev.DefineBuiltin("Suc", wrapper("Suc", lang.SucValue))
	ev.DefineBuiltin("Fail", wrapper("Fail", lang.FailValue))
	ev.Builtins.Define("None", lang.None, false)
}

func typeError(name, expected string, got lang.Value) error {
	return lang.Errorf(lang.TypeError, "%s expects %s, got %s", name, expected, got.TypeName())
}

func arityError(name, expected string, got int) error {
	return lang.Errorf(lang.InvalidArgument, "%s expects %s, got %d", name, expected, got)
}

func wrapper(name string, mk func(lang.Value) lang.Value) lang.Primitive {
	return func(_ *lang.Evaluator, args []lang.Value) (lang.Value, error) {
		if len(args) != 1 {
			return lang.Void, arityError(name, "1 argument", len(args))
		}
		return mk(args[0]), nil
	}
}

func primPrint(ev *lang.Evaluator, args []lang.Value) (lang.Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	var out io.Writer = os.Stdout
	if ev.Out != nil {
		out = ev.Out
	}
	if _, err := fmt.Fprintln(out, strings.Join(parts, " ")); err != nil {
		return lang.Void, err
	}
	return lang.Void, nil
}

func primLen(ev *lang.Evaluator, args []lang.Value) (lang.Value, error) {
	if len(args) != 1 {
		return lang.Void, arityError("len", "1 argument", len(args))
	}
	switch v := args[0]; v.Type {
	case lang.TypeList:
		return lang.IntValue(int64(len(v.List().Items))), nil
	case lang.TypeString:
		return lang.IntValue(int64(utf8.RuneCountInString(v.Str()))), nil
	default:
		return lang.Void, typeError("len", "list or string", v)
	}
}

// primRange implements range(end), range(start, end) and
// range(start, end, step). Bounds and step may be any rationals.
func primRange(ev *lang.Evaluator, args []lang.Value) (lang.Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return lang.Void, arityError("range", "1 to 3 arguments", len(args))
	}
	nums := make([]rational.Number, len(args))
	for i, arg := range args {
		if arg.Type != lang.TypeNumber {
			return lang.Void, typeError("range", "numbers", arg)
		}
		nums[i] = arg.Number()
	}

	start, step := rational.FromInt(0), rational.FromInt(1)
	var end rational.Number
	switch len(nums) {
	case 1:
		end = nums[0]
	case 2:
		start, end = nums[0], nums[1]
	case 3:
		start, end, step = nums[0], nums[1], nums[2]
	}
	if step.Sign() == 0 {
		return lang.Void, lang.Errorf(lang.InvalidArgument, "range step must not be zero")
	}

	var items []lang.Value
	for x := start; (step.Sign() > 0 && x.Cmp(end) < 0) || (step.Sign() < 0 && x.Cmp(end) > 0); x = x.Add(step) {
		items = append(items, lang.NumberValue(x))
	}
	return lang.ListValue(items...), nil
}
