package lang

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/sergev/sag/parser"
	"github.com/sergev/sag/rational"
)

// DefaultMaxDepth bounds nested function calls before StackOverflow is raised.
const DefaultMaxDepth = 10000

// Evaluator walks sag ASTs. It is not safe for concurrent use.
type Evaluator struct {
	Builtins *Env // print, len, range and friends
	Global   *Env // top-level scope of the main program, child of Builtins
	Out      io.Writer
	Sources  SourceProvider
	MaxDepth int
	Logger   *slog.Logger

	impls     map[string]map[string]*Closure // struct name -> method name -> function
	modules   map[string]*Module
	loadStack []string
	current   string // canonical path of the unit being evaluated
	depth     int
}

// NewEvaluator constructs an evaluator with empty builtin and global scopes.
func NewEvaluator() *Evaluator {
	builtins := NewEnv(nil)
	return &Evaluator{
		Builtins: builtins,
		Global:   NewEnv(builtins),
		Out:      os.Stdout,
		MaxDepth: DefaultMaxDepth,
		Logger:   slog.New(slog.DiscardHandler),
		impls:    make(map[string]map[string]*Closure),
		modules:  make(map[string]*Module),
	}
}

// DefineBuiltin installs a primitive in the builtin scope.
func (ev *Evaluator) DefineBuiltin(name string, fn Primitive) {
	ev.Builtins.Define(name, BuiltinValue(name, fn), false)
}

// returnSignal unwinds to the enclosing function call.
type returnSignal struct {
	value Value
	pos   parser.Position
}

func (s *returnSignal) Error() string { return "return outside of a function" }

// loopSignal unwinds to the enclosing for loop.
type loopSignal struct {
	brk bool
	pos parser.Position
}

func (s *loopSignal) Error() string {
	if s.brk {
		return "break outside of a loop"
	}
	return "continue outside of a loop"
}

// EvalSource parses and runs src in the global scope. name is the canonical
// path of the source, used to resolve relative imports; it may be empty.
func (ev *Evaluator) EvalSource(name, src string) (Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return Void, err
	}
	return ev.RunProgram(name, prog)
}

// RunProgram evaluates each top-level statement of prog in the global scope
// and returns the value of the last one.
func (ev *Evaluator) RunProgram(name string, prog *parser.Program) (Value, error) {
	if name != "" {
		name = path.Clean(name)
		saved := ev.current
		ev.current = name
		ev.loadStack = append(ev.loadStack, name)
		defer func() {
			ev.loadStack = ev.loadStack[:len(ev.loadStack)-1]
			ev.current = saved
		}()
	}
	return ev.execProgram(prog, ev.Global)
}

func (ev *Evaluator) execProgram(prog *parser.Program, env *Env) (Value, error) {
	result := Void
	for _, stmt := range prog.Stmts {
		val, err := ev.execStmt(stmt, env)
		if err != nil {
			switch sig := err.(type) {
			case *returnSignal:
				// a top-level return completes its statement
				val = sig.value
			case *loopSignal:
				return Void, newRuntimeError(InvalidArgument, sig.pos, "%s", sig.Error())
			default:
				return Void, err
			}
		}
		result = val
	}
	return result, nil
}

// Eval evaluates a single expression within the provided environment.
func (ev *Evaluator) Eval(expr parser.Expr, env *Env) (Value, error) {
	if env == nil {
		env = ev.Global
	}
	return ev.evalExpr(expr, env)
}

// Apply invokes a function or builtin with arguments.
func (ev *Evaluator) Apply(fn Value, args []Value) (Value, error) {
	return ev.callValue(fn, args, parser.Position{})
}

func (ev *Evaluator) execStmt(stmt parser.Stmt, env *Env) (Value, error) {
	switch s := stmt.(type) {
	case *parser.ExprStmt:
		return ev.evalExpr(s.Expr, env)
	case *parser.ValStmt:
		val, err := ev.evalExpr(s.Value, env)
		if err != nil {
			return Void, err
		}
		if val.Type == TypeFunction && val.Closure().Name == "" {
			// name lambdas after the binding they are stored in
			c := *val.Closure()
			c.Name = s.Name
			val = FunctionValue(&c)
		}
		env.Define(s.Name, val, s.Mutable)
		return Void, nil
	case *parser.FunDecl:
		env.Define(s.Name, FunctionValue(&Closure{
			Name:   s.Name,
			Params: s.Params,
			Body:   s.Body,
			Env:    env,
		}), false)
		return Void, nil
	case *parser.StructDecl:
		def := &StructDef{Name: s.Name}
		for _, f := range s.Fields {
			def.Fields = append(def.Fields, f.Name)
		}
		env.Define(s.Name, StructDefValue(def), false)
		return Void, nil
	case *parser.ImplDecl:
		ev.registerImpl(s, env)
		return Void, nil
	case *parser.ImportStmt:
		return Void, ev.execImport(s, env)
	case *parser.ForStmt:
		return ev.execFor(s, env)
	case *parser.ReturnStmt:
		result := Void
		if s.Result != nil {
			val, err := ev.evalExpr(s.Result, env)
			if err != nil {
				return Void, err
			}
			result = val
		}
		return Void, &returnSignal{value: result, pos: s.Posn}
	case *parser.BreakStmt:
		return Void, &loopSignal{brk: true, pos: s.Posn}
	case *parser.ContinueStmt:
		return Void, &loopSignal{pos: s.Posn}
	}
	return Void, newRuntimeError(TypeError, stmt.Pos(), "unsupported statement %T", stmt)
}

// registerImpl binds methods by struct name. The struct itself may be
// declared later; lookup happens at call time.
func (ev *Evaluator) registerImpl(s *parser.ImplDecl, env *Env) {
	methods := ev.impls[s.Struct]
	if methods == nil {
		methods = make(map[string]*Closure)
		ev.impls[s.Struct] = methods
	}
	for _, fn := range s.Methods {
		methods[fn.Name] = &Closure{
			Name:   s.Struct + "." + fn.Name,
			Params: fn.Params,
			Body:   fn.Body,
			Env:    env,
		}
	}
	ev.Logger.Debug("impl registered", "struct", s.Struct, "methods", len(s.Methods))
}

func (ev *Evaluator) lookupMethod(structName, method string) *Closure {
	return ev.impls[structName][method]
}

func (ev *Evaluator) execFor(s *parser.ForStmt, env *Env) (Value, error) {
	iter, err := ev.evalExpr(s.Iter, env)
	if err != nil {
		return Void, err
	}
	var items []Value
	switch iter.Type {
	case TypeList:
		items = append([]Value(nil), iter.List().Items...)
	case TypeDict:
		for _, k := range iter.Dict().Keys() {
			items = append(items, StringValue(k))
		}
	case TypeString:
		for _, r := range iter.Str() {
			items = append(items, StringValue(string(r)))
		}
	default:
		return Void, newRuntimeError(TypeError, s.Iter.Pos(), "cannot iterate over %s", iter.TypeName())
	}
	for _, item := range items {
		scope := NewEnv(env)
		scope.Define(s.Var, item, false)
		if _, err := ev.evalStmts(s.Body.Stmts, scope); err != nil {
			if sig, ok := err.(*loopSignal); ok {
				if sig.brk {
					break
				}
				continue
			}
			return Void, err
		}
	}
	return Void, nil
}

// evalStmts runs stmts in scope. The result is the value of a trailing
// expression statement, or Void.
func (ev *Evaluator) evalStmts(stmts []parser.Stmt, scope *Env) (Value, error) {
	result := Void
	for _, stmt := range stmts {
		val, err := ev.execStmt(stmt, scope)
		if err != nil {
			return Void, err
		}
		if _, ok := stmt.(*parser.ExprStmt); ok {
			result = val
		} else {
			result = Void
		}
	}
	return result, nil
}

func (ev *Evaluator) evalExpr(expr parser.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *parser.NumberExpr:
		return NumberValue(e.Value), nil
	case *parser.StringExpr:
		return StringValue(e.Value), nil
	case *parser.BoolExpr:
		return BoolValue(e.Value), nil
	case *parser.IdentifierExpr:
		val, err := env.Get(e.Name)
		if err != nil {
			return Void, withPos(err, e.Posn)
		}
		return val, nil
	case *parser.ListExpr:
		items := make([]Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			val, err := ev.evalExpr(el, env)
			if err != nil {
				return Void, err
			}
			items = append(items, val)
		}
		return ListValue(items...), nil
	case *parser.DictExpr:
		return ev.evalDict(e, env)
	case *parser.StructLit:
		return ev.evalStructLit(e, env)
	case *parser.LambdaExpr:
		return FunctionValue(&Closure{Params: e.Params, Body: e.Body, Env: env}), nil
	case *parser.BlockExpr:
		return ev.evalStmts(e.Stmts, NewEnv(env))
	case *parser.CallExpr:
		return ev.evalCall(e, env, nil)
	case *parser.PipelineExpr:
		return ev.evalPipeline(e, env)
	case *parser.FieldExpr:
		return ev.evalField(e, env)
	case *parser.IndexExpr:
		container, err := ev.evalExpr(e.Target, env)
		if err != nil {
			return Void, err
		}
		index, err := ev.evalExpr(e.Index, env)
		if err != nil {
			return Void, err
		}
		return indexValue(container, index, e.Posn)
	case *parser.UnaryExpr:
		return ev.evalUnary(e, env)
	case *parser.BinaryExpr:
		return ev.evalBinary(e, env)
	case *parser.AssignExpr:
		return ev.evalAssign(e, env)
	case *parser.IfExpr:
		return ev.evalIf(e, env)
	case *parser.MatchExpr:
		return ev.evalMatch(e, env)
	case *parser.TupleExpr:
		return Void, newRuntimeError(TypeError, e.Posn, "an argument tuple must be followed by ->")
	}
	return Void, newRuntimeError(TypeError, expr.Pos(), "unsupported expression %T", expr)
}

func (ev *Evaluator) evalDict(e *parser.DictExpr, env *Env) (Value, error) {
	dict := NewDict()
	for _, entry := range e.Entries {
		key, err := ev.evalExpr(entry.Key, env)
		if err != nil {
			return Void, err
		}
		if key.Type != TypeString {
			return Void, newRuntimeError(TypeError, entry.Key.Pos(), "dict keys must be strings, got %s", key.TypeName())
		}
		val, err := ev.evalExpr(entry.Value, env)
		if err != nil {
			return Void, err
		}
		dict.Set(key.Str(), val)
	}
	return DictValue(dict), nil
}

func (ev *Evaluator) evalStructLit(lit *parser.StructLit, env *Env) (Value, error) {
	defVal, err := env.Get(lit.Name)
	if err != nil {
		return Void, withPos(err, lit.Posn)
	}
	if defVal.Type != TypeStructDef {
		return Void, newRuntimeError(TypeError, lit.Posn, "%s is not a struct", lit.Name)
	}
	def := defVal.StructDef()
	fields := make(map[string]Value, len(def.Fields))
	for _, f := range lit.Fields {
		if !hasField(def, f.Name) {
			return Void, newRuntimeError(UnknownField, f.Posn, "struct %s has no field %s", def.Name, f.Name)
		}
		if _, dup := fields[f.Name]; dup {
			return Void, newRuntimeError(InvalidArgument, f.Posn, "field %s given twice", f.Name)
		}
		val, err := ev.evalExpr(f.Value, env)
		if err != nil {
			return Void, err
		}
		fields[f.Name] = val
	}
	for _, name := range def.Fields {
		if _, ok := fields[name]; !ok {
			return Void, newRuntimeError(UnknownField, lit.Posn, "missing field %s in %s literal", name, def.Name)
		}
	}
	return StructValue(&StructInstance{Def: def, Fields: fields}), nil
}

func hasField(def *StructDef, name string) bool {
	for _, f := range def.Fields {
		if f == name {
			return true
		}
	}
	return false
}

func (ev *Evaluator) evalField(e *parser.FieldExpr, env *Env) (Value, error) {
	obj, err := ev.evalExpr(e.Target, env)
	if err != nil {
		return Void, err
	}
	switch obj.Type {
	case TypeStruct:
		if val, ok := obj.Struct().Fields[e.Name]; ok {
			return val, nil
		}
		return Void, newRuntimeError(UnknownField, e.Posn, "struct %s has no field %s", obj.TypeName(), e.Name)
	case TypeStructDef:
		if m := ev.lookupMethod(obj.StructDef().Name, e.Name); m != nil {
			return FunctionValue(m), nil
		}
		return Void, newRuntimeError(UnknownMethod, e.Posn, "struct %s has no function %s", obj.StructDef().Name, e.Name)
	case TypeModule:
		if val, ok := obj.Module().Get(e.Name); ok {
			return val, nil
		}
		return Void, newRuntimeError(UnboundIdentifier, e.Posn, "module %s has no export %s", obj.Module().Path, e.Name)
	}
	return Void, newRuntimeError(UnknownField, e.Posn, "%s has no field %s", obj.TypeName(), e.Name)
}

// placeMutable reports whether the binding at the root of a field or index
// chain is mutable. Values not rooted in a binding are temporaries and may
// be mutated freely.
func placeMutable(e parser.Expr, env *Env) (bool, string) {
	for {
		switch t := e.(type) {
		case *parser.IdentifierExpr:
			mutable, found := env.IsMutable(t.Name)
			return mutable || !found, t.Name
		case *parser.FieldExpr:
			e = t.Target
		case *parser.IndexExpr:
			e = t.Target
		default:
			return true, ""
		}
	}
}

func (ev *Evaluator) evalArgs(exprs []parser.Expr, env *Env, leading []Value) ([]Value, error) {
	args := make([]Value, 0, len(leading)+len(exprs))
	args = append(args, leading...)
	for _, a := range exprs {
		val, err := ev.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// evalCall evaluates a call. leading holds pipeline operands that go before
// the written arguments.
func (ev *Evaluator) evalCall(call *parser.CallExpr, env *Env, leading []Value) (Value, error) {
	if fe, ok := call.Callee.(*parser.FieldExpr); ok {
		recv, err := ev.evalExpr(fe.Target, env)
		if err != nil {
			return Void, err
		}
		args, err := ev.evalArgs(call.Args, env, leading)
		if err != nil {
			return Void, err
		}
		mutable, root := placeMutable(fe.Target, env)
		return ev.callMember(recv, fe.Name, args, receiver{mutable: mutable, name: root}, call.Posn)
	}
	callee, err := ev.evalExpr(call.Callee, env)
	if err != nil {
		return Void, err
	}
	args, err := ev.evalArgs(call.Args, env, leading)
	if err != nil {
		return Void, err
	}
	return ev.callValue(callee, args, call.Posn)
}

// receiver describes the binding a method is called through.
type receiver struct {
	mutable bool
	name    string
}

func (r receiver) describe() string {
	if r.name == "" {
		return "value"
	}
	return "binding " + r.name
}

func (ev *Evaluator) callMember(recv Value, name string, args []Value, rc receiver, pos parser.Position) (Value, error) {
	switch recv.Type {
	case TypeStruct:
		inst := recv.Struct()
		if m := ev.lookupMethod(inst.Def.Name, name); m != nil {
			if !m.IsMethod() {
				return Void, newRuntimeError(TypeError, pos, "%s.%s has no self parameter; call it as %s.%s(...)", inst.Def.Name, name, inst.Def.Name, name)
			}
			if m.Params[0].Mutable && !rc.mutable {
				return Void, newRuntimeError(ImmutableReceiver, pos, "cannot call mut self method %s on immutable %s", name, rc.describe())
			}
			return ev.invoke(m, &recv, args, pos)
		}
		if field, ok := inst.Fields[name]; ok && (field.Type == TypeFunction || field.Type == TypeBuiltin) {
			return ev.callValue(field, args, pos)
		}
		if name == "to_string" && len(args) == 0 {
			return StringValue(recv.String()), nil
		}
		return Void, newRuntimeError(UnknownMethod, pos, "%s has no method %s", inst.Def.Name, name)
	case TypeStructDef:
		def := recv.StructDef()
		m := ev.lookupMethod(def.Name, name)
		if m == nil {
			return Void, newRuntimeError(UnknownMethod, pos, "struct %s has no function %s", def.Name, name)
		}
		return ev.invoke(m, nil, args, pos)
	case TypeModule:
		fn, ok := recv.Module().Get(name)
		if !ok {
			return Void, newRuntimeError(UnboundIdentifier, pos, "module %s has no export %s", recv.Module().Path, name)
		}
		return ev.callValue(fn, args, pos)
	}
	val, err := callValueMethod(recv, name, args, rc)
	if err != nil {
		return Void, withPos(err, pos)
	}
	return val, nil
}

func (ev *Evaluator) callValue(fn Value, args []Value, pos parser.Position) (Value, error) {
	switch fn.Type {
	case TypeFunction:
		return ev.invoke(fn.Closure(), nil, args, pos)
	case TypeBuiltin:
		val, err := fn.Builtin().Fn(ev, args)
		if err != nil {
			return Void, withPos(err, pos)
		}
		return val, nil
	case TypeStructDef:
		return Void, newRuntimeError(TypeError, pos, "struct %s is built with %s{...}, not called", fn.StructDef().Name, fn.StructDef().Name)
	}
	return Void, newRuntimeError(TypeError, pos, "%s is not callable", fn.TypeName())
}

func (ev *Evaluator) maxDepth() int {
	if ev.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return ev.MaxDepth
}

// invoke calls c in a fresh scope whose parent is the closure's defining
// scope. When self is non-nil it is bound to the first parameter.
func (ev *Evaluator) invoke(c *Closure, self *Value, args []Value, pos parser.Position) (Value, error) {
	params := c.Params
	if self != nil {
		params = params[1:]
	}
	if len(args) != len(params) {
		return Void, newRuntimeError(InvalidArgument, pos, "%s expects %d argument(s), got %d", closureName(c), len(params), len(args))
	}

	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > ev.maxDepth() {
		ev.Logger.Debug("call depth exceeded", "function", closureName(c), "depth", ev.depth)
		return Void, newRuntimeError(StackOverflow, pos, "maximum call depth %d exceeded in %s", ev.maxDepth(), closureName(c))
	}

	scope := NewEnv(c.Env)
	if self != nil {
		scope.Define("self", *self, c.Params[0].Mutable)
	}
	for i, p := range params {
		scope.Define(p.Name, args[i], p.Name == "self" && p.Mutable)
	}

	var (
		result Value
		err    error
	)
	if block, ok := c.Body.(*parser.BlockExpr); ok {
		result, err = ev.evalStmts(block.Stmts, scope)
	} else {
		result, err = ev.evalExpr(c.Body, scope)
	}
	if err != nil {
		switch sig := err.(type) {
		case *returnSignal:
			return sig.value, nil
		case *loopSignal:
			return Void, newRuntimeError(InvalidArgument, sig.pos, "%s", sig.Error())
		}
		return Void, err
	}
	return result, nil
}

func closureName(c *Closure) string {
	if c.Name == "" {
		return "lambda"
	}
	return c.Name
}

// evalPipeline supplies the left operand, or each element of an argument
// tuple, as the leading arguments of the call on the right.
func (ev *Evaluator) evalPipeline(pe *parser.PipelineExpr, env *Env) (Value, error) {
	var args []Value
	if tuple, ok := pe.Left.(*parser.TupleExpr); ok {
		vals, err := ev.evalArgs(tuple.Elements, env, nil)
		if err != nil {
			return Void, err
		}
		args = vals
	} else {
		val, err := ev.evalExpr(pe.Left, env)
		if err != nil {
			return Void, err
		}
		args = []Value{val}
	}
	switch right := pe.Right.(type) {
	case *parser.CallExpr:
		return ev.evalCall(right, env, args)
	case *parser.FieldExpr:
		recv, err := ev.evalExpr(right.Target, env)
		if err != nil {
			return Void, err
		}
		mutable, root := placeMutable(right.Target, env)
		return ev.callMember(recv, right.Name, args, receiver{mutable: mutable, name: root}, pe.Posn)
	}
	fn, err := ev.evalExpr(pe.Right, env)
	if err != nil {
		return Void, err
	}
	return ev.callValue(fn, args, pe.Posn)
}

func (ev *Evaluator) evalAssign(a *parser.AssignExpr, env *Env) (Value, error) {
	switch target := a.Target.(type) {
	case *parser.IdentifierExpr:
		val, err := ev.evalExpr(a.Value, env)
		if err != nil {
			return Void, err
		}
		if err := env.Set(target.Name, val); err != nil {
			return Void, withPos(err, a.Posn)
		}
		return val, nil
	case *parser.FieldExpr:
		if mutable, root := placeMutable(target.Target, env); !mutable {
			return Void, newRuntimeError(ImmutableReceiver, a.Posn, "cannot assign to field %s through immutable binding %s", target.Name, root)
		}
		obj, err := ev.evalExpr(target.Target, env)
		if err != nil {
			return Void, err
		}
		val, err := ev.evalExpr(a.Value, env)
		if err != nil {
			return Void, err
		}
		if obj.Type != TypeStruct {
			return Void, newRuntimeError(TypeError, a.Posn, "cannot set field %s on %s", target.Name, obj.TypeName())
		}
		inst := obj.Struct()
		if _, ok := inst.Fields[target.Name]; !ok {
			return Void, newRuntimeError(UnknownField, target.Posn, "struct %s has no field %s", inst.Def.Name, target.Name)
		}
		inst.Fields[target.Name] = val
		return val, nil
	case *parser.IndexExpr:
		if mutable, root := placeMutable(target.Target, env); !mutable {
			return Void, newRuntimeError(ImmutableReceiver, a.Posn, "cannot assign to an element of immutable binding %s", root)
		}
		container, err := ev.evalExpr(target.Target, env)
		if err != nil {
			return Void, err
		}
		index, err := ev.evalExpr(target.Index, env)
		if err != nil {
			return Void, err
		}
		val, err := ev.evalExpr(a.Value, env)
		if err != nil {
			return Void, err
		}
		switch container.Type {
		case TypeList:
			items := container.List().Items
			i, err := listIndex(index, len(items), target.Posn)
			if err != nil {
				return Void, err
			}
			items[i] = val
		case TypeDict:
			if index.Type != TypeString {
				return Void, newRuntimeError(TypeError, target.Posn, "dict keys must be strings, got %s", index.TypeName())
			}
			container.Dict().Set(index.Str(), val)
		default:
			return Void, newRuntimeError(TypeError, target.Posn, "cannot assign to an element of %s", container.TypeName())
		}
		return val, nil
	}
	return Void, newRuntimeError(TypeError, a.Posn, "invalid assignment target")
}

func listIndex(index Value, n int, pos parser.Position) (int, error) {
	if index.Type != TypeNumber {
		return 0, newRuntimeError(TypeError, pos, "index must be a number, got %s", index.TypeName())
	}
	i, ok := index.Number().Int64()
	if !ok {
		return 0, newRuntimeError(InvalidArgument, pos, "index %s is not an integer", index.Number())
	}
	if i < 0 || i >= int64(n) {
		return 0, newRuntimeError(InvalidArgument, pos, "index %d out of range [0, %d)", i, n)
	}
	return int(i), nil
}

func indexValue(container, index Value, pos parser.Position) (Value, error) {
	switch container.Type {
	case TypeList:
		items := container.List().Items
		i, err := listIndex(index, len(items), pos)
		if err != nil {
			return Void, err
		}
		return items[i], nil
	case TypeDict:
		if index.Type != TypeString {
			return Void, newRuntimeError(TypeError, pos, "dict keys must be strings, got %s", index.TypeName())
		}
		val, ok := container.Dict().Get(index.Str())
		if !ok {
			return Void, newRuntimeError(InvalidArgument, pos, "key %s not found", quote(index.Str()))
		}
		return val, nil
	case TypeString:
		runes := []rune(container.Str())
		i, err := listIndex(index, len(runes), pos)
		if err != nil {
			return Void, err
		}
		return StringValue(string(runes[i])), nil
	}
	return Void, newRuntimeError(TypeError, pos, "cannot index %s", container.TypeName())
}

func (ev *Evaluator) evalUnary(e *parser.UnaryExpr, env *Env) (Value, error) {
	val, err := ev.evalExpr(e.Expr, env)
	if err != nil {
		return Void, err
	}
	switch e.Op {
	case parser.TokenMinus:
		if val.Type != TypeNumber {
			return Void, newRuntimeError(TypeError, e.Posn, "cannot negate %s", val.TypeName())
		}
		return NumberValue(val.Number().Neg()), nil
	case parser.TokenBang:
		if val.Type != TypeBool {
			return Void, newRuntimeError(TypeError, e.Posn, "operand of ! must be bool, got %s", val.TypeName())
		}
		return BoolValue(!val.Bool()), nil
	}
	return Void, newRuntimeError(TypeError, e.Posn, "unknown unary operator %s", e.Op)
}

func (ev *Evaluator) evalBinary(e *parser.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return Void, err
	}
	if e.Op == parser.TokenAndAnd || e.Op == parser.TokenOrOr {
		if left.Type != TypeBool {
			return Void, newRuntimeError(TypeError, e.Posn, "operands of %s must be bool, got %s", e.Op, left.TypeName())
		}
		if (e.Op == parser.TokenAndAnd) != left.Bool() {
			return left, nil
		}
		right, err := ev.evalExpr(e.Right, env)
		if err != nil {
			return Void, err
		}
		if right.Type != TypeBool {
			return Void, newRuntimeError(TypeError, e.Posn, "operands of %s must be bool, got %s", e.Op, right.TypeName())
		}
		return right, nil
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return Void, err
	}
	return binaryOp(e.Op, left, right, e.Posn)
}

func binaryOp(op parser.TokenType, left, right Value, pos parser.Position) (Value, error) {
	switch op {
	case parser.TokenEqualEqual:
		return BoolValue(Equal(left, right)), nil
	case parser.TokenBangEqual:
		return BoolValue(!Equal(left, right)), nil
	case parser.TokenPlus:
		switch {
		case left.Type == TypeNumber && right.Type == TypeNumber:
			return NumberValue(left.Number().Add(right.Number())), nil
		case left.Type == TypeList && right.Type == TypeList:
			items := append(append([]Value(nil), left.List().Items...), right.List().Items...)
			return ListValue(items...), nil
		case left.Type == TypeString || right.Type == TypeString:
			return StringValue(left.String() + right.String()), nil
		}
		return Void, mismatch(op, left, right, pos)
	case parser.TokenLess, parser.TokenLessEqual, parser.TokenGreater, parser.TokenGreaterEqual:
		var cmp int
		switch {
		case left.Type == TypeNumber && right.Type == TypeNumber:
			cmp = left.Number().Cmp(right.Number())
		case left.Type == TypeString && right.Type == TypeString:
			switch {
			case left.Str() < right.Str():
				cmp = -1
			case left.Str() > right.Str():
				cmp = 1
			}
		default:
			return Void, mismatch(op, left, right, pos)
		}
		switch op {
		case parser.TokenLess:
			return BoolValue(cmp < 0), nil
		case parser.TokenLessEqual:
			return BoolValue(cmp <= 0), nil
		case parser.TokenGreater:
			return BoolValue(cmp > 0), nil
		default:
			return BoolValue(cmp >= 0), nil
		}
	}

	if left.Type != TypeNumber || right.Type != TypeNumber {
		return Void, mismatch(op, left, right, pos)
	}
	a, b := left.Number(), right.Number()
	var (
		n   rational.Number
		err error
	)
	switch op {
	case parser.TokenMinus:
		n = a.Sub(b)
	case parser.TokenStar:
		n = a.Mul(b)
	case parser.TokenSlash:
		n, err = a.Div(b)
	case parser.TokenPercent:
		n, err = a.Rem(b)
	case parser.TokenStarStar:
		n, err = a.Pow(b)
	default:
		return Void, newRuntimeError(TypeError, pos, "unknown operator %s", op)
	}
	if err != nil {
		return Void, arithError(err, pos)
	}
	return NumberValue(n), nil
}

func mismatch(op parser.TokenType, left, right Value, pos parser.Position) error {
	return newRuntimeError(TypeError, pos, "unsupported operand types for %s: %s and %s", op, left.TypeName(), right.TypeName())
}

// arithError maps rational failures to runtime error kinds.
func arithError(err error, pos parser.Position) error {
	if errors.Is(err, rational.ErrDivisionByZero) {
		return newRuntimeError(DivisionByZero, pos, "division by zero")
	}
	return newRuntimeError(InvalidArgument, pos, "%v", err)
}

func (ev *Evaluator) evalIf(e *parser.IfExpr, env *Env) (Value, error) {
	cond, err := ev.evalExpr(e.Cond, env)
	if err != nil {
		return Void, err
	}
	if cond.Type != TypeBool {
		return Void, newRuntimeError(TypeError, e.Cond.Pos(), "if condition must be bool, got %s", cond.TypeName())
	}
	if cond.Bool() {
		return ev.evalStmts(e.Then.Stmts, NewEnv(env))
	}
	if e.Else == nil {
		return Void, nil
	}
	return ev.evalExpr(e.Else, env)
}

func (ev *Evaluator) evalMatch(m *parser.MatchExpr, env *Env) (Value, error) {
	subject, err := ev.evalExpr(m.Subject, env)
	if err != nil {
		return Void, err
	}
	for _, arm := range m.Arms {
		bindings, ok := MatchPattern(arm.Pattern, subject)
		if !ok {
			continue
		}
		scope := NewEnv(env)
		for name, val := range bindings {
			scope.Define(name, val, false)
		}
		return ev.evalExpr(arm.Body, scope)
	}
	return Void, newRuntimeError(NonExhaustiveMatch, m.Posn, "no arm matches %s", subject.Repr())
}
