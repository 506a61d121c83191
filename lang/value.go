package lang

import (
	"strings"

	"github.com/sergev/sag/parser"
	"github.com/sergev/sag/rational"
)

// ValueType enumerates the different runtime value categories.
type ValueType int

const (
	TypeVoid ValueType = iota
	TypeNumber
	TypeString
	TypeBool
	TypeList
	TypeDict
	TypeStruct
	TypeStructDef
	TypeFunction
	TypeBuiltin
	TypeOption
	TypeResult
	TypeModule
)

// Value represents any runtime object in the interpreter. Lists, dicts and
// struct instances are held by pointer, so copies of a Value alias the same
// container.
type Value struct {
	Type    ValueType
	payload interface{}
}

// List is an ordered, growable sequence.
type List struct {
	Items []Value
}

// Dict is a string-keyed map that remembers insertion order.
type Dict struct {
	keys  []string
	items map[string]Value
}

// StructDef is a declared struct: its name and ordered field names.
type StructDef struct {
	Name   string
	Fields []string
}

// StructInstance is a value built from a StructDef.
type StructInstance struct {
	Def    *StructDef
	Fields map[string]Value
}

// Primitive represents a built-in Go function exposed to the interpreter.
type Primitive func(*Evaluator, []Value) (Value, error)

// Builtin is a named Primitive.
type Builtin struct {
	Name string
	Fn   Primitive
}

// Closure represents a user-defined function or lambda with lexical scope.
type Closure struct {
	Name   string // empty for lambdas
	Params []parser.Param
	Body   parser.Expr
	Env    *Env
}

// IsMethod reports whether the first parameter is self.
func (c *Closure) IsMethod() bool {
	return len(c.Params) > 0 && c.Params[0].Name == "self"
}

type variant struct {
	ok    bool // Some or Suc
	inner Value
}

// Void is the value of statements and of blocks without a trailing expression.
var Void = Value{Type: TypeVoid}

// None is the empty Option.
var None = Value{Type: TypeOption, payload: variant{}}

// NumberValue wraps a rational.
func NumberValue(n rational.Number) Value {
	return Value{Type: TypeNumber, payload: n}
}

// IntValue constructs an integral number.
func IntValue(i int64) Value {
	return NumberValue(rational.FromInt(i))
}

// BoolValue returns the boolean Value equivalent.
func BoolValue(b bool) Value {
	return Value{Type: TypeBool, payload: b}
}

// StringValue constructs a string Value.
func StringValue(s string) Value {
	return Value{Type: TypeString, payload: s}
}

// ListValue constructs a new list holding items.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Type: TypeList, payload: &List{Items: items}}
}

// NewDict returns an empty dict.
func NewDict() *Dict {
	return &Dict{items: make(map[string]Value)}
}

// DictValue wraps d.
func DictValue(d *Dict) Value {
	return Value{Type: TypeDict, payload: d}
}

// StructDefValue wraps a struct declaration.
func StructDefValue(def *StructDef) Value {
	return Value{Type: TypeStructDef, payload: def}
}

// StructValue wraps a struct instance.
func StructValue(inst *StructInstance) Value {
	return Value{Type: TypeStruct, payload: inst}
}

// FunctionValue wraps a closure.
func FunctionValue(c *Closure) Value {
	return Value{Type: TypeFunction, payload: c}
}

// BuiltinValue wraps a primitive under name.
func BuiltinValue(name string, fn Primitive) Value {
	return Value{Type: TypeBuiltin, payload: &Builtin{Name: name, Fn: fn}}
}

// SomeValue wraps v in Some.
func SomeValue(v Value) Value {
	return Value{Type: TypeOption, payload: variant{ok: true, inner: v}}
}

// SucValue wraps v in Suc.
func SucValue(v Value) Value {
	return Value{Type: TypeResult, payload: variant{ok: true, inner: v}}
}

// FailValue wraps v in Fail.
func FailValue(v Value) Value {
	return Value{Type: TypeResult, payload: variant{inner: v}}
}

// ModuleValue wraps a loaded module.
func ModuleValue(m *Module) Value {
	return Value{Type: TypeModule, payload: m}
}

func (v Value) Number() rational.Number {
	if n, ok := v.payload.(rational.Number); ok {
		return n
	}
	return rational.Number{}
}

func (v Value) Bool() bool {
	if b, ok := v.payload.(bool); ok {
		return b
	}
	return false
}

func (v Value) Str() string {
	if s, ok := v.payload.(string); ok {
		return s
	}
	return ""
}

func (v Value) List() *List {
	if l, ok := v.payload.(*List); ok {
		return l
	}
	return nil
}

func (v Value) Dict() *Dict {
	if d, ok := v.payload.(*Dict); ok {
		return d
	}
	return nil
}

func (v Value) Struct() *StructInstance {
	if s, ok := v.payload.(*StructInstance); ok {
		return s
	}
	return nil
}

func (v Value) StructDef() *StructDef {
	if d, ok := v.payload.(*StructDef); ok {
		return d
	}
	return nil
}

func (v Value) Closure() *Closure {
	if c, ok := v.payload.(*Closure); ok {
		return c
	}
	return nil
}

func (v Value) Builtin() *Builtin {
	if b, ok := v.payload.(*Builtin); ok {
		return b
	}
	return nil
}

func (v Value) Module() *Module {
	if m, ok := v.payload.(*Module); ok {
		return m
	}
	return nil
}

// Option returns the wrapped value and whether v is Some.
func (v Value) Option() (Value, bool) {
	if o, ok := v.payload.(variant); ok && v.Type == TypeOption {
		return o.inner, o.ok
	}
	return Void, false
}

// Result returns the wrapped value and whether v is Suc.
func (v Value) Result() (Value, bool) {
	if r, ok := v.payload.(variant); ok && v.Type == TypeResult {
		return r.inner, r.ok
	}
	return Void, false
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.items[key]
	return v, ok
}

// Set inserts or replaces key. A replaced key keeps its position.
func (d *Dict) Set(key string, v Value) {
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = v
}

// Delete removes key and returns its previous value.
func (d *Dict) Delete(key string) (Value, bool) {
	v, ok := d.items[key]
	if !ok {
		return Void, false
	}
	delete(d.items, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return v, true
}

func (d *Dict) Clear() {
	d.keys = nil
	d.items = make(map[string]Value)
}

// TypeName names v's type for error messages. Struct instances report their
// struct name.
func (v Value) TypeName() string {
	switch v.Type {
	case TypeVoid:
		return "void"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	case TypeDict:
		return "dict"
	case TypeStruct:
		if s := v.Struct(); s != nil {
			return s.Def.Name
		}
		return "struct"
	case TypeStructDef:
		return "struct definition"
	case TypeFunction:
		return "function"
	case TypeBuiltin:
		return "builtin"
	case TypeOption:
		return "option"
	case TypeResult:
		return "result"
	case TypeModule:
		return "module"
	default:
		return "unknown"
	}
}

// String renders v for print and to_string. Strings are raw at the top level
// and quoted inside containers.
func (v Value) String() string {
	if v.Type == TypeString {
		return v.Str()
	}
	return v.Repr()
}

// Repr renders v in source form. For numbers, strings, bools and containers of
// them the result parses back to an equal value.
func (v Value) Repr() string {
	var b strings.Builder
	writeRepr(&b, v, make(map[interface{}]bool))
	return b.String()
}

func writeRepr(b *strings.Builder, v Value, seen map[interface{}]bool) {
	switch v.Type {
	case TypeVoid:
		b.WriteString("void")
	case TypeNumber:
		b.WriteString(v.Number().String())
	case TypeString:
		b.WriteString(quote(v.Str()))
	case TypeBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case TypeList:
		l := v.List()
		if seen[l] {
			b.WriteString("[...]")
			return
		}
		seen[l] = true
		defer delete(seen, l)
		b.WriteByte('[')
		for i, item := range l.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, item, seen)
		}
		b.WriteByte(']')
	case TypeDict:
		d := v.Dict()
		if d.Len() == 0 {
			b.WriteString("{::}")
			return
		}
		if seen[d] {
			b.WriteString("{:...:}")
			return
		}
		seen[d] = true
		defer delete(seen, d)
		b.WriteString("{: ")
		for i, k := range d.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(k))
			b.WriteString(" => ")
			writeRepr(b, d.items[k], seen)
		}
		b.WriteString(" :}")
	case TypeStruct:
		s := v.Struct()
		if seen[s] {
			b.WriteString(s.Def.Name + "{...}")
			return
		}
		seen[s] = true
		defer delete(seen, s)
		b.WriteString(s.Def.Name)
		b.WriteByte('{')
		for i, name := range s.Def.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString(": ")
			writeRepr(b, s.Fields[name], seen)
		}
		b.WriteByte('}')
	case TypeStructDef:
		b.WriteString("<struct " + v.StructDef().Name + ">")
	case TypeFunction:
		if name := v.Closure().Name; name != "" {
			b.WriteString("<fun " + name + ">")
		} else {
			b.WriteString("<lambda>")
		}
	case TypeBuiltin:
		b.WriteString("<builtin " + v.Builtin().Name + ">")
	case TypeOption:
		inner, ok := v.Option()
		if !ok {
			b.WriteString("None")
			return
		}
		b.WriteString("Some(")
		writeRepr(b, inner, seen)
		b.WriteByte(')')
	case TypeResult:
		inner, ok := v.Result()
		if ok {
			b.WriteString("Suc(")
		} else {
			b.WriteString("Fail(")
		}
		writeRepr(b, inner, seen)
		b.WriteByte(')')
	case TypeModule:
		b.WriteString("<module " + v.Module().Path + ">")
	default:
		b.WriteString("<unknown>")
	}
}

// quote escapes exactly the sequences the lexer understands.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Equal reports deep structural equality. Functions, builtins and modules
// compare by identity. Self-referential containers compare equal when their
// shapes match.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]interface{}]bool{})
}

// equal tracks container pairs under comparison in seen; a pair met again
// is assumed equal.
func equal(a, b Value, seen map[[2]interface{}]bool) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeVoid:
		return true
	case TypeNumber:
		return a.Number().Equal(b.Number())
	case TypeString:
		return a.Str() == b.Str()
	case TypeBool:
		return a.Bool() == b.Bool()
	case TypeList:
		la, lb := a.List(), b.List()
		if la == lb {
			return true
		}
		if len(la.Items) != len(lb.Items) {
			return false
		}
		pair := [2]interface{}{la, lb}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		defer delete(seen, pair)
		for i := range la.Items {
			if !equal(la.Items[i], lb.Items[i], seen) {
				return false
			}
		}
		return true
	case TypeDict:
		da, db := a.Dict(), b.Dict()
		if da == db {
			return true
		}
		if da.Len() != db.Len() {
			return false
		}
		pair := [2]interface{}{da, db}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		defer delete(seen, pair)
		for k, va := range da.items {
			vb, ok := db.items[k]
			if !ok || !equal(va, vb, seen) {
				return false
			}
		}
		return true
	case TypeStruct:
		sa, sb := a.Struct(), b.Struct()
		if sa == sb {
			return true
		}
		if sa.Def.Name != sb.Def.Name {
			return false
		}
		pair := [2]interface{}{sa, sb}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		defer delete(seen, pair)
		for _, name := range sa.Def.Fields {
			if !equal(sa.Fields[name], sb.Fields[name], seen) {
				return false
			}
		}
		return true
	case TypeOption, TypeResult:
		va := a.payload.(variant)
		vb := b.payload.(variant)
		return va.ok == vb.ok && equal(va.inner, vb.inner, seen)
	case TypeStructDef:
		return a.StructDef() == b.StructDef()
	case TypeFunction:
		return a.Closure() == b.Closure()
	case TypeBuiltin:
		return a.Builtin() == b.Builtin()
	case TypeModule:
		return a.Module() == b.Module()
	}
	return false
}
