package lang

// Env implements a lexical environment chain. A closure keeps a pointer to
// the Env it was created in, which keeps the whole chain alive.
type Env struct {
	parent *Env
	values map[string]*binding
}

type binding struct {
	value   Value
	mutable bool
}

// NewEnv creates an environment with optional parent.
func NewEnv(parent *Env) *Env {
	return &Env{
		parent: parent,
		values: make(map[string]*binding),
	}
}

// Define binds name in the current frame, shadowing any outer binding.
func (e *Env) Define(name string, val Value, mutable bool) {
	e.values[name] = &binding{value: val, mutable: mutable}
}

// Set updates an existing binding, searching parents if needed.
func (e *Env) Set(name string, val Value) error {
	b := e.lookup(name)
	if b == nil {
		return Errorf(UnboundIdentifier, "%s is not defined", name)
	}
	if !b.mutable {
		return Errorf(ImmutableAssignment, "cannot assign to %s: declared with val, not val mut", name)
	}
	b.value = val
	return nil
}

// Get retrieves a binding, searching parents if necessary.
func (e *Env) Get(name string) (Value, error) {
	if b := e.lookup(name); b != nil {
		return b.value, nil
	}
	return Value{}, Errorf(UnboundIdentifier, "%s is not defined", name)
}

// IsMutable reports whether name is bound and, if so, whether it was declared mutable.
func (e *Env) IsMutable(name string) (mutable, found bool) {
	if b := e.lookup(name); b != nil {
		return b.mutable, true
	}
	return false, false
}

func (e *Env) lookup(name string) *binding {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.values[name]; ok {
			return b
		}
	}
	return nil
}

// Parent returns the parent environment.
func (e *Env) Parent() *Env {
	return e.parent
}
