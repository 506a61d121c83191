package lang

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sergev/sag/parser"
)

// SourceProvider supplies module source text by canonical path.
type SourceProvider interface {
	Resolve(path string) (string, error)
}

// MapSource serves modules from memory.
type MapSource map[string]string

func (m MapSource) Resolve(p string) (string, error) {
	src, ok := m[p]
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return src, nil
}

// Module is an evaluated source unit. Its exports are the top-level val, fun
// and struct bindings, in declaration order.
type Module struct {
	Path    string
	names   []string
	exports map[string]Value
}

// Get returns the exported binding name.
func (m *Module) Get(name string) (Value, bool) {
	v, ok := m.exports[name]
	return v, ok
}

// Names lists exported names in declaration order.
func (m *Module) Names() []string {
	return append([]string(nil), m.names...)
}

// ResolvePath turns an import path into a canonical module path. Relative
// paths are taken from the directory of the importing unit; a missing
// extension defaults to .sag.
func ResolvePath(from, p string) string {
	if path.Ext(p) == "" {
		p += ".sag"
	}
	if !path.IsAbs(p) && from != "" {
		p = path.Join(path.Dir(from), p)
	}
	return path.Clean(p)
}

// Import loads the module at p relative to the unit being evaluated.
// Repeated imports of one canonical path return the cached module.
func (ev *Evaluator) Import(p string) (*Module, error) {
	canonical := ResolvePath(ev.current, p)
	if mod, ok := ev.modules[canonical]; ok {
		ev.Logger.Debug("module cache hit", "path", canonical)
		return mod, nil
	}
	for i, active := range ev.loadStack {
		if active == canonical {
			chain := append(append([]string(nil), ev.loadStack[i:]...), canonical)
			return nil, &ModuleError{
				Kind: CyclicImport,
				Path: canonical,
				Msg:  "import cycle: " + strings.Join(chain, " -> "),
			}
		}
	}
	if ev.Sources == nil {
		return nil, &ModuleError{Kind: ModuleNotFound, Path: canonical, Msg: "cannot load " + canonical, Err: ErrNotFound}
	}
	src, err := ev.Sources.Resolve(canonical)
	if err != nil {
		return nil, &ModuleError{Kind: ModuleNotFound, Path: canonical, Msg: "cannot load " + canonical, Err: err}
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("in module %s: %w", canonical, err)
	}

	ev.Logger.Debug("loading module", "path", canonical)
	saved := ev.current
	ev.current = canonical
	ev.loadStack = append(ev.loadStack, canonical)
	defer func() {
		ev.loadStack = ev.loadStack[:len(ev.loadStack)-1]
		ev.current = saved
	}()

	scope := NewEnv(ev.Builtins)
	if _, err := ev.execProgram(prog, scope); err != nil {
		var merr *ModuleError
		if errors.As(err, &merr) {
			return nil, err
		}
		return nil, fmt.Errorf("in module %s: %w", canonical, err)
	}

	mod := &Module{Path: canonical, exports: make(map[string]Value)}
	for _, stmt := range prog.Stmts {
		var name string
		switch s := stmt.(type) {
		case *parser.ValStmt:
			name = s.Name
		case *parser.FunDecl:
			name = s.Name
		case *parser.StructDecl:
			name = s.Name
		default:
			continue
		}
		if _, dup := mod.exports[name]; dup {
			continue
		}
		val, err := scope.Get(name)
		if err != nil {
			continue
		}
		mod.names = append(mod.names, name)
		mod.exports[name] = val
	}
	ev.modules[canonical] = mod
	return mod, nil
}

// execImport binds imported names into env. A single unbraced name binds
// the export of that name when there is one, and the module namespace
// otherwise.
func (ev *Evaluator) execImport(s *parser.ImportStmt, env *Env) error {
	mod, err := ev.Import(s.Path)
	if err != nil {
		return err
	}
	if !s.Braced && len(s.Names) == 1 {
		name := s.Names[0]
		if val, ok := mod.Get(name); ok {
			env.Define(name, val, false)
		} else {
			env.Define(name, ModuleValue(mod), false)
		}
		return nil
	}
	for _, name := range s.Names {
		val, ok := mod.Get(name)
		if !ok {
			return &ModuleError{
				Kind: ModuleNotFound,
				Path: mod.Path,
				Msg:  fmt.Sprintf("%s does not export %s", mod.Path, name),
			}
		}
		env.Define(name, val, false)
	}
	return nil
}
