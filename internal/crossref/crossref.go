// Package crossref links Python items to the Rust implementations that
// back them. It indexes binding metadata on the Rust side, matches
// Python items by their externally visible names, and records a
// CrossRef plus symmetric back-references for every match.
//
// The resolver is the single source of truth for cross-references:
// synthesized modules are matched through the same index as authored
// ones, so every link in the model comes out of one code path.
package crossref

import (
	"fmt"
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// CollisionError reports two Rust items claiming the same external
// identity. This is fatal: a binding registry with duplicate names
// would silently shadow one of the two.
type CollisionError struct {
	Identity string
	First    model.SourceSpan
	Second   model.SourceSpan
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("duplicate external identity %q: first declared at %s, declared again at %s",
		e.Identity, e.First.Location, e.Second.Location)
}

// DanglingRefError reports a cross-reference endpoint that does not
// resolve to any item in the model.
type DanglingRefError struct {
	Ref     model.CrossRef
	Missing string
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("cross-reference %s <-> %s points at %q, which is not in the model",
		e.Ref.PythonPath, e.Ref.RustPath, e.Missing)
}

type classEntry struct {
	rustName string
	module   []string
	span     model.SourceSpan
	setRef   func(*model.ItemRef)
}

type fnEntry struct {
	rustName string
	module   []string
	span     model.SourceSpan
	setRef   func(*model.ItemRef)
}

type methodKey struct {
	target string
	pyName string
}

type methodEntry struct {
	rustName string
	span     model.SourceSpan
	setRef   func(*model.ItemRef)
}

// Resolver matches Python items against indexed Rust bindings.
type Resolver struct {
	proj *modpath.Projector
	// isBinding reports whether a Python module display path is
	// configured as native bindings.
	isBinding func(string) bool

	classes   map[string]classEntry
	functions map[string]fnEntry
	methods   map[methodKey]methodEntry
}

// New returns a resolver sharing the run's path projector. isBinding
// may be nil when no modules are configured as bindings.
func New(proj *modpath.Projector, isBinding func(string) bool) *Resolver {
	if isBinding == nil {
		isBinding = func(string) bool { return false }
	}
	return &Resolver{
		proj:      proj,
		isBinding: isBinding,
		classes:   make(map[string]classEntry),
		functions: make(map[string]fnEntry),
		methods:   make(map[methodKey]methodEntry),
	}
}

// Resolve indexes the Rust side of the model, links every Python item
// it can, appends the resulting cross-references to the model, and
// verifies that no reference dangles. Returned warnings cover methods
// on bound classes that have no Rust counterpart.
func (r *Resolver) Resolve(m *model.DocModel) ([]model.Warning, error) {
	if err := r.index(m.RustModules); err != nil {
		return nil, err
	}

	var warnings []model.Warning
	for i := range m.PythonModules {
		warns := r.resolveModule(&m.PythonModules[i], &m.CrossRefs)
		warnings = append(warnings, warns...)
	}

	if err := verifyRefs(m); err != nil {
		return warnings, err
	}
	return warnings, nil
}

// effectiveName is the externally visible name of a bound item: the
// explicit binding name when given, the declared name otherwise.
func effectiveName(declared string, binding *model.BindingMeta) string {
	if binding != nil && binding.Name != "" {
		return binding.Name
	}
	return declared
}

// identity is the external identity an exposed item claims: a
// container plus the effective name. The container is the explicit
// binding module when declared, and the last segment of the enclosing
// module's path otherwise.
func identity(declared string, binding *model.BindingMeta, modPath []string) string {
	name := effectiveName(declared, binding)
	if binding != nil && binding.Module != "" {
		return binding.Module + "." + name
	}
	return modPath[len(modPath)-1] + "." + name
}

// identityCandidates lists the identities a Python item in the given
// module could have been registered under, most specific first. The
// package root also maps back to the crate root, since the two name
// the same module across the bridge.
func (r *Resolver) identityCandidates(modPath []string, name string) []string {
	var candidates []string
	last := modPath[len(modPath)-1]
	if len(modPath) > 1 {
		// Everything below the package, then just the last segment.
		sub := strings.Join(modPath[1:], ".")
		candidates = append(candidates, sub+"."+name)
		if last != sub {
			candidates = append(candidates, last+"."+name)
		}
	} else {
		candidates = append(candidates, last+"."+name)
	}
	if last == r.proj.PackageName && r.proj.CrateName != r.proj.PackageName {
		candidates = append(candidates, r.proj.CrateName+"."+name)
	}
	return candidates
}

func (r *Resolver) index(modules []model.RustModule) error {
	for mi := range modules {
		mod := &modules[mi]
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.RustStruct:
				if it.Binding == nil {
					continue
				}
				id := identity(it.Name, it.Binding, mod.Path)
				if prev, ok := r.classes[id]; ok {
					return &CollisionError{Identity: id, First: prev.span, Second: it.Src}
				}
				s := it
				r.classes[id] = classEntry{
					rustName: it.Name,
					module:   mod.Path,
					span:     it.Src,
					setRef:   func(ref *model.ItemRef) { s.PyRef = ref },
				}
			case *model.RustEnum:
				if it.Binding == nil {
					continue
				}
				id := identity(it.Name, it.Binding, mod.Path)
				if prev, ok := r.classes[id]; ok {
					return &CollisionError{Identity: id, First: prev.span, Second: it.Src}
				}
				e := it
				r.classes[id] = classEntry{
					rustName: it.Name,
					module:   mod.Path,
					span:     it.Src,
					setRef:   func(ref *model.ItemRef) { e.PyRef = ref },
				}
			case *model.RustFunction:
				if it.Binding == nil {
					continue
				}
				id := identity(it.Name, it.Binding, mod.Path)
				if prev, ok := r.functions[id]; ok {
					return &CollisionError{Identity: id, First: prev.span, Second: it.Src}
				}
				f := it
				r.functions[id] = fnEntry{
					rustName: it.Name,
					module:   mod.Path,
					span:     it.Src,
					setRef:   func(ref *model.ItemRef) { f.PyRef = ref },
				}
			case *model.RustImpl:
				if !it.PyMethods {
					continue
				}
				for i := range it.Methods {
					method := &it.Methods[i]
					key := methodKey{target: it.Target, pyName: effectiveName(method.Name, method.Binding)}
					if prev, ok := r.methods[key]; ok {
						return &CollisionError{
							Identity: key.target + "." + key.pyName,
							First:    prev.span,
							Second:   method.Src,
						}
					}
					r.methods[key] = methodEntry{
						rustName: method.Name,
						span:     method.Src,
						setRef:   func(ref *model.ItemRef) { method.PyRef = ref },
					}
				}
			}
		}
	}
	return nil
}

func (r *Resolver) lookupClass(modPath []string, name string) (classEntry, bool) {
	for _, id := range r.identityCandidates(modPath, name) {
		if entry, ok := r.classes[id]; ok {
			return entry, true
		}
	}
	return classEntry{}, false
}

func (r *Resolver) lookupFunction(modPath []string, name string) (fnEntry, bool) {
	for _, id := range r.identityCandidates(modPath, name) {
		if entry, ok := r.functions[id]; ok {
			return entry, true
		}
	}
	return fnEntry{}, false
}

func (r *Resolver) resolveModule(mod *model.PythonModule, refs *[]model.CrossRef) []model.Warning {
	bound := r.isBinding(modpath.Display(mod.Path, model.LangPython)) ||
		mod.Origin == model.OriginBinding || mod.Synthesized
	if !bound {
		return nil
	}
	mod.Origin = model.OriginBinding

	var warnings []model.Warning
	modulePath := modpath.Display(mod.Path, model.LangPython)
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *model.PyClass:
			entry, ok := r.lookupClass(mod.Path, it.Name)
			if !ok {
				warnings = append(warnings, unresolvedClassMethods(it, modulePath)...)
				continue
			}
			rustPath := modpath.ItemPath(entry.module, entry.rustName, model.LangRust)
			pyPath := modulePath + "." + it.Name
			it.RustImpl = &model.ItemRef{Path: rustPath, Name: entry.rustName}
			entry.setRef(&model.ItemRef{Path: pyPath, Name: it.Name})
			*refs = append(*refs, model.CrossRef{
				PythonPath: pyPath,
				RustPath:   rustPath,
				Relation:   model.RefBinding,
			})
			warnings = append(warnings, r.resolveMethods(it, entry, pyPath, refs)...)
		case *model.PyFunction:
			entry, ok := r.lookupFunction(mod.Path, it.Name)
			if !ok {
				continue
			}
			rustPath := modpath.ItemPath(entry.module, entry.rustName, model.LangRust)
			pyPath := modulePath + "." + it.Name
			it.RustImpl = &model.ItemRef{Path: rustPath, Name: entry.rustName}
			entry.setRef(&model.ItemRef{Path: pyPath, Name: it.Name})
			*refs = append(*refs, model.CrossRef{
				PythonPath: pyPath,
				RustPath:   rustPath,
				Relation:   model.RefBinding,
			})
		}
	}
	return warnings
}

// resolveMethods links the methods of a bound class. Methods live in a
// nested scope: the lookup key is the enclosing class's Rust target
// plus the method's external name, never the bare method name.
func (r *Resolver) resolveMethods(class *model.PyClass, entry classEntry, pyClassPath string, refs *[]model.CrossRef) []model.Warning {
	var warnings []model.Warning
	for i := range class.Methods {
		method := &class.Methods[i]
		key := methodKey{target: entry.rustName, pyName: method.Name}
		mEntry, ok := r.methods[key]
		if !ok {
			if isDunder(method.Name) {
				continue
			}
			loc := method.Src.Location
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnUnresolvedMethod,
				Message: fmt.Sprintf("method %s.%s has no Rust counterpart on %s", pyClassPath, method.Name, entry.rustName),
				Where:   &loc,
			})
			continue
		}
		rustPath := modpath.ItemPath(entry.module, entry.rustName, model.LangRust) + "::" + mEntry.rustName
		pyPath := pyClassPath + "." + method.Name
		method.RustImpl = &model.ItemRef{Path: rustPath, Name: mEntry.rustName}
		mEntry.setRef(&model.ItemRef{Path: pyPath, Name: method.Name})
		*refs = append(*refs, model.CrossRef{
			PythonPath: pyPath,
			RustPath:   rustPath,
			Relation:   model.RefBinding,
		})
	}
	return warnings
}

// unresolvedClassMethods reports every method of a class in a binding
// module whose enclosing type has no Rust counterpart. Without a
// resolved class the methods cannot be matched either, so each one is
// surfaced rather than dropped.
func unresolvedClassMethods(class *model.PyClass, modulePath string) []model.Warning {
	var warnings []model.Warning
	for i := range class.Methods {
		method := &class.Methods[i]
		if isDunder(method.Name) {
			continue
		}
		loc := method.Src.Location
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnUnresolvedMethod,
			Message: fmt.Sprintf("method %s.%s.%s has no resolvable class binding", modulePath, class.Name, method.Name),
			Where:   &loc,
		})
	}
	return warnings
}

// isDunder reports Python special methods, which rarely have a
// same-named Rust counterpart and should not produce noise.
func isDunder(name string) bool {
	return len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__"
}

// verifyRefs checks every cross-reference endpoint against the set of
// item paths actually present in the model.
func verifyRefs(m *model.DocModel) error {
	rustPaths := make(map[string]bool)
	for _, mod := range m.RustModules {
		base := modpath.Display(mod.Path, model.LangRust)
		rustPaths[base] = true
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.RustStruct:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustEnum:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustFunction:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustTrait:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustConst:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustTypeAlias:
				rustPaths[base+"::"+it.Name] = true
			case *model.RustImpl:
				for _, method := range it.Methods {
					rustPaths[base+"::"+it.Target+"::"+method.Name] = true
				}
			}
		}
	}

	pyPaths := make(map[string]bool)
	for _, mod := range m.PythonModules {
		base := modpath.Display(mod.Path, model.LangPython)
		pyPaths[base] = true
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.PyClass:
				pyPaths[base+"."+it.Name] = true
				for _, method := range it.Methods {
					pyPaths[base+"."+it.Name+"."+method.Name] = true
				}
			case *model.PyFunction:
				pyPaths[base+"."+it.Name] = true
			case *model.PyVariable:
				pyPaths[base+"."+it.Name] = true
			}
		}
	}

	for _, ref := range m.CrossRefs {
		if !pyPaths[ref.PythonPath] {
			return &DanglingRefError{Ref: ref, Missing: ref.PythonPath}
		}
		if !rustPaths[ref.RustPath] {
			return &DanglingRefError{Ref: ref, Missing: ref.RustPath}
		}
	}
	return nil
}
