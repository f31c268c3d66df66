package crossref

import (
	"fmt"
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// Synthesize builds Python module views from Rust modules that expose
// bindings, for projects with no authored Python layer over the native
// extension. Module structure is preserved: each Rust module with
// bindings becomes one Python module, with the crate name remapped to
// the Python package name.
//
// Synthesized modules carry no cross-references of their own; they are
// linked by the resolver through the same index as authored modules.
func Synthesize(rustModules []model.RustModule, proj *modpath.Projector) ([]model.PythonModule, []model.Warning) {
	var result []model.PythonModule
	var warnings []model.Warning

	for mi := range rustModules {
		mod := &rustModules[mi]
		if !hasBindings(mod) {
			continue
		}

		pyPath := remapPath(mod.Path, proj)

		// Methods first, so classes can pick theirs up by target name.
		classMethods := make(map[string][]model.PyFunction)
		for _, item := range mod.Items {
			impl, ok := item.(*model.RustImpl)
			if !ok || !impl.PyMethods {
				continue
			}
			for i := range impl.Methods {
				fn := synthFunction(&impl.Methods[i])
				classMethods[impl.Target] = append(classMethods[impl.Target], *fn)
			}
		}

		var items []model.PyItem
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.RustStruct:
				if it.Binding == nil {
					continue
				}
				items = append(items, &model.PyClass{
					Name:        effectiveName(it.Name, it.Binding),
					Doc:         it.Doc,
					Methods:     classMethods[it.Name],
					Synthesized: true,
					Src:         it.Src,
				})
			case *model.RustEnum:
				if it.Binding == nil {
					continue
				}
				attrs := make([]model.PyVariable, 0, len(it.Variants))
				for _, v := range it.Variants {
					attrs = append(attrs, model.PyVariable{Name: v.Name, Doc: v.Doc, Src: it.Src})
				}
				items = append(items, &model.PyClass{
					Name:        effectiveName(it.Name, it.Binding),
					Doc:         it.Doc,
					Attributes:  attrs,
					Synthesized: true,
					Src:         it.Src,
				})
			case *model.RustFunction:
				if it.Binding == nil {
					continue
				}
				items = append(items, synthFunction(it))
			}
		}
		if len(items) == 0 {
			continue
		}

		result = append(result, model.PythonModule{
			Path:        pyPath,
			Doc:         mod.Doc,
			Items:       items,
			Origin:      model.OriginBinding,
			Synthesized: true,
			Source:      mod.Source,
		})
		loc := mod.Source.Location
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnSynthesized,
			Message: fmt.Sprintf("module %s synthesized from bindings in %s", modpath.Display(pyPath, model.LangPython), mod.Source.Location.File),
			Where:   &loc,
		})
	}
	return result, warnings
}

func hasBindings(mod *model.RustModule) bool {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *model.RustStruct:
			if it.Binding != nil {
				return true
			}
		case *model.RustEnum:
			if it.Binding != nil {
				return true
			}
		case *model.RustFunction:
			if it.Binding != nil {
				return true
			}
		case *model.RustImpl:
			if it.PyMethods {
				return true
			}
		}
	}
	return false
}

// remapPath swaps the crate name segment for the Python package name,
// preserving the rest of the module structure.
func remapPath(rustPath []string, proj *modpath.Projector) []string {
	out := make([]string, len(rustPath))
	copy(out, rustPath)
	if len(out) > 0 && out[0] == proj.CrateName {
		out[0] = proj.PackageName
	}
	return out
}

// synthFunction derives a Python function view from a Rust one. The
// receiver and GIL token parameters are not part of the Python
// signature and are dropped.
func synthFunction(fn *model.RustFunction) *model.PyFunction {
	name := effectiveName(fn.Name, fn.Binding)
	var params []model.Param
	for _, p := range fn.Params {
		if p.Name == "self" || p.Name == "&self" || p.Name == "py" {
			continue
		}
		params = append(params, model.Param{
			Name:    p.Name,
			Type:    RustTypeToPython(p.Type),
			Default: p.Default,
		})
	}

	var sig strings.Builder
	sig.WriteString("def ")
	sig.WriteString(name)
	sig.WriteString("(")
	for i, p := range params {
		if i > 0 {
			sig.WriteString(", ")
		}
		sig.WriteString(p.Name)
		if p.Type != "" {
			sig.WriteString(": ")
			sig.WriteString(p.Type)
		}
	}
	sig.WriteString(")")
	ret := RustTypeToPython(fn.ReturnType)
	if ret != "" {
		sig.WriteString(" -> ")
		sig.WriteString(ret)
	}

	return &model.PyFunction{
		Name:        name,
		Doc:         fn.Doc,
		Signature:   sig.String(),
		Params:      params,
		ReturnType:  ret,
		IsAsync:     fn.IsAsync,
		Synthesized: true,
		Src:         fn.Src,
	}
}

// MergeSynthesized folds synthesized modules into the authored set.
// An authored module or item always wins over a synthesized one with
// the same path or name; synthesized content only fills gaps.
func MergeSynthesized(authored, synth []model.PythonModule) []model.PythonModule {
	byPath := make(map[string]int, len(authored))
	merged := make([]model.PythonModule, len(authored))
	copy(merged, authored)
	for i := range merged {
		byPath[modpath.Display(merged[i].Path, model.LangPython)] = i
	}

	for _, sm := range synth {
		idx, ok := byPath[modpath.Display(sm.Path, model.LangPython)]
		if !ok {
			merged = append(merged, sm)
			continue
		}
		existing := &merged[idx]
		names := make(map[string]bool)
		for _, item := range existing.Items {
			switch it := item.(type) {
			case *model.PyClass:
				names[it.Name] = true
			case *model.PyFunction:
				names[it.Name] = true
			case *model.PyVariable:
				names[it.Name] = true
			}
		}
		for _, item := range sm.Items {
			var name string
			switch it := item.(type) {
			case *model.PyClass:
				name = it.Name
			case *model.PyFunction:
				name = it.Name
			case *model.PyVariable:
				name = it.Name
			}
			if !names[name] {
				existing.Items = append(existing.Items, item)
			}
		}
	}
	return merged
}
