package pipeline

import (
	"fmt"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// Coverage returns the fraction of public items carrying documentation,
// and the raw counts. Synthesized modules are excluded since their
// documentation state mirrors the Rust side already counted.
func Coverage(m *model.DocModel) (float64, int, int) {
	documented, total := 0, 0
	count := func(doc string) {
		total++
		if doc != "" {
			documented++
		}
	}

	for i := range m.RustModules {
		for _, item := range m.RustModules[i].Items {
			switch it := item.(type) {
			case *model.RustStruct:
				if it.Vis == model.VisPublic {
					count(it.Doc)
				}
			case *model.RustEnum:
				if it.Vis == model.VisPublic {
					count(it.Doc)
				}
			case *model.RustFunction:
				if it.Vis == model.VisPublic {
					count(it.Doc)
				}
			case *model.RustTrait:
				if it.Vis == model.VisPublic {
					count(it.Doc)
				}
			}
		}
	}
	for i := range m.PythonModules {
		mod := &m.PythonModules[i]
		if mod.Synthesized {
			continue
		}
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.PyClass:
				if isPublicName(it.Name) {
					count(it.Doc)
				}
			case *model.PyFunction:
				if isPublicName(it.Name) {
					count(it.Doc)
				}
			}
		}
	}
	if total == 0 {
		return 1, 0, 0
	}
	return float64(documented) / float64(total), documented, total
}

func isPublicName(name string) bool {
	return len(name) > 0 && name[0] != '_'
}

// QualityWarnings evaluates the configured quality gates against a
// built model. Gates never fail a build; callers decide what to do with
// the warnings.
func QualityWarnings(m *model.DocModel, q config.QualityConfig) []model.Warning {
	var warnings []model.Warning

	if q.RequireDocstrings {
		warnings = append(warnings, undocumented(m)...)
	}
	if q.MinCoverage > 0 {
		ratio, documented, total := Coverage(m)
		if ratio < q.MinCoverage {
			warnings = append(warnings, model.Warning{
				Kind: model.WarnQuality,
				Message: fmt.Sprintf("documentation coverage %.1f%% (%d/%d) below required %.1f%%",
					ratio*100, documented, total, q.MinCoverage*100),
			})
		}
	}
	return warnings
}

func undocumented(m *model.DocModel) []model.Warning {
	var warnings []model.Warning
	missing := func(kind, path string, span model.SourceSpan) {
		loc := span.Location
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnQuality,
			Message: fmt.Sprintf("%s %s has no documentation", kind, path),
			Where:   &loc,
		})
	}

	for i := range m.RustModules {
		mod := &m.RustModules[i]
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.RustStruct:
				if it.Vis == model.VisPublic && it.Doc == "" {
					missing("struct", modpath.ItemPath(mod.Path, it.Name, model.LangRust), it.Src)
				}
			case *model.RustEnum:
				if it.Vis == model.VisPublic && it.Doc == "" {
					missing("enum", modpath.ItemPath(mod.Path, it.Name, model.LangRust), it.Src)
				}
			case *model.RustFunction:
				if it.Vis == model.VisPublic && it.Doc == "" {
					missing("fn", modpath.ItemPath(mod.Path, it.Name, model.LangRust), it.Src)
				}
			case *model.RustTrait:
				if it.Vis == model.VisPublic && it.Doc == "" {
					missing("trait", modpath.ItemPath(mod.Path, it.Name, model.LangRust), it.Src)
				}
			}
		}
	}
	for i := range m.PythonModules {
		mod := &m.PythonModules[i]
		if mod.Synthesized {
			continue
		}
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.PyClass:
				if isPublicName(it.Name) && it.Doc == "" {
					missing("class", modpath.ItemPath(mod.Path, it.Name, model.LangPython), it.Src)
				}
			case *model.PyFunction:
				if isPublicName(it.Name) && it.Doc == "" {
					missing("def", modpath.ItemPath(mod.Path, it.Name, model.LangPython), it.Src)
				}
			}
		}
	}
	return warnings
}
