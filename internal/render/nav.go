package render

import (
	"fmt"
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// navPage produces the navigation file for layouts that need one:
// a nav fragment for mkdocs, SUMMARY.md for mdbook. Plain markdown
// output relies on index.md alone.
func (r *Renderer) navPage(m *model.DocModel) (Page, bool) {
	switch r.format {
	case "mkdocs":
		return r.mkdocsNav(m), true
	case "mdbook":
		return r.mdbookSummary(m), true
	}
	return Page{}, false
}

// mkdocsNav emits a YAML fragment suitable for inclusion under the
// `nav:` key of mkdocs.yml.
func (r *Renderer) mkdocsNav(m *model.DocModel) Page {
	var b strings.Builder
	b.WriteString("- Home: index.md\n")
	if len(m.PythonModules) > 0 {
		b.WriteString("- Python API:\n")
		for i := range m.PythonModules {
			mod := &m.PythonModules[i]
			fmt.Fprintf(&b, "    - %s: %s\n",
				modpath.Display(mod.Path, model.LangPython),
				pagePath(mod.Path, model.LangPython))
		}
	}
	if len(m.RustModules) > 0 {
		b.WriteString("- Rust internals:\n")
		for i := range m.RustModules {
			mod := &m.RustModules[i]
			fmt.Fprintf(&b, "    - %s: %s\n",
				modpath.Display(mod.Path, model.LangRust),
				pagePath(mod.Path, model.LangRust))
		}
	}
	return Page{Path: "nav.yml", Title: "nav", Content: b.String()}
}

func (r *Renderer) mdbookSummary(m *model.DocModel) Page {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	b.WriteString("[Introduction](index.md)\n\n")
	if len(m.PythonModules) > 0 {
		b.WriteString("# Python API\n\n")
		for i := range m.PythonModules {
			mod := &m.PythonModules[i]
			fmt.Fprintf(&b, "- [%s](%s)\n",
				modpath.Display(mod.Path, model.LangPython),
				pagePath(mod.Path, model.LangPython))
		}
		b.WriteString("\n")
	}
	if len(m.RustModules) > 0 {
		b.WriteString("# Rust internals\n\n")
		for i := range m.RustModules {
			mod := &m.RustModules[i]
			fmt.Fprintf(&b, "- [%s](%s)\n",
				modpath.Display(mod.Path, model.LangRust),
				pagePath(mod.Path, model.LangRust))
		}
		b.WriteString("\n")
	}
	return Page{Path: "SUMMARY.md", Title: "Summary", Content: b.String()}
}
