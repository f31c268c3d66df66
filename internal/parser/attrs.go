package parser

import (
	"regexp"
	"strings"
)

// attrs is the set of Rust attributes collected above one item.
type attrs struct {
	pyclass    bool
	pyfunction bool
	pymethods  bool
	pymodule   bool
	// name and module come from name = "..." / module = "..." pairs
	// on the binding attribute.
	name   string
	module string
	// renamed is a #[pyo3(name = "...")] on a method.
	renamed string
	derives []string
}

var (
	nameArgRe   = regexp.MustCompile(`\bname\s*=\s*"([^"]*)"`)
	moduleArgRe = regexp.MustCompile(`\bmodule\s*=\s*"([^"]*)"`)
)

// parseAttr folds one attribute line like #[pyclass(name = "Widget")]
// or #[derive(Debug, Clone)] into the accumulator.
func (a *attrs) parseAttr(text string) {
	body := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "#["), "]")
	switch {
	case strings.HasPrefix(body, "pyclass"):
		a.pyclass = true
		a.bindingArgs(body)
	case strings.HasPrefix(body, "pyfunction"):
		a.pyfunction = true
		a.bindingArgs(body)
	case strings.HasPrefix(body, "pymethods"):
		a.pymethods = true
	case strings.HasPrefix(body, "pymodule"):
		a.pymodule = true
		a.bindingArgs(body)
	case strings.HasPrefix(body, "pyo3"):
		if m := nameArgRe.FindStringSubmatch(body); m != nil {
			a.renamed = m[1]
		}
		if m := moduleArgRe.FindStringSubmatch(body); m != nil {
			a.module = m[1]
		}
	case strings.HasPrefix(body, "derive"):
		inner := strings.TrimSuffix(strings.TrimPrefix(body, "derive("), ")")
		for _, d := range strings.Split(inner, ",") {
			if d = strings.TrimSpace(d); d != "" {
				a.derives = append(a.derives, d)
			}
		}
	}
}

func (a *attrs) bindingArgs(body string) {
	if m := nameArgRe.FindStringSubmatch(body); m != nil {
		a.name = m[1]
	}
	if m := moduleArgRe.FindStringSubmatch(body); m != nil {
		a.module = m[1]
	}
}
