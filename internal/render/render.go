// Package render turns a frozen documentation model into markdown
// pages: one page per module, an index, and a nav file matching the
// configured output layout.
package render

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// Page is one generated output file. Path is relative to the output
// directory and always slash-separated.
type Page struct {
	Path        string
	Title       string
	Content     string
	Synthesized bool
}

type Renderer struct {
	format     string
	docsRsBase string
	// localCrates holds the root segments of the model's own Rust
	// modules; their paths never resolve to docs.rs.
	localCrates map[string]bool
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{
		format:     cfg.Output.Format,
		docsRsBase: cfg.Links.DocsRsBase,
		localCrates: map[string]bool{
			"crate": true, "std": true, "core": true, "alloc": true,
		},
	}
}

// Render builds every page for the model. The model must already be
// resolved; the renderer only reads it.
func (r *Renderer) Render(m *model.DocModel) ([]Page, error) {
	switch r.format {
	case "markdown", "mkdocs", "mdbook":
	default:
		return nil, fmt.Errorf("unknown output format %q", r.format)
	}

	for i := range m.RustModules {
		if len(m.RustModules[i].Path) > 0 {
			r.localCrates[m.RustModules[i].Path[0]] = true
		}
	}

	links := r.linkMap(m)
	var pages []Page
	for i := range m.RustModules {
		pages = append(pages, r.rustPage(&m.RustModules[i], links))
	}
	for i := range m.PythonModules {
		pages = append(pages, r.pythonPage(&m.PythonModules[i], links))
	}
	pages = append(pages, r.indexPage(m))
	if nav, ok := r.navPage(m); ok {
		pages = append(pages, nav)
	}
	return pages, nil
}

// WritePages materializes pages under outDir, creating directories as
// needed.
func (r *Renderer) WritePages(outDir string, pages []Page) error {
	for _, page := range pages {
		target := filepath.Join(outDir, filepath.FromSlash(page.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(target, []byte(page.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", page.Path, err)
		}
	}
	return nil
}

// pagePath is the output location of a module page.
func pagePath(segments []string, lang model.Language) string {
	side := "rust"
	if lang == model.LangPython {
		side = "python"
	}
	return side + "/" + strings.Join(segments, "/") + ".md"
}

// anchor is the in-page fragment for an item heading.
func anchor(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// relLink computes a link from the directory of fromPage to toPage,
// both relative to the output root.
func relLink(fromPage, toPage string) string {
	fromDir := path.Dir(fromPage)
	if fromDir == "." {
		return toPage
	}
	up := strings.Repeat("../", strings.Count(fromDir, "/")+1)
	return up + toPage
}

// itemLink renders a markdown link from fromPage to the page and anchor
// of the referenced item.
func itemLink(fromPage string, ref *model.ItemRef, lang model.Language) string {
	segments := modpath.Split(ref.Path, lang)
	modSegments := segments[:len(segments)-1]
	target := pagePath(modSegments, lang) + "#" + anchor(ref.Name)
	return fmt.Sprintf("[%s](%s)", ref.Path, relLink(fromPage, target))
}

func (r *Renderer) rustPage(mod *model.RustModule, links map[string]string) Page {
	display := modpath.Display(mod.Path, model.LangRust)
	out := pagePath(mod.Path, model.LangRust)
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", display)
	writeDocText(&b, mod.Doc, mod.ParsedDoc)

	grouped := groupRustItems(mod.Items)
	for _, section := range grouped {
		fmt.Fprintf(&b, "## %s\n\n", section.title)
		for _, item := range section.items {
			r.writeRustItem(&b, item, out)
		}
	}

	content := rewriteLinks(b.String(), r.pageLinks(links, out), r.externalDocsLink)
	return Page{Path: out, Title: display, Content: content}
}

type rustSection struct {
	title string
	items []model.RustItem
}

// groupRustItems orders items into the fixed section layout. Impl
// blocks do not get their own section: pymethods blocks surface through
// the struct they target and plain impls through their methods' docs.
func groupRustItems(items []model.RustItem) []rustSection {
	sections := []rustSection{
		{title: "Structs"}, {title: "Enums"}, {title: "Functions"},
		{title: "Traits"}, {title: "Constants"}, {title: "Type Aliases"},
	}
	index := map[model.RustItemKind]int{
		model.KindRustStruct: 0, model.KindRustEnum: 1,
		model.KindRustFunction: 2, model.KindRustTrait: 3,
		model.KindRustConst: 4, model.KindRustTypeAlias: 5,
	}
	for _, item := range items {
		if i, ok := index[item.Kind()]; ok {
			sections[i].items = append(sections[i].items, item)
		}
	}
	var out []rustSection
	for _, s := range sections {
		if len(s.items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func (r *Renderer) writeRustItem(b *strings.Builder, item model.RustItem, fromPage string) {
	switch it := item.(type) {
	case *model.RustStruct:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s struct %s%s\n```\n\n", visKeyword(it.Vis), it.Name, it.Generics)
		writeDocText(b, it.Doc, it.ParsedDoc)
		writeFields(b, it.Fields)
		if it.PyRef != nil {
			fmt.Fprintf(b, "Exposed to Python as %s.\n\n", itemLink(fromPage, it.PyRef, model.LangPython))
		}
	case *model.RustEnum:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s enum %s%s\n```\n\n", visKeyword(it.Vis), it.Name, it.Generics)
		writeDocText(b, it.Doc, it.ParsedDoc)
		if len(it.Variants) > 0 {
			b.WriteString("**Variants**\n\n")
			for _, v := range it.Variants {
				writeListEntry(b, "`"+v.Name+"`", v.Doc)
			}
			b.WriteString("\n")
		}
		if it.PyRef != nil {
			fmt.Fprintf(b, "Exposed to Python as %s.\n\n", itemLink(fromPage, it.PyRef, model.LangPython))
		}
	case *model.RustFunction:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s\n```\n\n", it.Signature)
		writeDocText(b, it.Doc, it.ParsedDoc)
		writeDocSections(b, it.ParsedDoc)
		if it.PyRef != nil {
			fmt.Fprintf(b, "Exposed to Python as %s.\n\n", itemLink(fromPage, it.PyRef, model.LangPython))
		}
	case *model.RustTrait:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s trait %s%s\n```\n\n", visKeyword(it.Vis), it.Name, it.Generics)
		writeDocText(b, it.Doc, it.ParsedDoc)
		for i := range it.Methods {
			m := &it.Methods[i]
			fmt.Fprintf(b, "#### %s.%s\n\n", it.Name, m.Name)
			fmt.Fprintf(b, "```rust\n%s\n```\n\n", m.Signature)
			writeDocText(b, m.Doc, m.ParsedDoc)
			writeDocSections(b, m.ParsedDoc)
		}
	case *model.RustConst:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s const %s: %s\n```\n\n", visKeyword(it.Vis), it.Name, it.Type)
		writeDocText(b, it.Doc, nil)
	case *model.RustTypeAlias:
		fmt.Fprintf(b, "### %s\n\n", it.Name)
		fmt.Fprintf(b, "```rust\n%s type %s%s = %s\n```\n\n", visKeyword(it.Vis), it.Name, it.Generics, it.Type)
		writeDocText(b, it.Doc, nil)
	}
}

func visKeyword(v model.Visibility) string {
	switch v {
	case model.VisPublic:
		return "pub"
	case model.VisCrate:
		return "pub(crate)"
	case model.VisSuper:
		return "pub(super)"
	default:
		return ""
	}
}

func writeFields(b *strings.Builder, fields []model.RustField) {
	if len(fields) == 0 {
		return
	}
	b.WriteString("**Fields**\n\n")
	for _, f := range fields {
		writeListEntry(b, fmt.Sprintf("`%s: %s`", f.Name, f.Type), f.Doc)
	}
	b.WriteString("\n")
}

func (r *Renderer) pythonPage(mod *model.PythonModule, links map[string]string) Page {
	display := modpath.Display(mod.Path, model.LangPython)
	out := pagePath(mod.Path, model.LangPython)
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", display)
	if mod.Synthesized {
		b.WriteString("> Derived from native bindings; no hand-written Python source exists for this module.\n\n")
	}
	writeDocText(&b, mod.Doc, mod.ParsedDoc)

	var classes []*model.PyClass
	var functions []*model.PyFunction
	var variables []*model.PyVariable
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *model.PyClass:
			classes = append(classes, it)
		case *model.PyFunction:
			functions = append(functions, it)
		case *model.PyVariable:
			variables = append(variables, it)
		}
	}

	if len(classes) > 0 {
		b.WriteString("## Classes\n\n")
		for _, class := range classes {
			r.writePyClass(&b, class, out)
		}
	}
	if len(functions) > 0 {
		b.WriteString("## Functions\n\n")
		for _, fn := range functions {
			r.writePyFunction(&b, fn, out, "###", "")
		}
	}
	if len(variables) > 0 {
		b.WriteString("## Attributes\n\n")
		for _, v := range variables {
			label := "`" + v.Name + "`"
			if v.Type != "" {
				label = fmt.Sprintf("`%s: %s`", v.Name, v.Type)
			}
			writeListEntry(&b, label, v.Doc)
		}
		b.WriteString("\n")
	}

	content := rewriteLinks(b.String(), r.pageLinks(links, out), r.externalDocsLink)
	return Page{Path: out, Title: display, Content: content, Synthesized: mod.Synthesized}
}

func (r *Renderer) writePyClass(b *strings.Builder, class *model.PyClass, fromPage string) {
	fmt.Fprintf(b, "### %s\n\n", class.Name)
	if len(class.Bases) > 0 {
		fmt.Fprintf(b, "```python\nclass %s(%s)\n```\n\n", class.Name, strings.Join(class.Bases, ", "))
	} else {
		fmt.Fprintf(b, "```python\nclass %s\n```\n\n", class.Name)
	}
	if class.Synthesized {
		b.WriteString("> Derived from native bindings.\n\n")
	}
	writeDocText(b, class.Doc, class.ParsedDoc)
	if class.RustImpl != nil {
		fmt.Fprintf(b, "Implemented in Rust by %s.\n\n", itemLink(fromPage, class.RustImpl, model.LangRust))
	}
	if len(class.Attributes) > 0 {
		b.WriteString("**Attributes**\n\n")
		for _, a := range class.Attributes {
			label := "`" + a.Name + "`"
			if a.Type != "" {
				label = fmt.Sprintf("`%s: %s`", a.Name, a.Type)
			}
			writeListEntry(b, label, a.Doc)
		}
		b.WriteString("\n")
	}
	for i := range class.Methods {
		r.writePyFunction(b, &class.Methods[i], fromPage, "####", class.Name+".")
	}
}

func (r *Renderer) writePyFunction(b *strings.Builder, fn *model.PyFunction, fromPage, heading, prefix string) {
	fmt.Fprintf(b, "%s %s%s\n\n", heading, prefix, fn.Name)
	fmt.Fprintf(b, "```python\n%s\n```\n\n", fn.Signature)
	if fn.Synthesized {
		b.WriteString("> Derived from native bindings.\n\n")
	}
	writeDocText(b, fn.Doc, fn.ParsedDoc)
	writeDocSections(b, fn.ParsedDoc)
	if fn.RustImpl != nil {
		fmt.Fprintf(b, "Implemented in Rust by %s.\n\n", itemLink(fromPage, fn.RustImpl, model.LangRust))
	}
}

// writeDocText emits the prose part of an item's documentation,
// preferring the parsed form when available.
func writeDocText(b *strings.Builder, raw string, doc *model.ParsedDocstring) {
	if doc != nil {
		if doc.Summary != "" {
			b.WriteString(doc.Summary + "\n\n")
		}
		if doc.Description != "" {
			b.WriteString(doc.Description + "\n\n")
		}
		return
	}
	if raw != "" {
		b.WriteString(raw + "\n\n")
	}
}

// writeDocSections emits the structured parts: arguments, returns,
// raises, examples.
func writeDocSections(b *strings.Builder, doc *model.ParsedDocstring) {
	if doc == nil {
		return
	}
	if len(doc.Params) > 0 {
		b.WriteString("**Arguments**\n\n")
		for _, p := range doc.Params {
			label := "`" + p.Name + "`"
			if p.Type != nil {
				label = fmt.Sprintf("`%s` (%s)", p.Name, *p.Type)
			}
			writeListEntry(b, label, p.Description)
		}
		b.WriteString("\n")
	}
	if doc.Returns != nil {
		b.WriteString("**Returns**\n\n")
		if doc.Returns.Type != nil {
			writeListEntry(b, "`"+*doc.Returns.Type+"`", doc.Returns.Description)
		} else {
			b.WriteString(doc.Returns.Description + "\n")
		}
		b.WriteString("\n")
	}
	if len(doc.Raises) > 0 {
		b.WriteString("**Raises**\n\n")
		for _, raise := range doc.Raises {
			writeListEntry(b, "`"+raise.Kind+"`", raise.Description)
		}
		b.WriteString("\n")
	}
	for _, example := range doc.Examples {
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", example.Lang, example.Text)
	}
}

func writeListEntry(b *strings.Builder, label, doc string) {
	if doc != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, doc)
	} else {
		fmt.Fprintf(b, "- %s\n", label)
	}
}

func (r *Renderer) indexPage(m *model.DocModel) Page {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Metadata.Name)
	if m.Metadata.Version != "" {
		fmt.Fprintf(&b, "Version %s\n\n", m.Metadata.Version)
	}
	if len(m.PythonModules) > 0 {
		b.WriteString("## Python API\n\n")
		for i := range m.PythonModules {
			mod := &m.PythonModules[i]
			display := modpath.Display(mod.Path, model.LangPython)
			fmt.Fprintf(&b, "- [%s](%s)", display, pagePath(mod.Path, model.LangPython))
			if mod.Synthesized {
				b.WriteString(" (native)")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(m.RustModules) > 0 {
		b.WriteString("## Rust internals\n\n")
		for i := range m.RustModules {
			mod := &m.RustModules[i]
			display := modpath.Display(mod.Path, model.LangRust)
			fmt.Fprintf(&b, "- [%s](%s)\n", display, pagePath(mod.Path, model.LangRust))
		}
		b.WriteString("\n")
	}
	return Page{Path: "index.md", Title: m.Metadata.Name, Content: b.String()}
}
