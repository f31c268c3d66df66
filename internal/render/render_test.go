package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleModel() *model.DocModel {
	return &model.DocModel{
		Metadata: model.ProjectMetadata{Name: "demo", Version: "0.3.0"},
		RustModules: []model.RustModule{{
			Path: []string{"demo", "shapes"},
			Doc:  "Shape primitives.",
			Items: []model.RustItem{
				&model.RustStruct{
					Name: "Widget",
					Vis:  model.VisPublic,
					Doc:  "A fast widget.",
					ParsedDoc: &model.ParsedDocstring{
						Summary:  "A fast widget.",
						Original: "A fast widget.",
					},
					Fields: []model.RustField{{Name: "steps", Type: "u64", Doc: "Step count."}},
					PyRef:  &model.ItemRef{Path: "demo.shapes.Widget", Name: "Widget"},
				},
				&model.RustFunction{
					Name:      "double",
					Vis:       model.VisPublic,
					Signature: "pub fn double(x: i64) -> i64",
					Doc:       "Doubles a value.",
					ParsedDoc: &model.ParsedDocstring{
						Summary: "Doubles a value.",
						Params:  []model.ParamDoc{{Name: "x", Description: "the input."}},
						Returns: &model.ReturnDoc{Description: "twice the input."},
						Examples: []model.Example{
							{Text: "assert_eq!(double(2), 4);", Lang: "rust"},
						},
						Original: "Doubles a value.",
					},
				},
			},
		}},
		PythonModules: []model.PythonModule{{
			Path:        []string{"demo", "shapes"},
			Origin:      model.OriginBinding,
			Synthesized: true,
			Items: []model.PyItem{
				&model.PyClass{
					Name:        "Widget",
					Doc:         "A fast widget.",
					Synthesized: true,
					RustImpl:    &model.ItemRef{Path: "demo::shapes::Widget", Name: "Widget"},
					Methods: []model.PyFunction{{
						Name:      "tick",
						Signature: "def tick(self) -> bool",
					}},
				},
			},
		}},
		CrossRefs: []model.CrossRef{{
			PythonPath: "demo.shapes.Widget",
			RustPath:   "demo::shapes::Widget",
			Relation:   model.RefBinding,
		}},
	}
}

func newRenderer(format string) *Renderer {
	return New(&config.Config{
		Output: config.OutputConfig{Format: format},
		Links:  config.LinksConfig{DocsRsBase: "https://docs.rs"},
	})
}

func findPage(t *testing.T, pages []Page, path string) Page {
	t.Helper()
	for _, p := range pages {
		if p.Path == path {
			return p
		}
	}
	t.Fatalf("page %s not rendered; have %d pages", path, len(pages))
	return Page{}
}

func TestRenderRustPage(t *testing.T) {
	t.Parallel()
	pages, err := newRenderer("markdown").Render(sampleModel())
	if err != nil {
		t.Fatal(err)
	}
	page := findPage(t, pages, "rust/demo/shapes.md")

	for _, want := range []string{
		"# demo::shapes",
		"Shape primitives.",
		"## Structs",
		"### Widget",
		"- `steps: u64`: Step count.",
		"Exposed to Python as [demo.shapes.Widget](../../python/demo/shapes.md#widget).",
		"## Functions",
		"```rust\npub fn double(x: i64) -> i64\n```",
		"**Arguments**",
		"**Returns**",
		"```rust\nassert_eq!(double(2), 4);\n```",
	} {
		if !strings.Contains(page.Content, want) {
			t.Errorf("rust page missing %q\n%s", want, page.Content)
		}
	}
}

func TestRenderPythonPage(t *testing.T) {
	t.Parallel()
	pages, err := newRenderer("markdown").Render(sampleModel())
	if err != nil {
		t.Fatal(err)
	}
	page := findPage(t, pages, "python/demo/shapes.md")

	if !page.Synthesized {
		t.Error("page should carry the synthesized flag")
	}
	for _, want := range []string{
		"# demo.shapes",
		"> Derived from native bindings",
		"### Widget",
		"Implemented in Rust by [demo::shapes::Widget](../../rust/demo/shapes.md#widget).",
		"#### Widget.tick",
		"```python\ndef tick(self) -> bool\n```",
	} {
		if !strings.Contains(page.Content, want) {
			t.Errorf("python page missing %q\n%s", want, page.Content)
		}
	}
}

func TestRenderIndexAndNav(t *testing.T) {
	t.Parallel()
	m := sampleModel()

	pages, err := newRenderer("markdown").Render(m)
	if err != nil {
		t.Fatal(err)
	}
	index := findPage(t, pages, "index.md")
	if !strings.Contains(index.Content, "[demo.shapes](python/demo/shapes.md) (native)") {
		t.Errorf("index missing python entry:\n%s", index.Content)
	}
	for _, p := range pages {
		if p.Path == "nav.yml" || p.Path == "SUMMARY.md" {
			t.Errorf("plain markdown layout should not render %s", p.Path)
		}
	}

	pages, err = newRenderer("mkdocs").Render(m)
	if err != nil {
		t.Fatal(err)
	}
	nav := findPage(t, pages, "nav.yml")
	if !strings.Contains(nav.Content, "- demo.shapes: python/demo/shapes.md") {
		t.Errorf("mkdocs nav missing entry:\n%s", nav.Content)
	}

	pages, err = newRenderer("mdbook").Render(m)
	if err != nil {
		t.Fatal(err)
	}
	summary := findPage(t, pages, "SUMMARY.md")
	if !strings.Contains(summary.Content, "- [demo::shapes](rust/demo/shapes.md)") {
		t.Errorf("mdbook summary missing entry:\n%s", summary.Content)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := newRenderer("asciidoc").Render(sampleModel()); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestRewriteLinks(t *testing.T) {
	t.Parallel()
	links := map[string]string{"demo::shapes::Widget": "shapes.md#widget"}
	src := "See [Widget](demo::shapes::Widget) and [serde](serde::Serialize) for details.\n"

	r := newRenderer("markdown")
	got := rewriteLinks(src, links, r.externalDocsLink)
	if !strings.Contains(got, "](shapes.md#widget)") {
		t.Errorf("local link not rewritten: %s", got)
	}
	if !strings.Contains(got, "](https://docs.rs/serde/latest/serde/Serialize/)") {
		t.Errorf("external link not rewritten: %s", got)
	}
}

func TestBrokenLinks(t *testing.T) {
	t.Parallel()
	m := sampleModel()
	m.RustModules[0].Items = append(m.RustModules[0].Items, &model.RustFunction{
		Name:      "orphan",
		Vis:       model.VisPublic,
		Signature: "pub fn orphan()",
		ParsedDoc: &model.ParsedDocstring{
			Summary:  "See [Gone](demo::missing::Gone) for details.",
			Original: "See [Gone](demo::missing::Gone) for details.",
		},
	})

	r := newRenderer("markdown")
	pages, err := r.Render(m)
	if err != nil {
		t.Fatal(err)
	}
	broken := r.BrokenLinks(pages)
	if len(broken) != 1 || broken[0] != "demo::missing::Gone" {
		t.Errorf("broken = %v, want [demo::missing::Gone]", broken)
	}
}

func TestWritePages(t *testing.T) {
	dir := t.TempDir()
	r := newRenderer("markdown")
	pages, err := r.Render(sampleModel())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.WritePages(dir, pages); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "rust", "demo", "shapes.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# demo::shapes") {
		t.Error("written page truncated")
	}
}
