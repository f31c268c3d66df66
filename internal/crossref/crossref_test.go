package crossref

import (
	"errors"
	"strings"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

func span(file string, start, end int) model.SourceSpan {
	return model.SourceSpan{Location: model.SourceLocation{File: file, LineStart: start, LineEnd: end}}
}

func bindingModules(paths ...string) func(string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestResolveClassBinding(t *testing.T) {
	t.Parallel()

	widget := &model.RustStruct{
		Name:    "RsWidget",
		Vis:     model.VisPublic,
		Binding: &model.BindingMeta{Name: "Widget", Module: "shapes"},
		Src:     span("src/shapes.rs", 5, 20),
	}
	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo", "shapes"}, Items: []model.RustItem{widget}, Source: span("src/shapes.rs", 1, 100)},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo", "shapes"},
				Origin: model.OriginBinding,
				Items: []model.PyItem{
					&model.PyClass{Name: "Widget", Src: span("python/demo/shapes.py", 3, 10)},
				},
				Source: span("python/demo/shapes.py", 1, 20),
			},
		},
	}

	r := New(modpath.New("demo", "demo"), bindingModules("demo.shapes"))
	warnings, err := r.Resolve(m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %+v, want none", warnings)
	}
	if len(m.CrossRefs) != 1 {
		t.Fatalf("cross refs = %+v, want 1", m.CrossRefs)
	}
	ref := m.CrossRefs[0]
	if ref.PythonPath != "demo.shapes.Widget" || ref.RustPath != "demo::shapes::RsWidget" || ref.Relation != model.RefBinding {
		t.Errorf("ref = %+v", ref)
	}

	// Symmetric back references on both items.
	class := m.PythonModules[0].Items[0].(*model.PyClass)
	if class.RustImpl == nil || class.RustImpl.Path != "demo::shapes::RsWidget" {
		t.Errorf("class.RustImpl = %+v", class.RustImpl)
	}
	if widget.PyRef == nil || widget.PyRef.Path != "demo.shapes.Widget" {
		t.Errorf("widget.PyRef = %+v", widget.PyRef)
	}
}

func TestResolveDuplicateIdentityFatal(t *testing.T) {
	t.Parallel()

	first := &model.RustStruct{
		Name:    "WidgetA",
		Binding: &model.BindingMeta{Name: "Widget", Module: "shapes"},
		Src:     span("src/a.rs", 1, 10),
	}
	second := &model.RustStruct{
		Name:    "WidgetB",
		Binding: &model.BindingMeta{Name: "Widget", Module: "shapes"},
		Src:     span("src/b.rs", 20, 30),
	}
	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo", "a"}, Items: []model.RustItem{first}},
			{Path: []string{"demo", "b"}, Items: []model.RustItem{second}},
		},
	}

	r := New(modpath.New("demo", "demo"), nil)
	_, err := r.Resolve(m)
	var collision *CollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("err = %v, want CollisionError", err)
	}
	if collision.Identity != "shapes.Widget" {
		t.Errorf("identity = %q", collision.Identity)
	}
	if collision.First.Location.File != "src/a.rs" || collision.Second.Location.File != "src/b.rs" {
		t.Errorf("spans = %s, %s", collision.First.Location, collision.Second.Location)
	}
	if len(m.CrossRefs) != 0 {
		t.Errorf("cross refs = %+v, want none on collision", m.CrossRefs)
	}
}

func TestDistinctContainersDoNotCollide(t *testing.T) {
	t.Parallel()

	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo", "a"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Widget", Binding: &model.BindingMeta{Module: "shapes"}, Src: span("src/a.rs", 1, 5)},
			}},
			{Path: []string{"demo", "b"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Widget", Binding: &model.BindingMeta{Module: "sprites"}, Src: span("src/b.rs", 1, 5)},
			}},
		},
	}
	r := New(modpath.New("demo", "demo"), nil)
	if _, err := r.Resolve(m); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestImplicitContainersDoNotCollide(t *testing.T) {
	t.Parallel()

	// No explicit binding module: the container falls back to the
	// enclosing module's last segment, so a Widget in shapes and a
	// Widget in sprites keep distinct identities.
	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo", "shapes"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Widget", Binding: &model.BindingMeta{}, Src: span("src/shapes.rs", 1, 5)},
			}},
			{Path: []string{"demo", "sprites"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Widget", Binding: &model.BindingMeta{}, Src: span("src/sprites.rs", 1, 5)},
			}},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo", "shapes"},
				Origin: model.OriginBinding,
				Items:  []model.PyItem{&model.PyClass{Name: "Widget", Src: span("python/demo/shapes.py", 1, 4)}},
			},
			{
				Path:   []string{"demo", "sprites"},
				Origin: model.OriginBinding,
				Items:  []model.PyItem{&model.PyClass{Name: "Widget", Src: span("python/demo/sprites.py", 1, 4)}},
			},
		},
	}

	r := New(modpath.New("demo", "demo"), nil)
	if _, err := r.Resolve(m); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[string]string{
		"demo.shapes.Widget":  "demo::shapes::Widget",
		"demo.sprites.Widget": "demo::sprites::Widget",
	}
	if len(m.CrossRefs) != len(want) {
		t.Fatalf("cross refs = %+v, want %d", m.CrossRefs, len(want))
	}
	for _, ref := range m.CrossRefs {
		if want[ref.PythonPath] != ref.RustPath {
			t.Errorf("ref %s -> %s crosses containers", ref.PythonPath, ref.RustPath)
		}
	}
}

func TestNoMatchOutsideContainer(t *testing.T) {
	t.Parallel()

	// A binding registered under shapes must not satisfy a same-named
	// class in an unrelated bound module.
	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo", "shapes"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Widget", Binding: &model.BindingMeta{}, Src: span("src/shapes.rs", 1, 5)},
			}},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo", "extras"},
				Origin: model.OriginBinding,
				Items:  []model.PyItem{&model.PyClass{Name: "Widget", Src: span("python/demo/extras.py", 1, 4)}},
			},
		},
	}

	r := New(modpath.New("demo", "demo"), nil)
	if _, err := r.Resolve(m); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(m.CrossRefs) != 0 {
		t.Errorf("cross refs = %+v, want none across containers", m.CrossRefs)
	}
}

func TestResolveMethods(t *testing.T) {
	t.Parallel()

	scheduler := &model.RustStruct{
		Name:    "Scheduler",
		Binding: &model.BindingMeta{},
		Src:     span("src/lib.rs", 5, 10),
	}
	impl := &model.RustImpl{
		Target:    "Scheduler",
		PyMethods: true,
		Methods: []model.RustFunction{
			{Name: "tick", Src: span("src/lib.rs", 12, 20)},
			{Name: "internal_name", Binding: &model.BindingMeta{Name: "run"}, Src: span("src/lib.rs", 22, 30)},
		},
		Src: span("src/lib.rs", 11, 31),
	}
	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo"}, Items: []model.RustItem{scheduler, impl}},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo"},
				Origin: model.OriginBinding,
				Items: []model.PyItem{
					&model.PyClass{
						Name: "Scheduler",
						Methods: []model.PyFunction{
							{Name: "tick", Src: span("demo.pyi", 5, 6)},
							{Name: "run", Src: span("demo.pyi", 7, 8)},
							{Name: "helper", Src: span("demo.pyi", 9, 10)},
							{Name: "__repr__", Src: span("demo.pyi", 11, 12)},
						},
						Src: span("demo.pyi", 1, 20),
					},
				},
			},
		},
	}

	r := New(modpath.New("demo", "demo"), nil)
	warnings, err := r.Resolve(m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// tick and run resolve, helper warns, __repr__ stays quiet.
	if len(warnings) != 1 {
		t.Fatalf("warnings = %+v, want 1", warnings)
	}
	if warnings[0].Kind != model.WarnUnresolvedMethod || !strings.Contains(warnings[0].Message, "helper") {
		t.Errorf("warning = %+v", warnings[0])
	}

	if len(m.CrossRefs) != 3 {
		t.Fatalf("cross refs = %+v, want 3", m.CrossRefs)
	}
	var found bool
	for _, ref := range m.CrossRefs {
		if ref.PythonPath == "demo.Scheduler.run" {
			found = true
			if ref.RustPath != "demo::Scheduler::internal_name" {
				t.Errorf("renamed method rust path = %q", ref.RustPath)
			}
		}
	}
	if !found {
		t.Error("no cross ref for renamed method run")
	}
}

func TestUnresolvedClassReportsItsMethods(t *testing.T) {
	t.Parallel()

	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Engine", Binding: &model.BindingMeta{}, Src: span("src/lib.rs", 1, 5)},
			}},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo"},
				Origin: model.OriginBinding,
				Items: []model.PyItem{
					&model.PyClass{
						Name: "Orphan",
						Methods: []model.PyFunction{
							{Name: "run", Src: span("demo.pyi", 5, 6)},
							{Name: "stop", Src: span("demo.pyi", 7, 8)},
							{Name: "__repr__", Src: span("demo.pyi", 9, 10)},
						},
						Src: span("demo.pyi", 1, 12),
					},
				},
			},
		},
	}

	r := New(modpath.New("demo", "demo"), nil)
	warnings, err := r.Resolve(m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// A class with no binding cannot anchor its methods: each one is
	// reported, except dunders.
	if len(warnings) != 2 {
		t.Fatalf("warnings = %+v, want 2", warnings)
	}
	for i, name := range []string{"run", "stop"} {
		w := warnings[i]
		if w.Kind != model.WarnUnresolvedMethod || !strings.Contains(w.Message, "demo.Orphan."+name) {
			t.Errorf("warning %d = %+v", i, w)
		}
		if w.Where == nil {
			t.Errorf("warning %d has no location", i)
		}
	}
	if len(m.CrossRefs) != 0 {
		t.Errorf("cross refs = %+v, want none", m.CrossRefs)
	}
}

func TestResolveSkipsPureModules(t *testing.T) {
	t.Parallel()

	m := &model.DocModel{
		RustModules: []model.RustModule{
			{Path: []string{"demo"}, Items: []model.RustItem{
				&model.RustStruct{Name: "Helper", Binding: &model.BindingMeta{}, Src: span("src/lib.rs", 1, 5)},
			}},
		},
		PythonModules: []model.PythonModule{
			{
				Path:   []string{"demo", "pure"},
				Origin: model.OriginPython,
				Items:  []model.PyItem{&model.PyClass{Name: "Helper", Src: span("pure.py", 1, 5)}},
			},
		},
	}

	r := New(modpath.New("demo", "demo"), bindingModules())
	if _, err := r.Resolve(m); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(m.CrossRefs) != 0 {
		t.Errorf("cross refs = %+v, want none for pure module", m.CrossRefs)
	}
}

func TestVerifyRejectsDanglingRef(t *testing.T) {
	t.Parallel()

	m := &model.DocModel{
		CrossRefs: []model.CrossRef{
			{PythonPath: "demo.Ghost", RustPath: "demo::Ghost", Relation: model.RefBinding},
		},
	}
	r := New(modpath.New("demo", "demo"), nil)
	_, err := r.Resolve(m)
	var dangling *DanglingRefError
	if !errors.As(err, &dangling) {
		t.Fatalf("err = %v, want DanglingRefError", err)
	}
}
