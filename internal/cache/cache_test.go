package cache

import (
	"reflect"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

func snapshotModel(name string) *model.DocModel {
	return &model.DocModel{
		Metadata: model.ProjectMetadata{Name: name, Version: "0.1.0", GeneratedAt: "2026-08-28T00:00:00Z"},
		RustModules: []model.RustModule{{
			Path: []string{"demo"},
			Doc:  "Crate root.",
			Items: []model.RustItem{
				&model.RustStruct{
					Name:    "Widget",
					Vis:     model.VisPublic,
					Binding: &model.BindingMeta{Name: "Widget"},
				},
			},
		}},
		PythonModules: []model.PythonModule{{
			Path:   []string{"demo"},
			Origin: model.OriginBinding,
			Items: []model.PyItem{
				&model.PyClass{Name: "Widget", RustImpl: &model.ItemRef{Path: "demo::Widget", Name: "Widget"}},
			},
		}},
		CrossRefs: []model.CrossRef{{
			PythonPath: "demo.Widget",
			RustPath:   "demo::Widget",
			Relation:   model.RefBinding,
		}},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	m := snapshotModel("demo")
	digest, err := Save(m)
	if err != nil {
		t.Fatal(err)
	}
	if digest == "" {
		t.Fatal("expected non-empty digest")
	}

	got, err := Load("demo")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("round-trip not lossless:\ngot  %+v\nwant %+v", got, m)
	}
}

func TestSave_SameModelSameDigest(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	d1, err := Save(snapshotModel("demo"))
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Save(snapshotModel("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Errorf("same model produced different digests: %s vs %s", d1, d2)
	}
}

func TestListAndClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if _, err := Save(snapshotModel("alpha")); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(snapshotModel("beta")); err != nil {
		t.Fatal(err)
	}

	entries, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	if err := Clear("alpha"); err != nil {
		t.Fatal(err)
	}
	entries, err = List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "beta" {
		t.Errorf("after clear: %+v", entries)
	}

	// Clearing a missing snapshot is fine.
	if err := Clear("alpha"); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if _, err := Load("nope"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()
	if got := sanitize("my/project name"); got != "my_project_name" {
		t.Errorf("sanitize = %q", got)
	}
}
