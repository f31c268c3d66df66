package modpath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

func TestRustPath(t *testing.T) {
	t.Parallel()

	p := New("my-crate", "mypkg")
	cases := []struct {
		rel  string
		want string
	}{
		{"lib.rs", "my_crate"},
		{"main.rs", "my_crate"},
		{"tasks.rs", "my_crate::tasks"},
		{"tasks/mod.rs", "my_crate::tasks"},
		{"tasks/queue.rs", "my_crate::tasks::queue"},
		{"a/b/c.rs", "my_crate::a::b::c"},
		// Root markers name the crate root wherever they sit.
		{"sub/lib.rs", "my_crate"},
		{"sub/main.rs", "my_crate"},
		{"bin/tool/main.rs", "my_crate"},
	}
	for _, tc := range cases {
		got, err := p.RustPath(tc.rel)
		if err != nil {
			t.Errorf("RustPath(%q) error: %v", tc.rel, err)
			continue
		}
		if display := Display(got, model.LangRust); display != tc.want {
			t.Errorf("RustPath(%q) = %s, want %s", tc.rel, display, tc.want)
		}
	}
}

func TestRustPathRejectsBadInput(t *testing.T) {
	t.Parallel()

	p := New("demo", "demo")
	for _, rel := range []string{"", "/abs/lib.rs", "../escape.rs", "notes.txt"} {
		if _, err := p.RustPath(rel); err == nil {
			t.Errorf("RustPath(%q) succeeded, want error", rel)
		}
	}
}

func TestPythonPath(t *testing.T) {
	t.Parallel()

	p := New("demo", "mypkg")
	cases := []struct {
		rel  string
		want string
	}{
		{"__init__.py", "mypkg"},
		{"utils.py", "mypkg.utils"},
		{"sub/__init__.py", "mypkg.sub"},
		{"sub/helpers.py", "mypkg.sub.helpers"},
		// Source roots that already contain the package directory
		// must not double the leading segment.
		{"mypkg/__init__.py", "mypkg"},
		{"mypkg/utils.py", "mypkg.utils"},
		{"_native.pyi", "mypkg._native"},
	}
	for _, tc := range cases {
		got, err := p.PythonPath(tc.rel)
		if err != nil {
			t.Errorf("PythonPath(%q) error: %v", tc.rel, err)
			continue
		}
		if display := Display(got, model.LangPython); display != tc.want {
			t.Errorf("PythonPath(%q) = %s, want %s", tc.rel, display, tc.want)
		}
	}
}

func TestItemPath(t *testing.T) {
	t.Parallel()

	if got := ItemPath([]string{"demo", "tasks"}, "Scheduler", model.LangRust); got != "demo::tasks::Scheduler" {
		t.Errorf("rust item path = %s", got)
	}
	if got := ItemPath([]string{"demo"}, "Scheduler", model.LangPython); got != "demo.Scheduler" {
		t.Errorf("python item path = %s", got)
	}
}

func TestDetectRustRoot(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, dir, rel string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("// entry\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("src", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "src/lib.rs")
		root, err := DetectRustRoot(dir)
		if err != nil {
			t.Fatal(err)
		}
		if root != "src" {
			t.Errorf("root = %s, want src", root)
		}
	})

	t.Run("rust", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "rust/lib.rs")
		root, err := DetectRustRoot(dir)
		if err != nil {
			t.Fatal(err)
		}
		if root != "rust" {
			t.Errorf("root = %s, want rust", root)
		}
	})

	t.Run("ambiguous", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "src/lib.rs")
		write(t, dir, "rust/main.rs")
		if _, err := DetectRustRoot(dir); err == nil || !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("err = %v, want ambiguous root error", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		if _, err := DetectRustRoot(t.TempDir()); err == nil {
			t.Error("expected error for missing root")
		}
	})
}

func TestValidateRustRoot(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, dir, rel string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, rel), []byte("// entry\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("entry point alone", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "lib.rs")
		if err := ValidateRustRoot(dir); err != nil {
			t.Errorf("ValidateRustRoot = %v, want nil", err)
		}
	})

	t.Run("entry point next to mod.rs", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "lib.rs")
		write(t, dir, "mod.rs")
		err := ValidateRustRoot(dir)
		if err == nil || !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("err = %v, want ambiguous root error", err)
		}
	})

	t.Run("mod.rs alone", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		write(t, dir, "mod.rs")
		if err := ValidateRustRoot(dir); err != nil {
			t.Errorf("ValidateRustRoot = %v, want nil", err)
		}
	})
}
