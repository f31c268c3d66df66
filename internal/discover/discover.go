// Package discover locates the Rust and Python source files of a
// bridged project. It honors .gitignore, skips build and cache
// directories, and classifies Python files as hand-written or
// binding-backed.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// PyFile is a discovered Python source or stub file.
type PyFile struct {
	// Path is relative to the Python source root.
	Path string
	// Binding marks files that front native extension modules.
	Binding bool
}

// Tree is the discovered layout of a project.
type Tree struct {
	// RustRoot is the Rust source directory relative to the project
	// root, usually "src" or "rust".
	RustRoot string
	// RustFiles are .rs paths relative to RustRoot.
	RustFiles []string
	// PythonRoot is the Python source directory relative to the
	// project root; empty when the project has no Python layer.
	PythonRoot  string
	PythonFiles []PyFile
}

// Options control discovery. Explicit roots win over detection.
type Options struct {
	RustSource   string
	PythonSource string
	PackageName  string
	// BindingOverrides maps module display paths to an explicit
	// binding classification, overriding the content heuristic.
	BindingOverrides map[string]bool
}

var skipDirs = map[string]struct{}{
	"target":        {},
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	"venv":          {},
	".venv":         {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
}

// Scan walks the project and returns its source layout.
func Scan(projectDir string, opts Options) (*Tree, error) {
	tree := &Tree{}

	rustRoot := opts.RustSource
	if rustRoot == "" {
		detected, err := modpath.DetectRustRoot(projectDir)
		if err != nil {
			return nil, err
		}
		rustRoot = detected
	}
	tree.RustRoot = rustRoot
	if err := modpath.ValidateRustRoot(filepath.Join(projectDir, rustRoot)); err != nil {
		return nil, err
	}

	gi := loadGitignore(projectDir)
	rustFiles, err := walkFiles(filepath.Join(projectDir, rustRoot), gi, ".rs")
	if err != nil {
		return nil, fmt.Errorf("scan rust sources: %w", err)
	}
	tree.RustFiles = rustFiles

	pyRoot := opts.PythonSource
	if pyRoot == "" {
		pyRoot = detectPythonRoot(projectDir, opts.PackageName)
	}
	if pyRoot == "" {
		return tree, nil
	}
	tree.PythonRoot = pyRoot

	pyPaths, err := walkFiles(filepath.Join(projectDir, pyRoot), gi, ".py", ".pyi")
	if err != nil {
		return nil, fmt.Errorf("scan python sources: %w", err)
	}
	proj := modpath.New("", opts.PackageName)
	for _, rel := range pyPaths {
		binding := isBindingFile(filepath.Join(projectDir, pyRoot, rel), rel)
		if segs, err := proj.PythonPath(rel); err == nil {
			display := strings.Join(segs, ".")
			if override, ok := opts.BindingOverrides[display]; ok {
				binding = override
			}
		}
		tree.PythonFiles = append(tree.PythonFiles, PyFile{Path: rel, Binding: binding})
	}
	return tree, nil
}

func walkFiles(root string, gi *ignore.GitIgnore, exts ...string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[e] = true
	}

	var results []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !extSet[filepath.Ext(name)] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		results = append(results, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(results)
	return results, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// detectPythonRoot tries the conventional layouts: a python/ directory,
// then the package directory itself at the project root.
func detectPythonRoot(projectDir, pkg string) string {
	if hasDir(filepath.Join(projectDir, "python")) {
		return "python"
	}
	if pkg != "" && hasFile(filepath.Join(projectDir, pkg, "__init__.py")) {
		return "."
	}
	return ""
}

func hasDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// isBindingFile sniffs the head of a Python file for signs it fronts a
// native extension: an explicit pyo3 marker comment, or imports from a
// leading-underscore module.
func isBindingFile(absPath, rel string) bool {
	if strings.HasSuffix(rel, ".pyi") {
		base := strings.TrimSuffix(filepath.Base(rel), ".pyi")
		if strings.HasPrefix(base, "_") {
			return true
		}
	}

	f, err := os.Open(absPath)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 2048)
	n, _ := f.Read(head)
	text := string(head[:n])

	if strings.Contains(text, "# pyo3") {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "from ._") || strings.HasPrefix(line, "from _") ||
			strings.HasPrefix(line, "import _") {
			return true
		}
	}
	return false
}
