// Package modpath projects source file paths onto canonical module
// paths. A single Projector instance is shared by discovery, the
// cross-reference resolver, and rendering so that every component
// agrees on what a given file is called.
package modpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

// Projector maps relative source paths to canonical module path
// segments for both sides of the bridge.
type Projector struct {
	// CrateName is the Rust crate name, already normalized
	// (hyphens replaced with underscores).
	CrateName string
	// PackageName is the Python import package name.
	PackageName string
}

// New returns a projector for the given crate and package. The crate
// name is normalized the way the Rust toolchain does for library
// targets.
func New(crateName, packageName string) *Projector {
	return &Projector{
		CrateName:   NormalizeCrateName(crateName),
		PackageName: packageName,
	}
}

// NormalizeCrateName converts a Cargo package name to the identifier
// form used in paths.
func NormalizeCrateName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// RustPath projects a Rust file path, relative to the source root, to
// canonical segments. Root markers (lib.rs, main.rs) map to the bare
// crate path whatever directory they sit in; a mod.rs names its
// directory rather than itself.
func (p *Projector) RustPath(rel string) ([]string, error) {
	rel = filepath.ToSlash(rel)
	if rel == "" || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("rust path %q is not relative to the source root", rel)
	}
	if !strings.HasSuffix(rel, ".rs") {
		return nil, fmt.Errorf("rust path %q does not end in .rs", rel)
	}

	trimmed := strings.TrimSuffix(rel, ".rs")
	parts := strings.Split(trimmed, "/")
	switch parts[len(parts)-1] {
	case "lib", "main":
		return []string{p.CrateName}, nil
	case "mod":
		// A directory index file names its directory.
		parts = parts[:len(parts)-1]
	}
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, p.CrateName)
	segments = append(segments, parts...)
	return segments, nil
}

// PythonPath projects a Python file path, relative to the source root,
// to canonical segments. An __init__.py names its directory; the
// package name is prepended unless the path already starts with it.
func (p *Projector) PythonPath(rel string) ([]string, error) {
	rel = filepath.ToSlash(rel)
	if rel == "" || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("python path %q is not relative to the source root", rel)
	}
	if !strings.HasSuffix(rel, ".py") && !strings.HasSuffix(rel, ".pyi") {
		return nil, fmt.Errorf("python path %q does not end in .py or .pyi", rel)
	}

	trimmed := strings.TrimSuffix(strings.TrimSuffix(rel, ".pyi"), ".py")
	parts := strings.Split(trimmed, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 0 && parts[0] == p.PackageName {
		return parts, nil
	}
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, p.PackageName)
	segments = append(segments, parts...)
	return segments, nil
}

// Display joins canonical segments with the language's path separator.
func Display(segments []string, lang model.Language) string {
	if lang == model.LangRust {
		return strings.Join(segments, "::")
	}
	return strings.Join(segments, ".")
}

// Split is the inverse of Display for a known language.
func Split(path string, lang model.Language) []string {
	if path == "" {
		return nil
	}
	if lang == model.LangRust {
		return strings.Split(path, "::")
	}
	return strings.Split(path, ".")
}

// ItemPath appends an item name to a module's display path.
func ItemPath(segments []string, name string, lang model.Language) string {
	if lang == model.LangRust {
		return Display(segments, lang) + "::" + name
	}
	return Display(segments, lang) + "." + name
}

// DetectRustRoot locates the Rust source root under projectDir. Both
// src/ and rust/ are recognized; finding entry points in both is a
// configuration error that must be resolved explicitly.
func DetectRustRoot(projectDir string) (string, error) {
	hasEntry := func(dir string) bool {
		for _, name := range []string{"lib.rs", "main.rs"} {
			if _, err := os.Stat(filepath.Join(projectDir, dir, name)); err == nil {
				return true
			}
		}
		return false
	}
	src, rust := hasEntry("src"), hasEntry("rust")
	switch {
	case src && rust:
		return "", fmt.Errorf("ambiguous rust source root: both src/ and rust/ contain an entry point; set rust.source in the config")
	case rust:
		return "rust", nil
	case src:
		return "src", nil
	}
	return "", fmt.Errorf("no rust source root found under %s (looked for src/lib.rs, src/main.rs, rust/lib.rs, rust/main.rs)", projectDir)
}

// ValidateRustRoot rejects a source root whose top level carries both
// an entry point and a mod.rs. The two files claim the same module
// path, so the layout has to be fixed before anything is parsed.
func ValidateRustRoot(rootDir string) error {
	if _, err := os.Stat(filepath.Join(rootDir, "mod.rs")); err != nil {
		return nil
	}
	for _, name := range []string{"lib.rs", "main.rs"} {
		if _, err := os.Stat(filepath.Join(rootDir, name)); err == nil {
			return fmt.Errorf("ambiguous rust source root: %s contains both %s and mod.rs, which name the same module", rootDir, name)
		}
	}
	return nil
}
