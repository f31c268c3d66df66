// Package pipeline runs a full documentation build: discovery, parsing,
// docstring extraction, synthesis, cross-reference resolution, and the
// final freeze. Parsing fans out across files; every later phase owns
// the model exclusively and runs in a fixed order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/crossref"
	"github.com/bridgedoc/bridgedoc/internal/discover"
	"github.com/bridgedoc/bridgedoc/internal/docstring"
	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
	"github.com/bridgedoc/bridgedoc/internal/parser"
)

// Result is a completed build. The model is frozen: nothing mutates it
// after Build returns.
type Result struct {
	Model    *model.DocModel
	Warnings []model.Warning
}

// Build runs the whole pipeline against projectDir.
func Build(ctx context.Context, projectDir string, cfg *config.Config) (*Result, error) {
	proj := modpath.New(cfg.CrateName(), cfg.Python.Package)

	overrides := make(map[string]bool, len(cfg.Python.Modules))
	for path, src := range cfg.Python.Modules {
		overrides[path] = src == config.SourcePyO3
	}

	tree, err := discover.Scan(projectDir, discover.Options{
		RustSource:       cfg.Rust.Source,
		PythonSource:     cfg.Python.Source,
		PackageName:      cfg.Python.Package,
		BindingOverrides: overrides,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("discovered sources",
		"rust_root", tree.RustRoot,
		"rust_files", len(tree.RustFiles),
		"python_root", tree.PythonRoot,
		"python_files", len(tree.PythonFiles))

	rustModules, pythonModules, err := parseAll(ctx, projectDir, tree, proj)
	if err != nil {
		return nil, err
	}

	if err := checkUniquePaths(rustModules, pythonModules); err != nil {
		return nil, err
	}

	parseDocstrings(rustModules, pythonModules)

	bindingByPath := make(map[string]bool, len(tree.PythonFiles))
	for _, f := range tree.PythonFiles {
		if segs, err := proj.PythonPath(f.Path); err == nil {
			bindingByPath[strings.Join(segs, ".")] = f.Binding
		}
	}
	isBinding := func(display string) bool {
		if bound, ok := overrides[display]; ok {
			return bound
		}
		return bindingByPath[display]
	}

	var warnings []model.Warning
	synth, synthWarnings := crossref.Synthesize(rustModules, proj)
	warnings = append(warnings, synthWarnings...)
	parseSynthDocstrings(synth)
	merged := crossref.MergeSynthesized(pythonModules, synth)

	m := &model.DocModel{
		Metadata:      metadata(projectDir, cfg),
		RustModules:   rustModules,
		PythonModules: merged,
	}

	resolveWarnings, err := crossref.New(proj, isBinding).Resolve(m)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, resolveWarnings...)

	slog.Info("build complete",
		"rust_modules", len(m.RustModules),
		"python_modules", len(m.PythonModules),
		"cross_refs", len(m.CrossRefs),
		"warnings", len(warnings))
	return &Result{Model: m, Warnings: warnings}, nil
}

// parseAll parses every discovered file, fanning out across a bounded
// worker pool. Each worker owns one parser since tree-sitter parsers
// are not safe for concurrent use.
func parseAll(ctx context.Context, projectDir string, tree *discover.Tree, proj *modpath.Projector) ([]model.RustModule, []model.PythonModule, error) {
	rustResults := make([]*model.RustModule, len(tree.RustFiles))
	pyResults := make([]*model.PythonModule, len(tree.PythonFiles))

	type job struct {
		idx  int
		rust bool
	}
	jobs := make(chan job)

	g, ctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	total := len(tree.RustFiles) + len(tree.PythonFiles)
	if workers > total {
		workers = total
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			p := parser.New(proj)
			for j := range jobs {
				if j.rust {
					rel := tree.RustFiles[j.idx]
					source, err := os.ReadFile(filepath.Join(projectDir, tree.RustRoot, rel))
					if err != nil {
						return fmt.Errorf("read %s: %w", rel, err)
					}
					mod, err := p.ParseRustFile(ctx, rel, source)
					if err != nil {
						return fmt.Errorf("parse %s: %w", rel, err)
					}
					rustResults[j.idx] = mod
				} else {
					f := tree.PythonFiles[j.idx]
					source, err := os.ReadFile(filepath.Join(projectDir, tree.PythonRoot, f.Path))
					if err != nil {
						return fmt.Errorf("read %s: %w", f.Path, err)
					}
					origin := model.OriginPython
					if f.Binding {
						origin = model.OriginBinding
					}
					mod, err := p.ParsePythonFile(ctx, f.Path, source, origin)
					if err != nil {
						return fmt.Errorf("parse %s: %w", f.Path, err)
					}
					pyResults[j.idx] = mod
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for i := range tree.RustFiles {
			select {
			case jobs <- job{idx: i, rust: true}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for i := range tree.PythonFiles {
			select {
			case jobs <- job{idx: i}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	rustModules := make([]model.RustModule, 0, len(rustResults))
	for _, mod := range rustResults {
		rustModules = append(rustModules, *mod)
	}
	pythonModules := make([]model.PythonModule, 0, len(pyResults))
	for _, mod := range pyResults {
		pythonModules = append(pythonModules, *mod)
	}
	return rustModules, pythonModules, nil
}

// checkUniquePaths rejects two files projecting onto the same canonical
// module path. Paths are the model's identity; a collision here would
// make every later phase ambiguous.
func checkUniquePaths(rustModules []model.RustModule, pythonModules []model.PythonModule) error {
	seen := make(map[string]string)
	for _, mod := range rustModules {
		display := modpath.Display(mod.Path, model.LangRust)
		if prev, ok := seen[display]; ok {
			return fmt.Errorf("module path %s claimed by both %s and %s", display, prev, mod.Source.Location.File)
		}
		seen[display] = mod.Source.Location.File
	}
	seen = make(map[string]string)
	for _, mod := range pythonModules {
		display := modpath.Display(mod.Path, model.LangPython)
		if prev, ok := seen[display]; ok {
			return fmt.Errorf("module path %s claimed by both %s and %s", display, prev, mod.Source.Location.File)
		}
		seen[display] = mod.Source.Location.File
	}
	return nil
}

// parseDocstrings fills ParsedDoc for every documented item that the
// parsers left raw. Rust doc comments use the markdown-section grammar,
// Python docstrings the Google/NumPy detection.
func parseDocstrings(rustModules []model.RustModule, pythonModules []model.PythonModule) {
	for i := range rustModules {
		mod := &rustModules[i]
		if mod.Doc != "" && mod.ParsedDoc == nil {
			mod.ParsedDoc = docstring.ParseRust(mod.Doc)
		}
		for _, item := range mod.Items {
			parseRustItemDoc(item)
		}
	}
	for i := range pythonModules {
		parsePythonModuleDocs(&pythonModules[i])
	}
}

func parseRustItemDoc(item model.RustItem) {
	switch it := item.(type) {
	case *model.RustStruct:
		if it.Doc != "" && it.ParsedDoc == nil {
			it.ParsedDoc = docstring.ParseRust(it.Doc)
		}
	case *model.RustEnum:
		if it.Doc != "" && it.ParsedDoc == nil {
			it.ParsedDoc = docstring.ParseRust(it.Doc)
		}
	case *model.RustFunction:
		if it.Doc != "" && it.ParsedDoc == nil {
			it.ParsedDoc = docstring.ParseRust(it.Doc)
		}
	case *model.RustTrait:
		if it.Doc != "" && it.ParsedDoc == nil {
			it.ParsedDoc = docstring.ParseRust(it.Doc)
		}
		for i := range it.Methods {
			m := &it.Methods[i]
			if m.Doc != "" && m.ParsedDoc == nil {
				m.ParsedDoc = docstring.ParseRust(m.Doc)
			}
		}
	case *model.RustImpl:
		for i := range it.Methods {
			m := &it.Methods[i]
			if m.Doc != "" && m.ParsedDoc == nil {
				m.ParsedDoc = docstring.ParseRust(m.Doc)
			}
		}
	}
}

func parsePythonModuleDocs(mod *model.PythonModule) {
	if mod.Doc != "" && mod.ParsedDoc == nil {
		mod.ParsedDoc = docstring.Parse(mod.Doc)
	}
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *model.PyClass:
			if it.Doc != "" && it.ParsedDoc == nil {
				it.ParsedDoc = docstring.Parse(it.Doc)
			}
			for i := range it.Methods {
				m := &it.Methods[i]
				if m.Doc != "" && m.ParsedDoc == nil {
					m.ParsedDoc = docstring.Parse(m.Doc)
				}
			}
		case *model.PyFunction:
			if it.Doc != "" && it.ParsedDoc == nil {
				it.ParsedDoc = docstring.Parse(it.Doc)
			}
		}
	}
}

// parseSynthDocstrings handles placeholder modules whose documentation
// text was carried over from Rust doc comments.
func parseSynthDocstrings(modules []model.PythonModule) {
	for i := range modules {
		mod := &modules[i]
		if mod.Doc != "" && mod.ParsedDoc == nil {
			mod.ParsedDoc = docstring.ParseRust(mod.Doc)
		}
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.PyClass:
				if it.Doc != "" && it.ParsedDoc == nil {
					it.ParsedDoc = docstring.ParseRust(it.Doc)
				}
				for j := range it.Methods {
					m := &it.Methods[j]
					if m.Doc != "" && m.ParsedDoc == nil {
						m.ParsedDoc = docstring.ParseRust(m.Doc)
					}
				}
			case *model.PyFunction:
				if it.Doc != "" && it.ParsedDoc == nil {
					it.ParsedDoc = docstring.ParseRust(it.Doc)
				}
			}
		}
	}
}

func metadata(projectDir string, cfg *config.Config) model.ProjectMetadata {
	meta := model.ProjectMetadata{
		Name:        cfg.Project.Name,
		Version:     cfg.Version,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if ref := gitOutput(projectDir, "rev-parse", "--abbrev-ref", "HEAD"); ref != "" {
		meta.GitRef = ref
	}
	if commit := gitOutput(projectDir, "rev-parse", "HEAD"); commit != "" {
		meta.GitCommit = commit
	}
	if meta.Version == "" && cfg.Project.VersionFrom == "git" {
		meta.Version = gitOutput(projectDir, "describe", "--tags", "--always")
	}
	return meta
}

// gitOutput runs a git subcommand against projectDir and returns its
// trimmed stdout, or empty when git is unavailable or the directory is
// not a repository.
func gitOutput(projectDir string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", projectDir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
