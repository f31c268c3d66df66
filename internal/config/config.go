// Package config loads bridgedoc.toml and fills the gaps from the
// project's own manifests. Explicit configuration always wins over
// anything inferred from Cargo.toml or pyproject.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ModuleSource classifies how a Python module's origin should be
// treated, overriding the discovery heuristic.
type ModuleSource string

const (
	SourcePyO3   ModuleSource = "pyo3"
	SourcePython ModuleSource = "python"
)

type ProjectConfig struct {
	Name string `mapstructure:"name"`
	// VersionFrom selects where the project version is read:
	// "git", "cargo", or "pyproject".
	VersionFrom string `mapstructure:"version_from"`
}

type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Path     string `mapstructure:"path"`
	Template string `mapstructure:"template"`
}

type RustConfig struct {
	Crates     []string `mapstructure:"crates"`
	EntryPoint string   `mapstructure:"entry_point"`
	Source     string   `mapstructure:"source"`
}

type PythonConfig struct {
	Package      string                  `mapstructure:"package"`
	Source       string                  `mapstructure:"source"`
	AutoDiscover bool                    `mapstructure:"auto_discover"`
	Modules      map[string]ModuleSource `mapstructure:"modules"`
}

type LinksConfig struct {
	DocsRsBase string `mapstructure:"docs_rs_base"`
}

type QualityConfig struct {
	RequireDocstrings bool    `mapstructure:"require_docstrings"`
	MinCoverage       float64 `mapstructure:"min_coverage"`
	FailOnBrokenLinks bool    `mapstructure:"fail_on_broken_links"`
}

type Config struct {
	Project ProjectConfig `mapstructure:"project"`
	Output  OutputConfig  `mapstructure:"output"`
	Rust    RustConfig    `mapstructure:"rust"`
	Python  PythonConfig  `mapstructure:"python"`
	Links   LinksConfig   `mapstructure:"links"`
	Quality QualityConfig `mapstructure:"quality"`

	// Version is resolved at load time from the configured source,
	// except "git" which the pipeline resolves against the work tree.
	Version string `mapstructure:"-"`
}

// CrateName is the normalized Rust entry point name.
func (c *Config) CrateName() string {
	return strings.ReplaceAll(c.Rust.EntryPoint, "-", "_")
}

// IsBindingModule reports the explicit classification for a module
// display path, and whether one was configured.
func (c *Config) IsBindingModule(path string) (bool, bool) {
	src, ok := c.Python.Modules[path]
	if !ok {
		return false, false
	}
	return src == SourcePyO3, true
}

// cacheBase returns the base cache directory for bridgedoc. Checks
// XDG_CACHE_HOME, then ~/.cache, then the system temp dir.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "bridgedoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "bridgedoc")
	}
	return filepath.Join(os.TempDir(), "bridgedoc")
}

// StorePath returns the path to the model store database.
func StorePath() string {
	return filepath.Join(cacheBase(), "models.db")
}

// SnapshotDir returns the directory for compressed model snapshots.
func SnapshotDir() string {
	return filepath.Join(cacheBase(), "snapshots")
}

func stringToModuleSourceHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(ModuleSource("")) || f.Kind() != reflect.String {
			return data, nil
		}
		switch s := data.(string); s {
		case "pyo3", "python":
			return ModuleSource(s), nil
		default:
			return nil, fmt.Errorf("invalid module source %q: must be \"pyo3\" or \"python\"", s)
		}
	}
}

// Load reads bridgedoc.toml from projectDir, applies BRIDGEDOC_*
// environment overrides, and infers missing fields from the project's
// manifests. A missing config file is not an error.
func Load(projectDir string) (*Config, error) {
	// Module display paths appear as keys under [python.modules], so
	// the key delimiter cannot be the default ".".
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigName("bridgedoc")
	v.SetConfigType("toml")
	v.AddConfigPath(projectDir)

	v.SetDefault("project::version_from", "git")
	v.SetDefault("output::format", "markdown")
	v.SetDefault("output::path", "docs")
	v.SetDefault("python::auto_discover", true)
	v.SetDefault("links::docs_rs_base", "https://docs.rs")

	v.SetEnvPrefix("BRIDGEDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToModuleSourceHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := infer(&config, projectDir); err != nil {
		return nil, err
	}
	return &config, nil
}

// infer fills unset fields from Cargo.toml and pyproject.toml.
func infer(c *Config, projectDir string) error {
	cargo := readManifest(filepath.Join(projectDir, "Cargo.toml"))
	pyproject := readManifest(filepath.Join(projectDir, "pyproject.toml"))

	if c.Project.Name == "" {
		if pyproject != nil {
			c.Project.Name = pyproject.GetString("project.name")
		}
		if c.Project.Name == "" && cargo != nil {
			c.Project.Name = cargo.GetString("package.name")
		}
	}
	if c.Project.Name == "" {
		return fmt.Errorf("project name not set and no manifest to infer it from; add [project] name to bridgedoc.toml")
	}

	if c.Rust.EntryPoint == "" && cargo != nil {
		c.Rust.EntryPoint = cargo.GetString("package.name")
	}
	if c.Rust.EntryPoint == "" {
		c.Rust.EntryPoint = c.Project.Name
	}

	if c.Python.Package == "" {
		if pyproject != nil {
			c.Python.Package = pyproject.GetString("project.name")
		}
		if c.Python.Package == "" {
			c.Python.Package = c.Project.Name
		}
	}
	c.Python.Package = strings.ReplaceAll(c.Python.Package, "-", "_")

	switch c.Project.VersionFrom {
	case "git":
		// Resolved by the pipeline against the work tree.
	case "cargo":
		if cargo == nil {
			return fmt.Errorf("version_from = \"cargo\" but no readable Cargo.toml in %s", projectDir)
		}
		c.Version = cargo.GetString("package.version")
	case "pyproject":
		if pyproject == nil {
			return fmt.Errorf("version_from = \"pyproject\" but no readable pyproject.toml in %s", projectDir)
		}
		c.Version = pyproject.GetString("project.version")
	default:
		return fmt.Errorf("invalid version_from %q: must be \"git\", \"cargo\", or \"pyproject\"", c.Project.VersionFrom)
	}
	return nil
}

// readManifest parses a TOML manifest, returning nil when the file is
// missing or malformed.
func readManifest(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil
	}
	return v
}
