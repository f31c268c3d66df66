package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const starterConfig = `[project]
# name = "my-project"        # inferred from pyproject.toml / Cargo.toml
version_from = "git"          # git | cargo | pyproject

[output]
format = "markdown"           # markdown | mkdocs | mdbook
path = "docs"

[rust]
# source = "src"              # detected: src/ or rust/
# entry_point = "my_crate"    # inferred from Cargo.toml

[python]
# package = "my_package"      # inferred from pyproject.toml
# source = "python"           # detected
auto_discover = true

# Override the binding heuristic per module:
# [python.modules]
# "my_package._native" = "pyo3"
# "my_package.helpers" = "python"

[links]
docs_rs_base = "https://docs.rs"

[quality]
require_docstrings = false
min_coverage = 0.0
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter bridgedoc.toml",
	Run:   runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	path := filepath.Join(projectDir, "bridgedoc.toml")
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		log.Fatalf("writing config: %v", err)
	}
	fmt.Printf("wrote %s\n", path)
}
