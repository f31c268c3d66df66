package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/pipeline"
	"github.com/bridgedoc/bridgedoc/internal/render"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and dry-run the resolver",
	Long: `check runs the full pipeline without writing any output. Fatal
problems (identity collisions, dangling references, ambiguous source
roots) exit non-zero; warnings and quality gate results are reported.`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit non-zero when any warning is reported")
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	res, err := pipeline.Build(context.Background(), projectDir, cfg)
	if err != nil {
		log.Fatalf("check failed: %v", err)
	}

	warnings := res.Warnings
	warnings = append(warnings, pipeline.QualityWarnings(res.Model, cfg.Quality)...)

	renderer := render.New(cfg)
	pages, err := renderer.Render(res.Model)
	if err != nil {
		log.Fatalf("rendering failed: %v", err)
	}
	broken := renderer.BrokenLinks(pages)
	for _, dest := range broken {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarnQuality,
			Message: fmt.Sprintf("documentation link %s does not resolve", dest),
		})
	}

	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}

	ratio, documented, total := pipeline.Coverage(res.Model)
	fmt.Printf("ok: %d rust modules, %d python modules, %d cross refs, coverage %.1f%% (%d/%d)\n",
		len(res.Model.RustModules), len(res.Model.PythonModules), len(res.Model.CrossRefs),
		ratio*100, documented, total)

	if cfg.Quality.FailOnBrokenLinks && len(broken) > 0 {
		os.Exit(1)
	}
	if checkStrict && len(warnings) > 0 {
		os.Exit(1)
	}
}
