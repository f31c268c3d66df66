package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgedoc/bridgedoc/internal/cache"
	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/pipeline"
	"github.com/bridgedoc/bridgedoc/internal/render"
	"github.com/bridgedoc/bridgedoc/internal/store"
)

var (
	buildOutput   string
	buildSnapshot bool
	buildStore    bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the documentation model and render pages",
	Run:   runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output directory (default: [output] path from bridgedoc.toml)")
	buildCmd.Flags().BoolVar(&buildSnapshot, "snapshot", true, "save a model snapshot to the cache")
	buildCmd.Flags().BoolVar(&buildStore, "store", true, "save rendered pages to the local store for serving")
}

func runBuild(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	res, err := pipeline.Build(context.Background(), projectDir, cfg)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}

	renderer := render.New(cfg)
	pages, err := renderer.Render(res.Model)
	if err != nil {
		log.Fatalf("rendering failed: %v", err)
	}

	outDir := buildOutput
	if outDir == "" {
		outDir = filepath.Join(projectDir, cfg.Output.Path)
	}
	if err := renderer.WritePages(outDir, pages); err != nil {
		log.Fatalf("writing pages: %v", err)
	}
	fmt.Printf("wrote %d pages to %s\n", len(pages), outDir)

	if buildSnapshot {
		digest, err := cache.Save(res.Model)
		if err != nil {
			log.Fatalf("saving snapshot: %v", err)
		}
		fmt.Printf("snapshot %s saved (%s)\n", cfg.Project.Name, digest[:12])
	}

	if buildStore {
		st, err := store.New(config.StorePath())
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer st.Close()
		if err := st.SaveBuild(res.Model.Metadata, pages, res.Model.CrossRefs); err != nil {
			log.Fatalf("storing pages: %v", err)
		}
	}
}
