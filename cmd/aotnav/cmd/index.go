package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/config"
	"github.com/aotnav/aotnav/internal/discovery"
	"github.com/aotnav/aotnav/internal/index"
	"github.com/aotnav/aotnav/internal/logging"
	"github.com/aotnav/aotnav/internal/store"
)

var (
	indexType  string
	indexForce bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the object index without starting the server",
	Long: `Scans the configured codebase and writes the object index to the
SQLite cache. Useful for warming the cache ahead of time or from CI.
With --type only the given object type is reindexed; with --force any
existing rows are discarded first.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexType, "type", "t", "",
		"Reindex only this object type (e.g. CLASS, TABLE)")
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false,
		"Rebuild even if the index already has objects")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if codebasePath != "" {
		cfg.CodebasePath = codebasePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogOutput)
	defer log.Sync()

	st, err := store.Open(cfg.CacheDir, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cat := catalog.New(catalog.StaticSource{Path: cfg.CatalogFile}, log)
	cat.Load()

	disc := discovery.New(cfg.CodebasePath, cat, log)
	idx := index.New(cfg.CodebasePath, cfg.CacheDir, cat, disc, st, log)

	var res index.BuildResult
	if indexType != "" {
		res, err = idx.BuildByType(indexType, indexForce)
	} else {
		res, err = idx.BuildFull(indexForce)
	}
	if err != nil {
		return err
	}

	if res.NoOp {
		fmt.Println("Index already built; nothing to do (use --force to rebuild).")
		return nil
	}
	fmt.Printf("Indexed %d objects, skipped %d files.\n", res.Indexed, res.Skipped)
	if len(res.SkipReasons) > 0 {
		reasons := make([]string, 0, len(res.SkipReasons))
		for r := range res.SkipReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Printf("  %s: %d\n", r, res.SkipReasons[r])
		}
	}
	return nil
}
