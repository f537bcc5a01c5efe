package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/ftserr"
	"github.com/mneves75/ffts-grep/internal/health"
	"github.com/mneves75/ffts-grep/internal/recovery"
	"github.com/mneves75/ffts-grep/internal/rootfinder"
	"github.com/mneves75/ffts-grep/internal/search"
	"github.com/mneves75/ffts-grep/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	configPath string
	startDir   string
	cfg        *config.Config
	root       rootfinder.ProjectRoot
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic: %v", r)
			os.Exit(1)
		}
	}()

	rootCmd := &cobra.Command{
		Use:     "fts-grep",
		Short:   "Project-scoped full-text file search",
		Long:    "fts-grep maintains a content-addressed SQLite FTS5 index of a project directory and answers filename-biased full-text queries against it.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				log.Printf("config file not found, creating default at %s", configPath)
				if err := cfg.Save(configPath); err != nil {
					log.Printf("warning: failed to save default config: %v", err)
				}
			}

			absStart, err := filepath.Abs(startDir)
			if err != nil {
				return fmt.Errorf("failed to resolve start directory: %w", err)
			}
			root = rootfinder.Find(absStart, cfg.DatabaseName)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&startDir, "dir", "d", ".", "directory to start project-root detection from")

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build the index if it is missing, empty or damaged (a healthy index is not re-indexed)",
		RunE:  runIndex,
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the project index",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().IntP("limit", "n", 0, "maximum results to return (default: config search.max_results)")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Report the index's health and resolved project root",
		RunE:  runHealth,
	}

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Back up any existing index and rebuild it from scratch",
		RunE:  runReindex,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE:  runConfigShow,
	}
	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE:  runConfigValidate,
	}
	configCmd.AddCommand(configShowCmd, configValidateCmd)

	rootCmd.AddCommand(indexCmd, searchCmd, healthCmd, reindexCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func defaultConfigPath() string {
	return filepath.Join(".", ".ffts-grep.yaml")
}

func exitCodeFor(err error) int {
	return ftserr.ExitCode(err)
}

func runIndex(cmd *cobra.Command, args []string) error {
	log.Printf("project root: %s (resolved via %s)", root.Path, root.Method)

	h, err := recovery.Ensure(root.Path, cfg.DatabaseName, cfg)
	if err != nil {
		return err
	}
	log.Printf("index health: %s", h)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	if _, err := recovery.Ensure(root.Path, cfg.DatabaseName, cfg); err != nil {
		return err
	}

	dbPath := filepath.Join(root.Path, cfg.DatabaseName)
	s, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return ftserr.New(ftserr.Database, "failed to open index for search", err)
	}
	defer s.Close()

	sr := search.New(s, limit)
	results, err := sr.Search(args[0])
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%8.2f  %s\n", r.Rank, r.Path)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	h := health.CheckFastInDir(root.Path, cfg.DatabaseName)
	fmt.Printf("project root: %s (%s)\n", root.Path, root.Method)
	fmt.Printf("database:     %s\n", filepath.Join(root.Path, cfg.DatabaseName))
	fmt.Printf("health:       %s\n", h)
	if h.IsUnrecoverable() {
		return ftserr.New(ftserr.ForeignDatabase, "database is unrecoverable: "+h.String(), nil)
	}
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	log.Printf("rebuilding index for %s", root.Path)
	stats, err := recovery.BackupAndReinit(root.Path, cfg.DatabaseName, cfg)
	if err != nil {
		return err
	}
	log.Printf("indexed %d files (%d skipped) in %s", stats.FilesIndexed, stats.FilesSkipped, stats.Duration)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		fmt.Printf("configuration is INVALID: %v\n", err)
		return err
	}
	fmt.Println("configuration is valid")
	return nil
}
