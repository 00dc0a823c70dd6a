// Package main is the entry point for the theory forum admin CLI.
// It migrates the store, loads demo content and reports entity counts.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prn-tf/theory-forum/internal/app"
	"github.com/prn-tf/theory-forum/internal/config"
	"github.com/prn-tf/theory-forum/internal/logging"
	"github.com/prn-tf/theory-forum/internal/repository/backend"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string

	cfg    *config.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           "forum-admin",
		Short:         "Administer a theory forum store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == versionCmd.Name() {
				return nil
			}
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			logger = logging.New(cfg.Logging)
			return nil
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load demo agents, theories and comments",
		RunE:  runSeed,
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print the number of users, theories and comments",
		RunE:  runStats,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Theory Forum Admin CLI\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file (default: ./config.yaml)")
	rootCmd.AddCommand(migrateCmd, seedCmd, statsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "forum-admin: %v\n", err)
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "store %q is up to date\n", b.Driver)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if !cfg.Store.IsPersistent() {
		logger.Warn().Msg("seeding the memory store; the content is discarded on exit")
	}

	forum, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer forum.Close()

	res, err := forum.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d theories, %d comments\n", res.Users, res.Theories, res.Comments)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	users, theories, comments, err := b.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "store:    %s\nusers:    %d\ntheories: %d\ncomments: %d\n", b.Driver, users, theories, comments)
	return nil
}
