// Command bifold computes double-folded nucleus-nucleus potentials and
// keeps an archive of past runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkarakoc/BiFold/config"
	"github.com/mkarakoc/BiFold/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	version = "0.3.0"

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bifold",
	Short: "Double-folding optical potentials with M3Y interactions",
	Long: `bifold folds projectile and target densities with M3Y nucleon-nucleon
interactions in momentum space. It computes the direct potential, the
zero-range or finite-range exchange potential and the Coulomb potential,
and archives every run in a SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		opts := logging.Options{Level: "info", Format: "console", Verbose: verbose}
		// the config file may tune logging; a broken file is reported by the
		// command that needs it
		if cfg, err := config.Load(configPath); err == nil {
			opts.Level, opts.Format = cfg.Logging.Level, cfg.Logging.Format
		}
		var err error
		logger, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bifold %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./bifold.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run archive (overrides store.path)")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, deleteCmd, perfCmd, configCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
