// Package cli implements the textan CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/textan/internal/config"
	"github.com/rcliao/textan/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
	logger     = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "textan",
	Short: "Grade authorship-analysis submissions",
	Long: `textan loads authorship-analysis submissions listed in a roster, runs
corpus analysis, attribution, text generation, n-gram ranking and author
comparison on each one under a timeout, and records the outcomes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Results database path (default: $TEXTAN_DB, store.path or ~/.textan/results.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	RootCmd.PersistentFlags().StringVar(&formatFlag, "format", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg, err := loadConfig(); err == nil && cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".textan", "results.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
