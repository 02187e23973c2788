package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/lodboard/internal/store"
)

// logger is configured by the root command before any subcommand runs.
var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "lodboard",
	Short: "Learning analytics dashboard backend",
	Long: "lodboard serves the multi-level-of-detail learning dashboard: per-role analytics views,\n" +
		"rule-based practice suggestions and AI-written summaries.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(jsonLogs, verbose)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite path (overrides LODBOARD_DB env var)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres (overrides LODBOARD_DB_DRIVER)")
	rootCmd.PersistentFlags().String("env-file", ".env.local", "Environment file loaded at startup when present")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON instead of console text")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger(jsonLogs, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if jsonLogs {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// resolveDB returns the driver and DSN using the --driver/--db flags (highest
// priority), then LODBOARD_DB_DRIVER/LODBOARD_DB, then the default SQLite path.
func resolveDB(cmd *cobra.Command) (driver, dsn string, err error) {
	driver, _ = cmd.Flags().GetString("driver")
	if driver == "" {
		driver = os.Getenv("LODBOARD_DB_DRIVER")
	}
	if driver == "" {
		driver = store.DriverSQLite
	}

	dsn, _ = cmd.Flags().GetString("db")
	switch {
	case dsn != "" && driver == store.DriverSQLite:
		return driver, dsn, store.EnsureDir(dsn)
	case dsn != "":
		return driver, dsn, nil
	case driver == store.DriverSQLite:
		dsn, err = store.DefaultDBPath()
		return driver, dsn, err
	}

	if dsn = os.Getenv("LODBOARD_DB"); dsn == "" {
		return "", "", fmt.Errorf("%s requires --db or LODBOARD_DB", driver)
	}
	return driver, dsn, nil
}

// openStore opens the database selected by the command's flags.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	driver, dsn, err := resolveDB(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
