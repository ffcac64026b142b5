// Package cmd provides CLI commands for the bank console.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/boltstore"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/config"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/db"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/pathutil"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/teller"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bank",
	Short: "Banco Volte Sempre account console",
	Long: `bank manages customers, checking accounts and their deposits and
withdrawals.

It supports:
- Registering customers and opening accounts
- Deposits and withdrawals with per-operation and daily limits
- Statements, with incremental export to Beancount files
- SQLite or bbolt storage (BANK_STORE)

Example:
  bank customer register --name "Maria" --id-code 12345678901
  bank account open --customer 1
  bank deposit --customer 1 --amount 1000
  bank statement --customer 1`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(customerCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(statementCmd)
	rootCmd.AddCommand(statsCmd)
}

func setupLogging(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// session holds what a command needs for one run. Callers must defer Close.
type session struct {
	cfg    *config.Config
	paths  *pathutil.PathResolver
	teller *teller.Teller
	close  func() error
}

// openSession loads configuration and opens the configured store.
func openSession() *session {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if cfg.Debug && !debug {
		setupLogging(true)
	}

	if err := cfg.Validate([]string{"store", "dataRoot"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	paths := pathutil.New(pathutil.Config{
		DataRoot:     cfg.Store.DataRoot,
		DatabasePath: cfg.Store.DBPath,
		ExportDir:    cfg.Export.Dir,
		Store:        cfg.Store.Kind,
	})

	dbPath := paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath, "store", cfg.Store.Kind)

	var gw teller.Gateway
	var closer func() error
	switch cfg.Store.Kind {
	case pathutil.StoreBolt:
		exitOnError(paths.EnsureParentDir(dbPath), "failed to create data directory")
		st, err := boltstore.Open(dbPath, cfg.Rules)
		exitOnError(err, "failed to open database")
		gw, closer = st, st.Close
	default:
		conn, err := db.Open(dbPath)
		exitOnError(err, "failed to open database")
		gw, closer = db.NewGateway(conn, cfg.Rules), conn.Close
	}

	return &session{
		cfg:    cfg,
		paths:  paths,
		teller: teller.New(gw, cfg.Rules, slog.Default()),
		close:  closer,
	}
}

// Close closes the store.
func (s *session) Close() {
	if err := s.close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		if bank.IsRejection(err) {
			slog.Debug(msg, "error", err)
		} else {
			slog.Error(msg, "error", err)
		}
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

func parseAmount(value string) decimal.Decimal {
	amount, err := decimal.NewFromString(value)
	exitOnError(err, "invalid amount")
	return amount
}

func formatMoney(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}
