package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/beancount"
)

var (
	stmtCustomerID int64
	stmtAccount    string
	stmtExport     bool
)

// statementCmd represents the statement command.
var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Show an account statement",
	Long: `Show every transaction of an account with its current balance.

With --export, transactions not exported before are appended to monthly
Beancount files under the export directory (BANK_EXPORT_DIR, default
{BANK_DATA_ROOT}/ledger).

Example:
  bank statement --customer 1
  bank statement --customer 1 --account 2 --export`,
	Run: runStatement,
}

func init() {
	statementCmd.Flags().Int64Var(&stmtCustomerID, "customer", 0, "Customer identifier (required)")
	statementCmd.Flags().StringVar(&stmtAccount, "account", "", "Account number (default: first account)")
	statementCmd.Flags().BoolVar(&stmtExport, "export", false, "Append new transactions to Beancount files")
	statementCmd.MarkFlagRequired("customer")
}

func runStatement(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	st, err := s.teller.Statement(stmtCustomerID, stmtAccount)
	exitOnError(err, "failed to get statement")

	fmt.Printf("\n=== Extrato: agência %s, conta %s ===\n", st.Branch, st.AccountNumber)
	if len(st.Entries) == 0 {
		fmt.Println("Não foram realizadas movimentações.")
	}
	for _, e := range st.Entries {
		fmt.Printf("%s  %-8s %14s\n", e.Timestamp.Format(bank.TimestampLayout), e.Kind, formatMoney(e.Amount))
	}
	fmt.Printf("\nSaldo atual: %s\n\n", formatMoney(st.Balance))

	if !stmtExport {
		return
	}

	mapper := beancount.DefaultMapper()
	if s.cfg.Export.MappingFile != "" {
		mapper, err = beancount.NewMapper(s.cfg.Export.MappingFile)
		exitOnError(err, "failed to load ledger mapping")
	}
	exporter := beancount.NewExporter(
		beancount.NewFileSystemRepository(s.paths, s.cfg.Export.Currency),
		beancount.NewConverter(mapper, s.cfg.Export.Currency),
	)

	n, err := s.teller.ExportStatement(stmtCustomerID, stmtAccount, exporter)
	exitOnError(err, "failed to export statement")

	slog.Info("Statement exported", "account", st.AccountNumber, "entries", n, "dir", s.paths.GetExportDir())
	if n == 0 {
		fmt.Println("No new transactions to export")
		return
	}
	fmt.Printf("Exported %d transaction(s) to %s\n", n, s.paths.GetExportDir())
}
