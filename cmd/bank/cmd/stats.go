package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display store statistics",
	Long: `Display statistics about the bank store.

Shows:
- Total number of customers
- Total number of accounts
- Total number of transactions
- Last transaction timestamp

Example:
  bank stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	stats, err := s.teller.Stats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Bank Statistics ===")
	fmt.Printf("Total customers:    %d\n", stats.TotalCustomers)
	fmt.Printf("Total accounts:     %d\n", stats.TotalAccounts)
	fmt.Printf("Total transactions: %d\n", stats.TotalTransactions)

	if !stats.LastTransaction.IsZero() {
		fmt.Printf("Last transaction:   %s\n", stats.LastTransaction.Format(bank.TimestampLayout))
	} else {
		fmt.Printf("Last transaction:   (never)\n")
	}

	fmt.Println()

	slog.Debug("Statistics displayed", "store", s.cfg.Store.Kind)
}
