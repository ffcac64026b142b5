package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountCustomerID int64

// accountCmd groups account subcommands.
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage checking accounts",
}

var accountOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new account for a customer",
	Long: `Open a new checking account at branch 0001. Account numbers are
assigned sequentially and never reused.

Example:
  bank account open --customer 1`,
	Run: runAccountOpen,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a customer's accounts",
	Run:   runAccountList,
}

func init() {
	for _, c := range []*cobra.Command{accountOpenCmd, accountListCmd} {
		c.Flags().Int64Var(&accountCustomerID, "customer", 0, "Customer identifier (required)")
		c.MarkFlagRequired("customer")
	}

	accountCmd.AddCommand(accountOpenCmd, accountListCmd)
}

func runAccountOpen(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	a, err := s.teller.OpenAccount(accountCustomerID)
	exitOnError(err, "failed to open account")

	fmt.Printf("Account opened: branch %s, number %s\n", a.Branch, a.Number)
}

func runAccountList(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	accounts, err := s.teller.ListAccounts(accountCustomerID)
	exitOnError(err, "failed to list accounts")

	printAccounts(accounts)
}
