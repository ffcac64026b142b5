package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

var (
	txnCustomerID int64
	txnAccount    string
	txnAmount     string
)

// depositCmd represents the deposit command.
var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit into an account",
	Long: `Deposit a positive amount into a customer's account. Without
--account the customer's first account is used.

Example:
  bank deposit --customer 1 --amount 150.75
  bank deposit --customer 1 --account 2 --amount 20`,
	Run: func(cmd *cobra.Command, args []string) {
		runTransaction(bank.Deposit)
	},
}

// withdrawCmd represents the withdraw command.
var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw from an account",
	Long: `Withdraw a positive amount from a customer's account. Withdrawals are
limited by the balance, the per-operation ceiling and the maximum number of
withdrawals.

Example:
  bank withdraw --customer 1 --amount 100`,
	Run: func(cmd *cobra.Command, args []string) {
		runTransaction(bank.Withdrawal)
	},
}

func init() {
	for _, c := range []*cobra.Command{depositCmd, withdrawCmd} {
		c.Flags().Int64Var(&txnCustomerID, "customer", 0, "Customer identifier (required)")
		c.Flags().StringVar(&txnAccount, "account", "", "Account number (default: first account)")
		c.Flags().StringVar(&txnAmount, "amount", "", "Amount (required)")
		c.MarkFlagRequired("customer")
		c.MarkFlagRequired("amount")
	}
}

func runTransaction(kind bank.Kind) {
	amount := parseAmount(txnAmount)

	s := openSession()
	defer s.Close()

	var (
		e   bank.Entry
		err error
	)
	switch kind {
	case bank.Deposit:
		e, err = s.teller.Deposit(txnCustomerID, txnAccount, amount)
		exitOnError(err, "deposit refused")
		fmt.Println("Depósito realizado com sucesso.")
	case bank.Withdrawal:
		e, err = s.teller.Withdraw(txnCustomerID, txnAccount, amount)
		exitOnError(err, "withdrawal refused")
		fmt.Println("Saque realizado com sucesso.")
	}

	fmt.Printf("%s %s em %s\n", e.Kind, formatMoney(e.Amount), e.Timestamp.Format(bank.TimestampLayout))
}
