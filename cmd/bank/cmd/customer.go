package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/teller"
)

var (
	customerName      string
	customerBirthDate string
	customerIDCode    string
	customerAddress   string
	customerID        int64
)

// customerCmd groups customer subcommands.
var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var customerRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new customer",
	Long: `Register a new customer. The identification code must have exactly
11 digits and be unique.

Example:
  bank customer register --name "Maria Silva" --birth-date 01-02-1990 \
    --id-code 12345678901 --address "Rua A, 1 - Centro - SP"`,
	Run: runCustomerRegister,
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all customers",
	Run:   runCustomerList,
}

var customerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a customer and their accounts",
	Long: `Show a customer looked up by identifier or identification code.

Example:
  bank customer show --id-code 12345678901
  bank customer show --id 1`,
	Run: runCustomerShow,
}

var customerDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a customer with their accounts and transactions",
	Run:   runCustomerDelete,
}

func init() {
	customerRegisterCmd.Flags().StringVar(&customerName, "name", "", "Full name (required)")
	customerRegisterCmd.Flags().StringVar(&customerBirthDate, "birth-date", "", "Date of birth (DD-MM-YYYY)")
	customerRegisterCmd.Flags().StringVar(&customerIDCode, "id-code", "", "Identification code, 11 digits (required)")
	customerRegisterCmd.Flags().StringVar(&customerAddress, "address", "", "Address")
	customerRegisterCmd.MarkFlagRequired("name")
	customerRegisterCmd.MarkFlagRequired("id-code")

	customerShowCmd.Flags().Int64Var(&customerID, "id", 0, "Customer identifier")
	customerShowCmd.Flags().StringVar(&customerIDCode, "id-code", "", "Identification code")
	customerShowCmd.MarkFlagsOneRequired("id", "id-code")
	customerShowCmd.MarkFlagsMutuallyExclusive("id", "id-code")

	customerDeleteCmd.Flags().Int64Var(&customerID, "id", 0, "Customer identifier (required)")
	customerDeleteCmd.MarkFlagRequired("id")

	customerCmd.AddCommand(customerRegisterCmd, customerListCmd, customerShowCmd, customerDeleteCmd)
}

func runCustomerRegister(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	c, err := s.teller.RegisterCustomer(teller.CustomerInput{
		Name:      customerName,
		BirthDate: customerBirthDate,
		IDCode:    customerIDCode,
		Address:   customerAddress,
	})
	exitOnError(err, "failed to register customer")

	fmt.Printf("Customer registered: %s (id %d)\n", c.Name, c.ID)
}

func runCustomerList(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	customers, err := s.teller.ListCustomers()
	exitOnError(err, "failed to list customers")

	if len(customers) == 0 {
		fmt.Println("No customers registered")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tID CODE\tACCOUNTS")
	for _, c := range customers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", c.ID, c.Name, c.IDCode, len(c.Accounts()))
	}
	w.Flush()
}

func runCustomerShow(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	var c *bank.Customer
	if customerIDCode != "" {
		var err error
		c, err = s.teller.LookupCustomer(customerIDCode)
		exitOnError(err, "failed to find customer")
	} else {
		var err error
		c, err = s.teller.Customer(customerID)
		exitOnError(err, "failed to find customer")
	}

	fmt.Printf("\n=== Customer %d ===\n", c.ID)
	fmt.Printf("Name:          %s\n", c.Name)
	fmt.Printf("Date of birth: %s\n", c.BirthDate)
	fmt.Printf("ID code:       %s\n", c.IDCode)
	fmt.Printf("Address:       %s\n", c.Address)
	printAccounts(c.Accounts())
	fmt.Println()
}

func runCustomerDelete(cmd *cobra.Command, args []string) {
	s := openSession()
	defer s.Close()

	exitOnError(s.teller.DeleteCustomer(customerID), "failed to delete customer")

	slog.Info("Customer deleted", "customer_id", customerID)
	fmt.Printf("Customer %d deleted\n", customerID)
}

func printAccounts(accounts []*bank.Account) {
	if len(accounts) == 0 {
		fmt.Println("No accounts")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRANCH\tNUMBER\tBALANCE\tTRANSACTIONS")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", a.Branch, a.Number, formatMoney(a.Balance()), a.History().Count())
	}
	w.Flush()
}
