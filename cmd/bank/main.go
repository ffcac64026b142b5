// Package main is the entry point for the bank CLI.
package main

import (
	"os"

	"github.com/Cleytonsamurai/sistema-bancario/cmd/bank/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
