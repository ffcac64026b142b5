package beancount

import (
	"fmt"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// Exporter appends statement entries to monthly ledger files.
type Exporter struct {
	repo Repository
	conv *Converter
}

// NewExporter creates an Exporter.
func NewExporter(repo Repository, conv *Converter) *Exporter {
	return &Exporter{repo: repo, conv: conv}
}

// Export appends entries, which must belong to st's account, in order. It
// returns how many entries were written; on error the first n entries are
// already in the ledger.
func (x *Exporter) Export(st bank.Statement, entries []bank.Entry) (int, error) {
	for i, e := range entries {
		yearMonth := e.Timestamp.Format("2006-01")
		formatted := x.conv.FormatTransaction(x.conv.ConvertEntry(st, e))
		comment := fmt.Sprintf("%s %s", e.Kind, e.Timestamp.Format(bank.TimestampLayout))

		if err := x.repo.AppendTransaction(yearMonth, formatted, comment); err != nil {
			return i, fmt.Errorf("failed to export entry %d: %w", e.ID, err)
		}
	}
	return len(entries), nil
}
