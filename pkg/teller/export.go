package teller

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// StatementExporter writes statement entries somewhere durable and reports
// how many of them it wrote, in order.
type StatementExporter interface {
	Export(st bank.Statement, entries []bank.Entry) (int, error)
}

// exportMarkKey is the metadata key holding the last exported entry id of
// an account.
func exportMarkKey(accountID int64) string {
	return fmt.Sprintf("export.account.%d", accountID)
}

// ExportStatement exports the entries of the account that were not exported
// before and returns how many were written. An empty number selects the
// customer's primary account.
func (t *Teller) ExportStatement(customerID int64, number string, exp StatementExporter) (n int, err error) {
	op := t.begin("export_statement", slog.Int64("customer_id", customerID))
	defer func() { op.end(err, slog.Int("exported", n)) }()

	_, a, err := t.account(customerID, number)
	if err != nil {
		return 0, err
	}
	op.attrs = append(op.attrs, slog.String("account", a.Number))

	key := exportMarkKey(a.ID)
	raw, err := t.gw.Metadata(key)
	if err != nil {
		return 0, err
	}
	var mark int64
	if raw != "" {
		if mark, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, fmt.Errorf("invalid export mark %q: %w", raw, err)
		}
	}

	st := a.Statement()
	var pending []bank.Entry
	for _, e := range st.Entries {
		if e.ID > mark {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	n, err = exp.Export(st, pending)
	if n > 0 {
		if markErr := t.gw.SetMetadata(key, strconv.FormatInt(pending[n-1].ID, 10)); markErr != nil && err == nil {
			err = markErr
		}
	}
	return n, err
}
