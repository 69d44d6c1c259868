package ports

import (
	"context"

	"decaylab/domain/result"
)

// ResultLedgerPort is the append-only store for iteration result rows.
// Rows are immutable once appended; Load returns them in append order.
type ResultLedgerPort interface {
	Append(ctx context.Context, rows []result.Row) error
	Load(ctx context.Context) ([]result.Row, error)
}
