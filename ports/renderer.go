package ports

import (
	"context"

	"decaylab/domain/result"
)

// ReportRendererPort renders the aggregated comparison in some medium
// (terminal table, workbook, plot files). The core consumes no return value
// from rendering.
type ReportRendererPort interface {
	Render(ctx context.Context, summary result.Summary) error
}
