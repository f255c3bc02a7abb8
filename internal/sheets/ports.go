// Package sheets defines the spreadsheet export port used by the worker.
package sheets

import (
	"context"

	"billed/internal/core"
)

// Ports for outbound adapters.
type (
	// BillExporter appends a bill as a spreadsheet row.
	BillExporter interface {
		AppendBill(ctx context.Context, b core.Bill) (rowRef string, err error)
	}
)
