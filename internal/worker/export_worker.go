// Package worker appends submitted bills to the export spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"billed/internal/amqp"
	"billed/internal/cache"
	"billed/internal/core"
	"billed/internal/sheets"
)

// BillSource loads the full record announced by a message.
type BillSource interface {
	Get(ctx context.Context, id string) (core.Bill, error)
}

// ExportTracker is implemented by stores that remember which bills were
// exported. It is optional; without it dedupe only covers the bills seen since
// the worker started.
type ExportTracker interface {
	IsExported(ctx context.Context, id string) (bool, error)
	MarkExported(ctx context.Context, id string, at time.Time) error
	ListUnexported(ctx context.Context, limit int) ([]core.Bill, error)
}

// Metrics counts export outcomes.
type Metrics struct {
	Exported   prometheus.Counter
	Duplicates prometheus.Counter
	Failures   prometheus.Counter
}

// NewMetrics registers the worker counters on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Exported: f.NewCounter(prometheus.CounterOpts{
			Name: "billed_worker_bills_exported_total",
			Help: "Bills appended to the export spreadsheet.",
		}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "billed_worker_duplicates_total",
			Help: "Messages skipped because the bill was already exported.",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "billed_worker_failures_total",
			Help: "Messages that could not be exported.",
		}),
	}
}

type ExportWorker struct {
	source    BillSource
	exporter  sheets.BillExporter
	tracker   ExportTracker
	seen      *cache.LRUCache[time.Time]
	metrics   *Metrics
	batchSize int
}

// NewExportWorker wires the worker. tracker may be nil; seen bounds the
// in-memory dedupe window.
func NewExportWorker(source BillSource, exporter sheets.BillExporter, tracker ExportTracker, seen *cache.LRUCache[time.Time], metrics *Metrics, batchSize int) *ExportWorker {
	if seen == nil {
		seen = cache.NewLRUCache[time.Time](1000, 24*time.Hour)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		source:    source,
		exporter:  exporter,
		tracker:   tracker,
		seen:      seen,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// HandleBillSubmitted processes a single submission message from AMQP.
// Redelivered messages for a bill already exported are acknowledged without
// appending a second row.
func (w *ExportWorker) HandleBillSubmitted(ctx context.Context, msg *amqp.BillSubmittedMessage) error {
	if msg == nil || msg.ID == "" {
		w.metrics.Failures.Inc()
		return errors.New("bill submitted message without id")
	}

	slog.InfoContext(ctx, "Processing bill submitted message",
		"id", msg.ID,
		"email", msg.Email,
		"timestamp", msg.Timestamp)

	if !w.seen.SetIfAbsent(msg.ID, time.Now()) {
		w.metrics.Duplicates.Inc()
		slog.InfoContext(ctx, "Bill already exported, skipping", "id", msg.ID)
		return nil
	}

	if w.tracker != nil {
		done, err := w.tracker.IsExported(ctx, msg.ID)
		if err != nil {
			w.seen.Delete(msg.ID)
			w.metrics.Failures.Inc()
			return fmt.Errorf("check export state: %w", err)
		}
		if done {
			w.metrics.Duplicates.Inc()
			slog.InfoContext(ctx, "Bill exported before restart, skipping", "id", msg.ID)
			return nil
		}
	}

	bill, err := w.source.Get(ctx, msg.ID)
	if err != nil {
		w.seen.Delete(msg.ID)
		w.metrics.Failures.Inc()
		return fmt.Errorf("get bill from storage: %w", err)
	}

	if err := w.export(ctx, bill); err != nil {
		w.seen.Delete(msg.ID)
		return err
	}
	return nil
}

// StartupExportCheck exports pending bills the worker never saw, for example
// while it was down.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	if w.tracker == nil {
		return nil
	}

	bills, err := w.tracker.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported bills: %w", err)
	}
	if len(bills) == 0 {
		slog.InfoContext(ctx, "No unexported bills found on startup")
		return nil
	}

	exported, failed := 0, 0
	for _, b := range bills {
		if !w.seen.SetIfAbsent(b.ID, time.Now()) {
			continue
		}
		if err := w.export(ctx, b); err != nil {
			w.seen.Delete(b.ID)
			slog.ErrorContext(ctx, "Failed to export bill during startup", "id", b.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(bills),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, b core.Bill) error {
	ref, err := w.exporter.AppendBill(ctx, b)
	if err != nil {
		w.metrics.Failures.Inc()
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.metrics.Exported.Inc()

	if w.tracker != nil {
		if err := w.tracker.MarkExported(ctx, b.ID, time.Now()); err != nil {
			// The row is already in the sheet.
			slog.ErrorContext(ctx, "Failed to mark bill as exported", "id", b.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Successfully exported bill",
		"id", b.ID,
		"sheets_ref", ref,
		"amount_cents", b.Amount.Cents)
	return nil
}
