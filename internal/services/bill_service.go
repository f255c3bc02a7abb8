package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"billed/internal/core"
	"billed/internal/storage"
	"billed/internal/store"
)

// Publisher announces submitted bills to downstream consumers.
type Publisher interface {
	PublishBillSubmitted(ctx context.Context, id, email string) error
	Close() error
}

// BillService orchestrates bill operations across SQLite and AMQP.
type BillService struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
}

var _ store.Bills = (*BillService)(nil)

func NewBillService(storage *storage.SQLiteRepository, publisher Publisher) *BillService {
	return &BillService{storage: storage, publisher: publisher}
}

func (s *BillService) List(ctx context.Context) ([]core.Bill, error) {
	return s.storage.List(ctx)
}

func (s *BillService) Create(ctx context.Context, u store.Upload) (store.Receipt, error) {
	return s.storage.Create(ctx, u)
}

// Update saves the bill locally, then announces it when it is (still) pending.
// A publish failure does not fail the update.
func (s *BillService) Update(ctx context.Context, id string, b core.Bill) (core.Bill, error) {
	saved, err := s.storage.Update(ctx, id, b)
	if err != nil {
		return core.Bill{}, err
	}
	if saved.Status != core.StatusPending {
		return saved, nil
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping bill message", "id", saved.ID)
		return saved, nil
	}
	if err := s.publisher.PublishBillSubmitted(ctx, saved.ID, saved.Email); err != nil {
		slog.ErrorContext(ctx, "Failed to publish bill message", "id", saved.ID, "error", err)
	}
	return saved, nil
}

// Close closes both storage and AMQP connections.
func (s *BillService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
