// Package registry is the deduplicating guest-list table for one
// event, backed by an external row-range store.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"doorlist/entity"
	"doorlist/lib/sl"
)

const (
	headerRange = "A1:H1"
	dataRange   = "A:H"

	// headerMark identifies a provisioned sheet: the first cell of row 1
	// contains this substring, case-insensitively.
	headerMark = "inviter"
)

// RowStore is the external spreadsheet-backed table: key-ordered,
// append-only, addressed by A1 range labels. Implemented by
// internal/sheets. A store that offered an atomic append-if-absent
// could close the duplicate race documented on core.Register; this one
// does not.
type RowStore interface {
	ReadRange(ctx context.Context, rangeA1 string) ([][]string, error)
	WriteRange(ctx context.Context, rangeA1 string, rows [][]string) error
	AppendRow(ctx context.Context, rangeA1 string, row []string) error
}

type Registry struct {
	store RowStore
	log   *slog.Logger
}

func New(store RowStore, logger *slog.Logger) *Registry {
	return &Registry{
		store: store,
		log:   logger.With(sl.Module("registry")),
	}
}

func hasHeader(rows [][]string) bool {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(rows[0][0]), headerMark)
}

// EnsureHeader provisions the canonical header row if row 1 does not
// already carry it. Idempotent: once the header exists the check makes
// this a read-only no-op.
func (r *Registry) EnsureHeader(ctx context.Context) error {
	rows, err := r.store.ReadRange(ctx, headerRange)
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if hasHeader(rows) {
		return nil
	}
	if err = r.store.WriteRange(ctx, headerRange, [][]string{entity.Header}); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	r.log.Info("header row provisioned")
	return nil
}

// ReadAll returns every registration in the sheet. Data rows start
// after the header when one exists, at row 1 otherwise (registries
// predating header provisioning). Blank rows and rows without an
// inviter name are filtered out.
//
// A failed read returns an empty slice instead of an error: callers
// treat "cannot determine duplicates" the same as "no duplicates yet",
// trading a small duplicate risk for registry availability. The cause
// is logged for operators.
func (r *Registry) ReadAll(ctx context.Context) []*entity.Registration {
	rows, err := r.store.ReadRange(ctx, dataRange)
	if err != nil {
		r.log.Error("read registry degraded to empty", sl.Err(err))
		return nil
	}
	if hasHeader(rows) {
		rows = rows[1:]
	}
	records := make([]*entity.Registration, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		records = append(records, entity.FromRow(row))
	}
	return records
}

// Append provisions the header if needed and writes one registration
// row. Unlike reads, write failures always propagate: a silently
// dropped registration is a user-visible loss.
func (r *Registry) Append(ctx context.Context, rec *entity.Registration) error {
	if err := r.EnsureHeader(ctx); err != nil {
		return err
	}
	if err := r.store.AppendRow(ctx, dataRange, rec.Row()); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// IsDuplicate reports whether a registration with the same digits-only
// phone and the exact same country code string already exists. Country
// codes are not normalized: "971" and "00971" are distinct keys.
func IsDuplicate(existing []*entity.Registration, phone, countryCode string) bool {
	digits := entity.PhoneDigits(phone)
	for _, rec := range existing {
		if rec.PhoneDigits() == digits && rec.CountryCode == countryCode {
			return true
		}
	}
	return false
}
