package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorlist/entity"
)

// fakeStore is an in-memory RowStore. Row 1 is the header slot; reads
// of the header range only see the first row.
type fakeStore struct {
	rows     [][]string
	readErr  error
	writeErr error
	appends  int
	writes   int
}

func (f *fakeStore) ReadRange(_ context.Context, rangeA1 string) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if rangeA1 == "A1:H1" {
		if len(f.rows) == 0 {
			return nil, nil
		}
		return f.rows[:1], nil
	}
	return f.rows, nil
}

func (f *fakeStore) WriteRange(_ context.Context, rangeA1 string, rows [][]string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	if len(f.rows) == 0 {
		f.rows = append(f.rows, rows[0])
	} else {
		f.rows[0] = rows[0]
	}
	return nil
}

func (f *fakeStore) AppendRow(_ context.Context, _ string, row []string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.appends++
	f.rows = append(f.rows, row)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(inviter, first, last, phone, code string) *entity.Registration {
	return &entity.Registration{
		InviterName: inviter,
		FirstName:   first,
		LastName:    last,
		Phone:       phone,
		CountryCode: code,
		Timestamp:   "2026-08-01T20:00:00Z",
	}
}

func TestEnsureHeaderIdempotent(t *testing.T) {
	store := &fakeStore{}
	reg := New(store, testLogger())

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.EnsureHeader(context.Background()))
	}
	assert.Equal(t, 1, store.writes, "header written exactly once")
	require.Len(t, store.rows, 1)
	assert.Equal(t, entity.Header, store.rows[0])
}

func TestEnsureHeaderOverwritesForeignRow(t *testing.T) {
	store := &fakeStore{rows: [][]string{{"Bob", "x"}}}
	reg := New(store, testLogger())

	require.NoError(t, reg.EnsureHeader(context.Background()))
	assert.Equal(t, entity.Header, store.rows[0])
}

func TestAppendAndReadAll(t *testing.T) {
	store := &fakeStore{}
	reg := New(store, testLogger())
	ctx := context.Background()

	require.NoError(t, reg.Append(ctx, record("Raphael", "Ana", "Lima", "50 123 4567", "971")))
	require.NoError(t, reg.Append(ctx, record("Ana Lima", "Joe", "Dean", "(555) 000-1111", "1")))

	records := reg.ReadAll(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "501234567", records[0].Phone, "phone stored digit-only")
	assert.Equal(t, "5550001111", records[1].Phone)
	assert.Equal(t, "971", records[0].CountryCode)
	assert.Equal(t, 1, store.writes, "single header provision across appends")
}

func TestReadAllWithoutHeader(t *testing.T) {
	// registry predating header provisioning: data starts at row 1
	store := &fakeStore{rows: [][]string{
		{"Raphael", "Ana", "Lima", "501234567", "971", "", "", "ts"},
	}}
	reg := New(store, testLogger())

	records := reg.ReadAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0].FirstName)
}

func TestReadAllFiltersBlankRows(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		entity.Header,
		{"Raphael", "Ana", "Lima", "501234567", "971"},
		{},
		{"   "},
		{"", "ghost"},
	}}
	reg := New(store, testLogger())

	records := reg.ReadAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "Raphael", records[0].InviterName)
}

func TestReadAllNormalizesLegacyPhones(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		entity.Header,
		{"Raphael", "Ana", "Lima", "+971 50-123-4567", "971"},
	}}
	reg := New(store, testLogger())

	records := reg.ReadAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, "971501234567", records[0].Phone)
}

func TestReadAllDegradesToEmptyOnError(t *testing.T) {
	store := &fakeStore{readErr: fmt.Errorf("sheet not found")}
	reg := New(store, testLogger())

	assert.Empty(t, reg.ReadAll(context.Background()))
}

func TestAppendPropagatesWriteError(t *testing.T) {
	store := &fakeStore{writeErr: fmt.Errorf("quota exceeded")}
	reg := New(store, testLogger())

	err := reg.Append(context.Background(), record("Raphael", "Ana", "Lima", "501234567", "971"))
	require.Error(t, err)
	assert.Zero(t, store.appends)
}

func TestIsDuplicate(t *testing.T) {
	existing := []*entity.Registration{
		record("Raphael", "Ana", "Lima", "501234567", "971"),
	}

	assert.True(t, IsDuplicate(existing, "501234567", "971"))
	assert.True(t, IsDuplicate(existing, "50 123 4567", "971"), "formatting ignored")
	assert.False(t, IsDuplicate(existing, "501234567", "1"), "country code part of the key")
	assert.False(t, IsDuplicate(existing, "501234567", "00971"), "codes compared as exact strings")
	assert.False(t, IsDuplicate(existing, "501234568", "971"))
	assert.False(t, IsDuplicate(nil, "501234567", "971"))
}
