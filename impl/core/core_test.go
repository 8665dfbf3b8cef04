package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorlist/entity"
	"doorlist/internal/config"
	"doorlist/internal/registry"
)

type fakeStore struct {
	mu             sync.Mutex
	rows           [][]string
	failHeaderRead bool
	failDataRead   bool
	failAppend     bool
	reads          int
}

func (f *fakeStore) ReadRange(_ context.Context, rangeA1 string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if rangeA1 == "A1:H1" {
		if f.failHeaderRead {
			return nil, fmt.Errorf("header read failed")
		}
		if len(f.rows) == 0 {
			return nil, nil
		}
		return f.rows[:1], nil
	}
	if f.failDataRead {
		return nil, fmt.Errorf("data read failed")
	}
	return f.rows, nil
}

func (f *fakeStore) WriteRange(_ context.Context, _ string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		f.rows = append(f.rows, rows[0])
	} else {
		f.rows[0] = rows[0]
	}
	return nil
}

func (f *fakeStore) AppendRow(_ context.Context, _ string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return fmt.Errorf("append failed")
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeStore) dataRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return 0
	}
	return len(f.rows) - 1 // minus header
}

type fakeDB struct {
	mu       sync.Mutex
	acquires int
	releases int
	mirrored int
	lockErr  error
}

func (f *fakeDB) AcquireLock(string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.lockErr != nil {
		return "", f.lockErr
	}
	return "lease-1", nil
}

func (f *fakeDB) ReleaseLock(string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *fakeDB) SaveSubmission(*entity.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored++
	return nil
}

func (f *fakeDB) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquires, f.releases, f.mirrored
}

func testConf() *config.Config {
	return &config.Config{
		Events: []entity.EventConfig{
			{Ref: "friday", DisplayName: "Friday Night", SheetID: "sheet-friday"},
		},
		Sheets: config.SheetsConfig{DefaultSheetID: "sheet-default"},
	}
}

func newTestCore(store *fakeStore) *Core {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testConf(), func(string) registry.RowStore { return store }, log)
}

func input() *entity.Registration {
	return &entity.Registration{
		InviterName: "Raphael",
		FirstName:   "Ana",
		LastName:    "Lima",
		Phone:       "501234567",
		CountryCode: "971",
		StoreRef:    "friday",
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)

	rec, err := c.Register(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "501234567", rec.Phone)
	assert.NotEmpty(t, rec.Timestamp, "timestamp set server-side")
	assert.Equal(t, "Friday Night", rec.EventName, "event name defaulted")
	assert.Equal(t, 1, store.dataRows())
}

func TestRegisterDuplicate(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)
	ctx := context.Background()

	_, err := c.Register(ctx, input())
	require.NoError(t, err)

	// same phone, different formatting
	second := input()
	second.Phone = "50 123 4567"
	_, err = c.Register(ctx, second)

	var dup *entity.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, entity.DuplicateMessage, err.Error())
	assert.Equal(t, 1, store.dataRows(), "row count unchanged")
}

func TestRegisterDifferentCountryCodeNotDuplicate(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)
	ctx := context.Background()

	_, err := c.Register(ctx, input())
	require.NoError(t, err)

	second := input()
	second.CountryCode = "1"
	_, err = c.Register(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 2, store.dataRows())
}

func TestRegisterValidation(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)

	rec := input()
	rec.FirstName = ""
	_, err := c.Register(context.Background(), rec)

	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, store.reads, "no store access on validation failure")
}

func TestRegisterUnknownStoreRef(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)

	rec := input()
	rec.StoreRef = "nonexistent"
	_, err := c.Register(context.Background(), rec)

	var ce *entity.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Zero(t, store.reads)
}

func TestRegisterDefaultStore(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)

	rec := input()
	rec.StoreRef = ""
	_, err := c.Register(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, store.dataRows())
}

func TestRegisterClosedGuestlist(t *testing.T) {
	store := &fakeStore{}
	conf := testConf()
	conf.Events[0].GuestlistClose = time.Now().Add(-time.Hour)
	c := New(conf, func(string) registry.RowStore { return store }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Register(context.Background(), input())
	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRegisterDegradedDedupStillAppends(t *testing.T) {
	// the duplicate scan fails but the registration must still commit
	store := &fakeStore{failDataRead: true}
	c := newTestCore(store)

	_, err := c.Register(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, 1, store.dataRows())
}

func TestRegisterPersistenceError(t *testing.T) {
	store := &fakeStore{failAppend: true}
	c := newTestCore(store)

	_, err := c.Register(context.Background(), input())
	var pe *entity.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Zero(t, store.dataRows())
}

func TestRegisterAdvisoryLock(t *testing.T) {
	store := &fakeStore{}
	db := &fakeDB{}
	c := newTestCore(store)
	c.SetDatabase(db)

	_, err := c.Register(context.Background(), input())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		acquires, releases, mirrored := db.counts()
		return acquires == 1 && releases == 1 && mirrored == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterProceedsWhenLockHeld(t *testing.T) {
	store := &fakeStore{}
	db := &fakeDB{lockErr: errors.New("registration lock held")}
	c := newTestCore(store)
	c.SetDatabase(db)

	_, err := c.Register(context.Background(), input())
	require.NoError(t, err, "lock is best-effort, not a gate")
	assert.Equal(t, 1, store.dataRows())
}

func TestGuests(t *testing.T) {
	store := &fakeStore{}
	c := newTestCore(store)
	ctx := context.Background()

	_, err := c.Register(ctx, input())
	require.NoError(t, err)

	guests, err := c.Guests(ctx, "friday")
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "Ana", guests[0].FirstName)

	_, err = c.Guests(ctx, "nope")
	var ce *entity.ConfigurationError
	require.ErrorAs(t, err, &ce)
}
