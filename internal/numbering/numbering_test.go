package numbering

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type numberedRow struct {
	ID     uint   `gorm:"primaryKey"`
	Number string `gorm:"size:50;uniqueIndex;not null"`
}

func (numberedRow) TableName() string { return "quotes" }

type invoiceRow struct {
	ID     uint   `gorm:"primaryKey"`
	Number string `gorm:"size:50;uniqueIndex;not null"`
}

func (invoiceRow) TableName() string { return "invoices" }

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&numberedRow{}, &invoiceRow{}))
	return db
}

func insert(tx *gorm.DB, number string) error {
	return tx.Create(&numberedRow{Number: number}).Error
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "DEV-2025-001", Format(Quote, 2025, 1))
	assert.Equal(t, "FAC-2025-042", Format(Invoice, 2025, 42))
	assert.Equal(t, "DEV-2025-1000", Format(Quote, 2025, 1000))
}

func TestParseCounter(t *testing.T) {
	tests := map[string]int{
		"DEV-2025-001":  1,
		"DEV-2025-999":  999,
		"DEV-2025-1000": 1000,
		"DEV-2025-":     0,
		"DEV-2025-abc":  0,
		"garbage":       0,
		"":              0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseCounter(in), in)
	}
}

func TestAllocator_Sequential(t *testing.T) {
	db := setupDB(t)
	a := NewAllocator()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var got []string
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Within(ctx, db, Quote, at, func(tx *gorm.DB, number string) error {
			got = append(got, number)
			return insert(tx, number)
		}))
	}
	assert.Equal(t, []string{"DEV-2025-001", "DEV-2025-002", "DEV-2025-003"}, got)
}

func TestAllocator_YearReset(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, insert(db, "DEV-2024-017"))

	var number string
	err := NewAllocator().Within(context.Background(), db, Quote, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), func(tx *gorm.DB, n string) error {
		number = n
		return insert(tx, n)
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2025-001", number)
}

func TestAllocator_BeyondThreeDigits(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, insert(db, "DEV-2025-998"))
	require.NoError(t, insert(db, "DEV-2025-999"))
	require.NoError(t, insert(db, "DEV-2025-1000"))

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := NewAllocator().Next(tx, Quote, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "DEV-2025-1001", n)
		return nil
	})
	require.NoError(t, err)
}

func TestAllocator_MalformedLastNumber(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, insert(db, "DEV-2025-xyz"))

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := NewAllocator().Next(tx, Quote, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "DEV-2025-001", n)
		return nil
	})
	require.NoError(t, err)
}

func TestAllocator_Concurrent(t *testing.T) {
	db := setupDB(t)
	a := NewAllocator()
	at := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := a.Within(context.Background(), db, Quote, at, func(tx *gorm.DB, number string) error {
				if err := insert(tx, number); err != nil {
					return err
				}
				mu.Lock()
				numbers = append(numbers, number)
				mu.Unlock()
				return nil
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, n)
	sort.Slice(numbers, func(i, j int) bool { return ParseCounter(numbers[i]) < ParseCounter(numbers[j]) })
	for i, num := range numbers {
		assert.Equal(t, Format(Quote, 2025, i+1), num)
	}
}

func TestAllocator_RetriesOnUniqueViolation(t *testing.T) {
	db := setupDB(t)
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	var seen []string
	err := NewAllocator().Within(context.Background(), db, Invoice, now, func(tx *gorm.DB, number string) error {
		seen = append(seen, number)
		if len(seen) == 1 {
			return fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)
		}
		return tx.Create(&invoiceRow{Number: number}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"FAC-2025-001", "FAC-2025-001"}, seen)

	var stored []string
	require.NoError(t, db.Model(&invoiceRow{}).Pluck("number", &stored).Error)
	assert.Equal(t, []string{"FAC-2025-001"}, stored)
}

func TestAllocator_DoesNotRetryOtherErrors(t *testing.T) {
	db := setupDB(t)
	boom := fmt.Errorf("boom")
	calls := 0
	err := NewAllocator().Within(context.Background(), db, Invoice, time.Now(), func(tx *gorm.DB, number string) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("UNIQUE constraint failed: quotes.number")))
	assert.True(t, IsUniqueViolation(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_quotes_number" (SQLSTATE 23505)`)))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(fmt.Errorf("connection refused")))
}
