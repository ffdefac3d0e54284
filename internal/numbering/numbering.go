// Package numbering allocates the human readable, per-year sequential
// numbers of quotes (DEV-YYYY-NNN) and invoices (FAC-YYYY-NNN).
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Kind identifies a numbered document family.
type Kind struct {
	Prefix string
	Table  string
}

var (
	Quote   = Kind{Prefix: "DEV", Table: "quotes"}
	Invoice = Kind{Prefix: "FAC", Table: "invoices"}
)

// maxRetries bounds the attempts made when another process wins the race
// for the same number.
const maxRetries = 5

// Format renders a number: prefix, year and a counter zero-padded to 3 digits.
func Format(kind Kind, year, counter int) string {
	return fmt.Sprintf("%s-%d-%03d", kind.Prefix, year, counter)
}

// YearPrefix is the common prefix of every number of kind issued in year.
func YearPrefix(kind Kind, year int) string {
	return fmt.Sprintf("%s-%d-", kind.Prefix, year)
}

// ParseCounter returns the trailing counter of number, or 0 when it cannot
// be parsed.
func ParseCounter(number string) int {
	i := strings.LastIndexByte(number, '-')
	if i < 0 || i == len(number)-1 {
		return 0
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Allocator hands out numbers. Allocation for one prefix and year is
// serialized in-process by a mutex and across processes by a row lock on
// the last issued number plus the unique index on the number column.
type Allocator struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAllocator() *Allocator {
	return &Allocator{locks: make(map[string]*sync.Mutex)}
}

func (a *Allocator) lockFor(prefix string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[prefix]
	if !ok {
		l = &sync.Mutex{}
		a.locks[prefix] = l
	}
	return l
}

type lastNumber struct {
	Number string
}

// Next computes the next number for kind in the year of at. It must run
// inside tx; the last row of the prefix stays locked until tx ends.
func (a *Allocator) Next(tx *gorm.DB, kind Kind, at time.Time) (string, error) {
	year := at.Year()
	prefix := YearPrefix(kind, year)

	var rows []lastNumber
	err := tx.Table(kind.Table).
		Select("number").
		Where("number LIKE ?", prefix+"%").
		Order("LENGTH(number) DESC").
		Order("number DESC").
		Limit(1).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("read last %s number: %w", kind.Prefix, err)
	}

	counter := 0
	if len(rows) > 0 {
		counter = ParseCounter(rows[0].Number)
	}
	return Format(kind, year, counter+1), nil
}

// Within allocates a number for kind and calls fn with it inside a single
// transaction. fn is expected to insert the row carrying the number. When
// the insert hits the unique index because another process allocated the
// same number, the whole transaction is retried.
func (a *Allocator) Within(ctx context.Context, db *gorm.DB, kind Kind, at time.Time, fn func(tx *gorm.DB, number string) error) error {
	l := a.lockFor(YearPrefix(kind, at.Year()))
	l.Lock()
	defer l.Unlock()

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := a.Next(tx, kind, at)
			if err != nil {
				return err
			}
			return fn(tx, number)
		})
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("allocate %s number after %d attempts: %w", kind.Prefix, maxRetries, err)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
