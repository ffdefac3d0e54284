// Package ratelimit implements fixed-window rate limiting on top of a
// counter store shared by every server process.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Store counts hits per key. The first hit of a window starts it; the
// counter resets once the window has elapsed.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// FixedWindow allows Limit hits per Window for each key.
type FixedWindow struct {
	Store  Store
	Limit  int64
	Window time.Duration
	// Scope namespaces the keys so several limiters can share a store.
	Scope string
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	if l.Limit <= 0 {
		return true, nil
	}
	n, err := l.Store.Hit(ctx, l.Scope+":"+key, l.Window)
	if err != nil {
		return false, err
	}
	return n <= l.Limit, nil
}

// GormStore keeps counters in the rate_limit_counters table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var count int64
	var err error
	// A concurrent first hit may win the insert; the retry then increments.
	for attempt := 0; attempt < 2; attempt++ {
		count, err = s.hit(ctx, key, window)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("rate limit hit %q: %w", key, err)
	}
	return count, nil
}

func (s *GormStore) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.RateLimitCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(map[string]any{"key": key}).
			Take(&c).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c = models.RateLimitCounter{Key: key, Count: 1, ExpiresAt: now.Add(window)}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			count = 1
			return nil
		case err != nil:
			return err
		}

		if !now.Before(c.ExpiresAt) {
			count = 1
			return tx.Model(&c).Updates(map[string]any{"count": 1, "expires_at": now.Add(window)}).Error
		}
		count = c.Count + 1
		return tx.Model(&c).Update("count", gorm.Expr("? + 1", clause.Column{Name: "count"})).Error
	})
	return count, err
}

// Purge removes expired counters.
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.RateLimitCounter{})
	return res.RowsAffected, res.Error
}

// KeyFunc extracts the client identity of a request.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by remote address. chi's RealIP middleware, when
// mounted before, has already replaced RemoteAddr with the forwarded address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// Middleware rejects requests over the limit with 429. Store failures let
// the request through and are logged.
func Middleware(l Limiter, key KeyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), key(r))
			if err != nil {
				logger.Error("rate limiter unavailable", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if fw, isFW := l.(*FixedWindow); isFW {
					w.Header().Set("Retry-After", strconv.Itoa(int(fw.Window.Seconds())))
				}
				httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
