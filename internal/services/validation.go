package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

// ValidationService drives the client side of quote acceptance: a one-time
// code is issued for a sent quote and confirmed with the validation token.
type ValidationService struct {
	db     *gorm.DB
	events events.Emitter
	opts   Options
}

func NewValidationService(db *gorm.DB, em events.Emitter, opts Options) *ValidationService {
	return &ValidationService{db: db, events: emitter(em), opts: opts.withDefaults()}
}

// ValidationStarted is the payload of events.ValidationStarted.
type ValidationStarted struct {
	Quote      *models.Quote
	Validation *models.QuoteValidation
}

// StartResult carries the new validation. The caller delivers the code.
type StartResult struct {
	Validation       *models.QuoteValidation
	Quote            *models.Quote
	SideEffectErrors []error
}

// ConfirmResult is the outcome of a confirmation attempt. A wrong code is
// not an error: Confirmed is false and AttemptsLeft tells how many remain.
type ConfirmResult struct {
	Confirmed        bool
	AlreadyConfirmed bool
	AttemptsLeft     int
	Quote            *models.Quote
	// SideEffectErrors lists post-acceptance failures (PDF, notifications).
	// They never undo the acceptance.
	SideEffectErrors []error
}

// Start issues a new code for the sent quote identified by publicToken.
// Any earlier unconfirmed validation of the quote stops being usable.
func (s *ValidationService) Start(ctx context.Context, publicToken string) (*StartResult, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, ErrQuoteNotFound
	}
	now := s.opts.Now()
	var v *models.QuoteValidation
	var quoteID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := forUpdate(tx).Where("public_token = ?", publicToken).Take(&q).Error; err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		if !q.CanValidate() {
			return fmt.Errorf("%w: quote %s is %s", ErrNotValidatable, q.Number, q.Status)
		}
		quoteID = q.ID

		if err := tx.Where("quote_id = ? AND confirmed_at IS NULL", q.ID).
			Delete(&models.QuoteValidation{}).Error; err != nil {
			return fmt.Errorf("supersede validations: %w", err)
		}

		code, err := newCode()
		if err != nil {
			return err
		}
		v = &models.QuoteValidation{
			QuoteID:   q.ID,
			Token:     uuid.NewString(),
			Code:      code,
			ExpiresAt: now.Add(s.opts.ValidationTTL),
		}
		return tx.Create(v).Error
	})
	if err != nil {
		return nil, err
	}

	q, err := loadQuote(s.db.WithContext(ctx), quoteID)
	if err != nil {
		return nil, err
	}
	res := &StartResult{Validation: v, Quote: q}
	res.SideEffectErrors = s.events.Emit(ctx, events.Event{
		Name:    events.ValidationStarted,
		Payload: ValidationStarted{Quote: q, Validation: v},
	})
	return res, nil
}

// Confirm checks code against the validation identified by token.
//
// Order of checks: unknown token, already confirmed (success, no write),
// expired, attempt cap reached. Otherwise the attempt is counted and, on a
// match, the validation is confirmed and the quote accepted in the same
// transaction.
func (s *ValidationService) Confirm(ctx context.Context, token, code string) (*ConfirmResult, error) {
	now := s.opts.Now()
	res := &ConfirmResult{}
	var (
		quoteID  uint
		accepted bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.QuoteValidation
		if err := forUpdate(tx).Where("token = ?", token).Take(&v).Error; err != nil {
			return notFound(err, ErrValidationNotFound)
		}
		quoteID = v.QuoteID

		if v.IsConfirmed() {
			res.Confirmed = true
			res.AlreadyConfirmed = true
			return nil
		}
		if v.IsExpired(now) {
			return &ValidationExpiredError{Token: v.Token, ExpiredAt: v.ExpiresAt}
		}
		if v.Attempts >= s.opts.MaxAttempts {
			return ErrTooManyAttempts
		}

		v.Attempts++
		match := codesMatch(v.Code, code)
		updates := map[string]any{"attempts": v.Attempts}
		if match {
			updates["confirmed_at"] = now
		}
		if err := tx.Model(&v).Updates(updates).Error; err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		if !match {
			res.AttemptsLeft = s.opts.MaxAttempts - v.Attempts
			return nil
		}

		var q models.Quote
		if err := forUpdate(tx).Take(&q, v.QuoteID).Error; err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		switch q.Status {
		case models.QuoteStatusSent:
			if err := tx.Model(&q).Updates(map[string]any{
				"status":      models.QuoteStatusAccepted,
				"accepted_at": now,
			}).Error; err != nil {
				return fmt.Errorf("accept quote: %w", err)
			}
			accepted = true
		case models.QuoteStatusAccepted, models.QuoteStatusInvoiced:
			// Nothing to write.
		default:
			return fmt.Errorf("%w: quote %s is %s", ErrNotValidatable, q.Number, q.Status)
		}
		res.Confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Confirmed {
		q, err := loadQuote(s.db.WithContext(ctx), quoteID)
		if err != nil {
			return nil, err
		}
		res.Quote = q
	}
	if accepted {
		res.SideEffectErrors = s.events.Emit(ctx, events.Event{Name: events.QuoteAccepted, Payload: res.Quote})
	}
	return res, nil
}

// Pending returns the usable validation of a quote, if any.
func (s *ValidationService) Pending(ctx context.Context, quoteID uint) (*models.QuoteValidation, error) {
	var v models.QuoteValidation
	err := s.db.WithContext(ctx).
		Where("quote_id = ? AND confirmed_at IS NULL", quoteID).
		Order("id DESC").
		Take(&v).Error
	if err != nil {
		return nil, notFound(err, ErrValidationNotFound)
	}
	return &v, nil
}

// newCode returns a uniformly random 6-digit code.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// codesMatch compares the trimmed submission to the expected code in
// constant time. An empty submission never matches.
func codesMatch(expected, submitted string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
