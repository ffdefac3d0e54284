package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

var (
	ErrQuoteNotFound        = errors.New("quote not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrQuoteRequestNotFound = errors.New("quote request not found")
	ErrValidationNotFound   = errors.New("validation not found")

	// ErrNotValidatable is returned when a validation is started or confirmed
	// on a quote that is not waiting for the client's answer.
	ErrNotValidatable       = errors.New("quote is not validatable")
	ErrValidationExpired    = errors.New("validation code expired")
	ErrTooManyAttempts      = errors.New("too many validation attempts")
	ErrQuoteStatus          = errors.New("quote status does not allow this operation")
	ErrQuoteAlreadyInvoiced = errors.New("quote already invoiced")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrRequestProcessed     = errors.New("quote request already processed")
)

// QuoteStatusError reports a quote whose status violates a precondition.
type QuoteStatusError struct {
	Number string
	Status models.QuoteStatus
	Want   models.QuoteStatus
}

func (e *QuoteStatusError) Error() string {
	return fmt.Sprintf("quote %s is %s, want %s", e.Number, e.Status, e.Want)
}

func (e *QuoteStatusError) Unwrap() error { return ErrQuoteStatus }

// ValidationExpiredError is returned when a code is submitted after expiry.
type ValidationExpiredError struct {
	Token     string
	ExpiredAt time.Time
}

func (e *ValidationExpiredError) Error() string {
	return fmt.Sprintf("validation %s expired at %s", e.Token, e.ExpiredAt.Format(time.RFC3339))
}

func (e *ValidationExpiredError) Unwrap() error { return ErrValidationExpired }

// TransitionError reports a lifecycle change not allowed from the current status.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot go from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
