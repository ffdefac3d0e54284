package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestValidationService_StartRequiresSentQuote(t *testing.T) {
	e := newEnv(t, nil)
	q := e.draftQuote(t)

	_, err := e.valid.Start(context.Background(), q.PublicToken)
	require.ErrorIs(t, err, services.ErrNotValidatable)
	assert.Equal(t, models.QuoteStatusDraft, e.quoteStatus(t, q.ID))

	var n int64
	require.NoError(t, e.db.Unscoped().Model(&models.QuoteValidation{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = e.valid.Start(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, services.ErrQuoteNotFound)
}

func TestValidationService_StartIssuesCode(t *testing.T) {
	e := newEnv(t, nil)
	q := e.sentQuote(t)

	res, err := e.valid.Start(context.Background(), q.PublicToken)
	require.NoError(t, err)
	v := res.Validation
	assert.Regexp(t, `^\d{6}$`, v.Code)
	assert.NotEmpty(t, v.Token)
	assert.Equal(t, q.ID, v.QuoteID)
	assert.True(t, v.ExpiresAt.Equal(e.clock.Now().Add(15*time.Minute)))
	assert.Zero(t, v.Attempts)
	assert.Empty(t, res.SideEffectErrors)
}

func TestValidationService_StartTwiceLeavesOnePending(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	q := e.sentQuote(t)

	first, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)
	second, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Validation.Token, second.Validation.Token)

	var pending int64
	require.NoError(t, e.db.Model(&models.QuoteValidation{}).
		Where("quote_id = ? AND confirmed_at IS NULL", q.ID).Count(&pending).Error)
	assert.Equal(t, int64(1), pending)

	// History is kept.
	var all int64
	require.NoError(t, e.db.Unscoped().Model(&models.QuoteValidation{}).Where("quote_id = ?", q.ID).Count(&all).Error)
	assert.Equal(t, int64(2), all)

	_, err = e.valid.Confirm(ctx, first.Validation.Token, first.Validation.Code)
	assert.ErrorIs(t, err, services.ErrValidationNotFound)

	got, err := e.valid.Pending(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Validation.Token, got.Token)
}

func TestValidationService_ConfirmAcceptsQuote(t *testing.T) {
	ctrl := gomock.NewController(t)
	em := events.NewMockEmitter(ctrl)
	em.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	e := newEnv(t, em)
	ctx := context.Background()
	q := e.sentQuote(t)

	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)

	res, err := e.valid.Confirm(ctx, started.Validation.Token, "  "+started.Validation.Code+"\n")
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.False(t, res.AlreadyConfirmed)
	require.NotNil(t, res.Quote)
	assert.Equal(t, models.QuoteStatusAccepted, res.Quote.Status)
	assert.NotNil(t, res.Quote.AcceptedAt)

	var v models.QuoteValidation
	require.NoError(t, e.db.Where("token = ?", started.Validation.Token).Take(&v).Error)
	assert.NotNil(t, v.ConfirmedAt)
	assert.Equal(t, 1, v.Attempts)
}

func TestValidationService_ConfirmIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	em := events.NewMockEmitter(ctrl)
	var accepted int
	em.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) []error {
		if ev.Name == events.QuoteAccepted {
			accepted++
		}
		return nil
	}).AnyTimes()
	e := newEnv(t, em)
	ctx := context.Background()
	q := e.sentQuote(t)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)

	_, err = e.valid.Confirm(ctx, started.Validation.Token, started.Validation.Code)
	require.NoError(t, err)

	// Even after expiry and with a wrong code, a confirmed validation stays a success.
	e.clock.Advance(time.Hour)
	res, err := e.valid.Confirm(ctx, started.Validation.Token, wrongCode(started.Validation.Code))
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.True(t, res.AlreadyConfirmed)
	assert.Equal(t, models.QuoteStatusAccepted, res.Quote.Status)
	assert.Equal(t, 1, accepted)

	var v models.QuoteValidation
	require.NoError(t, e.db.Where("token = ?", started.Validation.Token).Take(&v).Error)
	assert.Equal(t, 1, v.Attempts)
}

func TestValidationService_WrongCodeCountsAttempts(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	q := e.sentQuote(t)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)
	token, code := started.Validation.Token, started.Validation.Code

	for i := 1; i <= 5; i++ {
		res, err := e.valid.Confirm(ctx, token, wrongCode(code))
		require.NoError(t, err)
		assert.False(t, res.Confirmed)
		assert.Equal(t, 5-i, res.AttemptsLeft)
		assert.Equal(t, models.QuoteStatusSent, e.quoteStatus(t, q.ID))
	}

	// The sixth attempt is refused, even with the right code.
	_, err = e.valid.Confirm(ctx, token, code)
	assert.ErrorIs(t, err, services.ErrTooManyAttempts)
	_, err = e.valid.Confirm(ctx, token, code)
	assert.ErrorIs(t, err, services.ErrTooManyAttempts)
	assert.Equal(t, models.QuoteStatusSent, e.quoteStatus(t, q.ID))

	var v models.QuoteValidation
	require.NoError(t, e.db.Where("token = ?", token).Take(&v).Error)
	assert.Equal(t, 5, v.Attempts)
	assert.Nil(t, v.ConfirmedAt)
}

func TestValidationService_EmptyCodeNeverMatches(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	q := e.sentQuote(t)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)

	for _, code := range []string{"", "   ", "\t\n"} {
		res, err := e.valid.Confirm(ctx, started.Validation.Token, code)
		require.NoError(t, err)
		assert.False(t, res.Confirmed)
	}

	var v models.QuoteValidation
	require.NoError(t, e.db.Where("token = ?", started.Validation.Token).Take(&v).Error)
	assert.Equal(t, 3, v.Attempts)
}

func TestValidationService_Expired(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	q := e.sentQuote(t)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)

	e.clock.Advance(15*time.Minute + time.Second)
	_, err = e.valid.Confirm(ctx, started.Validation.Token, started.Validation.Code)

	var expired *services.ValidationExpiredError
	require.True(t, errors.As(err, &expired), "got %v", err)
	assert.Equal(t, started.Validation.Token, expired.Token)
	assert.ErrorIs(t, err, services.ErrValidationExpired)
	assert.Equal(t, models.QuoteStatusSent, e.quoteStatus(t, q.ID))

	// Restarting the workflow issues a usable code.
	restarted, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)
	res, err := e.valid.Confirm(ctx, restarted.Validation.Token, restarted.Validation.Code)
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
}

func TestValidationService_UnknownToken(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.valid.Confirm(context.Background(), "does-not-exist", "123456")
	assert.ErrorIs(t, err, services.ErrValidationNotFound)
}

func TestValidationService_SideEffectFailuresKeepAcceptance(t *testing.T) {
	ctrl := gomock.NewController(t)
	em := events.NewMockEmitter(ctrl)
	pdfErr := errors.New("pdf renderer unavailable")
	mailErr := errors.New("outbox write failed")
	em.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) []error {
		if ev.Name == events.QuoteAccepted {
			return []error{pdfErr, mailErr}
		}
		return nil
	}).AnyTimes()
	e := newEnv(t, em)
	ctx := context.Background()
	q := e.sentQuote(t)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)

	res, err := e.valid.Confirm(ctx, started.Validation.Token, started.Validation.Code)
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, []error{pdfErr, mailErr}, res.SideEffectErrors)
	assert.Equal(t, models.QuoteStatusAccepted, e.quoteStatus(t, q.ID))
}

func TestValidationService_StartEmitsCodeForDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	em := events.NewMockEmitter(ctrl)
	var delivered []services.ValidationStarted
	em.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) []error {
		if ev.Name == events.ValidationStarted {
			delivered = append(delivered, ev.Payload.(services.ValidationStarted))
		}
		return nil
	}).AnyTimes()
	e := newEnv(t, em)
	q := e.sentQuote(t)

	res, err := e.valid.Start(context.Background(), q.PublicToken)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, res.Validation.Code, delivered[0].Validation.Code)
	require.NotNil(t, delivered[0].Quote.Client)
	assert.Equal(t, "jane@example.com", delivered[0].Quote.Client.Email)
}
