package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

func TestLeadService_Submit(t *testing.T) {
	ctrl := gomock.NewController(t)
	em := events.NewMockEmitter(ctrl)
	em.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) []error {
		assert.Equal(t, events.LeadSubmitted, ev.Name)
		return nil
	})
	e := newEnv(t, em)
	svc := e.service(t, "Site e-commerce", "1500")

	r, err := e.leads.Submit(context.Background(), services.LeadParams{
		Name:      "  Léa Martin ",
		Email:     " Lea@Example.com",
		Message:   "Boutique en ligne pour mes créations",
		ServiceID: &svc.ID,
		Photos:    []string{"a.jpg", "b.jpg"},
	})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, "Léa Martin", r.Name)
	assert.Equal(t, "lea@example.com", r.Email)
	assert.Equal(t, models.QuoteRequestStatusNew, r.Status)

	list, err := e.leads.List(context.Background(), services.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Service)
	assert.Equal(t, "Site e-commerce", list[0].Service.Title)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, []string(list[0].Photos))
}

func TestLeadService_SubmitRejectsInvalidInput(t *testing.T) {
	unknown := uint(77)
	tests := []struct {
		name   string
		params services.LeadParams
		field  string
	}{
		{
			name:   "invalid email",
			params: services.LeadParams{Name: "Léa", Email: "not-an-email", Message: "Bonjour"},
			field:  "email",
		},
		{
			name:   "missing message",
			params: services.LeadParams{Name: "Léa", Email: "lea@example.com"},
			field:  "message",
		},
		{
			name:   "unknown service",
			params: services.LeadParams{Name: "Léa", Email: "lea@example.com", Message: "Bonjour", ServiceID: &unknown},
			field:  "service_id",
		},
		{
			name: "too many photos",
			params: services.LeadParams{Name: "Léa", Email: "lea@example.com", Message: "Bonjour",
				Photos: []string{"1", "2", "3", "4", "5", "6"}},
			field: "photos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			_, err := e.leads.Submit(context.Background(), tt.params)
			var v validation.Violations
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Contains(t, v, tt.field)

			var n int64
			require.NoError(t, e.db.Model(&models.QuoteRequest{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestLeadService_SubmitInactiveService(t *testing.T) {
	e := newEnv(t, nil)
	svc := e.service(t, "Ancienne offre", "100")
	require.NoError(t, e.db.Model(svc).Update("is_active", false).Error)

	_, err := e.leads.Submit(context.Background(), services.LeadParams{
		Name: "Léa", Email: "lea@example.com", Message: "Bonjour", ServiceID: &svc.ID,
	})
	var v validation.Violations
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "not_found", v["service_id"])
}
