package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

// LeadService records quote requests coming from the public site.
type LeadService struct {
	db     *gorm.DB
	events events.Emitter
}

func NewLeadService(db *gorm.DB, em events.Emitter) *LeadService {
	return &LeadService{db: db, events: emitter(em)}
}

type LeadParams struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Company   string   `json:"company"`
	Message   string   `json:"message"`
	ServiceID *uint    `json:"service_id,omitempty"`
	Photos    []string `json:"photos,omitempty"`
}

const maxLeadPhotos = 5

func (p LeadParams) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	validation.Email("email", p.Email, v)
	validation.Required("message", p.Message, v)
	validation.MaxLength("name", p.Name, 255, v)
	validation.MaxLength("phone", p.Phone, 50, v)
	validation.MaxLength("message", p.Message, 5000, v)
	if len(p.Photos) > maxLeadPhotos {
		v["photos"] = "out_of_range"
	}
	return v
}

// Submit validates and stores a lead, then emits lead.submitted.
func (s *LeadService) Submit(ctx context.Context, p LeadParams) (*models.QuoteRequest, error) {
	v := p.validate()
	if p.ServiceID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Service{}).
			Where("id = ? AND is_active = ?", *p.ServiceID, true).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check service: %w", err)
		}
		if n == 0 {
			v["service_id"] = "not_found"
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	r := &models.QuoteRequest{
		Name:      strings.TrimSpace(p.Name),
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:     strings.TrimSpace(p.Phone),
		Company:   strings.TrimSpace(p.Company),
		Message:   strings.TrimSpace(p.Message),
		ServiceID: p.ServiceID,
		Photos:    p.Photos,
		Status:    models.QuoteRequestStatusNew,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}
	s.events.Emit(ctx, events.Event{Name: events.LeadSubmitted, Payload: r})
	return r, nil
}

// List returns the leads, newest first, optionally by status.
func (s *LeadService) List(ctx context.Context, f ListFilter) ([]models.QuoteRequest, error) {
	q := f.page(s.db.WithContext(ctx)).Preload("Service").Order("created_at DESC").Order("id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.QuoteRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list quote requests: %w", err)
	}
	return out, nil
}
