package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

type ClientParams struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

func (p ClientParams) validate() error {
	v := validation.Violations{}
	validation.Required("full_name", p.FullName, v)
	if strings.TrimSpace(p.Email) != "" {
		validation.Email("email", p.Email, v)
	}
	validation.MaxLength("phone", p.Phone, 50, v)
	validation.MaxLength("postal_code", p.PostalCode, 20, v)
	return v.Err()
}

func (s *ClientService) Create(ctx context.Context, p ClientParams) (*models.Client, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c := &models.Client{
		FullName:   strings.TrimSpace(p.FullName),
		Email:      strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:      p.Phone,
		Company:    p.Company,
		Address:    p.Address,
		PostalCode: p.PostalCode,
		City:       p.City,
		Country:    p.Country,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).Take(&c, id).Error; err != nil {
		return nil, notFound(err, ErrClientNotFound)
	}
	return &c, nil
}

func (s *ClientService) List(ctx context.Context, f ListFilter) ([]models.Client, int64, error) {
	var (
		out   []models.Client
		total int64
	)
	if err := s.db.WithContext(ctx).Model(&models.Client{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	if err := f.page(s.db.WithContext(ctx)).Order("full_name").Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return out, total, nil
}

// findOrCreateByEmail returns the client owning email, creating it from the
// lead's contact details when none exists.
func findOrCreateByEmail(tx *gorm.DB, r *models.QuoteRequest) (*models.Client, error) {
	email := strings.ToLower(strings.TrimSpace(r.Email))
	var c models.Client
	err := tx.Where("LOWER(email) = ?", email).Order("id").Take(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = models.Client{FullName: r.Name, Email: email, Phone: r.Phone, Company: r.Company}
	if err := tx.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
