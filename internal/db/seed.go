package db

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/auth"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

//go:embed seed_services.json
var serviceCatalogue []byte

type seedService struct {
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Technologies json.RawMessage `json:"technologies"`
}

// Seed inserts the service catalogue and, when credentials are given, the
// first back-office user. Existing rows are left untouched.
func Seed(conn *gorm.DB, adminEmail, adminPassword string) error {
	var entries []seedService
	if err := json.Unmarshal(serviceCatalogue, &entries); err != nil {
		return fmt.Errorf("seed catalogue: %w", err)
	}
	for _, e := range entries {
		techs, err := models.NormalizeTechnologies(e.Technologies)
		if err != nil {
			return fmt.Errorf("seed service %s: %w", e.Slug, err)
		}
		svc := models.Service{
			Title:        e.Title,
			Slug:         e.Slug,
			Description:  e.Description,
			BasePrice:    e.BasePrice,
			Technologies: techs,
			IsActive:     true,
		}
		if err := conn.Where(models.Service{Slug: e.Slug}).FirstOrCreate(&svc).Error; err != nil {
			return fmt.Errorf("seed service %s: %w", e.Slug, err)
		}
	}

	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	if adminEmail == "" || adminPassword == "" {
		return nil
	}
	var existing models.User
	err := conn.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return conn.Create(&models.User{Email: adminEmail, Name: "Admin", Password: hash}).Error
}
