// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Workflow  WorkflowConfig
	RateLimit RateLimitConfig
	Branding  BrandingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the connection settings. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"agency"`
	Password   string `envconfig:"DB_PASSWORD" default:"agency"`
	DBName     string `envconfig:"DB_NAME" default:"agency"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"agency.db"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool     `envconfig:"DEV" default:"true"`
	Migrations    bool     `envconfig:"MIGRATIONS" default:"false"`
	MigrationsDir string   `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	Seed          bool     `envconfig:"SEED" default:"true"`
	MediaRoot     string   `envconfig:"MEDIA_ROOT" default:"media"`
	PublicBaseURL string   `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	SessionSecret string   `envconfig:"SESSION_SECRET" default:"devsessionsecret"`
	AgencyEmail   string   `envconfig:"AGENCY_EMAIL"`
	AdminEmail    string   `envconfig:"ADMIN_EMAIL"`
	AdminPassword string   `envconfig:"ADMIN_PASSWORD"`
	DBDebug       bool     `envconfig:"DB_DEBUG" default:"false"`
}

// WorkflowConfig holds the quote and invoice lifecycle settings.
type WorkflowConfig struct {
	ValidationTTL     time.Duration `envconfig:"VALIDATION_TTL" default:"15m"`
	MaxAttempts       int           `envconfig:"VALIDATION_MAX_ATTEMPTS" default:"5"`
	QuoteValidityDays int           `envconfig:"QUOTE_VALIDITY_DAYS" default:"30"`
	PaymentDelayDays  int           `envconfig:"INVOICE_PAYMENT_DELAY_DAYS" default:"30"`
	DefaultTaxRate    string        `envconfig:"DEFAULT_TAX_RATE" default:"20"`
}

// RateLimitConfig bounds the public endpoints per client IP.
type RateLimitConfig struct {
	Requests int64         `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// BrandingConfig describes the issuer printed on documents.
type BrandingConfig struct {
	Name         string   `envconfig:"BRAND_NAME" default:"Trait d'Union Studio"`
	Tagline      string   `envconfig:"BRAND_TAGLINE" default:"Agence web"`
	Email        string   `envconfig:"BRAND_EMAIL"`
	Phone        string   `envconfig:"BRAND_PHONE"`
	Website      string   `envconfig:"BRAND_WEBSITE"`
	AddressLines []string `envconfig:"BRAND_ADDRESS_LINES"`
	TaxID        string   `envconfig:"BRAND_TAX_ID"`
	IBAN         string   `envconfig:"BRAND_IBAN"`
	BIC          string   `envconfig:"BRAND_BIC"`
	LogoPath     string   `envconfig:"BRAND_LOGO_PATH"`
	// QRTemplate accepts {number}, {total}, {iban}, {bic} and {name}.
	QRTemplate   string `envconfig:"BRAND_QR_TEMPLATE"`
	DefaultNotes string `envconfig:"BRAND_DEFAULT_NOTES"`
	DefaultTerms string `envconfig:"BRAND_DEFAULT_TERMS" default:"Paiement à 30 jours par virement bancaire."`
	// Color is the top band color as #RRGGBB.
	Color         string `envconfig:"BRAND_COLOR" default:"#1E3A5F"`
	FontRegular   string `envconfig:"BRAND_FONT_REGULAR"`
	FontBold      string `envconfig:"BRAND_FONT_BOLD"`
	ShowSignature bool   `envconfig:"BRAND_QUOTE_SIGNATURE" default:"true"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the connection string in URL format, as golang-migrate expects it.
func (d DatabaseConfig) URL() string {
	if d.IsSQLite() {
		return "sqlite3://" + d.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (d DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Workflow.MaxAttempts < 1 {
		return fmt.Errorf("config: VALIDATION_MAX_ATTEMPTS must be at least 1")
	}
	if c.Workflow.ValidationTTL <= 0 {
		return fmt.Errorf("config: VALIDATION_TTL must be positive")
	}
	if !c.App.Dev && c.App.SessionSecret == "devsessionsecret" {
		return fmt.Errorf("config: SESSION_SECRET must be set outside dev")
	}
	return nil
}
