package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/numbering"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	db       *gorm.DB
	clock    *clock
	alloc    *numbering.Allocator
	quotes   *services.QuoteService
	valid    *services.ValidationService
	invoices *services.InvoiceService
	leads    *services.LeadService
	clients  *services.ClientService
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newEnv wires every service on a fresh database. em may be nil.
func newEnv(t *testing.T, em events.Emitter) *env {
	t.Helper()
	e := &env{
		db:    newDB(t),
		clock: &clock{t: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		alloc: numbering.NewAllocator(),
	}
	opts := services.Options{Now: e.clock.Now}
	e.quotes = services.NewQuoteService(e.db, e.alloc, em, opts)
	e.valid = services.NewValidationService(e.db, em, opts)
	e.invoices = services.NewInvoiceService(e.db, e.alloc, em, opts)
	e.leads = services.NewLeadService(e.db, em)
	e.clients = services.NewClientService(e.db)
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2), msgAndArgs...)
}

func (e *env) client(t *testing.T) *models.Client {
	t.Helper()
	c, err := e.clients.Create(context.Background(), services.ClientParams{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Address:  "12 rue des Lilas",
		City:     "Cayenne",
	})
	require.NoError(t, err)
	return c
}

func (e *env) service(t *testing.T, title string, price string) *models.Service {
	t.Helper()
	s := &models.Service{Title: title, Slug: title, BasePrice: dec(price), IsActive: true}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

func (e *env) draftQuote(t *testing.T, items ...services.ItemParams) *models.Quote {
	t.Helper()
	if len(items) == 0 {
		items = []services.ItemParams{{Description: "Site vitrine", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: decp("20")}}
	}
	q, err := e.quotes.Create(context.Background(), services.CreateQuoteParams{
		ClientID: e.client(t).ID,
		Message:  "Refonte du site",
		Items:    items,
	})
	require.NoError(t, err)
	return q
}

func (e *env) sentQuote(t *testing.T, items ...services.ItemParams) *models.Quote {
	t.Helper()
	q := e.draftQuote(t, items...)
	q, err := e.quotes.Send(context.Background(), q.ID)
	require.NoError(t, err)
	return q
}

func (e *env) acceptedQuote(t *testing.T, items ...services.ItemParams) *models.Quote {
	t.Helper()
	ctx := context.Background()
	q := e.sentQuote(t, items...)
	started, err := e.valid.Start(ctx, q.PublicToken)
	require.NoError(t, err)
	res, err := e.valid.Confirm(ctx, started.Validation.Token, started.Validation.Code)
	require.NoError(t, err)
	require.True(t, res.Confirmed)
	return res.Quote
}

func (e *env) quoteStatus(t *testing.T, id uint) models.QuoteStatus {
	t.Helper()
	var q models.Quote
	require.NoError(t, e.db.Take(&q, id).Error)
	return q.Status
}
