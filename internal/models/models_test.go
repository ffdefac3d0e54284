package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{"complete", Client{Address: "12 rue des Lilas", PostalCode: "97300", City: "Cayenne", Country: "France"}, "12 rue des Lilas\n97300 Cayenne\nFrance"},
		{"city only", Client{City: "Paris"}, "Paris"},
		{"empty", Client{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.FullAddress())
		})
	}
}

func TestClient_DisplayName(t *testing.T) {
	assert.Equal(t, "ACME", (&Client{FullName: "Jane Doe", Company: "ACME"}).DisplayName())
	assert.Equal(t, "Jane Doe", (&Client{FullName: "Jane Doe", Company: "  "}).DisplayName())
	assert.Equal(t, "", (*Client)(nil).DisplayName())
}

func TestNormalizeTechnologies(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"list", `["Go", "Postgres", "go", ""]`, []string{"Go", "Postgres"}},
		{"dict", `{"React": true, "Django": 1, "PHP": false}`, []string{"Django", "React"}},
		{"comma string", `"WordPress, WooCommerce ,"`, []string{"WordPress", "WooCommerce"}},
		{"null", `null`, []string{}},
		{"empty", ``, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTechnologies(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeTechnologies(json.RawMessage(`42`))
	assert.Error(t, err)
}

func TestQuote_RecomputeTotals(t *testing.T) {
	q := &Quote{Items: []QuoteItem{
		{Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("20")},
		{Quantity: dec("1"), UnitPrice: dec("30"), TaxRate: dec("5.5")},
	}}
	q.RecomputeTotals()
	assert.True(t, q.TotalHT.Equal(dec("230")), q.TotalHT.String())
	assert.True(t, q.TVA.Equal(dec("41.65")), q.TVA.String())
	assert.True(t, q.TotalTTC.Equal(q.TotalHT.Add(q.TVA)))
}

func TestQuoteItem_Label(t *testing.T) {
	svc := &Service{Title: "Site vitrine"}
	assert.Equal(t, "Refonte", QuoteItem{Description: " Refonte ", Service: svc}.Label())
	assert.Equal(t, "Site vitrine", QuoteItem{Description: "  ", Service: svc}.Label())
	assert.Equal(t, "", QuoteItem{}.Label())
}

func TestQuote_IsExpired(t *testing.T) {
	q := &Quote{ValidUntil: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	assert.False(t, q.IsExpired(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))
	assert.True(t, q.IsExpired(time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)))
}

func TestInvoice_IsOverdue(t *testing.T) {
	due := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	after := due.AddDate(0, 0, 1)
	tests := []struct {
		status InvoiceStatus
		now    time.Time
		want   bool
	}{
		{InvoiceStatusSent, after, true},
		{InvoiceStatusSent, due, false},
		{InvoiceStatusDraft, after, false},
		{InvoiceStatusPaid, after, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: due}
			assert.Equal(t, tt.want, inv.IsOverdue(tt.now))
		})
	}
	assert.Equal(t, InvoiceStatusOverdue, (&Invoice{Status: InvoiceStatusSent, DueDate: due}).DisplayStatus(after))
}

func TestInvoice_TotalsWithDiscount(t *testing.T) {
	inv := &Invoice{
		Discount: dec("50"),
		Items:    []InvoiceItem{{Quantity: 2, UnitPrice: dec("100"), TaxRate: dec("20")}},
	}
	got := inv.Totals()
	assert.True(t, got.HT.Equal(dec("150")), got.HT.String())
	assert.True(t, got.TVA.Equal(dec("30")), got.TVA.String())
	assert.True(t, got.TTC.Equal(dec("180")), got.TTC.String())
}

func TestInvoice_TotalsPreferStoredAmounts(t *testing.T) {
	// 1.5 units on the quote became 2 on the invoice line.
	inv := &Invoice{
		TotalHT:  dec("150"),
		TVA:      dec("30"),
		TotalTTC: dec("180"),
		Items:    []InvoiceItem{{Quantity: 2, UnitPrice: dec("100"), TaxRate: dec("20")}},
	}
	got := inv.Totals()
	assert.True(t, got.TTC.Equal(dec("180")), got.TTC.String())
	assert.True(t, got.Subtotal.Equal(dec("150")), got.Subtotal.String())
	assert.False(t, got.HasDiscount())
	require.Len(t, got.ByRate, 1)

	inv.Discount = dec("50")
	inv.TotalHT, inv.TVA, inv.TotalTTC = dec("100"), dec("20"), dec("120")
	got = inv.Totals()
	assert.True(t, got.Subtotal.Equal(dec("150")), got.Subtotal.String())
	assert.True(t, got.HT.Equal(dec("100")), got.HT.String())
	assert.True(t, got.TTC.Equal(dec("120")), got.TTC.String())
	assert.True(t, got.HasDiscount())
}

func TestQuote_BeforeCreate(t *testing.T) {
	db := openTestDB(t)
	client := Client{FullName: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, db.Create(&client).Error)

	err := db.Create(&Quote{ClientID: client.ID, IssueDate: time.Now(), ValidUntil: time.Now()}).Error
	require.ErrorIs(t, err, ErrNumberRequired)

	q := Quote{Number: "DEV-2025-001", ClientID: client.ID, IssueDate: time.Now(), ValidUntil: time.Now()}
	require.NoError(t, db.Create(&q).Error)
	assert.Len(t, q.PublicToken, 43)
	assert.Equal(t, QuoteStatusDraft, q.Status)

	token := q.PublicToken
	require.NoError(t, db.Save(&q).Error)
	assert.Equal(t, token, q.PublicToken)
}

func TestNewPublicToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := NewPublicToken()
		require.NoError(t, err)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}
