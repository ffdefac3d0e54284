package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/config"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/db"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(dir, "agency.db"))
	t.Setenv("MEDIA_ROOT", filepath.Join(dir, "media"))
	t.Setenv("ADMIN_EMAIL", "admin@agence.test")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("AGENCY_EMAIL", "team@agence.test")
	t.Setenv("RATE_LIMIT_REQUESTS", "100")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewApp_RejectsBadTaxRate(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Workflow.DefaultTaxRate = "vingt"
	_, err := NewApp(cfg, nil, quiet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_TAX_RATE")
}

func TestApp_AcceptanceEndToEnd(t *testing.T) {
	cfg := loadTestConfig(t)
	conn, err := db.Open(cfg.Database, false, quiet())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, migrate(cfg, conn))
	require.NoError(t, db.Seed(conn, cfg.App.AdminEmail, cfg.App.AdminPassword))

	app, err := NewApp(cfg, conn, quiet())
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(path string, body, out any) int {
		t.Helper()
		var rd io.Reader = http.NoBody
		if body != nil {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(b)
		}
		resp, err := client.Post(srv.URL+path, "application/json", rd)
		require.NoError(t, err)
		defer resp.Body.Close()
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	require.Equal(t, http.StatusOK, post("/login", map[string]string{"email": "admin@agence.test", "password": "s3cret"}, nil))

	var c models.Client
	require.Equal(t, http.StatusCreated, post("/api/v1/admin/clients", map[string]string{"full_name": "Jane Doe", "email": "jane@example.com"}, &c))

	var q models.Quote
	require.Equal(t, http.StatusCreated, post("/api/v1/admin/quotes", map[string]any{
		"client_id": c.ID,
		"items":     []map[string]string{{"description": "Site vitrine", "quantity": "1", "unit_price": "900"}},
	}, &q))
	require.Equal(t, http.StatusOK, post(fmt.Sprintf("/api/v1/admin/quotes/%d/send", q.ID), nil, &q))

	var started struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusCreated, post("/p/"+q.PublicToken+"/validate", nil, &started))

	var v models.QuoteValidation
	require.NoError(t, conn.Where("token = ?", started.Token).Take(&v).Error)

	var code models.Notification
	require.NoError(t, conn.Where("subject = ?", "Code de validation du devis "+q.Number).Take(&code).Error)
	assert.Equal(t, "jane@example.com", code.Recipient)
	assert.Contains(t, code.Body, v.Code)

	require.Equal(t, http.StatusOK, post("/p/validations/"+started.Token+"/confirm", map[string]string{"code": v.Code}, nil))

	var stored models.Quote
	require.NoError(t, conn.Take(&stored, q.ID).Error)
	assert.Equal(t, models.QuoteStatusAccepted, stored.Status)
	assert.Equal(t, "quotes/"+q.Number+".pdf", stored.PDFPath)
	assert.FileExists(t, filepath.Join(cfg.App.MediaRoot, stored.PDFPath))

	var team int64
	require.NoError(t, conn.Model(&models.Notification{}).Where("recipient = ?", "team@agence.test").Count(&team).Error)
	assert.EqualValues(t, 1, team)
}
