package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusConflict, "quote_already_invoiced", map[string]string{"number": "DEV-2025-001"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"quote_already_invoiced","details":{"number":"DEV-2025-001"}}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Code string `json:"code"`
	}

	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"123456"}`))
	require.NoError(t, DecodeJSON(r, &p))
	assert.Equal(t, "123456", p.Code)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1","extra":true}`))
	assert.Error(t, DecodeJSON(r, &p))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1"}{"code":"2"}`))
	assert.Error(t, DecodeJSON(r, &p))
}

func TestBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	Bytes(rec, http.StatusOK, "application/pdf", "DEV-2025-001.pdf", []byte("%PDF-1.4"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "DEV-2025-001.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}
