package storage_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/phpdave11/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/storage"
)

func newStore(t *testing.T) (*storage.Store, *gorm.DB, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Document{}))

	root := t.TempDir()
	return storage.New(db, root, slog.New(slog.NewTextHandler(io.Discard, nil))), db, root
}

func samplePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(20, 20, "page")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestStore_Attach(t *testing.T) {
	s, _, root := newStore(t)
	ctx := context.Background()
	data := samplePDF(t, 2)

	doc, err := s.Attach(ctx, models.OwnerQuote, 7, "DEV-2025-001.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, "quotes/DEV-2025-001.pdf", doc.Path)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, int64(len(data)), doc.Size)
	assert.Equal(t, 2, doc.Pages)

	onDisk, err := os.ReadFile(filepath.Join(root, "quotes", "DEV-2025-001.pdf"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	got, err := s.Get(ctx, models.OwnerQuote, 7)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	read, err := s.Read(got)
	require.NoError(t, err)
	assert.Equal(t, data, read)
}

func TestStore_AttachReplacesPreviousRender(t *testing.T) {
	s, db, _ := newStore(t)
	ctx := context.Background()

	first, err := s.Attach(ctx, models.OwnerInvoice, 3, "FAC-2025-001.pdf", samplePDF(t, 1))
	require.NoError(t, err)
	require.NoError(t, db.Delete(first).Error)

	second, err := s.Attach(ctx, models.OwnerInvoice, 3, "FAC-2025-001.pdf", samplePDF(t, 3))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Pages)
	assert.False(t, second.DeletedAt.Valid)

	var n int64
	require.NoError(t, db.Unscoped().Model(&models.Document{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestStore_AttachSanitizesName(t *testing.T) {
	s, _, root := newStore(t)
	doc, err := s.Attach(context.Background(), models.OwnerQuote, 1, "../../escape.pdf", samplePDF(t, 1))
	require.NoError(t, err)
	assert.Equal(t, "quotes/escape.pdf", doc.Path)
	assert.FileExists(t, filepath.Join(root, "quotes", "escape.pdf"))
}

func TestStore_AttachRejectsEmptyInput(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.Attach(context.Background(), models.OwnerQuote, 1, "x.pdf", nil)
	assert.Error(t, err)
	_, err = s.Attach(context.Background(), models.OwnerQuote, 1, "  ", []byte("%PDF"))
	assert.Error(t, err)
}

func TestStore_GetMissing(t *testing.T) {
	s, _, _ := newStore(t)
	_, err := s.Get(context.Background(), models.OwnerQuote, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Read(&models.Document{Path: "quotes/absent.pdf"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
