// Package storage keeps rendered documents on disk under the media root and
// records them as Document rows.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

// KindPDF is the document kind of rendered quotes and invoices.
const KindPDF = "pdf"

var ErrNotFound = errors.New("document not found")

var disableConfigDir sync.Once

type Store struct {
	db     *gorm.DB
	root   string
	logger *slog.Logger
}

// New returns a store writing under root. pdfcpu is switched to its
// in-memory configuration so page counting never touches the user config dir.
func New(db *gorm.DB, root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	disableConfigDir.Do(api.DisableConfigDir)
	return &Store{db: db, root: root, logger: logger}
}

// Attach writes data as the PDF of the given owner and upserts its Document
// row. Re-attaching replaces the file and the row of the previous render.
func (s *Store) Attach(ctx context.Context, ownerType string, ownerID uint, name string, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attach %s %d: empty document", ownerType, ownerID)
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, fmt.Errorf("attach %s %d: invalid name", ownerType, ownerID)
	}
	rel := filepath.Join(ownerType+"s", name)
	if err := s.write(rel, data); err != nil {
		return nil, err
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		s.logger.Warn("pdf page count failed", "path", rel, "error", err)
		pages = 0
	}

	var doc models.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().
			Where("owner_type = ? AND owner_id = ? AND kind = ?", ownerType, ownerID, KindPDF).
			Take(&doc).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		doc.OwnerType, doc.OwnerID, doc.Kind = ownerType, ownerID, KindPDF
		doc.Name = name
		doc.Path = filepath.ToSlash(rel)
		doc.MimeType = "application/pdf"
		doc.Size = int64(len(data))
		doc.Pages = pages
		doc.DeletedAt = gorm.DeletedAt{}
		return tx.Unscoped().Save(&doc).Error
	})
	if err != nil {
		return nil, fmt.Errorf("record document %s: %w", rel, err)
	}
	s.logger.Info("document stored", "path", doc.Path, "pages", pages, "size", doc.Size)
	return &doc, nil
}

// write replaces the file at rel through a temporary file in the same directory.
func (s *Store) write(rel string, data []byte) error {
	full := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("move %s: %w", rel, err)
	}
	return nil
}

// Get returns the stored PDF row of an owner.
func (s *Store) Get(ctx context.Context, ownerType string, ownerID uint) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND kind = ?", ownerType, ownerID, KindPDF).
		Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Read loads the file of doc.
func (s *Store) Read(doc *models.Document) ([]byte, error) {
	data, err := os.ReadFile(s.Path(doc.Path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Path resolves a stored relative path under the media root.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
