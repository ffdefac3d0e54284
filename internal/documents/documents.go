// Package documents produces the PDF of quotes and invoices and, on demand,
// stores it and records its path on the owner.
package documents

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

//go:generate mockgen -source=documents.go -destination=documents_mock.go -package=documents

// Renderer draws quotes and invoices.
type Renderer interface {
	RenderQuote(q *models.Quote) ([]byte, error)
	RenderInvoice(inv *models.Invoice) ([]byte, error)
}

// Store persists rendered files.
type Store interface {
	Attach(ctx context.Context, ownerType string, ownerID uint, name string, data []byte) (*models.Document, error)
}

type Service struct {
	db       *gorm.DB
	renderer Renderer
	store    Store
}

func NewService(db *gorm.DB, renderer Renderer, store Store) *Service {
	return &Service{db: db, renderer: renderer, store: store}
}

// Quote renders q. With attach, the file is stored and q.PDFPath updated.
func (s *Service) Quote(ctx context.Context, q *models.Quote, attach bool) ([]byte, error) {
	data, err := s.renderer.RenderQuote(q)
	if err != nil {
		return nil, fmt.Errorf("render quote %s: %w", q.Number, err)
	}
	if !attach {
		return data, nil
	}
	path, err := s.attach(ctx, models.OwnerQuote, q.ID, q.Number, data, &models.Quote{})
	if err != nil {
		return nil, err
	}
	q.PDFPath = path
	return data, nil
}

// Invoice renders inv. With attach, the file is stored and inv.PDFPath updated.
func (s *Service) Invoice(ctx context.Context, inv *models.Invoice, attach bool) ([]byte, error) {
	data, err := s.renderer.RenderInvoice(inv)
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	if !attach {
		return data, nil
	}
	path, err := s.attach(ctx, models.OwnerInvoice, inv.ID, inv.Number, data, &models.Invoice{})
	if err != nil {
		return nil, err
	}
	inv.PDFPath = path
	return data, nil
}

func (s *Service) attach(ctx context.Context, ownerType string, id uint, number string, data []byte, model any) (string, error) {
	doc, err := s.store.Attach(ctx, ownerType, id, FileName(number), data)
	if err != nil {
		return "", fmt.Errorf("attach %s: %w", number, err)
	}
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("pdf_path", doc.Path).Error; err != nil {
		return "", fmt.Errorf("record pdf path of %s: %w", number, err)
	}
	return doc.Path, nil
}

// FileName is the download name of a document number.
func FileName(number string) string {
	return number + ".pdf"
}
