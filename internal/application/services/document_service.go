package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/ports"
)

// OperationObserver is notified after every document store call
type OperationObserver func(op string, err error)

// DocumentService handles the document lifecycle
type DocumentService struct {
	docRepo  ports.DocumentRepository
	logger   *logger.Logger
	observer OperationObserver
}

// NewDocumentService creates a new document service
func NewDocumentService(docRepo ports.DocumentRepository, logger *logger.Logger) *DocumentService {
	return &DocumentService{
		docRepo:  docRepo,
		logger:   logger.WithComponent("documents"),
		observer: func(string, error) {},
	}
}

// WithObserver registers fn to be called after each store operation
func (s *DocumentService) WithObserver(fn OperationObserver) *DocumentService {
	if fn != nil {
		s.observer = fn
	}
	return s
}

var _ ports.DocumentService = (*DocumentService)(nil)

func (s *DocumentService) track(op, document string, start time.Time, err error) {
	s.logger.LogStoreOperation(op, document, float64(time.Since(start).Microseconds())/1000, ignoreNotFound(err))
	s.observer(op, err)
}

// ListDocuments returns the sorted document names
func (s *DocumentService) ListDocuments(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.docRepo.List(ctx)
	s.track("list", "", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return names, nil
}

// GetDocument reads a document's content
func (s *DocumentService) GetDocument(ctx context.Context, name entities.DocumentName) (*entities.Document, error) {
	start := time.Now()
	content, err := s.docRepo.Read(ctx, name)
	s.track("read", name.String(), start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return &entities.Document{Name: name, Content: content}, nil
}

// CreateDocument creates an empty document, truncating any existing one
func (s *DocumentService) CreateDocument(ctx context.Context, name entities.DocumentName) error {
	start := time.Now()
	err := s.docRepo.Create(ctx, name)
	s.track("create", name.String(), start, err)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	s.logger.Infow("Document created", "document", name.String())
	return nil
}

// UpdateDocument replaces the content of an existing document
func (s *DocumentService) UpdateDocument(ctx context.Context, name entities.DocumentName, content []byte) error {
	exists, err := s.docRepo.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("failed to update %s: %w", name, entities.ErrDocumentNotFound)
	}

	start := time.Now()
	err = s.docRepo.Write(ctx, name, content)
	s.track("write", name.String(), start, err)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", name, err)
	}

	s.logger.Infow("Document updated", "document", name.String(), "bytes", len(content))
	return nil
}

// DeleteDocument removes a document
func (s *DocumentService) DeleteDocument(ctx context.Context, name entities.DocumentName) error {
	start := time.Now()
	err := s.docRepo.Delete(ctx, name)
	s.track("delete", name.String(), start, err)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	s.logger.Infow("Document deleted", "document", name.String())
	return nil
}

// Missing documents are a user error, not a store failure.
func ignoreNotFound(err error) error {
	if errors.Is(err, entities.ErrDocumentNotFound) {
		return nil
	}
	return err
}
