package ports

import (
	"context"

	"github.com/flatcms/core/internal/domain/entities"
)

// DocumentService interface for document lifecycle operations
type DocumentService interface {
	ListDocuments(ctx context.Context) ([]string, error)
	GetDocument(ctx context.Context, name entities.DocumentName) (*entities.Document, error)
	CreateDocument(ctx context.Context, name entities.DocumentName) error
	UpdateDocument(ctx context.Context, name entities.DocumentName, content []byte) error
	DeleteDocument(ctx context.Context, name entities.DocumentName) error
}

// AuthService interface for credential verification
type AuthService interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Renderer converts stored document bytes into a response body
type Renderer interface {
	Render(content []byte, kind entities.DocumentKind) (body []byte, contentType string, err error)
}

// Request types

type SigninRequest struct {
	Username string `form:"username" validate:"required,max=100"`
	Password string `form:"password" validate:"required"`
}

type CreateDocumentRequest struct {
	Filename string `form:"filename" validate:"required,docsafe,docext"`
}

type UpdateDocumentRequest struct {
	Content string `form:"content"`
}
