package ports

import (
	"context"

	"github.com/flatcms/core/internal/domain/entities"
)

// DocumentRepository defines the interface for document storage operations
type DocumentRepository interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name entities.DocumentName) (bool, error)
	Read(ctx context.Context, name entities.DocumentName) ([]byte, error)
	Write(ctx context.Context, name entities.DocumentName, content []byte) error
	Create(ctx context.Context, name entities.DocumentName) error
	Delete(ctx context.Context, name entities.DocumentName) error
	Ping(ctx context.Context) error
}

// CredentialRepository defines the interface for reading user credentials
type CredentialRepository interface {
	GetByUsername(ctx context.Context, username string) (*entities.Credential, error)
}

// SessionStore defines the interface for server-side session state.
// Load returns entities.ErrSessionNotFound for unknown or expired ids. Touch
// extends the expiry of an unchanged session.
type SessionStore interface {
	New(ctx context.Context) (*entities.Session, error)
	Load(ctx context.Context, id string) (*entities.Session, error)
	Save(ctx context.Context, session *entities.Session) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
