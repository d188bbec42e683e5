package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/ports"
)

// DocumentRepositoryImpl stores documents as flat files in a single directory
type DocumentRepositoryImpl struct {
	dir string
}

// NewDocumentRepository creates a document repository rooted at dir, creating
// the directory if it does not exist.
func NewDocumentRepository(dir string) (ports.DocumentRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &DocumentRepositoryImpl{dir: dir}, nil
}

func (r *DocumentRepositoryImpl) path(name entities.DocumentName) string {
	return filepath.Join(r.dir, name.String())
}

func (r *DocumentRepositoryImpl) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := entities.KindOf(entry.Name()); !ok {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

func (r *DocumentRepositoryImpl) Exists(ctx context.Context, name entities.DocumentName) (bool, error) {
	info, err := os.Stat(r.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat document: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func (r *DocumentRepositoryImpl) Read(ctx context.Context, name entities.DocumentName) ([]byte, error) {
	content, err := os.ReadFile(r.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entities.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return content, nil
}

func (r *DocumentRepositoryImpl) Write(ctx context.Context, name entities.DocumentName, content []byte) error {
	if err := os.WriteFile(r.path(name), content, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, name entities.DocumentName) error {
	f, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, name entities.DocumentName) error {
	if err := os.Remove(r.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.ErrDocumentNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Ping checks that the data directory is still reachable
func (r *DocumentRepositoryImpl) Ping(ctx context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", r.dir)
	}
	return nil
}
