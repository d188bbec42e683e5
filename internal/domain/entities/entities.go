package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrNameRequired       = errors.New("document name is required")
	ErrInvalidExtension   = errors.New("document name must end in .md or .txt")
	ErrUnsafeName         = errors.New("document name contains a path separator")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DocumentKind is the closed set of document formats the store understands.
type DocumentKind string

const (
	DocumentKindPlaintext DocumentKind = "plaintext"
	DocumentKindMarkdown  DocumentKind = "markdown"
)

// Extension returns the filename suffix for the kind.
func (k DocumentKind) Extension() string {
	switch k {
	case DocumentKindMarkdown:
		return ".md"
	case DocumentKindPlaintext:
		return ".txt"
	}
	return ""
}

var documentKinds = []DocumentKind{DocumentKindMarkdown, DocumentKindPlaintext}

// KindOf reports the kind for a filename using an exact suffix match.
func KindOf(filename string) (DocumentKind, bool) {
	for _, kind := range documentKinds {
		ext := kind.Extension()
		if strings.HasSuffix(filename, ext) && len(filename) > len(ext) {
			return kind, true
		}
	}
	return "", false
}

// DocumentName is a filename that has passed validation. The zero value is
// not a valid name.
type DocumentName struct {
	value string
	kind  DocumentKind
}

// ParseDocumentName validates raw and returns the typed name. Surrounding
// whitespace is trimmed first.
func ParseDocumentName(raw string) (DocumentName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DocumentName{}, ErrNameRequired
	}

	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.ContainsRune(name, 0) {
		return DocumentName{}, ErrUnsafeName
	}

	kind, ok := KindOf(name)
	if !ok {
		return DocumentName{}, ErrInvalidExtension
	}

	return DocumentName{value: name, kind: kind}, nil
}

func (n DocumentName) String() string     { return n.value }
func (n DocumentName) Kind() DocumentKind { return n.kind }

// Document is a named file held by the document store.
type Document struct {
	Name    DocumentName `json:"name"`
	Content []byte       `json:"-"`
}

// Kind returns the document's format.
func (d *Document) Kind() DocumentKind {
	return d.Name.Kind()
}

// Credential is a stored username and bcrypt hash.
type Credential struct {
	Username     string `json:"username" yaml:"username"`
	PasswordHash string `json:"-" yaml:"password_hash"`
}

// Session is per-client state keyed by an opaque identifier carried in the
// session cookie.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	dirty bool
}

// NewSession returns an anonymous session with the given id.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		dirty:     true,
	}
}

// SignedIn reports whether a user is attached to the session.
func (s *Session) SignedIn() bool {
	return s.Username != ""
}

// SignIn attaches username to the session.
func (s *Session) SignIn(username string) {
	s.Username = username
	s.touch()
}

// SignOut clears the signed-in user.
func (s *Session) SignOut() {
	s.Username = ""
	s.touch()
}

// Flash sets the message shown on the next rendered page, replacing any
// pending one.
func (s *Session) Flash(message string) {
	s.Message = message
	s.touch()
}

// PopFlash returns the pending message and clears it.
func (s *Session) PopFlash() string {
	msg := s.Message
	if msg != "" {
		s.Message = ""
		s.touch()
	}
	return msg
}

// Empty reports whether the session carries neither a user nor a pending
// message.
func (s *Session) Empty() bool {
	return s.Username == "" && s.Message == ""
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// MarkClean resets the dirty flag after the session has been persisted.
func (s *Session) MarkClean() {
	s.dirty = false
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
	s.dirty = true
}
