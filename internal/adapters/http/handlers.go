package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/flatcms/core/internal/application/services"
	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/ports"
)

// User-facing flash messages
const (
	MsgSigninRequired     = "You must be signed in to do that."
	MsgWelcome            = "Welcome!"
	MsgInvalidCredentials = "Invalid Credentials"
	MsgSignedOut          = "You have been signed out."
	MsgNameRequired       = "A name is required."
	MsgInvalidExtension   = "File must have either a .md or .txt extension"
	MsgUnsafeName         = "A name may not contain path separators."
)

func msgNotFound(name string) string { return fmt.Sprintf("%s does not exist.", name) }
func msgCreated(name string) string  { return fmt.Sprintf("%s has been created.", name) }
func msgUpdated(name string) string  { return fmt.Sprintf("%s has been updated.", name) }
func msgDeleted(name string) string  { return fmt.Sprintf("%s has been deleted.", name) }

// render fills in the session-derived fields and consumes the pending flash
func render(c echo.Context, code int, page string, data ViewData) error {
	sess := CurrentSession(c)
	data.Flash = sess.PopFlash()
	data.CurrentUser = sess.Username
	return c.Render(code, page, data)
}

func redirectHome(c echo.Context, flash string) error {
	if flash != "" {
		CurrentSession(c).Flash(flash)
	}
	return c.Redirect(http.StatusFound, "/")
}

// nameParam returns the raw :name path segment, unescaped when the router
// matched on the escaped path.
func nameParam(c echo.Context) string {
	raw := c.Param("name")
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// DocumentHandler handles document-related requests
type DocumentHandler struct {
	documents ports.DocumentService
	renderer  ports.Renderer
	logger    *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents ports.DocumentService, renderer ports.Renderer, logger *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		renderer:  renderer,
		logger:    logger,
	}
}

// Index lists all documents
func (h *DocumentHandler) Index(c echo.Context) error {
	names, err := h.documents.ListDocuments(c.Request().Context())
	if err != nil {
		return err
	}

	return render(c, http.StatusOK, PageIndex, ViewData{Filenames: names})
}

// Show renders a single document with the content type of its kind
func (h *DocumentHandler) Show(c echo.Context) error {
	raw := nameParam(c)
	name, err := entities.ParseDocumentName(raw)
	if err != nil {
		return redirectHome(c, msgNotFound(raw))
	}

	doc, err := h.documents.GetDocument(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, entities.ErrDocumentNotFound) {
			return redirectHome(c, msgNotFound(raw))
		}
		return err
	}

	body, contentType, err := h.renderer.Render(doc.Content, doc.Kind())
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, contentType, body)
}

// New shows the creation form
func (h *DocumentHandler) New(c echo.Context) error {
	return render(c, http.StatusOK, PageNew, ViewData{Title: "New Document"})
}

// Create validates the submitted name and creates an empty document
func (h *DocumentHandler) Create(c echo.Context) error {
	var req ports.CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Filename = strings.TrimSpace(req.Filename)

	if err := c.Validate(&req); err != nil {
		CurrentSession(c).Flash(validationMessage(services.ValidationCause(err)))
		return render(c, http.StatusUnprocessableEntity, PageNew, ViewData{Title: "New Document", Filename: req.Filename})
	}

	name, err := entities.ParseDocumentName(req.Filename)
	if err != nil {
		CurrentSession(c).Flash(validationMessage(err))
		return render(c, http.StatusUnprocessableEntity, PageNew, ViewData{Title: "New Document", Filename: req.Filename})
	}

	if err := h.documents.CreateDocument(c.Request().Context(), name); err != nil {
		return err
	}

	sess := CurrentSession(c)
	h.logger.LogUserAction(sess.Username, "document_created", map[string]interface{}{"document": name.String()})
	return redirectHome(c, msgCreated(name.String()))
}

// Edit shows the edit form prefilled with the raw document content
func (h *DocumentHandler) Edit(c echo.Context) error {
	raw := nameParam(c)
	name, err := entities.ParseDocumentName(raw)
	if err != nil {
		return redirectHome(c, msgNotFound(raw))
	}

	doc, err := h.documents.GetDocument(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, entities.ErrDocumentNotFound) {
			return redirectHome(c, msgNotFound(raw))
		}
		return err
	}

	return render(c, http.StatusOK, PageEdit, ViewData{
		Title:    "Edit " + name.String(),
		Filename: name.String(),
		Content:  string(doc.Content),
	})
}

// Update overwrites the document with the submitted content
func (h *DocumentHandler) Update(c echo.Context) error {
	raw := nameParam(c)
	name, err := entities.ParseDocumentName(raw)
	if err != nil {
		return redirectHome(c, msgNotFound(raw))
	}

	var req ports.UpdateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.documents.UpdateDocument(c.Request().Context(), name, []byte(req.Content)); err != nil {
		if errors.Is(err, entities.ErrDocumentNotFound) {
			return redirectHome(c, msgNotFound(raw))
		}
		return err
	}

	sess := CurrentSession(c)
	h.logger.LogUserAction(sess.Username, "document_updated", map[string]interface{}{"document": name.String()})
	return redirectHome(c, msgUpdated(name.String()))
}

// Delete removes a document
func (h *DocumentHandler) Delete(c echo.Context) error {
	raw := nameParam(c)
	name, err := entities.ParseDocumentName(raw)
	if err != nil {
		return redirectHome(c, msgNotFound(raw))
	}

	if err := h.documents.DeleteDocument(c.Request().Context(), name); err != nil {
		if errors.Is(err, entities.ErrDocumentNotFound) {
			return redirectHome(c, msgNotFound(raw))
		}
		return err
	}

	sess := CurrentSession(c)
	h.logger.LogUserAction(sess.Username, "document_deleted", map[string]interface{}{"document": name.String()})
	return redirectHome(c, msgDeleted(name.String()))
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, entities.ErrNameRequired):
		return MsgNameRequired
	case errors.Is(err, entities.ErrUnsafeName):
		return MsgUnsafeName
	default:
		return MsgInvalidExtension
	}
}

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	auth   ports.AuthService
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// SigninForm shows the sign-in form
func (h *AuthHandler) SigninForm(c echo.Context) error {
	return render(c, http.StatusOK, PageSignin, ViewData{Title: "Sign In"})
}

// Signin verifies the submitted credentials
func (h *AuthHandler) Signin(c echo.Context) error {
	var req ports.SigninRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	ok := false
	if err := c.Validate(&req); err == nil {
		verified, err := h.auth.Verify(c.Request().Context(), req.Username, req.Password)
		if err != nil {
			return err
		}
		ok = verified
	}

	sess := CurrentSession(c)
	if !ok {
		h.logger.LogSecurityEvent("signin_failed", req.Username, c.RealIP(), nil)
		sess.Flash(MsgInvalidCredentials)
		return render(c, http.StatusUnprocessableEntity, PageSignin, ViewData{Title: "Sign In", Username: req.Username})
	}

	sess.SignIn(req.Username)
	h.logger.LogUserAction(req.Username, "signed_in", nil)
	return redirectHome(c, MsgWelcome)
}

// Signout clears the signed-in user
func (h *AuthHandler) Signout(c echo.Context) error {
	sess := CurrentSession(c)
	if sess.SignedIn() {
		h.logger.LogUserAction(sess.Username, "signed_out", nil)
	}
	sess.SignOut()
	return redirectHome(c, MsgSignedOut)
}
