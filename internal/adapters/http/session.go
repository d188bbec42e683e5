package http

import (
	"github.com/labstack/echo/v4"

	"github.com/flatcms/core/internal/domain/entities"
)

const sessionContextKey = "session"

// SetSession attaches the request's session to the echo context
func SetSession(c echo.Context, session *entities.Session) {
	c.Set(sessionContextKey, session)
}

// CurrentSession returns the session attached by the session middleware. A
// detached anonymous session is returned when none is present so handlers
// never see nil.
func CurrentSession(c echo.Context) *entities.Session {
	if sess, ok := c.Get(sessionContextKey).(*entities.Session); ok && sess != nil {
		return sess
	}
	sess := entities.NewSession("")
	SetSession(c, sess)
	return sess
}
