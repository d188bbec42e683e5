package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/flatcms/core/internal/adapters/http"
	"github.com/flatcms/core/internal/domain/entities"
)

// requestSession is the session resolved for one request
type requestSession struct {
	session *entities.Session
	// isNew is set when no stored session matched the request
	isNew bool
	// hadCookie is set when the request presented a session cookie
	hadCookie bool
}

// sessionMiddleware resolves the session named by the signed cookie, or starts
// a new one, and persists it right before the response is written. A new
// session is only stored, and only gets a cookie, once it carries state.
func (s *Server) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rs, err := s.loadSession(c)
			if err != nil {
				return err
			}
			httpHandlers.SetSession(c, rs.session)

			persisted := false
			persist := func() {
				if persisted {
					return
				}
				persisted = true
				s.persistSession(c, rs)
			}
			c.Response().Before(persist)

			err = next(c)
			persist()
			return err
		}
	}
}

func (s *Server) loadSession(c echo.Context) (requestSession, error) {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(s.config.Session.CookieName)
	hadCookie := err == nil && cookie.Value != ""

	if hadCookie {
		id, err := s.cookies.Decode(cookie.Value)
		if err == nil {
			sess, err := s.sessions.Load(ctx, id)
			if err == nil {
				return requestSession{session: sess, hadCookie: true}, nil
			}
			if !errors.Is(err, entities.ErrSessionNotFound) {
				return requestSession{}, err
			}
		} else {
			s.logger.LogSecurityEvent("invalid_session_cookie", "", c.RealIP(), map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	sess, err := s.sessions.New(ctx)
	if err != nil {
		return requestSession{}, err
	}
	return requestSession{session: sess, isNew: true, hadCookie: hadCookie}, nil
}

func (s *Server) persistSession(c echo.Context, rs requestSession) {
	ctx := c.Request().Context()
	sess := rs.session

	switch {
	case sess.Empty():
		if !rs.isNew {
			if err := s.sessions.Delete(ctx, sess.ID); err != nil {
				s.logger.Errorw("Failed to delete session", "error", err, "path", c.Request().URL.Path)
			}
		}
		if rs.hadCookie {
			s.clearSessionCookie(c)
		}

	case sess.Dirty():
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.logger.Errorw("Failed to save session", "error", err, "path", c.Request().URL.Path)
			return
		}
		if rs.isNew {
			s.setSessionCookie(c, sess.ID)
		}

	default:
		if err := s.sessions.Touch(ctx, sess.ID); err != nil {
			s.logger.Warnw("Failed to refresh session", "error", err, "path", c.Request().URL.Path)
		}
	}
}

func (s *Server) setSessionCookie(c echo.Context, sessionID string) {
	value, err := s.cookies.Encode(sessionID)
	if err != nil {
		s.logger.Errorw("Failed to sign session cookie", "error", err)
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     s.config.Session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.config.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireSignin gates an action behind a signed-in session
func (s *Server) requireSignin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := httpHandlers.CurrentSession(c)
			if sess.SignedIn() {
				return next(c)
			}

			s.logger.LogSecurityEvent("signin_required", "", c.RealIP(), map[string]interface{}{
				"method":   c.Request().Method,
				"endpoint": c.Request().URL.Path,
			})

			sess.Flash(httpHandlers.MsgSigninRequired)
			return c.Redirect(http.StatusFound, "/")
		}
	}
}
