package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/priceform"
	"github.com/iliyamo/aizah-price-admin/internal/session"
)

// Context keys set by Session.
const (
	ContextKeySession = "session_id"
	ContextKeyForm    = "price_form"
)

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
	Logger     *zap.Logger
}

// Session attaches the caller's price form to the request.  The form is
// found through a signed session cookie; a missing, forged or expired cookie
// starts a new session and sets a fresh cookie.
func Session(store *session.Store, signer session.Signer, opts SessionOptions) echo.MiddlewareFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if ck, err := c.Cookie(opts.CookieName); err == nil && ck.Value != "" {
				if id, err := signer.Verify(ck.Value); err == nil {
					sid = id
				} else {
					logger.Debug("ignoring invalid session cookie", zap.String("remote_ip", c.RealIP()))
				}
			}

			id, form, created := store.GetOrCreate(sid)
			if created {
				token, err := signer.Sign(id)
				if err != nil {
					logger.Error("sign session cookie", zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error"})
				}
				c.SetCookie(&http.Cookie{
					Name:     opts.CookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(ContextKeySession, id)
			c.Set(ContextKeyForm, form)
			return next(c)
		}
	}
}

// FormFrom returns the form attached by Session, or nil.
func FormFrom(c echo.Context) *priceform.Form {
	f, _ := c.Get(ContextKeyForm).(*priceform.Form)
	return f
}

// SessionIDFrom returns the session id attached by Session, or "".
func SessionIDFrom(c echo.Context) string {
	s, _ := c.Get(ContextKeySession).(string)
	return s
}
