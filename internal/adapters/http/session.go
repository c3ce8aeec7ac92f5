package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/infrastructure/config"
)

const sessionUserKey = "user_id"

// SessionManager keeps the signed-in user id in a signed cookie
type SessionManager struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionManager creates a cookie session store from config
func NewSessionManager(cfg config.SessionConfig) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: cfg.Name}
}

// UserID returns the user id held by the request's session cookie, if any
func (m *SessionManager) UserID(c echo.Context) (string, bool) {
	session, err := m.store.Get(c.Request(), m.name)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[sessionUserKey].(string)
	return id, ok && id != ""
}

// SignIn writes a session cookie for userID
func (m *SessionManager) SignIn(c echo.Context, userID string) error {
	// A cookie signed with a rotated key fails to decode; a fresh session replaces it.
	session, _ := m.store.Get(c.Request(), m.name)
	session.Values[sessionUserKey] = userID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session cookie
func (m *SessionManager) SignOut(c echo.Context) error {
	session, _ := m.store.Get(c.Request(), m.name)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
