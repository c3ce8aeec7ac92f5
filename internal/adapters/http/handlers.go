package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/domain/entities"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c echo.Context, user *entities.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the user stored by the auth middleware
func CurrentUser(c echo.Context) (*entities.User, error) {
	user, ok := c.Get(currentUserKey).(*entities.User)
	if !ok || user == nil {
		return nil, entities.ErrMissingCredential
	}
	return user, nil
}

// parseID turns a path parameter into an id. A malformed id cannot match any
// record, so it is reported the same way as a missing one.
func parseID(c echo.Context, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
