package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/focuswin/core/internal/adapters/http"
	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// authMiddleware resolves the caller from a bearer token or the session cookie.
// Any other header is ignored.
func (s *Server) authMiddleware(authService ports.AuthService, sessions *httpHandlers.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var (
				user *entities.User
				err  error
			)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			switch {
			case authHeader != "":
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")
				if tokenString == authHeader {
					err = &entities.AuthenticationError{Reason: "invalid authorization header format"}
					break
				}
				user, err = authService.ResolveToken(ctx, tokenString)
			default:
				userID, ok := sessions.UserID(c)
				if !ok {
					err = entities.ErrMissingCredential
					break
				}
				user, err = authService.ResolveUser(ctx, userID)
			}

			if err != nil {
				if entities.IsAuthentication(err) {
					s.logger.LogSecurityEvent("authentication_failed", c.RealIP(),
						"reason", err.Error(),
						"path", c.Request().URL.Path,
					)
				}
				return err
			}

			httpHandlers.SetCurrentUser(c, user)
			return next(c)
		}
	}
}

// errorBody maps an error to its status and stable error code
func errorBody(err error) (int, ports.ErrorResponse) {
	var (
		validationErr *entities.ValidationError
		notFoundErr   *entities.NotFoundError
		conflictErr   *entities.ConflictError
		authErr       *entities.AuthenticationError
		partialErr    *entities.PartialFailureError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ports.ErrorResponse{
			Code:    "validation_failed",
			Message: validationErr.Message,
			Fields:  validationErr.Fields,
		}
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, ports.ErrorResponse{
			Code:    "authentication_required",
			Message: "authentication required",
		}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ports.ErrorResponse{
			Code:    "not_found",
			Message: notFoundErr.Error(),
		}
	case errors.As(err, &conflictErr):
		return http.StatusConflict, ports.ErrorResponse{
			Code:    "conflict",
			Message: conflictErr.Message,
		}
	case errors.As(err, &partialErr):
		return http.StatusInternalServerError, ports.ErrorResponse{
			Code:    "partial_failure",
			Message: partialErr.Operation + " did not finish; retry POST /api/groups/" + partialErr.ResourceID + "/unassign",
			Fields:  map[string]string{"groupId": partialErr.ResourceID},
		}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ports.ErrorResponse{
			Code:    codeForStatus(httpErr.Code),
			Message: msg,
		}
	default:
		return http.StatusInternalServerError, ports.ErrorResponse{
			Code:    "internal_error",
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "authentication_required"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		if status >= 500 {
			return "internal_error"
		}
		return "request_failed"
	}
}

// customErrorHandler writes every error as an ErrorResponse
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, body := errorBody(err)

		if code >= http.StatusInternalServerError {
			logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).Errorw("request failed",
				"error", err,
				"path", c.Request().URL.Path,
			)
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Errorw("error sending response", "error", err)
		}
	}
}
