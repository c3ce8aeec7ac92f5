package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	sessions    *SessionManager
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, sessions *SessionManager, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		logger:      logger,
	}
}

// Signup godoc
// @Summary Create an account
// @Description Create an account and sign it in. The response carries a bearer token and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.SignupRequest true "Account data"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req ports.SignupRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	response, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if err := h.sessions.SignIn(c, response.User.ID.String()); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, response)
}

// Login godoc
// @Summary Sign in
// @Description Check email and password, return a bearer token and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		if entities.IsAuthentication(err) {
			h.logger.LogSecurityEvent("login_failed", c.RealIP(), "email", req.Email)
		}
		return err
	}

	if err := h.sessions.SignIn(c, response.User.ID.String()); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Logout godoc
// @Summary Sign out
// @Description Expire the session cookie. Bearer tokens stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} ports.MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.SignOut(c); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
// @Summary Current user
// @Description Return the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} entities.User
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
