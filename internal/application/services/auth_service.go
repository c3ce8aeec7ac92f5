package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles signup, login and resolving credentials to users
type AuthService struct {
	userRepo  ports.UserRepository
	cache     ports.CacheRepository
	jwtConfig config.JWTConfig
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service. cache may be nil.
func NewAuthService(userRepo ports.UserRepository, cache ports.CacheRepository, jwtConfig config.JWTConfig, cacheTTL time.Duration, m *metrics.Metrics, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		cache:     cache,
		jwtConfig: jwtConfig,
		cacheTTL:  cacheTTL,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Signup creates a new account and signs it in
func (s *AuthService) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := entities.Validate(req); err != nil {
		s.metrics.AuthAttempts.WithLabelValues("signup", "invalid").Inc()
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if entities.IsConflict(err) {
			s.metrics.AuthAttempts.WithLabelValues("signup", "conflict").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.AuthAttempts.WithLabelValues("signup", "success").Inc()
	s.logger.Infow("user signed up", "user_id", user.ID)

	return s.respond(user)
}

// Login checks an email and password pair
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := entities.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if entities.IsNotFound(err) {
			s.metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
			s.logger.Warnw("login rejected", "reason", "unknown email")
			return nil, entities.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		s.logger.WithUserID(user.ID).Warnw("login rejected", "reason", "password mismatch")
		return nil, entities.ErrInvalidCredentials
	}

	s.metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	s.logger.Infow("user logged in", "user_id", user.ID)

	return s.respond(user)
}

// ResolveToken verifies a bearer token and loads its subject
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*entities.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &entities.AuthenticationError{Reason: "invalid token: " + err.Error()}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, entities.ErrInvalidCredential
	}

	return s.ResolveUser(ctx, claims.Subject)
}

// ResolveUser turns a user identifier into a user without its password hash.
// Unknown or malformed identifiers are authentication failures.
func (s *AuthService) ResolveUser(ctx context.Context, credential string) (*entities.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, entities.ErrMissingCredential
	}

	id, err := uuid.Parse(credential)
	if err != nil {
		return nil, entities.ErrInvalidCredential
	}

	key := userCacheKey(id)
	if s.cache != nil {
		var cached entities.User
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.Warnw("user cache read failed", "error", err, "user_id", id)
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if entities.IsNotFound(err) {
			return nil, entities.ErrInvalidCredential
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user = user.Sanitized()
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, user, s.cacheTTL); err != nil {
			s.logger.Warnw("user cache write failed", "error", err, "user_id", id)
		}
	}

	return user, nil
}

func (s *AuthService) respond(user *entities.User) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &ports.AuthResponse{
		User:        user.Sanitized(),
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

func userCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
