package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/domain/service"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/logger"
	"tailorchat/pkg/response"
)

const (
	ContextUserID   = "uid"
	ContextRole     = "role"
	ContextIdentity = "identity"
)

// AuthMiddleware accepts a bearer token that any of its verifiers recognizes.
// Verifiers are tried in order; Firebase first, then dev tokens when enabled.
type AuthMiddleware struct {
	verifiers []service.TokenVerifier
}

func NewAuthMiddleware(verifiers ...service.TokenVerifier) *AuthMiddleware {
	active := make([]service.TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			active = append(active, v)
		}
	}
	return &AuthMiddleware{verifiers: active}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		identity, err := m.Identify(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		SetIdentity(c, identity)
		return next(c)
	}
}

// Identify verifies token without an HTTP request, e.g. for the WebSocket upgrade.
func (m *AuthMiddleware) Identify(ctx context.Context, token string) (*service.Identity, error) {
	if token == "" {
		return nil, errors.Unauthorized("Token is required", nil)
	}

	var lastErr error
	for _, v := range m.verifiers {
		identity, err := v.Verify(ctx, token)
		if err == nil && identity != nil && identity.UserID != "" {
			if identity.Role == "" {
				identity.Role = entity.RoleCustomer
			}
			return identity, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		logger.Debug("Token rejected: %v", lastErr)
	}
	return nil, errors.Unauthorized("Invalid or expired token", lastErr)
}

func SetIdentity(c echo.Context, identity *service.Identity) {
	c.Set(ContextUserID, identity.UserID)
	c.Set(ContextRole, identity.Role)
	c.Set(ContextIdentity, *identity)
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(c echo.Context) (service.Identity, bool) {
	identity, ok := c.Get(ContextIdentity).(service.Identity)
	return identity, ok
}
