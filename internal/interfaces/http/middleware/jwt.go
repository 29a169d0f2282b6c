package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/procurement/internal/infrastructure/auth"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "

	TenantIDHeader = "X-Tenant-ID"
	UserIDHeader   = "X-User-ID"
)

var errMissingAuthHeader = errors.New("missing authorization header")

// JWTMiddlewareConfig holds configuration for the identity middleware
type JWTMiddlewareConfig struct {
	// JWTService validates bearer tokens
	JWTService *auth.JWTService
	// AllowHeaderIdentity accepts X-Tenant-ID and X-User-ID when no bearer token is sent.
	// Only for local development and trusted gateways.
	AllowHeaderIdentity bool
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns the default identity configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
		},
	}
}

// JWTAuthMiddleware creates identity middleware with default configuration
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig resolves the caller's tenant and user for every request.
// A bearer token always wins; header identity is only consulted when enabled and no
// Authorization header is present.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" && cfg.AllowHeaderIdentity {
			tenantID, userID, err := headerIdentity(c)
			if err != nil {
				handleAuthError(c, cfg, err, "Invalid identity headers")
				return
			}
			setIdentity(c, nil, tenantID, userID)
			c.Next()
			return
		}
		if authHeader == "" {
			handleAuthError(c, cfg, errMissingAuthHeader, "Missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, BearerPrefix)
		if !ok || tokenString == "" || cfg.JWTService == nil {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}
		setIdentity(c, claims, claims.TenantID, claims.UserID)

		cfg.Logger.Debug("Caller authenticated",
			zap.String("user_id", claims.UserID),
			zap.String("tenant_id", claims.TenantID),
		)
		c.Next()
	}
}

func headerIdentity(c *gin.Context) (string, string, error) {
	tenantID := c.GetHeader(TenantIDHeader)
	if _, err := uuid.Parse(tenantID); err != nil {
		return "", "", auth.ErrMissingTenantID
	}
	userID := c.GetHeader(UserIDHeader)
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", auth.ErrMissingUserID
	}
	return tenantID, userID, nil
}

func setIdentity(c *gin.Context, claims *auth.Claims, tenantID, userID string) {
	if claims != nil {
		c.Set(JWTClaimsKey, claims)
	}
	c.Set(JWTTenantIDKey, tenantID)
	c.Set(JWTUserIDKey, userID)

	c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), tenantID, userID))
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	cfg.Logger.Warn("Authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	errorCode := "UNAUTHORIZED"
	errorMessage := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode = "TOKEN_EXPIRED"
		errorMessage = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode = "TOKEN_NOT_VALID"
		errorMessage = "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		errorCode = "INVALID_TOKEN"
		errorMessage = "Invalid token"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID):
		errorMessage = err.Error()
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":       errorCode,
			"message":    errorMessage,
			"request_id": getRequestID(c),
		},
	})
}

// GetJWTClaims retrieves token claims; nil when identity came from headers
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the authenticated user id
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTTenantID retrieves the authenticated tenant id
func GetJWTTenantID(c *gin.Context) string {
	return c.GetString(JWTTenantIDKey)
}
