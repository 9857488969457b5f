package security

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"table-sync/internal/utils"
	"table-sync/pkg/response"
)

const claimsKey = "token_claims"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	jwtManager *JWTManager
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtManager *JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// RequireAuth rejects requests without a valid bearer token
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedResponse(err.Error(), correlationID(c)))
			return
		}

		claims, err := am.jwtManager.ValidateToken(token)
		if errors.Is(err, jwt.ErrTokenExpired) {
			am.reject(c, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired")
			return
		}
		if err != nil {
			am.reject(c, http.StatusUnauthorized, utils.ErrCodeInvalidToken, "Invalid token")
			return
		}

		c.Set(claimsKey, claims)
		c.Set("user_id", claims.Subject)

		c.Next()
	}
}

// RequireScope rejects authenticated requests whose token lacks scope.
// Must run after RequireAuth.
func (am *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			am.reject(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Token claims not found")
			return
		}

		if !claims.HasScope(scope) {
			am.reject(c, http.StatusForbidden, utils.ErrCodeForbidden, "Token lacks scope "+scope)
			return
		}

		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, response.ErrorResponse(code, message, "", correlationID(c)))
}

// GetClaims extracts token claims from context
func GetClaims(c *gin.Context) (*Claims, bool) {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	tokenClaims, ok := claims.(*Claims)
	return tokenClaims, ok
}

func correlationID(c *gin.Context) string {
	if id, ok := c.Get("correlation_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
