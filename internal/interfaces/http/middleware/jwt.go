package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/infrastructure/auth"
	"github.com/salesledger/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTCustomerIDKey = "jwt_customer_id"
	JWTEmailKey      = "jwt_email"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTAuthMiddleware validates the bearer token and stores the caller's
// customer identity in the request context. Every ledger route runs
// behind it; the customer ID never comes from the request body or path.
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Token validation failed")
			return
		}

		customerID, err := claims.CustomerUUID()
		if err != nil {
			abortUnauthorized(c, "Invalid customer identity in token")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTCustomerIDKey, customerID)
		c.Set(JWTEmailKey, claims.Email)
		c.Next()
	}
}

// GetCustomerID extracts the authenticated customer ID from the context
func GetCustomerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(JWTCustomerIDKey)
	if !exists {
		return uuid.Nil, false
	}
	customerID, ok := value.(uuid.UUID)
	return customerID, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}
