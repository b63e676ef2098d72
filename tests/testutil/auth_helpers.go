package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/middleware"
)

// MockValidatedClaims builds the claims object the JWT middleware would
// produce for a token with the given subject and role claim.
func MockValidatedClaims(auth0ID, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// MockAuthMiddleware returns a gin handler that injects the context values
// EnsureValidToken would set for an authenticated request. Controllers
// resolve the actual user row from auth0ID, so tests create a matching
// users record per role.
func MockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, auth0ID, role)
		c.Next()
	}
}

// SetMockAuthContext mirrors the context keys set by the real middleware.
func SetMockAuthContext(c *gin.Context, auth0ID, role string) {
	c.Set("user_id", auth0ID)
	c.Set("access_token", "test-token-"+auth0ID)
	c.Set("validated_claims", MockValidatedClaims(auth0ID, role))
}
