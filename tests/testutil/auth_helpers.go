package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// MockAuthMiddleware returns a middleware that injects the claims the real
// JWT middleware would have produced for the given account.
func MockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set the user_id (Auth0 ID from 'sub' claim)
		c.Set("user_id", auth0ID)

		// Set the access token for calling /userinfo
		c.Set("access_token", accessToken)

		// Store claims in context the same way the real middleware does
		c.Set("validated_claims", MockValidatedClaims(auth0ID, "https://test-issuer/", role))

		c.Next()
	}
}

// CreateTestRouter creates a Gin engine in test mode
func CreateTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
