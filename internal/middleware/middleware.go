package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by BearerAuth
const (
	AccountIDKey = "accountID"
	AuthTypeKey  = "auth_type"
)

// SessionVerifier validates a bearer session and returns the account it belongs to
type SessionVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuth requires an "Authorization: Bearer <session>" header (RFC 6750).
// Verification is stateless; no storage is consulted.
func BearerAuth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearer(c)
		if !ok {
			return
		}

		accountID, err := verifier.Verify(tokenString)
		if err != nil {
			description := "Session is invalid. Please log in again."
			if errors.Is(err, auth.ErrTokenExpired) {
				description = "Session has expired. Please log in again."
			}
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", description)
			return
		}

		c.Set(AccountIDKey, accountID)
		c.Set(AuthTypeKey, "bearer")
		c.Next()
	}
}

// OptionalBearerAuth sets the account when a valid session is presented and
// otherwise lets the request through anonymously.
func OptionalBearerAuth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if accountID, err := verifier.Verify(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(AccountIDKey, accountID)
				c.Set(AuthTypeKey, "bearer")
			}
		}
		c.Next()
	}
}

// AccountID returns the account set by BearerAuth
func AccountID(c *gin.Context) (string, bool) {
	v, exists := c.Get(AccountIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func extractBearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
			"Missing Authorization header. A valid Bearer token is required.")
		return "", false
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_request",
			"Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
		return "", false
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		respondWithOAuth2Error(c, http.StatusUnauthorized, "invalid_token", "Bearer token is empty")
		return "", false
	}
	return tokenString, true
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.JSON(status, gin.H{
		"error":             errorCode,
		"error_description": description,
	})
	c.Abort()
}
