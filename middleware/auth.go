package middleware

import (
	"net/http"
	"strings"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/utils"
	"github.com/gin-gonic/gin"
)

const (
	ctxAccountID    = "account_id"
	ctxAccountEmail = "account_email"
	ctxAccountRole  = "account_role"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
		return "", false
	}
	return tokenParts[1], true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ctxAccountID, claims.AccountID)
	c.Set(ctxAccountEmail, claims.Email)
	c.Set(ctxAccountRole, claims.Role)
}

// OptionalAuth attaches the account when a valid bearer token is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := tokens.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func RequireAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Message: "Authorization header required",
			})
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Message: "Invalid or expired token",
				Error:   err.Error(),
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxAccountRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "Account role not found",
			})
			return
		}

		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "Access denied. Admin role required",
			})
			return
		}

		c.Next()
	}
}

// AccountID returns 0 for anonymous requests.
func AccountID(c *gin.Context) int64 {
	return c.GetInt64(ctxAccountID)
}

// CurrentShopper collects whatever identity the auth and session middleware resolved.
func CurrentShopper(c *gin.Context) models.Shopper {
	return models.Shopper{
		AccountID: c.GetInt64(ctxAccountID),
		Email:     c.GetString(ctxAccountEmail),
		SessionID: SessionID(c),
	}
}
