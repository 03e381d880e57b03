package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
)

// Context keys set by Auth.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
	RoleKey     = "role"
	ShipIDKey   = "ship_id"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "X-Auth-Token"

// Auth validates the session token header and checks the server-side session
// store, so a logout or expiry revokes the token before its JWT expiry.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr := ctx.GetHeader(TokenHeader)
		if tokenStr == "" {
			abortUnauthorized(ctx, "TOKEN_MISSING", "token header missing")
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(ctx, "TOKEN_EXPIRED", "token expired")
				return
			}
			abortUnauthorized(ctx, "TOKEN_INVALID", "token invalid")
			return
		}

		// Check session still valid in the store.
		sessionKey := "session:" + tokenStr
		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, sessionKey)
		if err != nil || !exists {
			abortUnauthorized(ctx, "TOKEN_EXPIRED", "session expired")
			return
		}

		ctx.Set(UserIDKey, claims.UserID)
		ctx.Set(UsernameKey, claims.Username)
		ctx.Set(RoleKey, claims.Role)
		if claims.ShipID != nil {
			ctx.Set(ShipIDKey, *claims.ShipID)
		}
		ctx.Next()
	}
}

// RequireAdmin rejects requests whose session does not carry the admin role.
// Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if GetRole(ctx) != "admin" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "code": "FORBIDDEN", "message": "admin role required",
			})
			return
		}
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, code, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false, "code": code, "message": msg,
	})
}

// GetUserID retrieves the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) int64 {
	if v, exists := c.Get(UserIDKey); exists {
		return v.(int64)
	}
	return 0
}

// GetUsername retrieves the authenticated username from the Gin context.
func GetUsername(c *gin.Context) string {
	if v, exists := c.Get(UsernameKey); exists {
		return v.(string)
	}
	return ""
}

// GetRole retrieves the authenticated role from the Gin context.
func GetRole(c *gin.Context) string {
	if v, exists := c.Get(RoleKey); exists {
		return v.(string)
	}
	return ""
}

// GetShipID retrieves the ship binding of a ship-side session, or 0 for
// shore-side (admin) sessions.
func GetShipID(c *gin.Context) int64 {
	if v, exists := c.Get(ShipIDKey); exists {
		return v.(int64)
	}
	return 0
}
