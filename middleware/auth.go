package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"medilink/models"
	"medilink/utils"
)

// JWTAuthMiddleware authenticates bearer tokens and stores the caller's id
// and role on the request context. Validated identities are cached in Redis
// under the token's hash, so repeat requests skip signature verification
// until the session entry expires or is revoked.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		tokenHash := utils.HashToken(tokenString)
		authCache := utils.GetAuthCacheClient()

		if session, err := utils.GetAuthSession(authCache, tokenHash); err == nil {
			c.Set(utils.CtxUserID, session.UserID)
			c.Set(utils.CtxRole, session.Role)
			c.Next()
			return
		} else if err != redis.Nil {
			zap.L().Warn("auth cache lookup failed, falling back to token validation", zap.Error(err))
		}

		userID, role, err := utils.ExtractIDAndRoleFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}
		if _, ok := models.ParseRole(role); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		if err := utils.SaveAuthSession(authCache, tokenHash, utils.AuthSession{
			UserID: userID,
			Role:   role,
		}); err != nil {
			zap.L().Warn("failed to cache auth session", zap.Error(err))
		}

		c.Set(utils.CtxUserID, userID)
		c.Set(utils.CtxRole, role)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. It assumes
// JWTAuthMiddleware already ran on the chain.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetString(utils.CtxRole)
		role, ok := models.ParseRole(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient role for this operation",
		})
	}
}

// CallerIdentity reads the authenticated caller off the context.
func CallerIdentity(c *gin.Context) (string, models.Role) {
	role, _ := models.ParseRole(c.GetString(utils.CtxRole))
	return c.GetString(utils.CtxUserID), role
}
