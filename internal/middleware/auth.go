package middleware

import (
	"net/http"
	"os"
	"strings"

	"backend/internal/approval"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by RequireRole for downstream handlers.
const (
	CtxUserID     = "userID"
	CtxUserRole   = "userRole"
	CtxDivisionID = "divisionID"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only, DO NOT use in production
	}
	return []byte(secret)
}

// RequireRole validates the bearer JWT and checks that the user's role is
// in the allowedRoles list. On success it stores user id, role, and the
// division claim in the gin context.
func RequireRole(allowedRoles ...approval.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleClaim, _ := claims["role"].(string)
		role, err := approval.ParseRole(roleClaim)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, allowed := range allowedRoles {
			if role == allowed {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(CtxUserID, claims["sub"])
		c.Set(CtxUserRole, string(role))
		if div, ok := claims["division_id"].(string); ok && div != "" {
			c.Set(CtxDivisionID, div)
		}

		c.Next()
	}
}

// ActorFromContext rebuilds the acting user's identity from the context
// values RequireRole stored.
func ActorFromContext(c *gin.Context) (approval.Actor, bool) {
	userID, err := uuid.Parse(c.GetString(CtxUserID))
	if err != nil {
		return approval.Actor{}, false
	}

	role, err := approval.ParseRole(c.GetString(CtxUserRole))
	if err != nil {
		return approval.Actor{}, false
	}

	actor := approval.Actor{ID: userID, Role: role}
	if divStr := c.GetString(CtxDivisionID); divStr != "" {
		if div, err := uuid.Parse(divStr); err == nil {
			actor.DivisionID = &div
		}
	}
	return actor, true
}
