package middleware

import (
	"net/http"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the caller has one of roles.
// It must run after the JWT middleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		scope, ok := identity.ScopeFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c), nil))
			return
		}
		if _, ok := allowed[scope.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "권한이 없습니다", getRequestID(c), nil))
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin is RequireRole(identity.RoleSuperAdmin)
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleSuperAdmin)
}
