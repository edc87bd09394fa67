// Package middleware 提供用户身份相关的中间件和辅助方法.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/model"
)

const userContextKey = "currentUser"

// UserMiddleware 基于反向代理注入的请求头解析当前用户并加载记录.
//   - 优先读取 X-Auth-Request-Email，其次 X-Forwarded-Email
//   - 未携带身份或用户不存在时返回 401，访问解析依赖真实的用户记录
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader("X-Auth-Request-Email"))
		if email == "" {
			email = strings.TrimSpace(c.GetHeader("X-Forwarded-Email"))
		}

		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		dbc := ctxPkg.GetDBClient(c.Request.Context())
		if dbc == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage not initialized"})

			return
		}

		var user model.User
		if err := dbc.GetDB().WithContext(c.Request.Context()).
			Where("email = ?", email).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})

			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// GetUser 从 gin.Context 获取当前用户.
func GetUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userContextKey); ok {
		if u, ok2 := v.(*model.User); ok2 {
			return u
		}
	}

	return nil
}

// RequireAdmin 仅允许特权用户访问.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := GetUser(c)
		if u == nil || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin only"})

			return
		}

		c.Next()
	}
}
