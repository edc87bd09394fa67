// Package router 管理路由配置，将路径绑定到 handle 包的处理器.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/streamweave/pkg/middleware"
)

// RegisterRoutes 注册全部业务路由.
//
// 健康检查不要求用户身份；文件与采集路由经 UserMiddleware 解析
// 反向代理注入的用户邮箱，采集触发、授权管理与调度器操作仅管理员可用.
func RegisterRoutes(g *gin.RouterGroup) {
	RegisterHealthCheckRoute(g)

	authed := g.Group("")
	authed.Use(middleware.UserMiddleware())
	{
		RegisterFilesRoutes(authed)
		RegisterHarvestRoutes(authed)
		RegisterSchedulerRoutes(authed)
	}
}
