package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/streamweave/pkg/internal/handle"
	"github.com/yeisme/streamweave/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器相关路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	schedRoutes := g.Group("/scheduler")
	schedRoutes.Use(middleware.RequireAdmin())
	{
		schedRoutes.GET("/jobs", handle.SchedulerJobs)
		schedRoutes.DELETE("/jobs/:name", handle.SchedulerRemoveJob)
	}
}
