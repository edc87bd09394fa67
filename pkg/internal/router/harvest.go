package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/streamweave/pkg/internal/handle"
	"github.com/yeisme/streamweave/pkg/middleware"
)

// RegisterHarvestRoutes 注册采集触发路由.
func RegisterHarvestRoutes(g *gin.RouterGroup) {
	harvestRoutes := g.Group("/harvest")
	harvestRoutes.Use(middleware.RequireAdmin())
	{
		// 同步触发一次采集运行
		harvestRoutes.POST("/runs", handle.TriggerHarvest)
	}
}
