package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/streamweave/pkg/internal/handle"
	"github.com/yeisme/streamweave/pkg/middleware"
)

// RegisterFilesRoutes 注册文件可见性与授权路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		// 列出当前用户可见的文件
		filesRoutes.GET("", handle.ListFiles)
		// 单个文件详情，不可见时 404
		filesRoutes.GET("/:id", handle.GetFile)
		// 手动追加授权，仅管理员
		filesRoutes.POST("/grants", middleware.RequireAdmin(), handle.CreateGrant)
	}
}
