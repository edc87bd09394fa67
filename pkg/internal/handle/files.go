package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/service"
	"github.com/yeisme/streamweave/pkg/internal/types"
	"github.com/yeisme/streamweave/pkg/middleware"
)

// ListFiles 返回当前用户可见的文件：本人拥有的，加上对用户本人、
// 其所属组或其参与项目授权过的.
func ListFiles(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	records, err := svc.ListVisibleFiles(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := types.ListFilesResponse{
		Files: make([]types.FileInfo, 0, len(records)),
		Total: len(records),
	}
	for i := range records {
		resp.Files = append(resp.Files, toFileInfo(&records[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile 按 id 返回单个文件记录，对当前用户不可见时返回 404.
func GetFile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	ok, err := svc.CanAccess(c.Request.Context(), user, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !ok {
		// 不区分"不存在"与"无权限"，避免泄露文件存在性
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	dbc := ctxPkg.GetDBClient(c.Request.Context())

	var record model.FileRecord
	if err := dbc.GetDB().WithContext(c.Request.Context()).
		First(&record, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	c.JSON(http.StatusOK, toFileInfo(&record))
}

// CreateGrant 为文件追加一条访问授权，仅管理员可用.
func CreateGrant(c *gin.Context) {
	var req types.CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 显式校验：全局 validator 的 tag 被改为 rule 后不能依赖 binding 标签
	granteeType := model.GranteeType(req.GranteeType)
	if !model.ValidGranteeType(granteeType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grantee_type: " + req.GranteeType})
		return
	}

	svc := service.NewAccessService(c.Request.Context())

	grant, err := svc.Grant(c.Request.Context(), req.FileID, granteeType, req.GranteeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, grant)
}

func toFileInfo(r *model.FileRecord) types.FileInfo {
	// 元数据解码失败时降级为无元数据，不让单条脏数据拖垮整个列表
	meta, err := r.Metadata()
	if err != nil {
		meta = nil
	}

	if len(meta) == 0 {
		meta = nil
	}

	return types.FileInfo{
		ID:                r.ID,
		PersistentID:      r.PersistentID,
		InstrumentID:      r.InstrumentID,
		SourcePath:        r.SourcePath,
		Filename:          r.Filename,
		SizeBytes:         r.SizeBytes,
		DestChecksum:      r.DestChecksum,
		Metadata:          meta,
		FirstDiscoveredAt: r.FirstDiscoveredAt,
	}
}
