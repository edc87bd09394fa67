package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/secrets"
	"github.com/yeisme/streamweave/pkg/internal/service"
	"github.com/yeisme/streamweave/pkg/internal/transfer"
	"github.com/yeisme/streamweave/pkg/internal/types"
)

// TriggerHarvest 手动触发一次 (仪器, 计划) 的采集运行并同步等待结果.
// 配置错误返回 422，其余错误返回 500；单文件失败只体现在计数里.
func TriggerHarvest(c *gin.Context) {
	var req types.TriggerHarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := configs.GetConfig()
	svc := service.NewHarvestService(c.Request.Context(), &cfg.Harvest)

	summary, err := svc.RunHarvest(c.Request.Context(), req.InstrumentID, req.ScheduleID)
	if err != nil {
		status := http.StatusInternalServerError
		if isConfigError(err) {
			status = http.StatusUnprocessableEntity
		}

		c.JSON(status, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, types.HarvestRunResponse{
		InstrumentID: req.InstrumentID,
		ScheduleID:   req.ScheduleID,
		Discovered:   summary.Discovered,
		New:          summary.New,
		Transferred:  summary.Transferred,
		Skipped:      summary.Skipped,
		Failed:       summary.Failed,
	})
}

// isConfigError 判断错误是否属于运行前的配置错误.
func isConfigError(err error) bool {
	return errors.Is(err, service.ErrSchemeNotImplemented) ||
		errors.Is(err, service.ErrUnknownScheme) ||
		errors.Is(err, transfer.ErrAdapterNotSupported) ||
		errors.Is(err, transfer.ErrNoServiceAccount) ||
		errors.Is(err, secrets.ErrInvalidKey)
}
