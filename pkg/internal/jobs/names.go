package jobs

import "fmt"

// 任务名称常量与格式，便于统一管理与引用.
const (
	// JobScheduleSync 定期把数据库中的采集计划同步到进程内调度器
	JobScheduleSync = "harvest.schedule.sync"
	// CronScheduleSync 每分钟对账一次计划变更
	CronScheduleSync = "* * * * *"
)

// HarvestJobName 单个采集计划对应的任务名.
func HarvestJobName(scheduleID uint) string {
	return fmt.Sprintf("harvest.schedule.%d", scheduleID)
}
