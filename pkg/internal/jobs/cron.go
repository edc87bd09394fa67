// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/streamweave/pkg/configs"
	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/service"
	"github.com/yeisme/streamweave/pkg/internal/storage"
	"github.com/yeisme/streamweave/pkg/log"
	"github.com/yeisme/streamweave/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 启动时立刻同步一次数据库中的采集计划
//   - 之后每分钟对账一次，新增/变更/停用的计划会同步到调度器
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg *configs.HarvestConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	// 先做一次全量同步，启动即注册已启用的计划
	SyncSchedules(baseCtx, sched, mgr, cfg)

	_ = sched.AddCron(JobScheduleSync, CronScheduleSync, func(ctx context.Context) {
		SyncSchedules(ctx, sched, mgr, cfg)
	}, baseCtx)

	return nil
}

// SyncSchedules 把启用的采集计划对账到调度器：新计划注册、表达式变更
// 更新、停用或删除的计划移除. 尽力而为，单个计划的错误只记录.
func SyncSchedules(ctx context.Context, sched *scheduler.Scheduler, mgr *storage.Manager, cfg *configs.HarvestConfig) {
	l := log.Logger().With().Str("job", JobScheduleSync).Logger()

	dbc := mgr.GetDBClient()
	if dbc == nil {
		l.Error().Msg("db not initialized")

		return
	}

	var schedules []model.HarvestSchedule
	if err := dbc.GetDB().WithContext(ctx).Where("enabled = ?", true).Find(&schedules).Error; err != nil {
		l.Error().Err(err).Msg("list harvest schedules failed")

		return
	}

	active := make(map[string]struct{}, len(schedules))

	for _, hs := range schedules {
		name := HarvestJobName(hs.ID)
		active[name] = struct{}{}

		run := harvestJob(mgr, cfg, hs.InstrumentID, hs.ID)

		if !sched.HasJob(name) {
			if err := sched.AddCron(name, hs.CronExpr, run, ctx); err != nil {
				l.Error().Err(err).Str("name", name).Str("cron", hs.CronExpr).Msg("register schedule failed")
			} else {
				l.Info().Str("name", name).Str("cron", hs.CronExpr).Msg("schedule registered")
			}

			continue
		}

		info, err := sched.GetJobInfoByName(name)
		if err != nil || info.CronExpr == hs.CronExpr {
			continue
		}

		if err := sched.UpdateCron(name, hs.CronExpr, run, ctx); err != nil {
			l.Error().Err(err).Str("name", name).Msg("update schedule failed")
		} else {
			l.Info().Str("name", name).Str("cron", hs.CronExpr).Msg("schedule updated")
		}
	}

	// 移除已停用或删除的计划
	for _, info := range sched.GetJobInfos() {
		if info.Name == JobScheduleSync {
			continue
		}

		if _, ok := active[info.Name]; !ok {
			if err := sched.RemoveJobByName(info.Name); err != nil {
				l.Error().Err(err).Str("name", info.Name).Msg("remove stale schedule failed")
			} else {
				l.Info().Str("name", info.Name).Msg("stale schedule removed")
			}
		}
	}
}

// harvestJob 构造一个执行采集运行的任务函数.
func harvestJob(mgr *storage.Manager, cfg *configs.HarvestConfig, instrumentID, scheduleID uint) func(ctx context.Context) {
	return func(ctx context.Context) {
		l := log.Logger().With().
			Uint("instrument", instrumentID).
			Uint("schedule", scheduleID).
			Logger()

		runCtx := ctxPkg.WithStorageManager(ctx, mgr)
		svc := service.NewHarvestService(runCtx, cfg)

		summary, err := svc.RunHarvest(runCtx, instrumentID, scheduleID)
		if err != nil {
			l.Error().Err(err).Msg("harvest run failed")

			return
		}

		l.Info().
			Int("discovered", summary.Discovered).
			Int("new", summary.New).
			Int("transferred", summary.Transferred).
			Int("skipped", summary.Skipped).
			Int("failed", summary.Failed).
			Msg("harvest run finished")
	}
}
