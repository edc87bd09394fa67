package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yeisme/streamweave/pkg/configs"
	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/hook"
	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/secrets"
	mqc "github.com/yeisme/streamweave/pkg/internal/storage/mq"
	s3c "github.com/yeisme/streamweave/pkg/internal/storage/s3"
	"github.com/yeisme/streamweave/pkg/internal/transfer"
	nlog "github.com/yeisme/streamweave/pkg/log"
	"github.com/yeisme/streamweave/pkg/metrics"
	"github.com/yeisme/streamweave/pkg/queue"
)

const eventProducer = "streamweave"

// RunSummary 单次采集运行的计数汇总.
type RunSummary struct {
	Discovered  int `json:"discovered"`
	New         int `json:"new"`
	Transferred int `json:"transferred"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// adapterFactory 按仪器构造传输适配器，测试中可替换.
type adapterFactory func(*configs.HarvestConfig, *model.Instrument, *secrets.Box) (transfer.Adapter, error)

// HarvestService 采集编排器：发现、逐文件的钩子门控传输、授权落地.
type HarvestService struct {
	db  *gorm.DB
	cfg *configs.HarvestConfig
	s3  *s3c.Client
	mq  *mqc.Client

	runner     *hook.Runner
	ids        *IdentifierService
	disc       *DiscoveryService
	newAdapter adapterFactory
}

// NewHarvestService 从请求上下文创建采集编排器.
func NewHarvestService(c context.Context, cfg *configs.HarvestConfig) *HarvestService {
	db := ctxPkg.GetDBClient(c).GetDB()

	return &HarvestService{
		db:         db,
		cfg:        cfg,
		s3:         ctxPkg.GetS3Client(c),
		mq:         ctxPkg.GetMQClient(c),
		runner:     hook.NewRunner(),
		ids:        NewIdentifierService(cfg),
		disc:       NewDiscoveryService(db),
		newAdapter: transfer.NewAdapter,
	}
}

// RunHarvest 执行一次 (仪器, 计划) 的采集运行，返回计数汇总.
//
// 配置错误（未知适配器、缺失凭据、未实现的标识符方案）在任何文件被触碰前
// 使整个运行失败；单文件错误只影响该文件的 FileTransfer 行.
// 编排器自身不做重试：重复调用是安全的，发现阶段会排除已有记录.
func (s *HarvestService) RunHarvest(ctx context.Context, instrumentID, scheduleID uint) (*RunSummary, error) {
	var inst model.Instrument
	if err := s.db.WithContext(ctx).
		Preload("ServiceAccount").
		Preload("Hooks").
		First(&inst, instrumentID).Error; err != nil {
		return nil, fmt.Errorf("load instrument %d: %w", instrumentID, err)
	}

	var schedule model.HarvestSchedule
	if err := s.db.WithContext(ctx).
		Preload("DefaultStorageLocation").
		First(&schedule, scheduleID).Error; err != nil {
		return nil, fmt.Errorf("load schedule %d: %w", scheduleID, err)
	}

	storage := schedule.DefaultStorageLocation
	if storage == nil {
		return nil, fmt.Errorf("schedule %d has no default storage location", scheduleID)
	}

	// 配置错误在这里快速失败
	if err := s.ids.Validate(); err != nil {
		return nil, err
	}

	box, err := secrets.New(s.cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	adapter, err := s.newAdapter(s.cfg, &inst, box)
	if err != nil {
		return nil, err
	}

	logger := nlog.Logger().With().Str("instrument", inst.Name).Logger()
	logger.Info().Str("host", inst.CIFSHost).Str("share", inst.CIFSShare).Msg("discovering files")

	files, err := adapter.Discover(ctx)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues(inst.Name, "failed").Inc()

		return nil, fmt.Errorf("discover files: %w", err)
	}

	metrics.FilesDiscovered.WithLabelValues(inst.Name).Add(float64(len(files)))

	fresh, err := s.disc.FilterNew(ctx, inst.ID, files)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues(inst.Name, "failed").Inc()

		return nil, err
	}

	summary := &RunSummary{Discovered: len(files), New: len(fresh)}

	logger.Info().Int("total", len(files)).Int("new", len(fresh)).Msg("discovery complete")

	if len(fresh) > 0 {
		workers := s.cfg.Workers
		if workers < 1 {
			workers = 1
		}

		var (
			mu sync.Mutex
			g  errgroup.Group
		)

		g.SetLimit(workers)

		for _, df := range fresh {
			g.Go(func() error {
				// 取消是文件粒度的协作式行为：未开始的文件不再处理
				if ctx.Err() != nil {
					return nil
				}

				fctx, cancel := context.WithTimeout(ctx, s.cfg.GetFileTimeout())
				defer cancel()

				status := s.processFile(fctx, &inst, storage, adapter, df)

				mu.Lock()
				switch status {
				case model.TransferCompleted:
					summary.Transferred++
				case model.TransferSkipped:
					summary.Skipped++
				default:
					summary.Failed++
				}
				mu.Unlock()

				return nil
			})
		}

		_ = g.Wait()
	}

	logger.Info().
		Int("transferred", summary.Transferred).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("harvest complete")

	metrics.HarvestRuns.WithLabelValues(inst.Name, "completed").Inc()
	s.publish(ctx, queue.TopicHarvestRunCompleted, queue.RunCompletedPayload{
		InstrumentID:   inst.ID,
		InstrumentName: inst.Name,
		ScheduleID:     scheduleID,
		Discovered:     summary.Discovered,
		New:            summary.New,
		Transferred:    summary.Transferred,
		Skipped:        summary.Skipped,
		Failed:         summary.Failed,
	})

	return summary, nil
}

// processFile 处理单个新文件：前置钩子、建档、传输、校验、后置钩子与授权.
// 单文件错误被限制在该文件的 FileTransfer 行，不向上传播.
func (s *HarvestService) processFile(ctx context.Context, inst *model.Instrument, storage *model.StorageLocation, adapter transfer.Adapter, df transfer.DiscoveredFile) model.TransferStatus {
	logger := nlog.Logger().With().
		Str("instrument", inst.Name).
		Str("path", df.Path).
		Logger()

	destPath := path.Join(storage.BasePath, inst.Name, df.Path)

	hctx := &hook.Context{
		SourcePath:      df.Path,
		Filename:        df.Filename,
		InstrumentID:    inst.ID,
		InstrumentName:  inst.Name,
		SizeBytes:       df.SizeBytes,
		DestinationPath: destPath,
		Metadata:        map[string]any{},
	}

	pre := s.runner.Run(ctx, model.TriggerPreTransfer, inst.Hooks, hctx)

	pid, scheme, err := s.ids.Mint()
	if err != nil {
		logger.Error().Err(err).Msg("mint identifier failed")

		return model.TransferFailed
	}

	record := &model.FileRecord{
		PersistentID:       pid,
		PersistentIDScheme: scheme,
		InstrumentID:       inst.ID,
		SourcePath:         df.Path,
		Filename:           df.Filename,
		SizeBytes:          df.SizeBytes,
		SourceMtime:        df.ModTime,
		FirstDiscoveredAt:  time.Now().UTC(),
	}

	fileRef := func() queue.FileRef {
		return queue.FileRef{
			FileID:       record.ID,
			PersistentID: record.PersistentID,
			SourcePath:   df.Path,
			Filename:     df.Filename,
			SizeBytes:    df.SizeBytes,
			Checksum:     record.DestChecksum,
		}
	}

	if pre.Action == hook.ActionSkip {
		logger.Info().Str("reason", pre.Message).Msg("file skipped by pre-transfer hook")

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(record).Error; err != nil {
				return err
			}

			return tx.Create(&model.FileTransfer{
				FileID:            record.ID,
				StorageLocationID: storage.ID,
				Adapter:           inst.Adapter,
				Status:            model.TransferSkipped,
				ErrorMessage:      pre.Message,
			}).Error
		})
		if err != nil {
			logger.Error().Err(err).Msg("persist skipped file failed")

			return model.TransferFailed
		}

		metrics.FilesSkipped.WithLabelValues(inst.Name).Inc()
		s.publish(ctx, queue.TopicFileSkipped, queue.FileSkippedPayload{
			File:           fileRef(),
			InstrumentID:   inst.ID,
			InstrumentName: inst.Name,
			Reason:         pre.Message,
		})

		return model.TransferSkipped
	}

	if pre.Action == hook.ActionRedirect {
		destPath = path.Join(pre.RedirectPath, inst.Name, df.Path)
		hctx.DestinationPath = destPath

		logger.Info().Str("dest", destPath).Msg("destination redirected by pre-transfer hook")
	}

	now := time.Now().UTC()
	ft := &model.FileTransfer{
		StorageLocationID: storage.ID,
		DestinationPath:   destPath,
		Adapter:           inst.Adapter,
		Status:            model.TransferInProgress,
		StartedAt:         &now,
	}

	// FileRecord 与 FileTransfer 在一个事务里落库，保证去重读到一致的已知集合
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		ft.FileID = record.ID

		return tx.Create(ft).Error
	})
	if err != nil {
		logger.Error().Err(err).Msg("persist file record failed")

		return model.TransferFailed
	}

	logger.Info().Str("pid", pid).Str("dest", destPath).Msg("transferring")

	res := adapter.Transfer(ctx, df.Path, destPath)

	done := time.Now().UTC()

	if !res.Success {
		logger.Error().Str("error", res.ErrorMessage).Msg("transfer failed")

		// FileRecord 保留：发现阶段不会在下一轮重新提供该路径
		s.updateTransfer(ctx, ft, map[string]any{
			"status":        model.TransferFailed,
			"error_message": res.ErrorMessage,
			"completed_at":  &done,
		})

		metrics.FilesFailed.WithLabelValues(inst.Name).Inc()
		s.publish(ctx, queue.TopicFileFailed, queue.FileFailedPayload{
			File:           fileRef(),
			InstrumentID:   inst.ID,
			InstrumentName: inst.Name,
			Error:          res.ErrorMessage,
		})

		return model.TransferFailed
	}

	s.updateTransfer(ctx, ft, map[string]any{
		"status":            model.TransferCompleted,
		"bytes_transferred": res.BytesTransferred,
		"dest_checksum":     res.DestChecksum,
		"checksum_verified": res.ChecksumVerified,
		"completed_at":      &done,
	})

	record.DestChecksum = res.DestChecksum
	if err := s.db.WithContext(ctx).Model(record).Update("dest_checksum", res.DestChecksum).Error; err != nil {
		logger.Error().Err(err).Msg("update file checksum failed")
	}

	metrics.FilesTransferred.WithLabelValues(inst.Name).Inc()
	metrics.BytesTransferred.WithLabelValues(inst.Name).Add(float64(res.BytesTransferred))

	logger.Info().
		Int64("bytes", res.BytesTransferred).
		Str("checksum", res.DestChecksum).
		Msg("transfer completed")

	s.archive(ctx, inst, storage, df, destPath)

	// 后置钩子带着传输结果执行
	hctx.TransferSuccess = true
	hctx.Checksum = res.DestChecksum

	post := s.runner.Run(ctx, model.TriggerPostTransfer, inst.Hooks, hctx)

	if len(post.MetadataUpdates) > 0 {
		if err := record.MergeMetadata(post.MetadataUpdates); err != nil {
			logger.Error().Err(err).Msg("merge metadata failed")
		} else if err := s.db.WithContext(ctx).Model(record).
			Update("metadata_json", record.MetadataJSON).Error; err != nil {
			logger.Error().Err(err).Msg("persist metadata failed")
		}
	}

	for _, g := range post.Grants {
		s.applyGrant(ctx, record.ID, g)
	}

	s.publish(ctx, queue.TopicFileHarvested, queue.FileHarvestedPayload{
		File:             fileRef(),
		InstrumentID:     inst.ID,
		InstrumentName:   inst.Name,
		DestinationPath:  destPath,
		BytesTransferred: res.BytesTransferred,
	})

	return model.TransferCompleted
}

// updateTransfer 回写传输行，失败只记录.
func (s *HarvestService) updateTransfer(ctx context.Context, ft *model.FileTransfer, fields map[string]any) {
	if err := s.db.WithContext(ctx).Model(ft).Updates(fields).Error; err != nil {
		nlog.Logger().Error().Err(err).Uint("transfer", ft.ID).Msg("update transfer failed")
	}
}

// archive s3 类型存储位置在传输完成后把目标文件追加上传到归档桶，尽力而为.
func (s *HarvestService) archive(ctx context.Context, inst *model.Instrument, storage *model.StorageLocation, df transfer.DiscoveredFile, destPath string) {
	if storage.Type != model.StorageS3 || s.s3 == nil {
		return
	}

	objectKey := path.Join(inst.Name, df.Path)
	if _, err := s.s3.Archive(ctx, storage.Bucket, objectKey, destPath); err != nil {
		nlog.Logger().Error().Err(err).
			Str("object", objectKey).
			Msg("archive to object storage failed")
	}
}

// applyGrant 把钩子发出的授权请求落库. literal 请求解析失败（非法 id）与
// deferred 请求查无此名都只告警丢弃，不重试.
func (s *HarvestService) applyGrant(ctx context.Context, fileID uint, g hook.GrantRequest) {
	granteeID, ok := s.resolveGrantee(ctx, g)
	if !ok {
		return
	}

	grant := &model.FileAccessGrant{
		FileID:      fileID,
		GranteeType: g.GranteeType,
		GranteeID:   granteeID,
	}

	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		nlog.Logger().Error().Err(err).Uint("file", fileID).Msg("create access grant failed")

		return
	}

	s.publish(ctx, queue.TopicAccessGranted, queue.AccessGrantedPayload{
		FileID:      fileID,
		GranteeType: string(g.GranteeType),
		GranteeID:   granteeID,
	})
}

// resolveGrantee 把授权请求解析为受让方 id.
func (s *HarvestService) resolveGrantee(ctx context.Context, g hook.GrantRequest) (uint, bool) {
	if g.Kind == hook.GrantLiteral {
		id, err := strconv.ParseUint(g.LiteralID, 10, 64)
		if err != nil {
			nlog.Logger().Warn().
				Str("literal", g.LiteralID).
				Str("grantee_type", string(g.GranteeType)).
				Msg("skipping malformed literal grantee id")

			return 0, false
		}

		return uint(id), true
	}

	var (
		id  uint
		err error
	)

	switch g.GranteeType {
	case model.GranteeUser:
		var u model.User

		err = s.db.WithContext(ctx).Where("email = ?", g.Name).First(&u).Error
		id = u.ID
	case model.GranteeGroup:
		var grp model.Group

		err = s.db.WithContext(ctx).Where("name = ?", g.Name).First(&grp).Error
		id = grp.ID
	case model.GranteeProject:
		var p model.Project

		err = s.db.WithContext(ctx).Where("name = ?", g.Name).First(&p).Error
		id = p.ID
	default:
		err = gorm.ErrRecordNotFound
	}

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			nlog.Logger().Error().Err(err).Msg("resolve grantee failed")
		} else {
			nlog.Logger().Warn().
				Str("grantee_type", string(g.GranteeType)).
				Str("name", g.Name).
				Msg("could not resolve grantee for access grant, dropped")
		}

		return 0, false
	}

	return id, true
}

// publish 尽力而为地发布采集事件，MQ 未启用时为 no-op.
func (s *HarvestService) publish(ctx context.Context, topic string, payload any) {
	if s.mq == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(topic, payload, queue.WithProducer(eventProducer))
	if err != nil {
		nlog.Logger().Error().Err(err).Str("topic", topic).Msg("encode event failed")

		return
	}

	if err := s.mq.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Error().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}
