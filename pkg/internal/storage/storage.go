// Package storage 聚合采集管线依赖的存储资源：数据库、归档对象存储与消息队列.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	dbClient := mgr.GetDBClient()
//	s3Client := mgr.GetS3Client()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/streamweave/pkg/configs"
	dbc "github.com/yeisme/streamweave/pkg/internal/storage/db"
	mqc "github.com/yeisme/streamweave/pkg/internal/storage/mq"
	s3c "github.com/yeisme/streamweave/pkg/internal/storage/s3"
	nlog "github.com/yeisme/streamweave/pkg/log"
)

// Manager 聚合所有存储资源. S3 与 MQ 按配置可选.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		if dbi, e := dbc.New(ctx, &cfg.DB); e != nil {
			err = e

			return
		} else {
			m.DB = dbi
		}

		// S3（可选，启用时才连接）
		if cfg.S3.Enabled {
			if s3i, e := s3c.New(ctx, &cfg.S3); e != nil {
				err = e

				return
			} else {
				m.S3 = s3i
			}
		}

		// MQ（可选）
		if cfg.MQ.Enabled {
			if mqi, e := mqc.New(ctx, &cfg.MQ); e != nil {
				err = e

				return
			} else {
				m.MQ = mqi
			}
		}

		mgr = m

		nlog.Logger().Info().
			Bool("s3", m.S3 != nil).
			Bool("mq", m.MQ != nil).
			Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetS3Client 获取 S3 客户端，未启用时返回 nil.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetMQClient 获取 MQ 客户端，未启用时返回 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 释放存储资源.
func (m *Manager) Close() error {
	var err error

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if e := m.DB.Close(); e != nil {
			err = e
		}
	}

	return err
}
