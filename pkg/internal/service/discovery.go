// Package service 实现采集管线的业务逻辑：发现去重、标识符铸造、
// 访问解析与采集编排.
package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/transfer"
)

// DiscoveryService 负责远端列表与已知记录的去重.
type DiscoveryService struct {
	db *gorm.DB
}

// NewDiscoveryService 创建发现服务.
func NewDiscoveryService(db *gorm.DB) *DiscoveryService {
	return &DiscoveryService{db: db}
}

// FilterNew 过滤出该仪器尚未记录的文件，保持输入顺序.
// (instrument_id, source_path) 已存在即视为已采集，重复发现是 no-op；
// 传输失败的记录同样不再重新提供.
func (s *DiscoveryService) FilterNew(ctx context.Context, instrumentID uint, files []transfer.DiscoveredFile) ([]transfer.DiscoveredFile, error) {
	if len(files) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	var known []string
	if err := s.db.WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("instrument_id = ? AND source_path IN ?", instrumentID, paths).
		Pluck("source_path", &known).Error; err != nil {
		return nil, fmt.Errorf("query known files: %w", err)
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, p := range known {
		knownSet[p] = struct{}{}
	}

	fresh := make([]transfer.DiscoveredFile, 0, len(files))

	for _, f := range files {
		if _, ok := knownSet[f.Path]; !ok {
			fresh = append(fresh, f)
		}
	}

	return fresh, nil
}
