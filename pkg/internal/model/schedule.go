package model

import (
	"time"
)

// HarvestSchedule 采集计划：仪器、默认存储位置与 cron 表达式的组合.
type HarvestSchedule struct {
	ID                       uint   `gorm:"primaryKey"   json:"id"`
	InstrumentID             uint   `gorm:"index"        json:"instrument_id"`
	DefaultStorageLocationID uint   `gorm:"index"        json:"default_storage_location_id"`
	CronExpr                 string `gorm:"size:100"     json:"cron_expr"`
	Enabled                  bool   `gorm:"default:true" json:"enabled"`

	Instrument             *Instrument      `gorm:"foreignKey:InstrumentID"             json:"-"`
	DefaultStorageLocation *StorageLocation `gorm:"foreignKey:DefaultStorageLocationID" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
