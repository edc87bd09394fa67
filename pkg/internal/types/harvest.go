// Package types 定义 HTTP 请求与响应的结构体.
package types

// TriggerHarvestRequest 手动触发一次采集运行的请求体.
type TriggerHarvestRequest struct {
	InstrumentID uint `json:"instrument_id" binding:"required"`
	ScheduleID   uint `json:"schedule_id"   binding:"required"`
}

// HarvestRunResponse 单次采集运行结束后的计数汇总.
type HarvestRunResponse struct {
	InstrumentID uint `json:"instrument_id"`
	ScheduleID   uint `json:"schedule_id"`
	Discovered   int  `json:"discovered"`
	New          int  `json:"new"`
	Transferred  int  `json:"transferred"`
	Skipped      int  `json:"skipped"`
	Failed       int  `json:"failed"`
}
