// Package queue 定义消息主题常量与负载结构，供发布/订阅使用.
package queue

// 主题命名规范：sw.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：harvest(采集管线)、access(访问授权)
// 动作/状态：completed(运行完成)、harvested(文件入库)、skipped、failed、granted

const (
	// 采集管线领域.
	TopicHarvestRunCompleted = "sw.harvest.run.completed" // 一次采集运行结束（含各项计数）
	TopicFileHarvested       = "sw.harvest.file.harvested" // 单个文件传输完成并入库
	TopicFileSkipped         = "sw.harvest.file.skipped"   // 文件被前置钩子跳过
	TopicFileFailed          = "sw.harvest.file.failed"    // 文件传输失败

	// 访问授权领域.
	TopicAccessGranted = "sw.access.granted" // 创建了新的访问授权
)

// 主题分组，用于批量订阅.
var (
	// HarvestTopics 采集相关主题集合.
	HarvestTopics = []string{
		TopicHarvestRunCompleted, TopicFileHarvested,
		TopicFileSkipped, TopicFileFailed,
	}

	// AccessTopics 访问授权相关主题集合.
	AccessTopics = []string{TopicAccessGranted}
)
