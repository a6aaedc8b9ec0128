package models

import "time"

// FeedingScheduleEntry 喂食计划条目（数据库只读）
type FeedingScheduleEntry struct {
	FeedingID string `json:"feeding_id"`
	PondID    string `json:"pond_id"`
	// FeedTime 每日喂食时刻，格式 "HH:MM:SS"
	FeedTime string `json:"feed_time"`
}

// Reminder 喂食提醒
// 生命周期：由喂食扫描创建，进入去重存储，只有显式确认才会移除
type Reminder struct {
	ReminderID   string    `json:"reminder_id"`
	FeedingID    string    `json:"feeding_id"`
	PondID       string    `json:"pond_id"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// WorkerContact 工人联系方式（告警邮件收件人）
type WorkerContact struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// DeviceToken 移动端推送设备令牌
type DeviceToken struct {
	Token        string    `json:"token"`
	WorkerID     *string   `json:"worker_id,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
