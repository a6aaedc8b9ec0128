package models

import "time"

// 通知通道名称
const (
	ChannelRealtime = "realtime"
	ChannelPush     = "push"
	ChannelEmail    = "email"
)

// 单通道分发状态
const (
	DispatchSent    = "sent"
	DispatchFailed  = "failed"
	DispatchSkipped = "skipped"
)

// ChannelResult 单个通知通道的分发结果
type ChannelResult struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// DispatchReport 一次分发的汇总报告（每个通道一条记录）
type DispatchReport struct {
	Event    string          `json:"event"`
	SentAt   time.Time       `json:"sent_at"`
	Channels []ChannelResult `json:"channels"`
}

// Succeeded 返回成功送达的通道数
func (r *DispatchReport) Succeeded() int {
	n := 0
	for _, c := range r.Channels {
		if c.Status == DispatchSent {
			n++
		}
	}
	return n
}
