package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"prawncare-monitor/internal/config"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// 实时广播事件名
const (
	EventFeedingReminder = "feeding.reminder"
	EventSensorAlert     = "sensor.alert"
)

// RealtimeEmitter 实时广播通道
type RealtimeEmitter interface {
	Emit(event string, payload any) error
}

// PushSender 移动端推送通道
type PushSender interface {
	Enabled() bool
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
}

// EmailSender 邮件通道
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Dispatcher 通知分发器
// 三个通道并发、相互独立地尝试送达：推送服务故障不会压制广播和邮件
// 任何通道失败都只进入报告，绝不向决策逻辑传播
type Dispatcher struct {
	realtime   RealtimeEmitter
	push       PushSender
	email      EmailSender
	topic      string
	alertTopic string
	logger     *zap.Logger
}

// NewDispatcher 创建分发器
func NewDispatcher(realtime RealtimeEmitter, push PushSender, email EmailSender, cfg *config.PushConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		realtime:   realtime,
		push:       push,
		email:      email,
		topic:      cfg.Topic,
		alertTopic: cfg.AlertTopic,
		logger:     logger,
	}
}

// DispatchReminder 分发一条喂食提醒
// 喂食扫描不加载工人联系方式，邮件通道记为 skipped
func (d *Dispatcher) DispatchReminder(ctx context.Context, r *models.Reminder) *models.DispatchReport {
	return d.dispatch(ctx, dispatchParams{
		event:   EventFeedingReminder,
		payload: r,
		topic:   d.topic,
		title:   "Feeding Reminder",
		body:    r.Message,
		data: map[string]string{
			"feeding_id": r.FeedingID,
			"pond_id":    r.PondID,
		},
		subject: "Feeding Reminder",
	})
}

// DispatchAlerts 分发一组阈值告警
func (d *Dispatcher) DispatchAlerts(ctx context.Context, snapshot *models.TelemetrySnapshot, conditions []models.AlertCondition, recipients []string) *models.DispatchReport {
	messages := make([]string, 0, len(conditions))
	for _, c := range conditions {
		messages = append(messages, c.Message)
	}
	body := strings.Join(messages, "\n")

	return d.dispatch(ctx, dispatchParams{
		event: EventSensorAlert,
		payload: map[string]any{
			"pond_id":     snapshot.PondID,
			"conditions":  conditions,
			"captured_at": snapshot.CapturedAt,
		},
		topic: d.alertTopic,
		title: "Pond Sensor Alert",
		body:  body,
		data: map[string]string{
			"pond_id": snapshot.PondID,
		},
		recipients: recipients,
		subject:    "Pond Sensor Alert - " + snapshot.PondID,
	})
}

type dispatchParams struct {
	event      string
	payload    any
	topic      string
	title      string
	body       string
	data       map[string]string
	recipients []string
	subject    string
}

// dispatch 并发尝试三个通道并汇总报告
// 没有 fail-fast：每个通道独立尝试，结果固定顺序写入报告
func (d *Dispatcher) dispatch(ctx context.Context, p dispatchParams) *models.DispatchReport {
	report := &models.DispatchReport{
		Event:  p.event,
		SentAt: time.Now(),
		Channels: []models.ChannelResult{
			{Channel: models.ChannelRealtime},
			{Channel: models.ChannelPush},
			{Channel: models.ChannelEmail},
		},
	}

	var wg sync.WaitGroup
	wg.Add(3)

	// 实时广播：fire-and-forget
	go func() {
		defer wg.Done()
		if err := d.realtime.Emit(p.event, p.payload); err != nil {
			d.logger.Error("Realtime broadcast failed",
				zap.String("event", p.event),
				zap.Error(err),
			)
			report.Channels[0].Status = models.DispatchFailed
			report.Channels[0].Error = err.Error()
			return
		}
		report.Channels[0].Status = models.DispatchSent
	}()

	// 移动端推送：未初始化记为 skipped，避免报告误报
	go func() {
		defer wg.Done()
		if !d.push.Enabled() {
			report.Channels[1].Status = models.DispatchSkipped
			report.Channels[1].Error = "push client not initialized"
			return
		}
		if err := d.push.SendToTopic(ctx, p.topic, p.title, p.body, p.data); err != nil {
			d.logger.Error("Push notification failed",
				zap.String("topic", p.topic),
				zap.Error(err),
			)
			report.Channels[1].Status = models.DispatchFailed
			report.Channels[1].Error = err.Error()
			return
		}
		report.Channels[1].Status = models.DispatchSent
	}()

	// 邮件：尽力而为，失败只记录
	go func() {
		defer wg.Done()
		if len(p.recipients) == 0 {
			report.Channels[2].Status = models.DispatchSkipped
			report.Channels[2].Error = "no recipients"
			return
		}
		if err := d.email.Send(ctx, p.recipients, p.subject, p.body); err != nil {
			d.logger.Error("Email delivery failed",
				zap.Int("recipient_count", len(p.recipients)),
				zap.Error(err),
			)
			report.Channels[2].Status = models.DispatchFailed
			report.Channels[2].Error = err.Error()
			return
		}
		report.Channels[2].Status = models.DispatchSent
	}()

	wg.Wait()

	d.logger.Info("Dispatch completed",
		zap.String("event", p.event),
		zap.Int("sent", report.Succeeded()),
	)

	return report
}
