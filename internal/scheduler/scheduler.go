package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"prawncare-monitor/internal/config"
	"prawncare-monitor/internal/evaluator"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// TelemetryFetcher 硬件遥测拉取接口
type TelemetryFetcher interface {
	Fetch(ctx context.Context) (*models.TelemetrySnapshot, error)
}

// ScheduleSource 喂食计划查询接口
type ScheduleSource interface {
	GetEntriesInWindow(ctx context.Context, from, to time.Time) ([]models.FeedingScheduleEntry, error)
}

// ThresholdSource 阈值配置查询接口
type ThresholdSource interface {
	GetThresholds(ctx context.Context) (*models.ThresholdConfig, error)
}

// ContactSource 工人联系方式查询接口
type ContactSource interface {
	GetContacts(ctx context.Context) ([]models.WorkerContact, error)
}

// Archiver 遥测归档接口
type Archiver interface {
	Insert(ctx context.Context, snapshot *models.TelemetrySnapshot) error
}

// SnapshotCacher 最新快照缓存接口
type SnapshotCacher interface {
	Set(ctx context.Context, snapshot *models.TelemetrySnapshot) error
}

// ReminderStore 提醒去重存储接口
type ReminderStore interface {
	TryCreate(entry models.FeedingScheduleEntry, now time.Time) (*models.Reminder, bool)
}

// Dispatcher 通知分发接口
type Dispatcher interface {
	DispatchReminder(ctx context.Context, r *models.Reminder) *models.DispatchReport
	DispatchAlerts(ctx context.Context, snapshot *models.TelemetrySnapshot, conditions []models.AlertCondition, recipients []string) *models.DispatchReport
}

// Scheduler 定时调度器
// 三个互不依赖的周期循环：喂食扫描、状态检查、遥测归档
// 循环之间只通过去重存储和数据库连接共享状态（两者都是并发安全的）
// 任何一次 tick 的错误都在 tick 边界被记录并吞掉，循环永不终止
type Scheduler struct {
	config     *config.MonitorConfig
	fetcher    TelemetryFetcher
	schedules  ScheduleSource
	thresholds ThresholdSource
	workers    ContactSource
	archive    Archiver
	cache      SnapshotCacher
	store      ReminderStore
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewScheduler 创建调度器
func NewScheduler(
	cfg *config.MonitorConfig,
	fetcher TelemetryFetcher,
	schedules ScheduleSource,
	thresholds ThresholdSource,
	workers ContactSource,
	archive Archiver,
	cache SnapshotCacher,
	store ReminderStore,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:     cfg,
		fetcher:    fetcher,
		schedules:  schedules,
		thresholds: thresholds,
		workers:    workers,
		archive:    archive,
		cache:      cache,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run 启动三个周期循环，阻塞到 ctx 取消
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started",
		zap.Duration("feeding_scan_interval", s.config.FeedingScanInterval),
		zap.Duration("condition_scan_interval", s.config.ConditionScanInterval),
		zap.Duration("archive_interval", s.config.ArchiveInterval),
	)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		s.loop(ctx, "feeding_scan", s.config.FeedingScanInterval, s.feedingScanTick)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "condition_scan", s.config.ConditionScanInterval, s.conditionScanTick)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "archive", s.config.ArchiveInterval, s.archiveTick)
	}()

	wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// loop 周期循环：启动时立即执行一次，之后按间隔执行
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler loop stopped",
				zap.String("loop", name),
			)
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// feedingScanTick 喂食扫描
// 当前时间取整到分钟，查询前瞻窗口内的计划条目；
// 去重存储保证同一 feeding_id 在确认前只分发一次
func (s *Scheduler) feedingScanTick(ctx context.Context) {
	now := time.Now().Truncate(time.Minute)
	from := now
	to := now.Add(s.config.FeedingLookahead)

	entries, err := s.schedules.GetEntriesInWindow(ctx, from, to)
	if err != nil {
		s.logger.Error("Feeding scan failed to load schedule",
			zap.Error(err),
		)
		return
	}

	for _, entry := range entries {
		r, created := s.store.TryCreate(entry, now)
		if !created {
			continue
		}
		s.logger.Info("Feeding reminder created",
			zap.String("feeding_id", entry.FeedingID),
			zap.String("pond_id", entry.PondID),
			zap.String("feed_time", entry.FeedTime),
		)
		s.dispatcher.DispatchReminder(ctx, r)
	}
}

// conditionScanTick 状态检查
// 失败只跳过本次 tick，不把任何部分状态带入下一个周期
func (s *Scheduler) conditionScanTick(ctx context.Context) {
	if _, err := s.RunConditionScan(ctx); err != nil {
		s.logger.Error("Condition scan skipped",
			zap.Error(err),
		)
	}
}

// RunConditionScan 执行一次完整的状态检查周期
// 手动触发接口复用同一逻辑；没有越界时返回 (nil, nil)
func (s *Scheduler) RunConditionScan(ctx context.Context) (*models.DispatchReport, error) {
	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry fetch failed: %w", err)
	}

	// 刷新快照缓存，失败不影响本次评估
	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.logger.Warn("Failed to update snapshot cache",
			zap.Error(err),
		)
	}

	thresholds, err := s.thresholds.GetThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("threshold load failed: %w", err)
	}

	conditions, err := evaluator.Evaluate(snapshot, thresholds)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	if len(conditions) == 0 {
		return nil, nil
	}

	s.logger.Warn("Threshold violations detected",
		zap.String("pond_id", snapshot.PondID),
		zap.Int("condition_count", len(conditions)),
	)

	// 收件人加载失败时仍然分发：广播和推送不依赖邮件收件人
	var recipients []string
	contacts, err := s.workers.GetContacts(ctx)
	if err != nil {
		s.logger.Error("Failed to load worker contacts, alert email skipped",
			zap.Error(err),
		)
	} else {
		for _, c := range contacts {
			recipients = append(recipients, c.Email)
		}
	}

	return s.dispatcher.DispatchAlerts(ctx, snapshot, conditions, recipients), nil
}

// archiveTick 遥测归档
// 失败直接跳过，等下一个周期，不做内部重试
func (s *Scheduler) archiveTick(ctx context.Context) {
	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("Archive tick skipped, telemetry fetch failed",
			zap.Error(err),
		)
		return
	}

	if err := s.archive.Insert(ctx, snapshot); err != nil {
		s.logger.Error("Failed to archive telemetry snapshot",
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Telemetry snapshot archived",
		zap.String("pond_id", snapshot.PondID),
		zap.Time("captured_at", snapshot.CapturedAt),
	)
}
