package service

import (
	"context"
	"fmt"

	"prawncare-monitor/internal/config"
	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"
	"prawncare-monitor/internal/mqtt"
	"prawncare-monitor/internal/notify"
	"prawncare-monitor/internal/reminder"
	"prawncare-monitor/internal/repository"
	"prawncare-monitor/internal/scheduler"
	"prawncare-monitor/internal/telemetry"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MonitorService 池塘监控服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *database.ResilientDB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	scheduleRepo  *repository.ScheduleRepository
	thresholdRepo *repository.ThresholdRepository
	workerRepo    *repository.WorkerRepository
	tokenRepo     *repository.DeviceTokenRepository
	archiveRepo   *repository.SensorArchiveRepository
	reminderStore *reminder.Store
	fetcher       *telemetry.Fetcher
	snapshotCache *telemetry.SnapshotCache
	hub           *notify.Hub
	push          *notify.PushClient
	dispatcher    *notify.Dispatcher
	scheduler     *scheduler.Scheduler
	mqttClient    *mqtt.Client
}

// NewMonitorService 创建监控服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库（带重连封装，所有 Repository 共享）
	db, err := database.NewResilientDBFromConfig(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	scheduleRepo := repository.NewScheduleRepository(db, logger)
	thresholdRepo := repository.NewThresholdRepository(db, logger)
	workerRepo := repository.NewWorkerRepository(db, logger)
	tokenRepo := repository.NewDeviceTokenRepository(db, logger)
	archiveRepo := repository.NewSensorArchiveRepository(db, logger)

	// 4. 创建去重存储和遥测组件
	reminderStore := reminder.NewStore()
	fetcher := telemetry.NewFetcher(&cfg.Sensor, logger)
	snapshotCache := telemetry.NewSnapshotCache(redisClient, cfg.Monitor.SnapshotCacheTTL, logger)

	// 5. 创建通知通道（推送凭证在此一次性解析，缺失则通道禁用）
	hub := notify.NewHub(logger)
	push := notify.NewPushClient(&cfg.Push, logger)
	email := notify.NewSMTPSender(&cfg.SMTP, logger)
	dispatcher := notify.NewDispatcher(hub, push, email, &cfg.Push, logger)

	// 6. 创建调度器
	sched := scheduler.NewScheduler(
		&cfg.Monitor,
		fetcher,
		scheduleRepo,
		thresholdRepo,
		workerRepo,
		archiveRepo,
		snapshotCache,
		reminderStore,
		dispatcher,
		logger,
	)

	s := &MonitorService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		logger:        logger,
		scheduleRepo:  scheduleRepo,
		thresholdRepo: thresholdRepo,
		workerRepo:    workerRepo,
		tokenRepo:     tokenRepo,
		archiveRepo:   archiveRepo,
		reminderStore: reminderStore,
		fetcher:       fetcher,
		snapshotCache: snapshotCache,
		hub:           hub,
		push:          push,
		dispatcher:    dispatcher,
		scheduler:     sched,
	}

	// 7. 硬件 MQTT 推送接入（可选，Broker 未配置或连不上时只走 HTTP 拉取）
	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			logger.Warn("MQTT broker unreachable, hardware push ingest disabled",
				zap.String("broker", cfg.MQTT.Broker),
				zap.Error(err),
			)
		} else {
			s.mqttClient = mqttClient
		}
	}

	return s, nil
}

// Start 启动服务（阻塞到 ctx 取消）
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service",
		zap.String("pond_id", s.config.Sensor.PondID),
	)

	if s.mqttClient != nil {
		ingest := mqtt.NewTelemetryIngest(s.snapshotCache, s.config.Sensor.PondID, s.logger)
		if err := s.mqttClient.Subscribe(s.config.MQTT.Topic, s.config.MQTT.QoS, ingest.HandleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to telemetry topic: %w", err)
		}
		s.logger.Info("Hardware push ingest started",
			zap.String("topic", s.config.MQTT.Topic),
		)
	}

	s.scheduler.Run(ctx)
	return nil
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// Hub 实时广播中心（供 HTTP 层挂载 /ws 路由）
func (s *MonitorService) Hub() *notify.Hub {
	return s.hub
}

// ListActiveReminders 列出当前活跃的喂食提醒
func (s *MonitorService) ListActiveReminders() []models.Reminder {
	return s.reminderStore.ListActive()
}

// AcknowledgeReminder 确认一条喂食提醒
// 返回是否存在对应的活跃提醒；确认未知 feeding_id 不是错误
func (s *MonitorService) AcknowledgeReminder(feedingID string) bool {
	removed := s.reminderStore.Acknowledge(feedingID)
	if removed {
		s.logger.Info("Feeding reminder acknowledged",
			zap.String("feeding_id", feedingID),
		)
	}
	return removed
}

// RegisterDeviceToken 幂等注册推送设备令牌
// 写库成功即注册成功；主题订阅是尽力而为，失败只记日志
func (s *MonitorService) RegisterDeviceToken(ctx context.Context, token string, workerID *string) (*models.DeviceToken, error) {
	dt, err := s.tokenRepo.Upsert(ctx, token, workerID)
	if err != nil {
		return nil, err
	}

	if s.push.Enabled() {
		for _, topic := range []string{s.config.Push.Topic, s.config.Push.AlertTopic} {
			if err := s.push.SubscribeToken(ctx, token, topic); err != nil {
				s.logger.Warn("Topic subscription failed, registration kept",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		}
	}

	return dt, nil
}

// TriggerConditionCheck 手动触发一次状态检查周期
func (s *MonitorService) TriggerConditionCheck(ctx context.Context) (*models.DispatchReport, error) {
	return s.scheduler.RunConditionScan(ctx)
}

// LatestSnapshot 读取最新遥测快照（缓存）
func (s *MonitorService) LatestSnapshot(ctx context.Context) (*models.TelemetrySnapshot, error) {
	return s.snapshotCache.Get(ctx, s.config.Sensor.PondID)
}

// RecentArchive 读取最近的归档遥测
func (s *MonitorService) RecentArchive(ctx context.Context, limit int) ([]models.TelemetrySnapshot, error) {
	return s.archiveRepo.ListRecent(ctx, limit)
}
