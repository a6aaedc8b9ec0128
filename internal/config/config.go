package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（Broker 为空时禁用硬件推送接入）
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// SensorConfig 硬件遥测源配置
type SensorConfig struct {
	BaseURL      string
	PondID       string
	FetchTimeout time.Duration
}

// MonitorConfig 监控引擎配置
type MonitorConfig struct {
	FeedingScanInterval   time.Duration
	ConditionScanInterval time.Duration
	ArchiveInterval       time.Duration
	FeedingLookahead      time.Duration
	SnapshotCacheTTL      time.Duration
}

// PushConfig 移动端推送配置（ServerKey 为空时推送通道以 disabled 模式运行）
type PushConfig struct {
	ServerKey  string
	Topic      string
	AlertTopic string
}

// SMTPConfig 邮件发送配置
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config 监控服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Sensor   SensorConfig
	Monitor  MonitorConfig
	Push     PushConfig
	SMTP     SMTPConfig

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "prawncare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "prawncare-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "prawncare/telemetry")
	cfg.MQTT.QoS = 1

	cfg.Sensor.BaseURL = getEnv("SENSOR_BASE_URL", "http://localhost:8081")
	cfg.Sensor.PondID = getEnv("SENSOR_POND_ID", "pond-1")
	cfg.Sensor.FetchTimeout = getEnvDuration("SENSOR_FETCH_TIMEOUT", 30*time.Second)

	cfg.Monitor.FeedingScanInterval = getEnvDuration("MONITOR_FEEDING_SCAN_INTERVAL", 60*time.Second)
	cfg.Monitor.ConditionScanInterval = getEnvDuration("MONITOR_CONDITION_SCAN_INTERVAL", 60*time.Second)
	cfg.Monitor.ArchiveInterval = getEnvDuration("MONITOR_ARCHIVE_INTERVAL", 6*time.Hour)
	cfg.Monitor.FeedingLookahead = getEnvDuration("MONITOR_FEEDING_LOOKAHEAD", 15*time.Minute)
	cfg.Monitor.SnapshotCacheTTL = getEnvDuration("MONITOR_SNAPSHOT_CACHE_TTL", 5*time.Minute)

	cfg.Push.ServerKey = getEnv("FCM_SERVER_KEY", "")
	cfg.Push.Topic = getEnv("FCM_FEEDING_TOPIC", "feeding")
	cfg.Push.AlertTopic = getEnv("FCM_ALERT_TOPIC", "alerts")

	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", "noreply@prawncare.local")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
