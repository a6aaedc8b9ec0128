package notify

import (
	"context"
	"fmt"
	"time"

	"prawncare-monitor/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultFCMSendURL = "https://fcm.googleapis.com/fcm/send"
	defaultIIDBaseURL = "https://iid.googleapis.com"
)

// PushClient FCM 主题推送客户端
// 凭证在进程启动时一次性解析：没有 server key 就以 disabled 模式运行，
// 分发器据此把推送记为 skipped 而不是 failed
type PushClient struct {
	httpClient *resty.Client
	serverKey  string
	sendURL    string
	iidBaseURL string
	logger     *zap.Logger
}

// NewPushClient 创建推送客户端
func NewPushClient(cfg *config.PushConfig, logger *zap.Logger) *PushClient {
	c := &PushClient{
		serverKey:  cfg.ServerKey,
		sendURL:    defaultFCMSendURL,
		iidBaseURL: defaultIIDBaseURL,
		logger:     logger,
	}

	if cfg.ServerKey == "" {
		logger.Info("FCM server key not configured, push channel disabled")
		return c
	}

	c.httpClient = resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "key="+cfg.ServerKey)

	return c
}

// Enabled 推送客户端是否完成初始化
func (c *PushClient) Enabled() bool {
	return c.httpClient != nil
}

// SendToTopic 向主题推送一条通知
func (c *PushClient) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	if !c.Enabled() {
		return fmt.Errorf("push client is disabled")
	}

	reqBody := map[string]any{
		"to": "/topics/" + topic,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post(c.sendURL)
	if err != nil {
		return fmt.Errorf("failed to call FCM: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("FCM returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	c.logger.Debug("Push notification sent",
		zap.String("topic", topic),
	)

	return nil
}

// SubscribeToken 把设备令牌订阅到主题
// 在令牌注册时调用，失败不影响注册本身（调用方只记日志）
func (c *PushClient) SubscribeToken(ctx context.Context, token, topic string) error {
	if !c.Enabled() {
		return fmt.Errorf("push client is disabled")
	}

	url := fmt.Sprintf("%s/iid/v1/%s/rel/topics/%s", c.iidBaseURL, token, topic)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to subscribe token to topic: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("topic subscription returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	c.logger.Debug("Device token subscribed to topic",
		zap.String("topic", topic),
	)

	return nil
}
