package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"prawncare-monitor/internal/config"

	"go.uber.org/zap"
)

// SMTPSender SMTP 邮件发送器
// 邮件是尽力而为的通道：发送失败由分发器记录，不会阻塞扫描循环
type SMTPSender struct {
	config *config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPSender 创建邮件发送器
func NewSMTPSender(cfg *config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		config: cfg,
		logger: logger,
	}
}

// Send 发送一封纯文本邮件
func (s *SMTPSender) Send(ctx context.Context, to []string, subject, body string) error {
	if s.config.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("Email sent",
		zap.Int("recipient_count", len(to)),
		zap.String("subject", subject),
	)

	return nil
}
