package notify

import (
	"stelle_world_server/internal/config"

	"gopkg.in/gomail.v2"
)

// emailChannel 邮件通知渠道（SMTP）
type emailChannel struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailChannel 创建邮件渠道
// SMTP 地址未配置时返回 nil，表示该渠道关闭
func NewEmailChannel(cfg config.EmailConfig) Channel {
	if cfg.SmtpHost == "" {
		return nil
	}
	return &emailChannel{
		dialer: gomail.NewDialer(cfg.SmtpHost, cfg.SmtpPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (e *emailChannel) Name() string { return "email" }

// Send 发送通知邮件
// 正文第一行作为主题的补充说明意义不大，这里统一使用固定主题
func (e *emailChannel) Send(recipient string, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", "StelleWorld 通知")
	m.SetBody("text/plain", message)
	return e.dialer.DialAndSend(m)
}
