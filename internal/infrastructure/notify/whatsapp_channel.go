package notify

import (
	"net/url"

	"go.uber.org/zap"

	"stelle_world_server/internal/config"
)

// whatsappChannel WhatsApp 通知渠道
// 未接入 WhatsApp Business API，目前通过生成 wa.me 链接落日志，
// 由值班客服点击链接在 WhatsApp 中主动发起会话
type whatsappChannel struct {
	phoneNumber string
}

// NewWhatsAppChannel 创建 WhatsApp 渠道
// 商家号码未配置时返回 nil，表示该渠道关闭
func NewWhatsAppChannel(cfg config.WhatsAppConfig) Channel {
	if cfg.PhoneNumber == "" {
		return nil
	}
	return &whatsappChannel{phoneNumber: cfg.PhoneNumber}
}

func (w *whatsappChannel) Name() string { return "whatsapp" }

// Send 记录携带预填文本的 wa.me 链接
func (w *whatsappChannel) Send(recipient string, message string) error {
	zap.L().Info("whatsapp notification link",
		zap.String("recipient", recipient),
		zap.String("link", w.GenerateLink(message)),
	)
	return nil
}

// GenerateLink 生成带预填消息的 wa.me 链接
func (w *whatsappChannel) GenerateLink(message string) string {
	return "https://wa.me/" + w.phoneNumber + "?text=" + url.QueryEscape(message)
}
