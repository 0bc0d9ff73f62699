package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stelle_world_server/internal/config"
	"stelle_world_server/pkg/errorx"
)

// telegramChannel Telegram Bot 通知渠道
// 通过 Bot API 的 sendMessage 接口向固定 Chat 推送管理员告警
type telegramChannel struct {
	botToken string
	chatId   string
	client   *http.Client
}

// NewTelegramChannel 创建 Telegram 渠道
// Bot Token 或 Chat ID 未配置时返回 nil，表示该渠道关闭
func NewTelegramChannel(cfg config.TelegramConfig) Channel {
	if cfg.BotToken == "" || cfg.ChatId == "" {
		return nil
	}
	return &telegramChannel{
		botToken: cfg.BotToken,
		chatId:   cfg.ChatId,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *telegramChannel) Name() string { return "telegram" }

// telegramSendRequest sendMessage 请求体
type telegramSendRequest struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Send 推送消息
// recipient 为空时使用配置的默认 Chat ID
func (t *telegramChannel) Send(recipient string, message string) error {
	chatId := recipient
	if chatId == "" || chatId == "admin" {
		chatId = t.chatId
	}

	body, err := json.Marshal(telegramSendRequest{
		ChatId: chatId,
		Text:   message,
	})
	if err != nil {
		return errorx.Wrap(err, errorx.CodeNotifyError, "telegram 请求序列化失败")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return errorx.Wrap(err, errorx.CodeNotifyError, "telegram 请求失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorx.Newf(errorx.CodeNotifyError, "telegram 返回状态码 %d", resp.StatusCode)
	}
	return nil
}
