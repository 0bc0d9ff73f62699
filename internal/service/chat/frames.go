// Package chat 实现了客服聊天系统的核心服务层
// frames.go
// 核心职责：WebSocket 帧的定义和构造
// 入站帧在连接边界解析一次成强类型结构，出站帧统一在这里组装，
// 各会话循环只操作结构体，不直接拼 JSON
package chat

import (
	"encoding/json"
	"time"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/constants"
)

// VisitorFrame 访客入站帧
type VisitorFrame struct {
	Content     string `json:"content"`
	MessageType string `json:"type"`
}

// AdminFrame 管理员入站帧
// Action 决定其余字段哪些有效
type AdminFrame struct {
	Action         string `json:"action"`
	ConversationId uint   `json:"conversation_id"`
	Content        string `json:"content"`
	AdminName      string `json:"admin_name"`
}

// 管理员动作
const (
	ActionReply            = "reply"
	ActionGetConversations = "get_conversations"
	ActionMarkRead         = "mark_read"
)

// messagePayload 出站消息帧里的消息体
type messagePayload struct {
	Id             uint   `json:"id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	SenderName     string `json:"sender_name"`
	IsFromAdmin    bool   `json:"is_from_admin"`
	CreatedAt      string `json:"created_at"`
	ConversationId uint   `json:"conversation_id"`
}

// messageFrame 会话内广播帧
type messageFrame struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

// newMessageFrame 管理员池广播帧
// 只带预览不带全文，全文由管理员拉取会话详情获得
type newMessageFrame struct {
	Type             string `json:"type"`
	ConversationId   uint   `json:"conversation_id"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	MessagePreview   string `json:"message_preview"`
	Timestamp        string `json:"timestamp"`
}

// errorFrame 错误帧
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// replySentFrame reply 动作的确认帧
type replySentFrame struct {
	Type           string `json:"type"`
	ConversationId uint   `json:"conversation_id"`
	MessageId      uint   `json:"message_id"`
}

// conversationSummary 会话列表项
type conversationSummary struct {
	Id               uint   `json:"id"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	Subject          string `json:"subject"`
	Status           string `json:"status"`
	AdminAssigned    string `json:"admin_assigned"`
	MessageCount     int64  `json:"message_count"`
	UnreadCount      int64  `json:"unread_count"`
	LastMessageAt    string `json:"last_message_at"`
	CreatedAt        string `json:"created_at"`
}

// conversationsListFrame get_conversations 动作的确认帧
type conversationsListFrame struct {
	Type          string                `json:"type"`
	Conversations []conversationSummary `json:"conversations"`
}

// markedReadFrame mark_read 动作的确认帧
type markedReadFrame struct {
	Type           string `json:"type"`
	ConversationId uint   `json:"conversation_id"`
	Count          int64  `json:"count"`
}

// MarshalMessageFrame 构造会话内广播帧
func MarshalMessageFrame(message *model.Message, conversation *model.Conversation) ([]byte, error) {
	return json.Marshal(messageFrame{
		Type: "message",
		Message: messagePayload{
			Id:             message.ID,
			Content:        message.Content,
			MessageType:    message.MessageType,
			SenderName:     message.SenderName(conversation),
			IsFromAdmin:    message.IsFromAdmin,
			CreatedAt:      message.CreatedAt.Format(time.RFC3339),
			ConversationId: message.ConversationId,
		},
	})
}

// MarshalNewMessageFrame 构造管理员池广播帧
func MarshalNewMessageFrame(message *model.Message, conversation *model.Conversation) ([]byte, error) {
	return json.Marshal(newMessageFrame{
		Type:             "new_message",
		ConversationId:   conversation.ID,
		ParticipantName:  conversation.ParticipantName(),
		ParticipantEmail: conversation.ParticipantEmail(),
		MessagePreview:   Preview(message.Content),
		Timestamp:        message.CreatedAt.Format(time.RFC3339),
	})
}

// MarshalErrorFrame 构造错误帧
func MarshalErrorFrame(text string) []byte {
	data, _ := json.Marshal(errorFrame{Type: "error", Message: text})
	return data
}

// Preview 截取消息预览
// 超过上限按字符（rune）截断并追加省略号
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= constants.MESSAGE_PREVIEW_LEN {
		return content
	}
	return string(runes[:constants.MESSAGE_PREVIEW_LEN]) + "..."
}
