package respond

import (
	"time"

	"stelle_world_server/internal/model"
)

// MessageRespond 消息响应
// 使用位置:
//   - internal/service/conversation/service.go: Get, SendMessage, AdminReply
type MessageRespond struct {
	Id             uint   `json:"id"`
	ConversationId uint   `json:"conversation_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	SenderName     string `json:"sender_name"`
	IsFromAdmin    bool   `json:"is_from_admin"`
	AttachmentUrl  string `json:"attachment_url,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentSize int64  `json:"attachment_size,omitempty"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
}

// ConversationRespond 会话详情响应
// 使用位置:
//   - internal/service/conversation/service.go: Start, Get, List
type ConversationRespond struct {
	Id              uint             `json:"id"`
	ParticipantName string           `json:"participant_name"`
	SessionKey      string           `json:"session_key"`
	Status          string           `json:"status"`
	Subject         string           `json:"subject"`
	AdminAssigned   string           `json:"admin_assigned"`
	Rating          *int             `json:"rating"`
	Feedback        string           `json:"feedback,omitempty"`
	CreatedAt       string           `json:"created_at"`
	LastMessageAt   string           `json:"last_message_at,omitempty"`
	ClosedAt        string           `json:"closed_at,omitempty"`
	Messages        []MessageRespond `json:"messages,omitempty"`
}

// NewMessageRespond 从模型构造消息响应
func NewMessageRespond(message *model.Message, conversation *model.Conversation) MessageRespond {
	return MessageRespond{
		Id:             message.ID,
		ConversationId: message.ConversationId,
		Content:        message.Content,
		MessageType:    message.MessageType,
		SenderName:     message.SenderName(conversation),
		IsFromAdmin:    message.IsFromAdmin,
		AttachmentUrl:  message.AttachmentUrl,
		AttachmentName: message.AttachmentName,
		AttachmentSize: message.AttachmentSize,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt.Format(time.RFC3339),
	}
}

// NewConversationRespond 从模型构造会话响应，messages 可以为 nil
func NewConversationRespond(conversation *model.Conversation, messages []model.Message) ConversationRespond {
	resp := ConversationRespond{
		Id:              conversation.ID,
		ParticipantName: conversation.ParticipantName(),
		SessionKey:      conversation.SessionKey,
		Status:          conversation.Status,
		Subject:         conversation.Subject,
		AdminAssigned:   conversation.AdminAssigned,
		Rating:          conversation.Rating,
		Feedback:        conversation.Feedback,
		CreatedAt:       conversation.CreatedAt.Format(time.RFC3339),
	}
	if conversation.LastMessageAt.Valid {
		resp.LastMessageAt = conversation.LastMessageAt.Time.Format(time.RFC3339)
	}
	if conversation.ClosedAt.Valid {
		resp.ClosedAt = conversation.ClosedAt.Time.Format(time.RFC3339)
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, NewMessageRespond(&messages[i], conversation))
	}
	return resp
}
