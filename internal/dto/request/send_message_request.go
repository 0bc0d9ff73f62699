package request

// SendMessageRequest 会话内发消息请求
// 使用位置:
//   - internal/handler/chat_handler.go: SendMessageHandler
//   - internal/service/conversation/service.go: SendMessage
type SendMessageRequest struct {
	Content        string `json:"content" binding:"required"`
	MessageType    string `json:"message_type" binding:"omitempty,oneof=text image file system"`
	AttachmentUrl  string `json:"attachment_url" binding:"omitempty,max=500"`
	AttachmentName string `json:"attachment_name" binding:"omitempty,max=255"`
	AttachmentSize int64  `json:"attachment_size" binding:"omitempty,min=0"`
}
