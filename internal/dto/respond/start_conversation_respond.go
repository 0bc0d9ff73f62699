package respond

// StartConversationRespond 发起会话响应
// Status 为 "created" 或 "existing"（同一 session_key 命中了仍打开的会话）
// 使用位置:
//   - internal/service/conversation/service.go: Start
type StartConversationRespond struct {
	ConversationId uint   `json:"conversation_id"`
	SessionKey     string `json:"session_key"`
	Status         string `json:"status"`
}
