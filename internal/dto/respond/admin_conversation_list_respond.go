package respond

// AdminConversationListRespond 后台会话分页响应
// 使用位置:
//   - internal/service/conversation/service.go: AdminList
type AdminConversationListRespond struct {
	Conversations []ConversationRespond `json:"conversations"`
	Total         int64                 `json:"total"`
	Skip          int                   `json:"skip"`
	Limit         int                   `json:"limit"`
}
