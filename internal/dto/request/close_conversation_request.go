package request

// CloseConversationRequest 关闭会话请求
// 评价和反馈可选，评价只允许 1-5 星
// 使用位置:
//   - internal/handler/chat_handler.go: CloseConversationHandler
//   - internal/service/conversation/service.go: Close
type CloseConversationRequest struct {
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback" binding:"omitempty,max=2000"`
}
