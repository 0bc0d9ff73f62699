package request

// AdminReplyRequest 客服回复请求
// 使用位置:
//   - internal/handler/chat_handler.go: AdminReplyHandler
//   - internal/service/conversation/service.go: AdminReply
type AdminReplyRequest struct {
	Content   string `json:"content" binding:"required"`
	AdminName string `json:"admin_name" binding:"omitempty,max=100"`
}
