package request

// AdminConversationListRequest 后台会话分页查询参数
// 使用位置:
//   - internal/handler/chat_handler.go: AdminConversationListHandler
//   - internal/service/conversation/service.go: AdminList
type AdminConversationListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=open pending closed"`
	Skip   int    `form:"skip" binding:"omitempty,min=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
