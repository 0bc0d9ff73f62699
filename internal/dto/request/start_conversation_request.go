package request

// StartConversationRequest 发起会话请求
// 访客身份字段和 session_key 由聊天挂件生成；登录用户可以全部留空
// 使用位置:
//   - internal/handler/chat_handler.go: StartConversationHandler
//   - internal/service/conversation/service.go: Start
type StartConversationRequest struct {
	VisitorName    string `json:"visitor_name" binding:"omitempty,max=100"`
	VisitorEmail   string `json:"visitor_email" binding:"omitempty,email"`
	VisitorPhone   string `json:"visitor_phone" binding:"omitempty,max=32"`
	SessionKey     string `json:"session_key" binding:"omitempty,max=64"`
	Subject        string `json:"subject" binding:"omitempty,max=200"`
	InitialMessage string `json:"initial_message" binding:"omitempty"`
}
