package respond

// ActiveConnectionsRespond 在线连接数监控响应
// 使用位置:
//   - internal/handler/chat_handler.go: AdminActiveConnections
type ActiveConnectionsRespond struct {
	ClientConnections   int          `json:"client_connections"`
	AdminConnections    int          `json:"admin_connections"`
	ActiveConversations int          `json:"active_conversations"`
	ConversationDetails map[uint]int `json:"conversation_details"`
}
