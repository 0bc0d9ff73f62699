package respond

// ChatStatsRespond 后台聊天统计响应
// 使用位置:
//   - internal/service/conversation/service.go: Stats
type ChatStatsRespond struct {
	TotalConversations int64   `json:"total_conversations"`
	OpenConversations  int64   `json:"open_conversations"`
	TodayConversations int64   `json:"today_conversations"`
	AverageRating      float64 `json:"average_rating"`
}
