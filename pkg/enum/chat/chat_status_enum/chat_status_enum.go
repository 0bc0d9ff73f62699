// Package chat_status_enum 定义会话状态枚举
package chat_status_enum

// 会话状态
// open 为初始状态，closed 为终止状态（只能通过显式关闭进入）
const (
	Open    = "open"    // 进行中
	Pending = "pending" // 等待客服处理
	Closed  = "closed"  // 已关闭，拒绝新消息
)
