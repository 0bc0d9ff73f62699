// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"stelle_world_server/internal/dto/request"
	"stelle_world_server/internal/dto/respond"
)

// AuthService 后台认证业务接口
type AuthService interface {
	// Login 邮箱密码登录，签发访问/刷新令牌
	Login(req request.LoginRequest) (*respond.LoginRespond, error)
}

// ConversationService 客服会话业务接口
// 承载聊天挂件和后台的 REST 面；实时投递复用 chat 包的管线
type ConversationService interface {
	// Start 发起会话；同一 session_key 命中仍打开的会话时复用
	Start(userId *uint, req request.StartConversationRequest) (*respond.StartConversationRespond, error)
	// Get 会话详情和全部消息；访客查看时把未读的客服消息置为已读
	Get(id uint) (*respond.ConversationRespond, error)
	// SendMessage 会话内发消息，已关闭的会话拒绝
	SendMessage(id uint, userId *uint, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// List 当前用户的会话列表，按最近活动倒序
	List(userId uint) ([]respond.ConversationRespond, error)
	// Close 关闭会话，可附带评价和反馈
	Close(id uint, req request.CloseConversationRequest) error

	// AdminList 后台分页查询会话
	AdminList(req request.AdminConversationListRequest) (*respond.AdminConversationListRespond, error)
	// AdminReply 后台 REST 回复，和 WebSocket reply 走同一条投递管线
	AdminReply(id uint, req request.AdminReplyRequest) (*respond.MessageRespond, error)
	// Stats 后台统计快照，短 TTL 缓存
	Stats() (*respond.ChatStatsRespond, error)
}
