// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"stelle_world_server/internal/dao/mysql/repository"
	myredis "stelle_world_server/internal/dao/redis"
	"stelle_world_server/internal/service/auth"
	"stelle_world_server/internal/service/chat"
	"stelle_world_server/internal/service/conversation"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	Auth         AuthService         // 认证 Service
	Conversation ConversationService // 会话 Service
	Chat         *chat.ChatService   // 聊天核心 Service（注册表 + 投递管线）
}

// NewServices 创建并注入所有 Service 实例
// repos: Repository 层聚合实例
// chatService: 已创建好的聊天核心（main 中先于 Services 构造，注入通知器）
// cacheService: 缓存服务，可以为 nil
func NewServices(
	repos *repository.Repositories,
	chatService *chat.ChatService,
	cacheService myredis.AsyncCacheService,
) *Services {
	return &Services{
		Auth:         auth.NewAuthService(repos),
		Conversation: conversation.NewConversationService(repos, chatService, cacheService),
		Chat:         chatService,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Conversation.Start() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository 初始化之后
func InitServices(
	repos *repository.Repositories,
	chatService *chat.ChatService,
	cacheService myredis.AsyncCacheService,
) {
	Svc = NewServices(repos, chatService, cacheService)
}
