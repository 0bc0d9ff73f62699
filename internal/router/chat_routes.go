// Package router 提供 HTTP 路由注册
// 本文件定义客服会话 REST 相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"stelle_world_server/internal/infrastructure/middleware"
)

// RegisterChatRoutes 注册会话相关路由
// 访客端接口走可选认证：匿名访客放行，登录用户解析出归属；
// 后台接口要求管理员身份
func (rt *Router) RegisterChatRoutes(r *gin.Engine) {
	chatGroup := r.Group("/chat/conversations")
	chatGroup.Use(middleware.OptionalAuth())
	{
		chatGroup.POST("", rt.handlers.Chat.StartConversation)          // 发起会话
		chatGroup.GET("/:id", rt.handlers.Chat.GetConversation)         // 会话详情和消息
		chatGroup.POST("/:id/messages", rt.handlers.Chat.SendMessage)   // 发消息
		chatGroup.GET("", rt.handlers.Chat.ListConversations)           // 当前用户的会话列表
		chatGroup.PUT("/:id/close", rt.handlers.Chat.CloseConversation) // 关闭会话
	}

	adminGroup := r.Group("/chat/admin")
	adminGroup.Use(middleware.AdminAuth())
	{
		adminGroup.GET("/conversations", rt.handlers.Chat.AdminListConversations) // 分页查询会话
		adminGroup.POST("/conversations/:id/reply", rt.handlers.Chat.AdminReply)  // 回复会话
		adminGroup.GET("/stats", rt.handlers.Chat.AdminStats)                     // 统计快照
		// 在线连接数监控
		adminGroup.GET("/active-connections", rt.handlers.Chat.AdminActiveConnections)
	}
}
