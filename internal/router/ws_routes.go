// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"stelle_world_server/internal/infrastructure/middleware"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	// 访客侧连接入口，按会话 ID 建立连接
	// 请求示例: ws://host:port/ws/chat/42
	r.GET("/ws/chat/:id", rt.handlers.Ws.VisitorWs)

	// 管理员侧连接入口，要求管理员 Token
	adminWs := r.Group("/ws/admin")
	adminWs.Use(middleware.AdminAuth())
	{
		adminWs.GET("/chat", rt.handlers.Ws.AdminWs)
	}
}
