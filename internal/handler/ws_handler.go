// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 握手入口
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stelle_world_server/internal/service/chat"
)

// WsHandler WebSocket 握手处理器
type WsHandler struct {
	chatSvc *chat.ChatService
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(chatSvc *chat.ChatService) *WsHandler {
	return &WsHandler{chatSvc: chatSvc}
}

// VisitorWs 访客侧 WebSocket 入口
// GET /ws/chat/:id
// 会话不存在时握手被以 4004 关闭码拒绝
func (h *WsHandler) VisitorWs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		HandleParamError(c, err)
		return
	}
	h.chatSvc.AcceptVisitor(c.Writer, c.Request, uint(id))
}

// AdminWs 管理员侧 WebSocket 入口
// GET /ws/admin/chat
// 身份校验由路由上的 AdminAuth 中间件完成
func (h *WsHandler) AdminWs(c *gin.Context) {
	h.chatSvc.AcceptAdmin(c.Writer, c.Request)
}
