// Package handler 提供 HTTP 请求处理器
// 本文件处理客服会话相关的 REST API 请求
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stelle_world_server/internal/dto/request"
	"stelle_world_server/internal/dto/respond"
	"stelle_world_server/internal/infrastructure/middleware"
	"stelle_world_server/internal/service"
	"stelle_world_server/internal/service/chat"
	"stelle_world_server/pkg/errorx"
)

// ChatHandler 会话请求处理器
type ChatHandler struct {
	conversationSvc service.ConversationService
	chatSvc         *chat.ChatService
}

// NewChatHandler 创建会话处理器实例
func NewChatHandler(conversationSvc service.ConversationService, chatSvc *chat.ChatService) *ChatHandler {
	return &ChatHandler{conversationSvc: conversationSvc, chatSvc: chatSvc}
}

// StartConversation 发起会话
// POST /chat/conversations
// 匿名访客和登录用户都可访问；登录用户的会话归属其账号
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req request.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.conversationSvc.Start(currentUserIdPtr(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetConversation 会话详情和全部消息
// GET /chat/conversations/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id, ok := parseConversationId(c)
	if !ok {
		return
	}
	data, err := h.conversationSvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SendMessage 会话内发消息
// POST /chat/conversations/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	id, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.conversationSvc.SendMessage(id, currentUserIdPtr(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ListConversations 当前用户的会话列表
// GET /chat/conversations
// 需要登录；匿名访客凭 session_key 走 StartConversation 的复用逻辑
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userId, ok := middleware.CurrentUserId(c)
	if !ok {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "请先登录"))
		return
	}
	data, err := h.conversationSvc.List(userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CloseConversation 关闭会话
// PUT /chat/conversations/:id/close
func (h *ChatHandler) CloseConversation(c *gin.Context) {
	id, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.CloseConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.conversationSvc.Close(id, req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AdminListConversations 后台分页查询会话
// GET /chat/admin/conversations?status=open&skip=0&limit=20
func (h *ChatHandler) AdminListConversations(c *gin.Context) {
	var req request.AdminConversationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.conversationSvc.AdminList(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// AdminReply 后台回复会话
// POST /chat/admin/conversations/:id/reply
func (h *ChatHandler) AdminReply(c *gin.Context) {
	id, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.AdminReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.conversationSvc.AdminReply(id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// AdminStats 后台统计快照
// GET /chat/admin/stats
func (h *ChatHandler) AdminStats(c *gin.Context) {
	data, err := h.conversationSvc.Stats()
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// AdminActiveConnections 在线连接数监控
// GET /chat/admin/active-connections
func (h *ChatHandler) AdminActiveConnections(c *gin.Context) {
	perConversation, adminCount := h.chatSvc.Registry.Snapshot()
	total := 0
	for _, count := range perConversation {
		total += count
	}
	HandleSuccess(c, respond.ActiveConnectionsRespond{
		ClientConnections:   total,
		AdminConnections:    adminCount,
		ActiveConversations: len(perConversation),
		ConversationDetails: perConversation,
	})
}

// parseConversationId 解析路径参数里的会话 id
// 解析失败时已写入参数错误响应
func parseConversationId(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		HandleParamError(c, err)
		return 0, false
	}
	return uint(id), true
}

// currentUserIdPtr 取当前用户 id 指针，匿名访客返回 nil
func currentUserIdPtr(c *gin.Context) *uint {
	if userId, ok := middleware.CurrentUserId(c); ok {
		return &userId
	}
	return nil
}
