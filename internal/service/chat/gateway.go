// Package chat 实现了客服聊天系统的核心服务层
// gateway.go
// 核心职责：WebSocket 握手
// 1. 升级 HTTP 连接
// 2. 访客侧校验会话存在性，不存在则以 4004 关闭码拒绝
// 3. 把连接交给对应的会话循环
package chat

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CloseCodeConversationNotFound 握手阶段会话不存在时的关闭码
const CloseCodeConversationNotFound = 4004

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 检查连接的Origin头
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AcceptVisitor 处理访客侧握手
// 关闭码只能在升级之后发送，所以先升级再校验会话
func (s *ChatService) AcceptVisitor(w http.ResponseWriter, r *http.Request, conversationId uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("WebSocket 升级失败", zap.Error(err))
		return
	}

	conversation, err := s.conversationRepo.FindById(conversationId)
	if err != nil {
		zap.L().Warn("访客握手被拒绝，会话不存在",
			zap.Uint("conversation_id", conversationId), zap.Error(err))
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseCodeConversationNotFound, "conversation not found"),
			deadline)
		_ = conn.Close()
		return
	}

	s.ServeVisitor(NewWsConn(conn), conversation)
}

// AcceptAdmin 处理管理员侧握手
// 身份校验由路由层的中间件完成，这里无条件接受
func (s *ChatService) AcceptAdmin(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	s.ServeAdmin(NewWsConn(conn))
}
