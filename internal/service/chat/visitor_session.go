// Package chat 实现了客服聊天系统的核心服务层
// visitor_session.go
// 核心职责：访客连接的接收循环
// 每条连接一个 goroutine，帧在边界解析一次；
// 协议级错误只回错误帧不断连，读错误退出循环并注销连接
package chat

import (
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/enum/message/message_type_enum"
	"stelle_world_server/pkg/errorx"
)

// ServeVisitor 运行访客会话的接收循环，连接断开后返回
// 注销在 defer 中执行，任何退出路径都不会在注册表里留下死连接
func (s *ChatService) ServeVisitor(conn *WsConn, conversation *model.Conversation) {
	s.Registry.Register(conversation.ID, conn)
	defer func() {
		s.Registry.Unregister(conversation.ID, conn)
		conn.Close()
	}()
	zap.L().Info("访客连接建立", zap.Uint("conversation_id", conversation.ID))

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			zap.L().Info("访客连接断开",
				zap.Uint("conversation_id", conversation.ID), zap.Error(err))
			return
		}

		var frame VisitorFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.Registry.SendTo(conn, MarshalErrorFrame("消息格式不合法"))
			continue
		}
		// 空消息静默跳过，不落库不回帧
		if strings.TrimSpace(frame.Content) == "" {
			continue
		}
		messageType := frame.MessageType
		if messageType == "" {
			messageType = message_type_enum.Text
		}
		if !message_type_enum.Valid(messageType) {
			s.Registry.SendTo(conn, MarshalErrorFrame("不支持的消息类型: "+messageType))
			continue
		}

		message := &model.Message{
			ConversationId: conversation.ID,
			UserId:         conversation.UserId,
			Content:        frame.Content,
			MessageType:    messageType,
		}
		if _, err := s.PersistAndDeliver(conversation.ID, message); err != nil {
			s.Registry.SendTo(conn, MarshalErrorFrame(visitorSendError(err)))
			continue
		}
	}
}

// visitorSendError 把投递管线的错误翻译成访客可见的文案
func visitorSendError(err error) string {
	if errors.Is(err, errorx.ErrConversationClosed) {
		return "会话已关闭，无法发送消息"
	}
	if errorx.IsNotFound(err) {
		return "会话不存在"
	}
	zap.L().Error("访客消息投递失败", zap.Error(err))
	return "消息发送失败，请稍后重试"
}
