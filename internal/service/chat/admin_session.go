// Package chat 实现了客服聊天系统的核心服务层
// admin_session.go
// 核心职责：管理员控制通道的接收循环
// 入站帧按 action 路由，确认帧一律单播给发起的连接；
// 未知 action 回错误帧，循环继续
package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/constants"
	"stelle_world_server/pkg/enum/message/message_type_enum"
	"stelle_world_server/pkg/errorx"
)

// ServeAdmin 运行管理员会话的接收循环，连接断开后返回
func (s *ChatService) ServeAdmin(conn *WsConn) {
	s.Registry.RegisterAdmin(conn)
	defer func() {
		s.Registry.UnregisterAdmin(conn)
		conn.Close()
	}()
	zap.L().Info("管理员连接建立")

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			zap.L().Info("管理员连接断开", zap.Error(err))
			return
		}

		var frame AdminFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.Registry.SendTo(conn, MarshalErrorFrame("消息格式不合法"))
			continue
		}

		switch frame.Action {
		case ActionReply:
			s.handleAdminReply(conn, frame)
		case ActionGetConversations:
			s.handleGetConversations(conn)
		case ActionMarkRead:
			s.handleMarkRead(conn, frame)
		default:
			s.Registry.SendTo(conn, MarshalErrorFrame("未知的操作类型: "+frame.Action))
		}
	}
}

// handleAdminReply 客服回复访客
// 经和访客消息同一条投递管线落库并广播，成功后单播 reply_sent 确认
func (s *ChatService) handleAdminReply(conn *WsConn, frame AdminFrame) {
	if strings.TrimSpace(frame.Content) == "" {
		s.Registry.SendTo(conn, MarshalErrorFrame("回复内容不能为空"))
		return
	}
	adminName := frame.AdminName
	if adminName == "" {
		adminName = "Support"
	}

	message := &model.Message{
		ConversationId: frame.ConversationId,
		IsFromAdmin:    true,
		AdminName:      adminName,
		Content:        frame.Content,
		MessageType:    message_type_enum.Text,
	}
	if _, err := s.PersistAndDeliver(frame.ConversationId, message); err != nil {
		s.Registry.SendTo(conn, MarshalErrorFrame(adminReplyError(err)))
		return
	}

	ack, err := json.Marshal(replySentFrame{
		Type:           "reply_sent",
		ConversationId: frame.ConversationId,
		MessageId:      message.ID,
	})
	if err != nil {
		zap.L().Error("确认帧序列化失败", zap.Error(err))
		return
	}
	s.Registry.SendTo(conn, ack)
}

// handleGetConversations 返回打开状态会话的快照
// 按最近活动倒序，最多 ADMIN_CONVERSATION_LIMIT 条，带消息总数和未读数
func (s *ChatService) handleGetConversations(conn *WsConn) {
	conversations, err := s.conversationRepo.FindOpenOrderByActivity(constants.ADMIN_CONVERSATION_LIMIT)
	if err != nil {
		zap.L().Error("查询打开会话失败", zap.Error(err))
		s.Registry.SendTo(conn, MarshalErrorFrame("会话列表获取失败"))
		return
	}

	ids := make([]uint, 0, len(conversations))
	for _, conversation := range conversations {
		ids = append(ids, conversation.ID)
	}
	totals, err := s.messageRepo.CountByConversationIds(ids)
	if err != nil {
		zap.L().Error("统计会话消息数失败", zap.Error(err))
		totals = map[uint]int64{}
	}
	unread, err := s.messageRepo.CountUnreadVisitorByConversationIds(ids)
	if err != nil {
		zap.L().Error("统计未读消息失败", zap.Error(err))
		unread = map[uint]int64{}
	}

	summaries := make([]conversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		lastMessageAt := ""
		if conversation.LastMessageAt.Valid {
			lastMessageAt = conversation.LastMessageAt.Time.Format(time.RFC3339)
		}
		summaries = append(summaries, conversationSummary{
			Id:               conversation.ID,
			ParticipantName:  conversation.ParticipantName(),
			ParticipantEmail: conversation.ParticipantEmail(),
			Subject:          conversation.Subject,
			Status:           conversation.Status,
			AdminAssigned:    conversation.AdminAssigned,
			MessageCount:     totals[conversation.ID],
			UnreadCount:      unread[conversation.ID],
			LastMessageAt:    lastMessageAt,
			CreatedAt:        conversation.CreatedAt.Format(time.RFC3339),
		})
	}

	ack, err := json.Marshal(conversationsListFrame{
		Type:          "conversations_list",
		Conversations: summaries,
	})
	if err != nil {
		zap.L().Error("会话列表序列化失败", zap.Error(err))
		return
	}
	s.Registry.SendTo(conn, ack)
}

// handleMarkRead 把会话内未读的访客消息置为已读
func (s *ChatService) handleMarkRead(conn *WsConn, frame AdminFrame) {
	count, err := s.messageRepo.MarkVisitorMessagesRead(frame.ConversationId)
	if err != nil {
		zap.L().Error("更新已读状态失败",
			zap.Uint("conversation_id", frame.ConversationId), zap.Error(err))
		s.Registry.SendTo(conn, MarshalErrorFrame("已读状态更新失败"))
		return
	}

	ack, err := json.Marshal(markedReadFrame{
		Type:           "marked_read",
		ConversationId: frame.ConversationId,
		Count:          count,
	})
	if err != nil {
		zap.L().Error("确认帧序列化失败", zap.Error(err))
		return
	}
	s.Registry.SendTo(conn, ack)
}

// adminReplyError 把投递管线的错误翻译成管理端可见的文案
func adminReplyError(err error) string {
	if errors.Is(err, errorx.ErrConversationClosed) {
		return "该会话已关闭，无法回复"
	}
	if errorx.IsNotFound(err) {
		return "会话不存在"
	}
	zap.L().Error("客服回复投递失败", zap.Error(err))
	return "回复发送失败，请稍后重试"
}
