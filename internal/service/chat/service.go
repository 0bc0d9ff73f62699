// Package chat 实现了客服聊天系统的核心服务层
// service.go
// 核心职责：聊天服务聚合结构和消息投递管线
// WebSocket 会话循环和 REST 接口共用同一条管线：
// 持久化 -> 落客服归属 -> 刷新会话活动时间 -> 会话内广播 -> 管理员池告警 -> 异步通知
package chat

import (
	"go.uber.org/zap"

	"stelle_world_server/internal/dao/mysql/repository"
	"stelle_world_server/internal/infrastructure/notify"
	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/errorx"
)

// ChatService 聊天服务聚合结构
type ChatService struct {
	// Registry 在线连接注册表，进程内唯一的共享可变状态
	Registry *ConnectionRegistry

	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository

	// notifier 通知触发接口，可以为 nil（测试或未配置渠道时）
	notifier notify.Notifier
}

// NewChatService 创建聊天服务
func NewChatService(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	notifier notify.Notifier,
) *ChatService {
	return &ChatService{
		Registry:         NewConnectionRegistry(),
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notifier:         notifier,
	}
}

// PersistAndDeliver 持久化一条消息并完成全部投递副作用
// 每帧独立处理：先按主键取最新会话状态，已关闭的会话直接拒绝；
// 持久化失败时不产生任何广播或通知副作用
func (s *ChatService) PersistAndDeliver(conversationId uint, message *model.Message) (*model.Conversation, error) {
	conversation, err := s.conversationRepo.FindById(conversationId)
	if err != nil {
		return nil, err
	}
	if conversation.IsClosed() {
		return nil, errorx.ErrConversationClosed
	}

	message.ConversationId = conversation.ID
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	// 首次客服回复时落客服归属，之后不再改写
	if message.IsFromAdmin && conversation.AdminAssigned == "" && message.AdminName != "" {
		conversation.AdminAssigned = message.AdminName
		if err := s.conversationRepo.Save(conversation); err != nil {
			zap.L().Error("更新会话客服归属失败",
				zap.Uint("conversation_id", conversation.ID), zap.Error(err))
		}
	}
	// 活动时间刷新失败不影响已落库的消息，记日志即可
	if err := s.conversationRepo.TouchLastMessage(conversation.ID, message.CreatedAt); err != nil {
		zap.L().Error("刷新会话活动时间失败",
			zap.Uint("conversation_id", conversation.ID), zap.Error(err))
	}

	s.deliver(conversation, message)
	return conversation, nil
}

// deliver 落库之后的在线投递和离线通知
func (s *ChatService) deliver(conversation *model.Conversation, message *model.Message) {
	if data, err := MarshalMessageFrame(message, conversation); err == nil {
		s.Registry.BroadcastToConversation(conversation.ID, data)
	} else {
		zap.L().Error("消息帧序列化失败", zap.Error(err))
	}

	// 管理员告警只针对访客侧消息，客服自己的回复不再回推告警
	if message.IsFromAdmin {
		return
	}
	if data, err := MarshalNewMessageFrame(message, conversation); err == nil {
		s.Registry.BroadcastToAdmins(data)
	} else {
		zap.L().Error("告警帧序列化失败", zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.Notify(notify.NewChatMessageEvent{
			ConversationId:   conversation.ID,
			ParticipantName:  conversation.ParticipantName(),
			ParticipantEmail: conversation.ParticipantEmail(),
			Preview:          Preview(message.Content),
		})
	}
}
