// Package conversation 实现客服会话的 REST 业务
// WebSocket 会话循环之外的所有会话操作都在这里：
// 发起/查询/发消息/关闭，以及后台的分页查询、回复和统计
// 消息发送复用 chat 包的投递管线，REST 和 WebSocket 两条入口行为一致
package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stelle_world_server/internal/dao/mysql/repository"
	myredis "stelle_world_server/internal/dao/redis"
	"stelle_world_server/internal/dto/request"
	"stelle_world_server/internal/dto/respond"
	"stelle_world_server/internal/model"
	"stelle_world_server/internal/service/chat"
	"stelle_world_server/pkg/constants"
	"stelle_world_server/pkg/enum/chat/chat_status_enum"
	"stelle_world_server/pkg/enum/message/message_type_enum"
	"stelle_world_server/pkg/errorx"
)

// statsCacheKey 后台统计快照的缓存键
const statsCacheKey = "chat:admin:stats"

type conversationService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	chatService      *chat.ChatService
	cacheService     myredis.AsyncCacheService
}

// NewConversationService 创建会话 Service
// cacheService 可以为 nil，此时统计接口每次直查数据库
func NewConversationService(
	repos *repository.Repositories,
	chatService *chat.ChatService,
	cacheService myredis.AsyncCacheService,
) *conversationService {
	return &conversationService{
		conversationRepo: repos.Conversation,
		messageRepo:      repos.Message,
		chatService:      chatService,
		cacheService:     cacheService,
	}
}

// Start 发起会话
// 同一 session_key 命中仍打开的会话时直接复用，不重复建会话；
// 带初始消息时走投递管线，在线客服立即收到告警
func (s *conversationService) Start(userId *uint, req request.StartConversationRequest) (*respond.StartConversationRespond, error) {
	sessionKey := req.SessionKey
	if sessionKey == "" {
		sessionKey = uuid.New().String()
	}

	existing, err := s.conversationRepo.FindOpenBySessionKey(sessionKey)
	if err == nil {
		return &respond.StartConversationRespond{
			ConversationId: existing.ID,
			SessionKey:     existing.SessionKey,
			Status:         "existing",
		}, nil
	}
	if !errorx.IsNotFound(err) {
		return nil, err
	}

	conversation := &model.Conversation{
		UserId:       userId,
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		SessionKey:   sessionKey,
		Status:       chat_status_enum.Open,
		Subject:      req.Subject,
	}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.InitialMessage) != "" {
		message := &model.Message{
			ConversationId: conversation.ID,
			UserId:         userId,
			Content:        req.InitialMessage,
			MessageType:    message_type_enum.Text,
		}
		if _, err := s.chatService.PersistAndDeliver(conversation.ID, message); err != nil {
			zap.L().Error("初始消息投递失败",
				zap.Uint("conversation_id", conversation.ID), zap.Error(err))
		}
	}
	s.invalidateStats()

	return &respond.StartConversationRespond{
		ConversationId: conversation.ID,
		SessionKey:     sessionKey,
		Status:         "created",
	}, nil
}

// Get 会话详情和全部消息
// 访客查看即已读：未读的客服消息在这里置为已读
func (s *conversationService) Get(id uint) (*respond.ConversationRespond, error) {
	conversation, err := s.conversationRepo.FindById(id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.FindByConversationId(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.MarkAdminMessagesRead(id); err != nil {
		zap.L().Error("更新已读状态失败", zap.Uint("conversation_id", id), zap.Error(err))
	}

	resp := respond.NewConversationRespond(conversation, messages)
	return &resp, nil
}

// SendMessage 会话内发消息
// 已关闭的会话返回 CodeConversationClosed，不落库
func (s *conversationService) SendMessage(id uint, userId *uint, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	messageType := req.MessageType
	if messageType == "" {
		messageType = message_type_enum.Text
	}

	message := &model.Message{
		ConversationId: id,
		UserId:         userId,
		Content:        req.Content,
		MessageType:    messageType,
		AttachmentUrl:  req.AttachmentUrl,
		AttachmentName: req.AttachmentName,
		AttachmentSize: req.AttachmentSize,
	}
	conversation, err := s.chatService.PersistAndDeliver(id, message)
	if err != nil {
		return nil, err
	}

	resp := respond.NewMessageRespond(message, conversation)
	return &resp, nil
}

// List 当前用户的会话列表，按最近活动倒序，不带消息体
func (s *conversationService) List(userId uint) ([]respond.ConversationRespond, error) {
	conversations, err := s.conversationRepo.FindByUserId(userId)
	if err != nil {
		return nil, err
	}
	list := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		list = append(list, respond.NewConversationRespond(&conversations[i], nil))
	}
	return list, nil
}

// Close 关闭会话
// 重复关闭是空操作；评分和反馈只在关闭时写入
func (s *conversationService) Close(id uint, req request.CloseConversationRequest) error {
	conversation, err := s.conversationRepo.FindById(id)
	if err != nil {
		return err
	}
	if conversation.IsClosed() {
		return nil
	}

	conversation.Status = chat_status_enum.Closed
	conversation.ClosedAt.Time = time.Now()
	conversation.ClosedAt.Valid = true
	if req.Rating != nil {
		conversation.Rating = req.Rating
	}
	if req.Feedback != "" {
		conversation.Feedback = req.Feedback
	}
	if err := s.conversationRepo.Save(conversation); err != nil {
		return err
	}
	s.invalidateStats()
	return nil
}

// AdminList 后台分页查询会话
func (s *conversationService) AdminList(req request.AdminConversationListRequest) (*respond.AdminConversationListRespond, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 20
	}
	conversations, total, err := s.conversationRepo.FindPage(req.Status, req.Skip, limit)
	if err != nil {
		return nil, err
	}

	list := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		list = append(list, respond.NewConversationRespond(&conversations[i], nil))
	}
	return &respond.AdminConversationListRespond{
		Conversations: list,
		Total:         total,
		Skip:          req.Skip,
		Limit:         limit,
	}, nil
}

// AdminReply 后台 REST 回复
// 和 WebSocket reply 走同一条投递管线，客服归属由管线统一落库
func (s *conversationService) AdminReply(id uint, req request.AdminReplyRequest) (*respond.MessageRespond, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "回复内容不能为空")
	}
	adminName := req.AdminName
	if adminName == "" {
		adminName = "Support"
	}

	message := &model.Message{
		ConversationId: id,
		IsFromAdmin:    true,
		AdminName:      adminName,
		Content:        req.Content,
		MessageType:    message_type_enum.Text,
	}
	conversation, err := s.chatService.PersistAndDeliver(id, message)
	if err != nil {
		return nil, err
	}

	resp := respond.NewMessageRespond(message, conversation)
	return &resp, nil
}

// Stats 后台统计快照
// 先查缓存，未命中时计算并以短 TTL 回填
func (s *conversationService) Stats() (*respond.ChatStatsRespond, error) {
	ctx := context.Background()
	if s.cacheService != nil {
		cached, err := s.cacheService.Get(ctx, statsCacheKey)
		if err != nil {
			zap.L().Warn("统计缓存读取失败", zap.Error(err))
		} else if cached != "" {
			var resp respond.ChatStatsRespond
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	total, err := s.conversationRepo.CountAll()
	if err != nil {
		return nil, err
	}
	open, err := s.conversationRepo.CountByStatus(chat_status_enum.Open)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.conversationRepo.CountCreatedSince(midnight)
	if err != nil {
		return nil, err
	}
	avgRating, err := s.conversationRepo.AverageRating()
	if err != nil {
		return nil, err
	}

	resp := &respond.ChatStatsRespond{
		TotalConversations: total,
		OpenConversations:  open,
		TodayConversations: today,
		AverageRating:      avgRating,
	}
	if s.cacheService != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.cacheService.SubmitTask(func() {
				if err := s.cacheService.Set(context.Background(), statsCacheKey,
					string(data), constants.REDIS_TIMEOUT*time.Minute); err != nil {
					zap.L().Warn("统计缓存写入失败", zap.Error(err))
				}
			})
		}
	}
	return resp, nil
}

// invalidateStats 会话数量变化后异步清掉统计缓存
func (s *conversationService) invalidateStats() {
	if s.cacheService == nil {
		return
	}
	s.cacheService.SubmitTask(func() {
		if err := s.cacheService.Delete(context.Background(), statsCacheKey); err != nil {
			zap.L().Warn("统计缓存清理失败", zap.Error(err))
		}
	})
}
