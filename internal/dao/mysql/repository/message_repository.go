package repository

import (
	"time"

	"stelle_world_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByConversationId 查找会话内的全部消息，按创建时间升序
func (r *messageRepository) FindByConversationId(conversationId uint) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Preload("User").
		Where("conversation_id = ?", conversationId).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 conversation_id=%d", conversationId)
	}
	return messages, nil
}

// conversationMessageCount GROUP BY 统计用的扫描结构
type conversationMessageCount struct {
	ConversationId uint
	Count          int64
}

// CountByConversationIds 批量统计各会话的消息数
func (r *messageRepository) CountByConversationIds(ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []conversationMessageCount
	if err := r.db.Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err, "统计会话消息数")
	}
	for _, row := range rows {
		counts[row.ConversationId] = row.Count
	}
	return counts, nil
}

// CountUnreadVisitorByConversationIds 批量统计各会话中客服未读的访客消息数
func (r *messageRepository) CountUnreadVisitorByConversationIds(ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []conversationMessageCount
	if err := r.db.Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND is_from_admin = ? AND is_read = ?", ids, false, false).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err, "统计会话未读消息数")
	}
	for _, row := range rows {
		counts[row.ConversationId] = row.Count
	}
	return counts, nil
}

// MarkAdminMessagesRead 访客查看会话：把未读的客服消息置为已读
func (r *messageRepository) MarkAdminMessagesRead(conversationId uint) (int64, error) {
	return r.markRead(conversationId, true)
}

// MarkVisitorMessagesRead 客服查看会话：把未读的访客消息置为已读
func (r *messageRepository) MarkVisitorMessagesRead(conversationId uint) (int64, error) {
	return r.markRead(conversationId, false)
}

// markRead 已读状态只能由对侧触发，这里统一实现
func (r *messageRepository) markRead(conversationId uint, fromAdmin bool) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND is_read = ? AND is_from_admin = ?",
			conversationId, false, fromAdmin).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新消息已读状态 conversation_id=%d", conversationId)
	}
	return res.RowsAffected, nil
}
