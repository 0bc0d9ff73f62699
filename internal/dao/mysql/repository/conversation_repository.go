package repository

import (
	"time"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/enum/chat/chat_status_enum"

	"gorm.io/gorm"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindById 根据主键查找会话（预加载用户）
func (r *conversationRepository) FindById(id uint) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Preload("User").First(&conversation, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 id=%d", id)
	}
	return &conversation, nil
}

// FindOpenBySessionKey 根据浏览器会话标识查找仍打开的会话
func (r *conversationRepository) FindOpenBySessionKey(sessionKey string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Preload("User").
		Where("session_key = ? AND status = ?", sessionKey, chat_status_enum.Open).
		First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 session_key=%s", sessionKey)
	}
	return &conversation, nil
}

// FindByUserId 查找某用户的所有会话，按最近活动倒序
func (r *conversationRepository) FindByUserId(userId uint) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := r.db.Where("user_id = ?", userId).
		Order("last_message_at DESC").Find(&conversations).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户会话 user_id=%d", userId)
	}
	return conversations, nil
}

// FindOpenOrderByActivity 查找打开状态的会话，按最近活动倒序
func (r *conversationRepository) FindOpenOrderByActivity(limit int) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := r.db.Preload("User").
		Where("status = ?", chat_status_enum.Open).
		Order("last_message_at DESC").Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, wrapDBError(err, "查询打开的会话列表")
	}
	return conversations, nil
}

// FindPage 分页查找会话
func (r *conversationRepository) FindPage(status string, skip, limit int) ([]model.Conversation, int64, error) {
	query := r.db.Model(&model.Conversation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "统计会话总数")
	}

	var conversations []model.Conversation
	if err := query.Preload("User").
		Order("last_message_at DESC").
		Offset(skip).Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, 0, wrapDBError(err, "分页查询会话")
	}
	return conversations, total, nil
}

// Create 创建会话
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// Save 保存会话的全部字段变更
func (r *conversationRepository) Save(conversation *model.Conversation) error {
	if err := r.db.Save(conversation).Error; err != nil {
		return wrapDBErrorf(err, "保存会话 id=%d", conversation.ID)
	}
	return nil
}

// TouchLastMessage 更新最近消息时间，pending 状态拉回 open
// 新消息进入时调用，两个更新放在同一条 UPDATE 中
func (r *conversationRepository) TouchLastMessage(id uint, at time.Time) error {
	res := r.db.Model(&model.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				chat_status_enum.Pending, chat_status_enum.Open,
			),
		})
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新会话活动时间 id=%d", id)
	}
	return nil
}

// Delete 删除会话（消息级联删除）
func (r *conversationRepository) Delete(id uint) error {
	if err := r.db.Unscoped().Delete(&model.Conversation{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除会话 id=%d", id)
	}
	return nil
}

// CountAll 会话总数
func (r *conversationRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Conversation{}).Count(&count).Error; err != nil {
		return 0, wrapDBError(err, "统计会话总数")
	}
	return count, nil
}

// CountByStatus 某状态的会话数
func (r *conversationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Conversation{}).
		Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计 %s 状态会话数", status)
	}
	return count, nil
}

// CountCreatedSince 某时间点之后新建的会话数
func (r *conversationRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Conversation{}).
		Where("created_at >= ?", t).Count(&count).Error; err != nil {
		return 0, wrapDBError(err, "统计新建会话数")
	}
	return count, nil
}

// AverageRating 已评分会话的平均满意度
func (r *conversationRepository) AverageRating() (float64, error) {
	var avg *float64
	if err := r.db.Model(&model.Conversation{}).
		Where("rating IS NOT NULL").
		Select("AVG(rating)").Scan(&avg).Error; err != nil {
		return 0, wrapDBError(err, "统计平均满意度")
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
