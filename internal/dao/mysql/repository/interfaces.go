// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"errors"
	"time"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/errorx"

	"gorm.io/gorm"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
// 聊天核心只需要登录校验和归属展示用到的少量操作
type UserRepository interface {
	// FindById 根据主键查找用户
	FindById(id uint) (*model.User, error)
	// FindByEmail 根据邮箱查找用户
	FindByEmail(email string) (*model.User, error)
	// Create 创建新用户
	Create(user *model.User) error
}

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	// FindById 根据主键查找会话（预加载用户）
	FindById(id uint) (*model.Conversation, error)
	// FindOpenBySessionKey 根据浏览器会话标识查找仍打开的会话
	// 不存在时返回 CodeNotFound
	FindOpenBySessionKey(sessionKey string) (*model.Conversation, error)
	// FindByUserId 查找某用户的所有会话，按最近活动倒序
	FindByUserId(userId uint) ([]model.Conversation, error)
	// FindOpenOrderByActivity 查找打开状态的会话，按最近活动倒序，最多 limit 条
	FindOpenOrderByActivity(limit int) ([]model.Conversation, error)
	// FindPage 分页查找会话（status 为空表示不过滤），返回列表和总数
	FindPage(status string, skip, limit int) ([]model.Conversation, int64, error)
	// Create 创建会话
	Create(conversation *model.Conversation) error
	// Save 保存会话的全部字段变更
	Save(conversation *model.Conversation) error
	// TouchLastMessage 更新最近消息时间，并在当前状态为 pending 时拉回 open
	TouchLastMessage(id uint, at time.Time) error
	// Delete 删除会话（消息级联删除）
	Delete(id uint) error

	// CountAll 会话总数
	CountAll() (int64, error)
	// CountByStatus 某状态的会话数
	CountByStatus(status string) (int64, error)
	// CountCreatedSince 某时间点之后新建的会话数
	CountCreatedSince(t time.Time) (int64, error)
	// AverageRating 已评分会话的平均满意度，无评分时返回 0
	AverageRating() (float64, error)
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息
	Create(message *model.Message) error
	// FindByConversationId 查找会话内的全部消息，按创建时间升序
	FindByConversationId(conversationId uint) ([]model.Message, error)
	// CountByConversationIds 批量统计各会话的消息数
	CountByConversationIds(ids []uint) (map[uint]int64, error)
	// CountUnreadVisitorByConversationIds 批量统计各会话中客服未读的访客消息数
	CountUnreadVisitorByConversationIds(ids []uint) (map[uint]int64, error)
	// MarkAdminMessagesRead 访客查看会话：把未读的客服消息置为已读，返回条数
	MarkAdminMessagesRead(conversationId uint) (int64, error)
	// MarkVisitorMessagesRead 客服查看会话：把未读的访客消息置为已读，返回条数
	MarkVisitorMessagesRead(conversationId uint) (int64, error)
}
