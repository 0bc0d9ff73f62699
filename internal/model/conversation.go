// Package model 定义数据库实体模型
// 本文件定义会话模型：一位访客（或注册用户）与客服之间的一条支持会话
package model

import (
	"database/sql"

	"gorm.io/gorm"

	"stelle_world_server/pkg/enum/chat/chat_status_enum"
)

// Conversation 聊天会话模型
// 对应数据库 chat_conversations 表
// 身份二选一：UserId 非空表示登录用户发起，否则 Visitor* 字段描述匿名访客
type Conversation struct {
	gorm.Model

	// UserId 发起会话的注册用户，匿名访客时为 NULL
	UserId *uint `gorm:"column:user_id;index;comment:用户id"`

	// User 关联的用户（仅 UserId 非空时有效）
	User *User `gorm:"foreignKey:UserId"`

	// VisitorName 访客姓名（未登录时填写）
	VisitorName string `gorm:"column:visitor_name;type:varchar(100);comment:访客姓名"`

	// VisitorEmail 访客邮箱
	VisitorEmail string `gorm:"column:visitor_email;type:varchar(255);comment:访客邮箱"`

	// VisitorPhone 访客电话
	VisitorPhone string `gorm:"column:visitor_phone;type:varchar(20);comment:访客电话"`

	// SessionKey 浏览器会话标识
	// 同一浏览器重连时凭它复用已打开的会话
	SessionKey string `gorm:"column:session_key;index;type:varchar(255);not null;comment:浏览器会话标识"`

	// Status 会话状态
	// open/pending/closed，参见 pkg/enum/chat/chat_status_enum
	Status string `gorm:"column:status;type:varchar(10);not null;default:open;comment:会话状态"`

	// Subject 会话主题，可空
	Subject string `gorm:"column:subject;type:varchar(200);comment:主题"`

	// AdminAssigned 负责该会话的客服名，首次回复时写入
	AdminAssigned string `gorm:"column:admin_assigned;type:varchar(100);comment:负责客服"`

	// Rating 满意度评分 1-5，关闭时由访客填写
	Rating *int `gorm:"column:rating;comment:满意度评分"`

	// Feedback 评价反馈文本
	Feedback string `gorm:"column:feedback;type:TEXT;comment:评价反馈"`

	// LastMessageAt 最后一条消息时间，用于会话列表排序
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;comment:最近消息时间"`

	// ClosedAt 关闭时间
	ClosedAt sql.NullTime `gorm:"column:closed_at;comment:关闭时间"`

	// Messages 会话内的消息，删除会话时级联删除
	Messages []Message `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "chat_conversations"
}

// ParticipantName 参与者展示名
// 登录用户取用户姓名，否则取访客姓名，都没有时返回"匿名访客"
func (c *Conversation) ParticipantName() string {
	if c.User != nil {
		return c.User.FullName
	}
	if c.VisitorName != "" {
		return c.VisitorName
	}
	return "匿名访客"
}

// ParticipantEmail 参与者邮箱（可能为空）
func (c *Conversation) ParticipantEmail() string {
	if c.User != nil {
		return c.User.Email
	}
	return c.VisitorEmail
}

// IsClosed 会话是否已关闭
func (c *Conversation) IsClosed() bool {
	return c.Status == chat_status_enum.Closed
}
