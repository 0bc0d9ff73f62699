// Package model 定义数据库实体模型
// 本文件定义聊天消息模型
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Message 聊天消息模型
// 对应数据库 chat_messages 表
// 归属三选一：IsFromAdmin=1 表示客服消息（AdminName 有值）；
// UserId 非空表示登录用户消息；两者都没有时归属会话的访客
type Message struct {
	gorm.Model

	// ConversationId 所属会话，消息必须挂在一条会话上
	ConversationId uint `gorm:"column:conversation_id;index;not null;comment:会话id"`

	// UserId 发送者（登录用户），访客或客服消息为 NULL
	UserId *uint `gorm:"column:user_id;comment:发送用户id"`

	// User 关联的用户
	User *User `gorm:"foreignKey:UserId"`

	// IsFromAdmin 是否为客服/系统侧发出的消息
	IsFromAdmin bool `gorm:"column:is_from_admin;not null;default:false;comment:是否客服消息"`

	// AdminName 客服展示名，仅 IsFromAdmin 为真时有值
	AdminName string `gorm:"column:admin_name;type:varchar(100);comment:客服名"`

	// MessageType 消息类型
	// text/image/file/system，参见 pkg/enum/message/message_type_enum
	MessageType string `gorm:"column:message_type;type:varchar(10);not null;default:text;comment:消息类型"`

	// Content 消息文本内容
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// AttachmentUrl 附件链接
	// 图片/文件先上传到对象存储，这里只存访问链接
	AttachmentUrl string `gorm:"column:attachment_url;type:varchar(500);comment:附件url"`

	// AttachmentName 附件文件名
	AttachmentName string `gorm:"column:attachment_name;type:varchar(255);comment:附件名"`

	// AttachmentSize 附件大小（字节）
	AttachmentSize int64 `gorm:"column:attachment_size;comment:附件大小"`

	// IsRead 对方是否已读
	// 客服查看访客消息、访客查看客服消息时置位，其余字段创建后不再变更
	IsRead bool `gorm:"column:is_read;not null;default:false;comment:是否已读"`

	// ReadAt 已读时间
	ReadAt sql.NullTime `gorm:"column:read_at;comment:已读时间"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "chat_messages"
}

// SenderName 发送者展示名
// conv 为消息所属会话，用于访客消息取参与者名
func (m *Message) SenderName(conv *Conversation) string {
	if m.IsFromAdmin {
		if m.AdminName != "" {
			return m.AdminName
		}
		return "Support"
	}
	if m.User != nil {
		return m.User.FullName
	}
	if conv != nil {
		return conv.ParticipantName()
	}
	return "匿名访客"
}
