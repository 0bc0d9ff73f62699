// Package repository 定义数据访问层接口和聚合结构
// 本文件提供 Repository 聚合结构和构造函数
package repository

import (
	"gorm.io/gorm"
)

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问各个 Repository
type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Message      MessageRepository
}

// NewRepositories 创建并注入所有 Repository 实例
// db: 已初始化的 GORM 实例（生产环境为 MySQL，测试环境可为 SQLite 内存库）
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
	}
}
