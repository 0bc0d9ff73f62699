// Package chat 实现了客服聊天系统的核心服务层
// registry.go
// 核心职责：在线连接注册表
// 1. 按会话 ID 维护访客/管理员连接桶，另有一个全局管理员池
// 2. 提供会话内广播、管理员池广播和单播
// 3. 发送失败的连接被静默摘除，注册表永远只反映可用连接
package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Sender 注册表持有的最小发送接口
// 真实实现是 WebSocket 连接封装，测试里可以用内存实现替代
type Sender interface {
	// SendMessage 向对端推送一帧数据
	SendMessage(data []byte) error
}

// ConnectionRegistry 在线连接注册表
// 单实例规模下一把锁保护全部映射即可，无需分片
type ConnectionRegistry struct {
	mutex sync.Mutex
	// conversations 会话 ID -> 连接集合（访客和正在查看该会话的管理员）
	conversations map[uint]map[Sender]struct{}
	// admins 管理员池，接收全量 new_message 告警
	admins map[Sender]struct{}
}

// NewConnectionRegistry 创建注册表
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conversations: make(map[uint]map[Sender]struct{}),
		admins:        make(map[Sender]struct{}),
	}
}

// Register 把连接挂到指定会话桶下
// 重复注册是幂等的
func (r *ConnectionRegistry) Register(conversationId uint, sender Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	bucket, ok := r.conversations[conversationId]
	if !ok {
		bucket = make(map[Sender]struct{})
		r.conversations[conversationId] = bucket
	}
	bucket[sender] = struct{}{}
}

// Unregister 把连接从会话桶摘除
// 桶空则删桶；连接不在桶里时为空操作
func (r *ConnectionRegistry) Unregister(conversationId uint, sender Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	bucket, ok := r.conversations[conversationId]
	if !ok {
		return
	}
	delete(bucket, sender)
	if len(bucket) == 0 {
		delete(r.conversations, conversationId)
	}
}

// RegisterAdmin 把连接加入管理员池
func (r *ConnectionRegistry) RegisterAdmin(sender Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.admins[sender] = struct{}{}
}

// UnregisterAdmin 把连接从管理员池摘除
func (r *ConnectionRegistry) UnregisterAdmin(sender Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.admins, sender)
}

// BroadcastToConversation 向会话桶内所有连接广播一帧
// 没有任何连接时为空操作；发送失败的连接当场摘除
func (r *ConnectionRegistry) BroadcastToConversation(conversationId uint, data []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	bucket, ok := r.conversations[conversationId]
	if !ok {
		return
	}
	for sender := range bucket {
		if err := sender.SendMessage(data); err != nil {
			zap.L().Warn("会话内广播失败，摘除连接",
				zap.Uint("conversation_id", conversationId), zap.Error(err))
			delete(bucket, sender)
		}
	}
	if len(bucket) == 0 {
		delete(r.conversations, conversationId)
	}
}

// BroadcastToAdmins 向管理员池广播一帧
func (r *ConnectionRegistry) BroadcastToAdmins(data []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for sender := range r.admins {
		if err := sender.SendMessage(data); err != nil {
			zap.L().Warn("管理员池广播失败，摘除连接", zap.Error(err))
			delete(r.admins, sender)
		}
	}
}

// SendTo 向单个连接推送一帧
// 失败时把连接从所有作用域摘除
func (r *ConnectionRegistry) SendTo(sender Sender, data []byte) {
	if err := sender.SendMessage(data); err != nil {
		zap.L().Warn("单播失败，摘除连接", zap.Error(err))
		r.remove(sender)
	}
}

// ConversationConnCount 会话桶内的连接数，供统计和测试使用
func (r *ConnectionRegistry) ConversationConnCount(conversationId uint) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.conversations[conversationId])
}

// AdminConnCount 管理员池的连接数
func (r *ConnectionRegistry) AdminConnCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.admins)
}

// Snapshot 各会话桶的连接数快照和管理员池连接数，供监控接口使用
func (r *ConnectionRegistry) Snapshot() (map[uint]int, int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	perConversation := make(map[uint]int, len(r.conversations))
	for conversationId, bucket := range r.conversations {
		perConversation[conversationId] = len(bucket)
	}
	return perConversation, len(r.admins)
}

// remove 从所有作用域摘除一个连接
func (r *ConnectionRegistry) remove(sender Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.admins, sender)
	for conversationId, bucket := range r.conversations {
		delete(bucket, sender)
		if len(bucket) == 0 {
			delete(r.conversations, conversationId)
		}
	}
}
