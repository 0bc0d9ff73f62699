// Package notify 实现多渠道通知分发
// 业务事件（新消息、新订单等）在此被格式化为人类可读的文本，
// 异步推送到已配置的渠道（邮件/短信/Telegram/WhatsApp）。
// 通知是尽力而为的：任何渠道失败只记日志，绝不影响触发它的业务操作。
package notify

import (
	"context"
	"time"
)

// Channel 通知渠道接口
// 一个实现对应一种具体投递方式
type Channel interface {
	// Name 渠道名，用于日志
	Name() string
	// Send 向 recipient 发送一条文本通知
	Send(recipient string, message string) error
}

// Notifier 通知触发接口
// 业务侧只依赖该接口，不关心渠道和队列的具体实现
type Notifier interface {
	// Notify 异步投递一个事件，不阻塞调用方
	Notify(event Event)
}

// EventQueue 事件队列接口
// 把事件的产生和投递解耦；支持进程内 channel 和 Kafka 两种实现
type EventQueue interface {
	// Publish 发布序列化后的事件
	Publish(ctx context.Context, data []byte) error
	// Start 启动消费循环，收到的每条事件交给 handler 处理
	Start(handler func(data []byte))
	// Close 关闭队列资源
	Close()
}

// ==================== 事件定义 ====================

// Event 通知事件接口
// 每种事件对应一个带 Kind 标签的结构体，在队列上以 JSON 信封传输
type Event interface {
	Kind() string
}

// 事件类型标签
const (
	KindOrderCreated        = "order_created"
	KindNewChatMessage      = "new_chat_message"
	KindAppointmentReminder = "appointment_reminder"
	KindLowStock            = "low_stock"
)

// OrderCreatedEvent 新订单事件
// 客户收邮件确认，管理员收 Telegram 告警
type OrderCreatedEvent struct {
	OrderNumber   string  `json:"order_number"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	TotalAmount   float64 `json:"total_amount"`
	ItemsCount    int     `json:"items_count"`
}

func (OrderCreatedEvent) Kind() string { return KindOrderCreated }

// NewChatMessageEvent 新聊天消息事件
// 管理员通过 Telegram 和邮件收到告警，正文只带预览不带全文
type NewChatMessageEvent struct {
	ConversationId   uint   `json:"conversation_id"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	Preview          string `json:"preview"`
}

func (NewChatMessageEvent) Kind() string { return KindNewChatMessage }

// AppointmentReminderEvent 预约提醒事件
// 客户通过邮件提醒，有电话时追加短信和 WhatsApp
type AppointmentReminderEvent struct {
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone string    `json:"client_phone"`
	ServiceName string    `json:"service_name"`
	StartsAt    time.Time `json:"starts_at"`
}

func (AppointmentReminderEvent) Kind() string { return KindAppointmentReminder }

// LowStockEvent 低库存事件
// 仅管理员告警
type LowStockEvent struct {
	ProductName   string `json:"product_name"`
	StockQuantity int    `json:"stock_quantity"`
}

func (LowStockEvent) Kind() string { return KindLowStock }
