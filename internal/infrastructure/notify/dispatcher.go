package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"stelle_world_server/internal/config"
	"stelle_world_server/pkg/constants"
)

// eventEnvelope 队列上传输的事件信封
// Kind 决定 Payload 反序列化成哪个事件结构
type eventEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Channels 渠道集合
// nil 表示对应渠道未配置，分发时跳过
type Channels struct {
	Email    Channel
	Sms      Channel
	Telegram Channel
	WhatsApp Channel
}

// BuildChannels 根据配置构建渠道集合
func BuildChannels(cfg *config.NotifyConfig) Channels {
	return Channels{
		Email:    NewEmailChannel(cfg.EmailConfig),
		Sms:      NewSmsChannel(cfg.SmsConfig),
		Telegram: NewTelegramChannel(cfg.TelegramConfig),
		WhatsApp: NewWhatsAppChannel(cfg.WhatsAppConfig),
	}
}

// Dispatcher 通知分发器
// 事件经队列异步消费，按事件类型路由到各渠道；
// 实现 Notifier 接口，业务侧只看到 Notify 一个方法
type Dispatcher struct {
	queue      EventQueue
	channels   Channels
	adminEmail string
}

// NewDispatcher 创建分发器
// queue: 事件队列（channel 或 kafka 实现）
// channels: 渠道集合
// adminEmail: 接收后台告警的邮箱，为空时跳过邮件告警
func NewDispatcher(queue EventQueue, channels Channels, adminEmail string) *Dispatcher {
	return &Dispatcher{
		queue:      queue,
		channels:   channels,
		adminEmail: adminEmail,
	}
}

// Start 启动队列消费循环
func (d *Dispatcher) Start() {
	d.queue.Start(d.handle)
}

// Close 关闭队列资源
func (d *Dispatcher) Close() {
	d.queue.Close()
}

// Notify 异步投递一个事件（实现 Notifier 接口）
// 序列化或发布失败只记日志：通知永远不能反过来影响业务操作
func (d *Dispatcher) Notify(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("通知事件序列化失败", zap.String("kind", event.Kind()), zap.Error(err))
		return
	}
	data, err := json.Marshal(eventEnvelope{Kind: event.Kind(), Payload: payload})
	if err != nil {
		zap.L().Error("通知信封序列化失败", zap.String("kind", event.Kind()), zap.Error(err))
		return
	}
	if err := d.queue.Publish(context.Background(), data); err != nil {
		zap.L().Error("通知事件入队失败", zap.String("kind", event.Kind()), zap.Error(err))
	}
}

// handle 消费一条队列数据：解信封、还原事件、分发
func (d *Dispatcher) handle(data []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		zap.L().Error("通知信封解析失败", zap.Error(err))
		return
	}

	switch envelope.Kind {
	case KindOrderCreated:
		var e OrderCreatedEvent
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			zap.L().Error("order_created 事件解析失败", zap.Error(err))
			return
		}
		d.deliverOrderCreated(e)
	case KindNewChatMessage:
		var e NewChatMessageEvent
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			zap.L().Error("new_chat_message 事件解析失败", zap.Error(err))
			return
		}
		d.deliverNewChatMessage(e)
	case KindAppointmentReminder:
		var e AppointmentReminderEvent
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			zap.L().Error("appointment_reminder 事件解析失败", zap.Error(err))
			return
		}
		d.deliverAppointmentReminder(e)
	case KindLowStock:
		var e LowStockEvent
		if err := json.Unmarshal(envelope.Payload, &e); err != nil {
			zap.L().Error("low_stock 事件解析失败", zap.Error(err))
			return
		}
		d.deliverLowStock(e)
	default:
		zap.L().Warn("未知的通知事件类型", zap.String("kind", envelope.Kind))
	}
}

// deliverOrderCreated 新订单：客户邮件确认 + 管理员 Telegram 告警
func (d *Dispatcher) deliverOrderCreated(e OrderCreatedEvent) {
	if e.CustomerEmail != "" {
		d.sendVia(d.channels.Email, e.CustomerEmail, formatOrderConfirmation(e))
	}
	d.sendVia(d.channels.Telegram, "admin", formatAdminOrderAlert(e))
}

// deliverNewChatMessage 新聊天消息：管理员 Telegram + 邮件告警
func (d *Dispatcher) deliverNewChatMessage(e NewChatMessageEvent) {
	text := formatAdminChatAlert(e)
	d.sendVia(d.channels.Telegram, "admin", text)
	if d.adminEmail != "" {
		d.sendVia(d.channels.Email, d.adminEmail, text)
	}
}

// deliverAppointmentReminder 预约提醒：客户邮件，有电话时追加短信和 WhatsApp
func (d *Dispatcher) deliverAppointmentReminder(e AppointmentReminderEvent) {
	text := formatAppointmentReminder(e)
	if e.ClientEmail != "" {
		d.sendVia(d.channels.Email, e.ClientEmail, text)
	}
	if e.ClientPhone != "" {
		d.sendVia(d.channels.Sms, e.ClientPhone, text)
		d.sendVia(d.channels.WhatsApp, e.ClientPhone, text)
	}
}

// deliverLowStock 低库存：仅管理员 Telegram 告警
func (d *Dispatcher) deliverLowStock(e LowStockEvent) {
	d.sendVia(d.channels.Telegram, "admin", formatLowStockAlert(e))
}

// sendVia 经指定渠道发送
// 渠道未配置时静默跳过；发送失败记日志后吞掉
func (d *Dispatcher) sendVia(ch Channel, recipient string, message string) {
	if ch == nil {
		return
	}
	if err := ch.Send(recipient, message); err != nil {
		zap.L().Error("通知发送失败",
			zap.String("channel", ch.Name()),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	}
}

// ==================== 进程内事件队列 ====================

// channelQueue EventQueue 的进程内实现
// 单机部署的默认模式，事件走缓冲 channel，由后台 goroutine 消费
type channelQueue struct {
	events chan []byte
	done   chan struct{}
}

// NewChannelQueue 创建进程内事件队列
func NewChannelQueue() EventQueue {
	return &channelQueue{
		events: make(chan []byte, constants.NOTIFY_QUEUE_SIZE),
		done:   make(chan struct{}),
	}
}

// Publish 事件入队
// 队列满时丢弃并告警，不阻塞业务调用方
func (q *channelQueue) Publish(_ context.Context, data []byte) error {
	select {
	case q.events <- data:
		return nil
	default:
		zap.L().Warn("notify queue full, event dropped")
		return nil
	}
}

// Start 启动消费 goroutine
func (q *channelQueue) Start(handler func(data []byte)) {
	go func() {
		for {
			select {
			case data := <-q.events:
				handler(data)
			case <-q.done:
				return
			}
		}
	}()
}

// Close 停止消费
func (q *channelQueue) Close() {
	close(q.done)
}
