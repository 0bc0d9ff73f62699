package notify

import (
	"fmt"
)

// 本文件集中各事件到文本的格式化函数
// 同一事件对不同受众（客户/管理员）有不同措辞

// formatOrderConfirmation 给客户的下单确认邮件正文
func formatOrderConfirmation(e OrderCreatedEvent) string {
	return fmt.Sprintf(`您好，

感谢您在 StelleWorld 下单！

订单号: %s
合计: %.2f 元

发货后我们会第一时间通知您。

StelleWorld 团队`, e.OrderNumber, e.TotalAmount)
}

// formatAdminOrderAlert 给管理员的新订单告警
func formatAdminOrderAlert(e OrderCreatedEvent) string {
	return fmt.Sprintf(`🛒 新订单！

订单号: %s
客户: %s
合计: %.2f 元
商品件数: %d`, e.OrderNumber, e.CustomerName, e.TotalAmount, e.ItemsCount)
}

// formatAdminChatAlert 给管理员的新聊天消息告警
// 只携带预览，全文需要管理员进入会话查看
func formatAdminChatAlert(e NewChatMessageEvent) string {
	email := e.ParticipantEmail
	if email == "" {
		email = "未留邮箱"
	}
	return fmt.Sprintf(`💬 新的客服消息 (会话 #%d)

访客: %s (%s)
内容: %s`, e.ConversationId, e.ParticipantName, email, e.Preview)
}

// formatAppointmentReminder 给客户的预约提醒
func formatAppointmentReminder(e AppointmentReminderEvent) string {
	return fmt.Sprintf(`您好 %s，

提醒您预约的「%s」服务将于 %s 开始。

如需改期请提前联系我们。

StelleWorld 团队`, e.ClientName, e.ServiceName, e.StartsAt.Format("2006-01-02 15:04"))
}

// formatLowStockAlert 给管理员的低库存告警
func formatLowStockAlert(e LowStockEvent) string {
	return fmt.Sprintf("⚠️ 库存不足: %s\n剩余数量: %d", e.ProductName, e.StockQuantity)
}
