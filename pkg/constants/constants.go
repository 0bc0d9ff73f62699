package constants

const (
	CHANNEL_SIZE               = 100 // 连接发送通道大小
	NOTIFY_QUEUE_SIZE          = 256 // 通知事件队列缓冲大小
	MESSAGE_PREVIEW_LEN        = 100 // 管理端消息预览最大长度
	ADMIN_CONVERSATION_LIMIT   = 50  // get_conversations 快照返回的会话上限
	REDIS_TIMEOUT              = 1   // redis 缓存过期时间（分钟）
	REFRESH_TOKEN_EXPIRY_HOURS = 168 // Refresh Token 有效期（小时），168小时 = 7天
)
