// Package message_type_enum 定义消息类型枚举
package message_type_enum

// 消息类型
const (
	Text   = "text"   // 文本消息
	Image  = "image"  // 图片消息
	File   = "file"   // 文件消息
	System = "system" // 系统消息
)

// Valid 检查是否是已知的消息类型
func Valid(t string) bool {
	switch t {
	case Text, Image, File, System:
		return true
	}
	return false
}
