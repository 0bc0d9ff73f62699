// Package chat 实现了客服聊天系统的核心服务层
// conn.go
// 核心职责：WebSocket 连接封装
// gorilla 的连接不允许并发写，这里用互斥锁把写串行化，
// 保证同一连接上的帧按提交顺序到达
package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WsConn WebSocket 连接封装，实现 Sender 接口
type WsConn struct {
	conn      *websocket.Conn
	writeLock sync.Mutex
	closeOnce sync.Once
}

// NewWsConn 封装一个已升级的 WebSocket 连接
func NewWsConn(conn *websocket.Conn) *WsConn {
	return &WsConn{conn: conn}
}

// SendMessage 同步写一帧文本数据
// 写失败直接返回错误，由注册表负责摘除
func (c *WsConn) SendMessage(data []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadMessage 阻塞读一帧
func (c *WsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close 幂等关闭底层连接
func (c *WsConn) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
