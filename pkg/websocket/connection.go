package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection 表示一个WebSocket连接
type Connection struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	IsAlive  bool
	mu       sync.RWMutex
	Channels map[string]bool
}

// NewConnection 创建新的WebSocket连接
func NewConnection(conn *websocket.Conn, userID string, hub *Hub) *Connection {
	return &Connection{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, hub.config.SendBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
		Channels: make(map[string]bool),
	}
}

// closeSocket 关闭底层socket；未升级的连接没有socket
func (c *Connection) closeSocket() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// Start 启动连接的读写协程
func (c *Connection) Start() {
	c.Hub.register <- c
	go c.writePump()
	go c.readPump()
}

// readPump 读取消息
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.LastPing = time.Now()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误: %v", err)
			}
			break
		}

		c.LastPing = time.Now()
		c.handleMessage(message)
	}
}

// writePump 批量写出消息
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 将排队的消息合并到同一帧
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端上行消息
func (c *Connection) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.Errorf("解析WebSocket消息失败: %v", err)
		c.sendError(ErrInvalidMessage)
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.sendMessage(&Message{Type: MessageTypePong, Timestamp: time.Now().Unix()})
	case MessageTypeSubscribe:
		c.handleSubscribe(&msg)
	case MessageTypeUnsubscribe:
		c.handleUnsubscribe(&msg)
	default:
		logrus.Warnf("未知的消息类型: %s", msg.Type)
		c.sendError(fmt.Sprintf("%s: %s", ErrUnknownMessageType, msg.Type))
	}
}

// handleSubscribe 订阅频道
func (c *Connection) handleSubscribe(msg *Message) {
	if msg.Channel == "" {
		c.sendError(ErrChannelRequired)
		return
	}
	if !canSubscribe(c.UserID, msg.Channel) {
		c.sendError(ErrChannelForbidden)
		return
	}

	c.mu.Lock()
	c.Channels[msg.Channel] = true
	c.mu.Unlock()
	c.Hub.subscribe(c, msg.Channel)

	c.sendMessage(&Message{
		Type:      MessageTypeSubscribed,
		Channel:   msg.Channel,
		Timestamp: time.Now().Unix(),
	})
	logrus.Infof("连接 %s 订阅频道: %s", c.ID, msg.Channel)
}

// handleUnsubscribe 取消订阅
func (c *Connection) handleUnsubscribe(msg *Message) {
	if msg.Channel == "" {
		c.sendError(ErrChannelRequired)
		return
	}

	c.mu.Lock()
	delete(c.Channels, msg.Channel)
	c.mu.Unlock()
	c.Hub.unsubscribe(c, msg.Channel)

	c.sendMessage(&Message{
		Type:      MessageTypeUnsubscribed,
		Channel:   msg.Channel,
		Timestamp: time.Now().Unix(),
	})
	logrus.Infof("连接 %s 取消订阅频道: %s", c.ID, msg.Channel)
}

// sendMessage 发送消息给当前连接
func (c *Connection) sendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("序列化消息失败: %v", err)
		return
	}

	select {
	case c.Send <- data:
	default:
		logrus.Warnf("连接 %s 发送缓冲区已满", c.ID)
	}
}

// sendError 发送错误消息
func (c *Connection) sendError(errMsg string) {
	c.sendMessage(&Message{
		Type:      MessageTypeError,
		Data:      map[string]string{"error": errMsg},
		Timestamp: time.Now().Unix(),
	})
}
