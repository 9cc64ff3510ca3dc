package websocket

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"HibiscusGuard/pkg/metrics"
)

// Message 定义WebSocket消息结构。
// 下行事件携带Channel，客户端按订阅的频道分发
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	From      string      `json:"from,omitempty"`
}

// Hub 管理所有WebSocket连接及其频道订阅
type Hub struct {
	// 注册的连接
	connections map[string]*Connection
	// 用户ID到连接ID的映射
	userConnections map[string]map[string]bool
	// 频道到连接ID的映射
	channelConnections map[string]map[string]bool
	// 注册连接通道
	register chan *Connection
	// 注销连接通道
	unregister chan *Connection
	// 连接计数
	connectionCount int64
	// 配置
	config *Config
	// 互斥锁
	mu sync.RWMutex
	// 上下文
	ctx    context.Context
	cancel context.CancelFunc

	// 分片降低全量广播时的锁竞争
	shardCount int
	shardConns []map[string]*Connection
	shardLocks []sync.RWMutex

	// broadcast worker pool
	broadcastJobs chan broadcastJob
}

const (
	_broadcastAll = iota
)

type broadcastJob struct {
	kind  int
	shard int
	data  []byte
}

// NewHub 创建新的Hub实例
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections:        make(map[string]*Connection),
		userConnections:    make(map[string]map[string]bool),
		channelConnections: make(map[string]map[string]bool),
		register:           make(chan *Connection, 1000),
		unregister:         make(chan *Connection, 1000),
		config:             config,
		ctx:                ctx,
		cancel:             cancel,
	}

	// init shards
	if hub.config.ShardCount <= 0 {
		hub.config.ShardCount = 1
	}
	hub.shardCount = hub.config.ShardCount
	hub.shardConns = make([]map[string]*Connection, hub.shardCount)
	hub.shardLocks = make([]sync.RWMutex, hub.shardCount)
	for i := 0; i < hub.shardCount; i++ {
		hub.shardConns[i] = make(map[string]*Connection)
	}

	// init broadcast workers
	if hub.config.BroadcastWorkerCount <= 0 {
		hub.config.BroadcastWorkerCount = 1
	}
	hub.broadcastJobs = make(chan broadcastJob, hub.config.MessageQueueSize)
	for i := 0; i < hub.config.BroadcastWorkerCount; i++ {
		go hub.broadcastWorker()
	}

	go hub.run()
	return hub
}

// run Hub主循环
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// Publish delivers a payload to every subscriber of the channel. Delivery is
// best effort with no confirmation; slow consumers are handled by the
// backpressure policy.
func (h *Hub) Publish(channel string, payload interface{}) error {
	msg := Message{
		Type:      MessageTypeEvent,
		Channel:   channel,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(&msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendToChannel(channel, data)
	return nil
}

// Broadcast 全量广播（运维通告用）
func (h *Hub) Broadcast(msg *Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.enqueueBroadcastAll(data)
	return nil
}

// registerConnection 注册连接
func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 检查最大连接数
	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.closeSocket()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)
	metrics.SetWSConnections(atomic.LoadInt64(&h.connectionCount))

	// 放入分片
	sh := h.shardIndex(conn.ID)
	h.shardLocks[sh].Lock()
	h.shardConns[sh][conn.ID] = conn
	h.shardLocks[sh].Unlock()

	// 添加到用户连接映射
	if conn.UserID != "" {
		if h.userConnections[conn.UserID] == nil {
			h.userConnections[conn.UserID] = make(map[string]bool)
		}
		h.userConnections[conn.UserID][conn.ID] = true
	}

	// 恢复已有订阅
	for channel := range conn.Channels {
		if h.channelConnections[channel] == nil {
			h.channelConnections[channel] = make(map[string]bool)
		}
		h.channelConnections[channel][conn.ID] = true
	}

	logrus.Infof("WebSocket连接已注册: %s, 用户: %s, 当前连接数: %d",
		conn.ID, conn.UserID, atomic.LoadInt64(&h.connectionCount))
}

// unregisterConnection 注销连接
func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID]; exists {
		delete(h.connections, conn.ID)
		atomic.AddInt64(&h.connectionCount, -1)
		metrics.SetWSConnections(atomic.LoadInt64(&h.connectionCount))

		// 从分片移除
		sh := h.shardIndex(conn.ID)
		h.shardLocks[sh].Lock()
		delete(h.shardConns[sh], conn.ID)
		h.shardLocks[sh].Unlock()

		// 从用户连接映射中移除
		if conn.UserID != "" && h.userConnections[conn.UserID] != nil {
			delete(h.userConnections[conn.UserID], conn.ID)
			if len(h.userConnections[conn.UserID]) == 0 {
				delete(h.userConnections, conn.UserID)
			}
		}

		// 清掉频道订阅
		for channel := range conn.Channels {
			if h.channelConnections[channel] != nil {
				delete(h.channelConnections[channel], conn.ID)
				if len(h.channelConnections[channel]) == 0 {
					delete(h.channelConnections, channel)
				}
			}
		}

		close(conn.Send)
		logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d",
			conn.ID, atomic.LoadInt64(&h.connectionCount))
	}
}

// sendToChannel 发送消息给频道订阅者，调用方需持有读锁
func (h *Hub) sendToChannel(channel string, data []byte) {
	if connections, exists := h.channelConnections[channel]; exists {
		for connID := range connections {
			if conn, ok := h.connections[connID]; ok && conn.IsAlive {
				h.trySend(conn, data, func() { logrus.Warnf("频道 %s 的连接 %s 发送缓冲区已满", channel, connID) })
			}
		}
	}
}

// checkHeartbeats 检查心跳
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		if now.Sub(conn.LastPing) > h.config.ConnectionTimeout {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.IsAlive = false
			conn.closeSocket()
		}
	}
}

// canSubscribe 用户私有频道（user:{id}:*）只允许本人订阅
func canSubscribe(userID, channel string) bool {
	if !strings.HasPrefix(channel, "user:") {
		return true
	}
	rest := strings.TrimPrefix(channel, "user:")
	owner, _, _ := strings.Cut(rest, ":")
	return owner == userID
}

// subscribe 将连接挂到频道上
func (h *Hub) subscribe(conn *Connection, channel string) {
	h.mu.Lock()
	if h.channelConnections[channel] == nil {
		h.channelConnections[channel] = make(map[string]bool)
	}
	h.channelConnections[channel][conn.ID] = true
	h.mu.Unlock()
}

// unsubscribe 将连接从频道上摘下
func (h *Hub) unsubscribe(conn *Connection, channel string) {
	h.mu.Lock()
	if h.channelConnections[channel] != nil {
		delete(h.channelConnections[channel], conn.ID)
		if len(h.channelConnections[channel]) == 0 {
			delete(h.channelConnections, channel)
		}
	}
	h.mu.Unlock()
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// GetUserConnections 获取用户的连接数
func (h *Hub) GetUserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if connections, exists := h.userConnections[userID]; exists {
		return len(connections)
	}
	return 0
}

// GetChannelSubscribers 获取频道的订阅连接数
func (h *Hub) GetChannelSubscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if connections, exists := h.channelConnections[channel]; exists {
		return len(connections)
	}
	return 0
}

// Close 关闭Hub
func (h *Hub) Close() {
	h.cancel()

	// 关闭所有连接
	h.mu.Lock()
	for _, conn := range h.connections {
		conn.closeSocket()
	}
	h.mu.Unlock()

	logrus.Info("WebSocket Hub已关闭")
}

// shardIndex 计算分片索引
func (h *Hub) shardIndex(id string) int {
	if h.shardCount <= 1 {
		return 0
	}
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(id))
	return int(hasher.Sum32() % uint32(h.shardCount))
}

// enqueueBroadcastAll 将广播任务按分片入队
func (h *Hub) enqueueBroadcastAll(data []byte) {
	for i := 0; i < h.shardCount; i++ {
		select {
		case h.broadcastJobs <- broadcastJob{kind: _broadcastAll, shard: i, data: data}:
		default:
			logrus.Warnf("广播作业队列已满，消息被丢弃")
		}
	}
}

// broadcastWorker 广播worker
func (h *Hub) broadcastWorker() {
	for job := range h.broadcastJobs {
		switch job.kind {
		case _broadcastAll:
			h.shardLocks[job.shard].RLock()
			for _, conn := range h.shardConns[job.shard] {
				if conn.IsAlive {
					h.trySend(conn, job.data, func() { logrus.Debugf("连接 %s 发送缓冲区满，已按策略处理", conn.ID) })
				}
			}
			h.shardLocks[job.shard].RUnlock()
		}
	}
}

// trySend 背压策略
func (h *Hub) trySend(conn *Connection, data []byte, onDrop func()) {
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			onDrop()
			if h.config.CloseOnBackpressure {
				conn.closeSocket()
			}
		}
		return
	}
	// 非丢弃模式：限定等待时长
	timeout := h.config.SendTimeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	select {
	case conn.Send <- data:
	case <-time.After(timeout):
		onDrop()
		if h.config.CloseOnBackpressure {
			conn.closeSocket()
		}
	}
}
