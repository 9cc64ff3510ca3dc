package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Client 一条SSE长连接及其订阅的频道
type Client struct {
	id       string
	channels map[string]bool
	ch       chan string
	done     chan struct{}
}

// Hub 按频道分发的SSE集线器，供不方便用WebSocket的客户端使用
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	channels map[string]map[string]bool // channel -> clientID set
	interval time.Duration
	retryMs  int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{clients: make(map[string]*Client), channels: make(map[string]map[string]bool), interval: interval, retryMs: 5000}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, channels: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		for channel := range c.channels {
			delete(h.channels[channel], id)
		}
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

// Subscribe 订阅频道
func (h *Hub) Subscribe(id, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.channels[channel] = true
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[string]bool)
	}
	h.channels[channel][id] = true
}

// Unsubscribe 取消订阅
func (h *Hub) Unsubscribe(id, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(c.channels, channel)
	if h.channels[channel] != nil {
		delete(h.channels[channel], id)
	}
}

// Publish 序列化载荷并发给频道的所有订阅者。满足分发器的发布原语
func (h *Hub) Publish(channel string, payload interface{}) error {
	envelope := map[string]interface{}{
		"channel":   channel,
		"data":      payload,
		"timestamp": time.Now().Unix(),
	}
	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	msg := formatData(string(b))

	h.mu.RLock()
	ids := h.channels[channel]
	for id := range ids {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- msg:
			default:
			}
		}
	}
	h.mu.RUnlock()
	return nil
}

// Broadcast 全量广播
func (h *Hub) Broadcast(data string) { h.sendAll(formatData(data)) }

func (h *Hub) sendAll(msg string) {
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

func formatData(s string) string { return fmt.Sprintf("data: %s\n\n", s) }

// Serve 处理一条SSE连接，?channels=a,b 指定初始订阅
func (h *Hub) Serve(c *gin.Context, clientID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)

	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)
	if raw := c.Query("channels"); raw != "" {
		for _, channel := range strings.Split(raw, ",") {
			if channel = strings.TrimSpace(channel); channel != "" {
				h.Subscribe(clientID, channel)
			}
		}
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	ping := time.NewTicker(h.interval)
	defer ping.Stop()
	flusher.Flush()

	lastEventID := c.GetHeader("Last-Event-ID")
	_ = lastEventID // 留接口：可接入历史缓存重放

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
