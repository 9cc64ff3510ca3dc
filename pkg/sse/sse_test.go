package sse

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-c.ch:
		payload := strings.TrimSuffix(strings.TrimPrefix(msg, "data: "), "\n\n")
		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(payload), &envelope))
		return envelope
	default:
		t.Fatal("期望收到消息但通道为空")
		return nil
	}
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	h := NewHub(0)
	sub := h.AddClient("c1")
	other := h.AddClient("c2")
	h.Subscribe("c1", "group:g1:alerts")

	require.NoError(t, h.Publish("group:g1:alerts", map[string]string{"id": "a1"}))

	envelope := receive(t, sub)
	assert.Equal(t, "group:g1:alerts", envelope["channel"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "a1", data["id"])
	assert.Empty(t, other.ch)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(0)
	sub := h.AddClient("c1")
	h.Subscribe("c1", "alerts")
	h.Unsubscribe("c1", "alerts")

	require.NoError(t, h.Publish("alerts", map[string]string{"id": "a1"}))
	assert.Empty(t, sub.ch)
}

func TestHubRemoveClientCleansSubscriptions(t *testing.T) {
	h := NewHub(0)
	h.AddClient("c1")
	h.Subscribe("c1", "alerts")
	h.RemoveClient("c1")

	require.NoError(t, h.Publish("alerts", map[string]string{"id": "a1"}))
	h.mu.RLock()
	assert.Empty(t, h.channels["alerts"])
	h.mu.RUnlock()
}

func TestHubPublishDropsWhenClientSlow(t *testing.T) {
	h := NewHub(0)
	sub := h.AddClient("c1")
	h.Subscribe("c1", "alerts")

	// 填满缓冲后继续发布不能阻塞
	for i := 0; i < cap(sub.ch)+10; i++ {
		require.NoError(t, h.Publish("alerts", map[string]int{"seq": i}))
	}
	assert.Len(t, sub.ch, cap(sub.ch))
}
