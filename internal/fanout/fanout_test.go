package fanout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HibiscusGuard/internal/models"
)

type capturePublisher struct {
	published map[string][]interface{}
	failOn    string
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{published: make(map[string][]interface{})}
}

func (p *capturePublisher) Publish(channel string, payload interface{}) error {
	if p.failOn != "" && channel == p.failOn {
		return errors.New("publish failed")
	}
	p.published[channel] = append(p.published[channel], payload)
	return nil
}

func (p *capturePublisher) channels() []string {
	out := make([]string, 0, len(p.published))
	for ch := range p.published {
		out = append(out, ch)
	}
	return out
}

func TestBroadcastAlertWithGroup(t *testing.T) {
	pub := newCapturePublisher()
	d := NewDispatcher(pub)

	alert := &models.Alert{ID: "a1", UserID: "u1", GroupID: "g1"}
	d.BroadcastAlert(alert)

	assert.Len(t, pub.published[ChannelAlerts], 1)
	assert.Len(t, pub.published[GroupAlerts("g1")], 1)
	assert.Len(t, pub.channels(), 2)
}

func TestBroadcastAlertWithoutGroup(t *testing.T) {
	pub := newCapturePublisher()
	d := NewDispatcher(pub)

	d.BroadcastAlert(&models.Alert{ID: "a1", UserID: "u1"})

	assert.Len(t, pub.published[ChannelAlerts], 1)
	assert.Len(t, pub.channels(), 1, "无组警报只应推送全局频道")
}

func TestSendAlertStatusUpdate(t *testing.T) {
	pub := newCapturePublisher()
	d := NewDispatcher(pub)

	alert := &models.Alert{ID: "a1", UserID: "u1", GroupID: "g1", Status: models.StatusResolved}
	d.SendAlertStatusUpdate(alert)

	assert.Len(t, pub.published[AlertTopic("a1")], 1)
	assert.Len(t, pub.published[UserAlerts("u1")], 1)
	assert.Len(t, pub.published[GroupAlertTopic("g1", "a1")], 1)
}

func TestSendAlertResponse(t *testing.T) {
	pub := newCapturePublisher()
	d := NewDispatcher(pub)

	alert := &models.Alert{ID: "a1", UserID: "u1"}
	resp := &models.AlertResponse{AlertID: "a1", ResponderUserID: "u2", ResponseType: models.ResponseAcknowledged}
	d.SendAlertResponse(alert, resp)

	require.Len(t, pub.published[AlertResponses("a1")], 1)
	assert.Equal(t, resp, pub.published[AlertResponses("a1")][0])
	// 所有者收到的是完整警报
	require.Len(t, pub.published[UserAlerts("u1")], 1)
	assert.Equal(t, alert, pub.published[UserAlerts("u1")][0])
}

func TestSendSystemNotificationEnvelope(t *testing.T) {
	pub := newCapturePublisher()
	d := NewDispatcher(pub)

	d.SendSystemNotification("u1", "welcome")

	require.Len(t, pub.published[UserNotifications("u1")], 1)
	note, ok := pub.published[UserNotifications("u1")][0].(SystemNotification)
	require.True(t, ok)
	assert.Equal(t, "SYSTEM", note.Type)
	assert.Equal(t, "welcome", note.Message)
	assert.NotZero(t, note.Timestamp)
}

func TestDispatcherSwallowsPublishFailure(t *testing.T) {
	pub := newCapturePublisher()
	pub.failOn = ChannelAlerts
	d := NewDispatcher(pub)

	// 全局频道失败不影响组频道送达
	d.BroadcastAlert(&models.Alert{ID: "a1", UserID: "u1", GroupID: "g1"})
	assert.Len(t, pub.published[GroupAlerts("g1")], 1)
}

func TestMultiPublisherAttemptsAll(t *testing.T) {
	ok := newCapturePublisher()
	failing := newCapturePublisher()
	failing.failOn = "alerts"

	m := NewMultiPublisher(failing, ok)
	err := m.Publish("alerts", "payload")

	assert.Error(t, err)
	assert.Len(t, ok.published["alerts"], 1, "后续Publisher仍应被尝试")
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "alerts", ChannelAlerts)
	assert.Equal(t, "group:g1:alerts", GroupAlerts("g1"))
	assert.Equal(t, "alert:a1", AlertTopic("a1"))
	assert.Equal(t, "group:g1:alert:a1", GroupAlertTopic("g1", "a1"))
	assert.Equal(t, "alert:a1:responses", AlertResponses("a1"))
	assert.Equal(t, "user:u1:alerts", UserAlerts("u1"))
	assert.Equal(t, "user:u1:location", UserLocation("u1"))
	assert.Equal(t, "group:g1:messages", GroupMessages("g1"))
	assert.Equal(t, "user:u1:messages", UserMessages("u1"))
	assert.Equal(t, "user:u1:notifications", UserNotifications("u1"))
	assert.Equal(t, "group:g1:notifications", GroupNotifications("g1"))
}
