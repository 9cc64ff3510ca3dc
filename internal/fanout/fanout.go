package fanout

import (
	"time"

	"github.com/sirupsen/logrus"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/metrics"
)

// Publisher 单向推送原语。实现方保证at-least-once、尽力而为，
// 失败由Dispatcher记日志吞掉，不回滚触发它的写入
type Publisher interface {
	Publish(channel string, payload interface{}) error
}

// Dispatcher computes the destination set for each domain change and delivers
// through the publisher. Delivery is fire-and-forget: a failed publish is
// logged and counted, never surfaced to the triggering write.
//
// 同一次变更的多个目的地各发各的，不去重
type Dispatcher struct {
	pub Publisher
}

// NewDispatcher creates a dispatcher over the given publisher.
func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub}
}

// send 统一的尽力而为发送
func (d *Dispatcher) send(channel string, payload interface{}) {
	if err := d.pub.Publish(channel, payload); err != nil {
		logrus.Warnf("推送失败 channel=%s: %v", channel, err)
		metrics.FanoutFailed(channel)
		return
	}
	metrics.FanoutPublished(channel)
}

// BroadcastAlert 新警报：全局频道 + 所属组频道
func (d *Dispatcher) BroadcastAlert(alert *models.Alert) {
	d.send(ChannelAlerts, alert)
	if alert.GroupID != "" {
		d.send(GroupAlerts(alert.GroupID), alert)
	}
}

// SendAlertStatusUpdate 状态变更：警报频道 + 所有者私有频道 + 组内警报频道
func (d *Dispatcher) SendAlertStatusUpdate(alert *models.Alert) {
	d.send(AlertTopic(alert.ID), alert)
	d.send(UserAlerts(alert.UserID), alert)
	if alert.GroupID != "" {
		d.send(GroupAlertTopic(alert.GroupID, alert.ID), alert)
	}
}

// SendAlertResponse 响应追加：响应频道 + 所有者私有频道
func (d *Dispatcher) SendAlertResponse(alert *models.Alert, resp *models.AlertResponse) {
	d.send(AlertResponses(alert.ID), resp)
	d.send(UserAlerts(alert.UserID), alert)
}

// SendLocationUpdate 位置更新
func (d *Dispatcher) SendLocationUpdate(userID string, loc models.Location) {
	d.send(UserLocation(userID), loc)
}

// SendGroupMessage 组聊消息
func (d *Dispatcher) SendGroupMessage(groupID string, msg *models.Message) {
	d.send(GroupMessages(groupID), msg)
}

// SendDirectMessage 私聊消息
func (d *Dispatcher) SendDirectMessage(recipientID string, msg *models.Message) {
	d.send(UserMessages(recipientID), msg)
}

// SystemNotification 系统通知载荷
type SystemNotification struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func systemNotification(message string) SystemNotification {
	return SystemNotification{
		Type:      "SYSTEM",
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}

// SendSystemNotification 用户系统通知
func (d *Dispatcher) SendSystemNotification(userID, message string) {
	d.send(UserNotifications(userID), systemNotification(message))
}

// SendGroupNotification 组系统通知
func (d *Dispatcher) SendGroupNotification(groupID, message string) {
	d.send(GroupNotifications(groupID), systemNotification(message))
}
