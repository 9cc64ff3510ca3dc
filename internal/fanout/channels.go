package fanout

import "fmt"

// 频道命名：冒号分隔的层级路径，实体ID保证互不串台。
// 订阅端用完整频道名挂接，不做模式匹配。
const (
	// ChannelAlerts 全局警报频道
	ChannelAlerts = "alerts"
)

// GroupAlerts 组警报频道
func GroupAlerts(groupID string) string {
	return fmt.Sprintf("group:%s:alerts", groupID)
}

// AlertTopic 单条警报的状态更新频道
func AlertTopic(alertID string) string {
	return fmt.Sprintf("alert:%s", alertID)
}

// GroupAlertTopic 组内单条警报频道
func GroupAlertTopic(groupID, alertID string) string {
	return fmt.Sprintf("group:%s:alert:%s", groupID, alertID)
}

// AlertResponses 警报响应日志频道
func AlertResponses(alertID string) string {
	return fmt.Sprintf("alert:%s:responses", alertID)
}

// UserAlerts 用户私有警报频道
func UserAlerts(userID string) string {
	return fmt.Sprintf("user:%s:alerts", userID)
}

// UserLocation 用户位置频道
func UserLocation(userID string) string {
	return fmt.Sprintf("user:%s:location", userID)
}

// GroupMessages 组聊频道
func GroupMessages(groupID string) string {
	return fmt.Sprintf("group:%s:messages", groupID)
}

// UserMessages 用户私聊频道
func UserMessages(userID string) string {
	return fmt.Sprintf("user:%s:messages", userID)
}

// UserNotifications 用户通知频道
func UserNotifications(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

// GroupNotifications 组通知频道
func GroupNotifications(groupID string) string {
	return fmt.Sprintf("group:%s:notifications", groupID)
}
