package classifier

import "HibiscusGuard/internal/models"

// Rule 单个事件类型的分类策略：置信度门槛 + 产出的警报类型与文案
type Rule struct {
	Threshold float64          // 低于门槛不产警报；0 表示无条件产出
	AlertType models.AlertType // 产出的警报类型
	Message   string           // 警报文案
}

// rules 是事件到警报的唯一策略来源。
// 不在表里的事件类型不产警报（地理围栏进出类事件只做记录或旁路通知）。
var rules = map[models.EventType]Rule{
	models.EventFallDetected: {
		Threshold: 0.7,
		AlertType: models.AlertFallDetected,
		Message:   "Fall detected. User may need assistance.",
	},
	models.EventCollisionDetected: {
		Threshold: 0.7,
		AlertType: models.AlertCollisionDetected,
		Message:   "Collision detected. User may need assistance.",
	},
	models.EventRapidDeceleration: {
		Threshold: 0.7,
		AlertType: models.AlertCollisionDetected,
		Message:   "Rapid deceleration detected. User may need assistance.",
	},
	models.EventUnusualMovement: {
		Threshold: 0.9,
		AlertType: models.AlertInactivity,
		Message:   "Unusual movement detected. User may need assistance.",
	},
	models.EventInactivity: {
		Threshold: 0.9,
		AlertType: models.AlertInactivity,
		Message:   "Unusual inactivity detected. User may need assistance.",
	},
	models.EventManualAlert: {
		Threshold: 0,
		AlertType: models.AlertManual,
		Message:   "User has manually triggered an alert.",
	},
}

// geofenceEvents 只记录、不分类的事件类型
var geofenceEvents = map[models.EventType]bool{
	models.EventEnterSafeHaven: true,
	models.EventExitSafeHaven:  true,
	models.EventEnterRiskArea:  true,
	models.EventExitRiskArea:   true,
}

// fallbackRule 未知事件类型的兜底：宁可产出一条模糊警报也不沉默
var fallbackRule = Rule{
	Threshold: 0,
	AlertType: models.AlertManual,
	Message:   "Alert triggered due to safety event.",
}

// Draft 分类产出的警报草稿
type Draft struct {
	UserID    string
	AlertType models.AlertType
	Message   string
	Location  models.Location
}

// Classify maps a raw event to at most one alert draft. It is pure and never
// fails: known geofence events yield nothing, unknown event types fall back
// to a generic MANUAL draft.
func Classify(event models.Event) (Draft, bool) {
	if geofenceEvents[event.EventType] {
		return Draft{}, false
	}

	rule, ok := rules[event.EventType]
	if !ok {
		rule = fallbackRule
	}
	if rule.Threshold > 0 && event.Confidence < rule.Threshold {
		return Draft{}, false
	}

	return Draft{
		UserID:    event.UserID,
		AlertType: rule.AlertType,
		Message:   rule.Message,
		Location:  event.Location,
	}, true
}

// NotifiesRiskArea reports whether the event should trigger the one-shot
// risk-area notification to the user's private channel.
func NotifiesRiskArea(event models.Event) bool {
	return event.EventType == models.EventEnterRiskArea
}

// RiskAreaNotice 进入风险区时推送给用户的提示文案
const RiskAreaNotice = "You have entered an area with an active safety risk. Please be cautious."
