package models

import "time"

// EventType 设备/传感器信号类型
type EventType string

const (
	EventFallDetected      EventType = "FALL_DETECTED"
	EventCollisionDetected EventType = "COLLISION_DETECTED"
	EventRapidDeceleration EventType = "RAPID_DECELERATION"
	EventUnusualMovement   EventType = "UNUSUAL_MOVEMENT"
	EventInactivity        EventType = "INACTIVITY"
	EventManualAlert       EventType = "MANUAL_ALERT"
	EventEnterSafeHaven    EventType = "ENTER_SAFEHAVEN"
	EventExitSafeHaven     EventType = "EXIT_SAFEHAVEN"
	EventEnterRiskArea     EventType = "ENTER_RISK_AREA"
	EventExitRiskArea      EventType = "EXIT_RISK_AREA"
)

// Event 原始安全事件，写入后不可变，由分类器消费一次
type Event struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     string    `json:"userId" gorm:"size:36;index"`
	DeviceID   string    `json:"deviceId" gorm:"size:64;index"`
	EventType  EventType `json:"eventType" gorm:"size:32;index"`
	Location   Location  `json:"location" gorm:"embedded;embeddedPrefix:loc_"`
	Confidence float64   `json:"confidence"` // [0,1]
	RawData    string    `json:"rawData,omitempty" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp"`
}
