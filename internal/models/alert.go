package models

import "time"

// AlertType 警报类型
type AlertType string

const (
	AlertManual            AlertType = "MANUAL"
	AlertFallDetected      AlertType = "FALL_DETECTED"
	AlertCollisionDetected AlertType = "COLLISION_DETECTED"
	AlertInactivity        AlertType = "INACTIVITY"
	AlertTimerExpired      AlertType = "TIMER_EXPIRED"
	AlertTest              AlertType = "TEST"
)

// AlertStatus 警报状态
type AlertStatus string

const (
	StatusActive       AlertStatus = "ACTIVE"
	StatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	StatusResolved     AlertStatus = "RESOLVED"
	StatusFalseAlarm   AlertStatus = "FALSE_ALARM"
	StatusExpired      AlertStatus = "EXPIRED"
)

// ValidAlertStatus reports whether s is a known status value.
func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved, StatusFalseAlarm, StatusExpired:
		return true
	}
	return false
}

// ResponseType 响应者动作类型
type ResponseType string

const (
	ResponseAcknowledged ResponseType = "ACKNOWLEDGED"
	ResponseEnRoute      ResponseType = "EN_ROUTE"
	ResponseOnScene      ResponseType = "ON_SCENE"
	ResponseCannotHelp   ResponseType = "CANNOT_HELP"
	ResponseMessage      ResponseType = "MESSAGE"
)

// Alert 需要关注的安全警报，由事件分类或手动触发产生
type Alert struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	UserID    string          `json:"userId" gorm:"size:36;index"` // 创建者即所有者
	GroupID   string          `json:"groupId,omitempty" gorm:"size:36;index"`
	AlertType AlertType       `json:"alertType" gorm:"size:32"`
	Location  Location        `json:"location" gorm:"embedded;embeddedPrefix:loc_"`
	Status    AlertStatus     `json:"status" gorm:"size:16;index"`
	Responses []AlertResponse `json:"responses" gorm:"foreignKey:AlertID;references:ID"`
	MediaURLs StringList      `json:"mediaUrls" gorm:"type:text"`
	Message   string          `json:"message" gorm:"size:512"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AlertResponse 响应日志条目。独立成表，追加即插入一行，
// 并发响应互不覆盖；Seq 为落库顺序
type AlertResponse struct {
	Seq             uint         `json:"seq" gorm:"primaryKey;autoIncrement"`
	AlertID         string       `json:"alertId" gorm:"size:36;index"`
	ResponderUserID string       `json:"responderUserId" gorm:"size:36"`
	ResponseType    ResponseType `json:"responseType" gorm:"size:16"`
	Message         string       `json:"message" gorm:"size:512"`
	Location        Location     `json:"location" gorm:"embedded;embeddedPrefix:loc_"`
	Timestamp       time.Time    `json:"timestamp"`
}
