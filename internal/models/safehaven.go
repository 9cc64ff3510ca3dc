package models

import "time"

// SafeHaven 圆形安全区。可见范围三选一：仅所有者、组内共享、公开
type SafeHaven struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:128"`
	Description string    `json:"description" gorm:"size:512"`
	Address     string    `json:"address" gorm:"size:256"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	RadiusMeters float64  `json:"radiusMeters"` // 必须 > 0
	UserID      string    `json:"userId" gorm:"size:36;index"` // 所有者
	GroupID     string    `json:"groupId,omitempty" gorm:"size:36;index"`
	IsPublic    bool      `json:"isPublic" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
