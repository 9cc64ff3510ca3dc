package models

import "time"

// User 终端用户。凭证签发与密码处理在网关侧，这里只存身份与最近位置
type User struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	Username          string    `json:"username" gorm:"size:64;uniqueIndex"`
	DisplayName       string    `json:"displayName" gorm:"size:128"`
	Email             string    `json:"email" gorm:"size:256"`
	Phone             string    `json:"phone,omitempty" gorm:"size:32"` // 应急短信号码，可空
	EmergencyContact  string    `json:"emergencyContact,omitempty" gorm:"size:32"`
	LastKnownLocation Location  `json:"lastKnownLocation" gorm:"embedded;embeddedPrefix:loc_"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
