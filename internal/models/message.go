package models

import "time"

// MessageType 消息类型
type MessageType string

const (
	MessageText       MessageType = "TEXT"
	MessagePredefined MessageType = "PREDEFINED"
	MessageMedia      MessageType = "MEDIA"
	MessageLocation   MessageType = "LOCATION"
	MessageSystem     MessageType = "SYSTEM"
)

// Message 组聊或私聊消息
type Message struct {
	ID           string      `json:"id" gorm:"primaryKey;size:36"`
	SenderID     string      `json:"senderId" gorm:"size:36;index"`
	GroupID      string      `json:"groupId,omitempty" gorm:"size:36;index"` // 组消息时设置
	RecipientID  string      `json:"recipientId,omitempty" gorm:"size:36;index"` // 私聊时设置
	Content      string      `json:"content" gorm:"size:2048"`
	MessageType  MessageType `json:"messageType" gorm:"size:16"`
	MediaURLs    StringList  `json:"mediaUrls" gorm:"type:text"`
	Location     Location    `json:"location" gorm:"embedded;embeddedPrefix:loc_"`
	IsRead       bool        `json:"isRead"`
	ReadAt       *time.Time  `json:"readAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}
