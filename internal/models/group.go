package models

import "time"

// GroupRole 组内角色
type GroupRole string

const (
	RoleMember GroupRole = "member"
	RoleAdmin  GroupRole = "admin"
)

// Group 守护组
type Group struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	Name        string        `json:"name" gorm:"size:128"`
	Description string        `json:"description" gorm:"size:512"`
	OwnerID     string        `json:"ownerId" gorm:"size:36;index"`
	Settings    GroupSettings `json:"settings" gorm:"embedded;embeddedPrefix:set_"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// GroupSettings 组行为开关
type GroupSettings struct {
	AllowMemberInvites       bool `json:"allowMemberInvites"`
	AutoShareLocationOnAlert bool `json:"autoShareLocationOnAlert"`
	NotifyAllOnAlert         bool `json:"notifyAllOnAlert"`
	AlertCountdownSeconds    int  `json:"alertCountdownSeconds"`
}

// DefaultGroupSettings 新组的默认设置
func DefaultGroupSettings() GroupSettings {
	return GroupSettings{
		AllowMemberInvites:       false,
		AutoShareLocationOnAlert: true,
		NotifyAllOnAlert:         true,
		AlertCountdownSeconds:    5,
	}
}

// GroupMember 成员关系，一行一个成员
type GroupMember struct {
	ID      uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	GroupID string    `json:"groupId" gorm:"size:36;index:idx_group_user,unique"`
	UserID  string    `json:"userId" gorm:"size:36;index:idx_group_user,unique;index"`
	Role    GroupRole `json:"role" gorm:"size:16"`
	JoinedAt time.Time `json:"joinedAt"`
}
