package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
)

// GroupStore 组与成员关系仓储
type GroupStore struct {
	db *gorm.DB
}

// Save persists the group, assigning an ID on first save.
func (s *GroupStore) Save(group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if err := s.db.Save(group).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save group")
	}
	return nil
}

// FindByID returns the group or a CodeNotFound error.
func (s *GroupStore) FindByID(id string) (*models.Group, error) {
	var group models.Group
	err := s.db.First(&group, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("group not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find group")
	}
	return &group, nil
}

// MembershipGroupIDs returns the IDs of every group the user belongs to
// (owner, admin or plain member).
func (s *GroupStore) MembershipGroupIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.GroupMember{}).Where("user_id = ?", userID).
		Distinct().Pluck("group_id", &ids).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "membership group ids")
	}
	var owned []string
	err = s.db.Model(&models.Group{}).Where("owner_id = ?", userID).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "owned group ids")
	}
	// 去重合并
	seen := make(map[string]bool, len(ids)+len(owned))
	merged := make([]string, 0, len(ids)+len(owned))
	for _, id := range append(ids, owned...) {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged, nil
}

// AddMember inserts a membership row, ignoring duplicates.
func (s *GroupStore) AddMember(groupID, userID string, role models.GroupRole) error {
	member := models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	err := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		FirstOrCreate(&member).Error
	if err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "add group member")
	}
	return nil
}

// RemoveMember deletes the membership row.
func (s *GroupStore) RemoveMember(groupID, userID string) error {
	err := s.db.Delete(&models.GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID).Error
	if err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "remove group member")
	}
	return nil
}

// IsMember reports whether the user belongs to the group.
func (s *GroupStore) IsMember(groupID, userID string) (bool, error) {
	var group models.Group
	if err := s.db.Select("owner_id").First(&group, "id = ?", groupID).Error; err == nil {
		if group.OwnerID == userID {
			return true, nil
		}
	}
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).Count(&count).Error
	if err != nil {
		return false, errors.WrapCode(errors.CodeStoreUnavailable, err, "group membership check")
	}
	return count > 0, nil
}

// MemberIDs returns the user IDs of all members including the owner.
func (s *GroupStore) MemberIDs(groupID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.GroupMember{}).Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "group member ids")
	}
	var group models.Group
	if err := s.db.Select("owner_id").First(&group, "id = ?", groupID).Error; err == nil && group.OwnerID != "" {
		found := false
		for _, id := range ids {
			if id == group.OwnerID {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, group.OwnerID)
		}
	}
	return ids, nil
}

// FindByMember 用户参与的组
func (s *GroupStore) FindByMember(userID string) ([]models.Group, error) {
	ids, err := s.MembershipGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []models.Group
	if err := s.db.Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find groups by member")
	}
	return groups, nil
}

// DeleteByID removes the group and its membership rows.
func (s *GroupStore) DeleteByID(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.GroupMember{}, "group_id = ?", id).Error; err != nil {
			return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete group members")
		}
		if err := tx.Delete(&models.Group{}, "id = ?", id).Error; err != nil {
			return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete group")
		}
		return nil
	})
}
