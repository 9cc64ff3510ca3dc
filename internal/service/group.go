package service

import (
	"context"
	"time"

	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/cache"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/logger"

	"go.uber.org/zap"
)

const membershipCachePrefix = "guard:membership:"

// GroupService 守护组管理。成员关系走短TTL缓存，写操作后主动失效
type GroupService struct {
	stores        *store.Stores
	dispatcher    *fanout.Dispatcher
	cache         cache.Cache
	membershipTTL time.Duration
}

// NewGroupService creates the group service.
func NewGroupService(stores *store.Stores, dispatcher *fanout.Dispatcher, c cache.Cache, membershipTTL time.Duration) *GroupService {
	if membershipTTL <= 0 {
		membershipTTL = time.Minute
	}
	return &GroupService{
		stores:        stores,
		dispatcher:    dispatcher,
		cache:         c,
		membershipTTL: membershipTTL,
	}
}

// Create creates a group owned by the actor, with default settings.
func (s *GroupService) Create(actorID, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, errors.InvalidArgumentf("group name is required")
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		OwnerID:     actorID,
		Settings:    models.DefaultGroupSettings(),
	}
	if err := s.stores.Groups.Save(group); err != nil {
		return nil, err
	}
	s.invalidateMembership(actorID)

	logger.Info("守护组已创建", zap.String("group_id", group.ID), zap.String("owner_id", actorID))
	return group, nil
}

// FindByID returns the group.
func (s *GroupService) FindByID(id string) (*models.Group, error) {
	return s.stores.Groups.FindByID(id)
}

// FindByMember 用户所属的全部组（含自己拥有的）
func (s *GroupService) FindByMember(userID string) ([]models.Group, error) {
	return s.stores.Groups.FindByMember(userID)
}

// MembershipGroupIDs returns the ids of every group the user belongs to,
// owned groups included. Results are cached briefly to keep the hot
// accessibility path off the database.
func (s *GroupService) MembershipGroupIDs(userID string) ([]string, error) {
	ctx := context.Background()
	if v, ok := s.cache.Get(ctx, membershipCachePrefix+userID); ok {
		if ids, ok := membershipFromCache(v); ok {
			return ids, nil
		}
	}

	ids, err := s.stores.Groups.MembershipGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, membershipCachePrefix+userID, ids, s.membershipTTL); err != nil {
		logger.Warn("成员关系缓存写入失败", zap.String("user_id", userID), zap.Error(err))
	}
	return ids, nil
}

// membershipFromCache 兼容两种后端的取值形态：本地缓存原样返回
// []string，redis经JSON往返后变成 []interface{}
func membershipFromCache(v interface{}) ([]string, bool) {
	switch ids := v.(type) {
	case []string:
		return ids, true
	case []interface{}:
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			str, ok := id.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// AddMember adds a user to the group. Allowed for the owner, or for any
// member when the group permits member invites.
func (s *GroupService) AddMember(actorID, groupID, userID string) error {
	group, err := s.stores.Groups.FindByID(groupID)
	if err != nil {
		return err
	}

	if actorID != group.OwnerID {
		if !group.Settings.AllowMemberInvites {
			return errors.Forbiddenf("only the owner can add members to group %s", groupID)
		}
		isMember, err := s.stores.Groups.IsMember(groupID, actorID)
		if err != nil {
			return err
		}
		if !isMember {
			return errors.Forbiddenf("user %s is not a member of group %s", actorID, groupID)
		}
	}

	if err := s.stores.Groups.AddMember(groupID, userID, models.RoleMember); err != nil {
		return err
	}
	s.invalidateMembership(userID)

	s.dispatcher.SendGroupNotification(groupID, "A new member has joined the group.")
	return nil
}

// RemoveMember removes a user from the group. Members may leave on their
// own; removing someone else requires ownership. The owner cannot leave.
func (s *GroupService) RemoveMember(actorID, groupID, userID string) error {
	group, err := s.stores.Groups.FindByID(groupID)
	if err != nil {
		return err
	}
	if userID == group.OwnerID {
		return errors.InvalidArgumentf("the group owner cannot be removed")
	}
	if actorID != userID && actorID != group.OwnerID {
		return errors.Forbiddenf("only the owner can remove other members")
	}

	if err := s.stores.Groups.RemoveMember(groupID, userID); err != nil {
		return err
	}
	s.invalidateMembership(userID)

	s.dispatcher.SendGroupNotification(groupID, "A member has left the group.")
	return nil
}

// UpdateSettings replaces the group settings. Owner only.
func (s *GroupService) UpdateSettings(actorID, groupID string, settings models.GroupSettings) (*models.Group, error) {
	group, err := s.stores.Groups.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != actorID {
		return nil, errors.Forbiddenf("only the owner can change group settings")
	}

	group.Settings = settings
	if err := s.stores.Groups.Save(group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the group and its memberships. Owner only.
func (s *GroupService) Delete(actorID, groupID string) error {
	group, err := s.stores.Groups.FindByID(groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != actorID {
		return errors.Forbiddenf("only the owner can delete the group")
	}

	// 先取成员列表用于缓存失效
	memberIDs, err := s.stores.Groups.MemberIDs(groupID)
	if err != nil {
		return err
	}
	if err := s.stores.Groups.DeleteByID(groupID); err != nil {
		return err
	}
	for _, id := range memberIDs {
		s.invalidateMembership(id)
	}

	logger.Info("守护组已删除", zap.String("group_id", groupID))
	return nil
}

// IsMember reports whether the user belongs to the group, owner included.
func (s *GroupService) IsMember(groupID, userID string) (bool, error) {
	return s.stores.Groups.IsMember(groupID, userID)
}

// invalidateMembership 成员关系变更后清掉缓存
func (s *GroupService) invalidateMembership(userID string) {
	if err := s.cache.Delete(context.Background(), membershipCachePrefix+userID); err != nil {
		logger.Warn("成员关系缓存失效失败", zap.String("user_id", userID), zap.Error(err))
	}
}
