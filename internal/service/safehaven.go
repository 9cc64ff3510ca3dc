package service

import (
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
)

// SafeHavenService 安全区管理与包含判定。
// 可达集合 = 自有 ∪ 组共享 ∪ 公开，按ID升序保证判定确定性
type SafeHavenService struct {
	stores *store.Stores
	groups *GroupService
}

// NewSafeHavenService creates the safe haven service.
func NewSafeHavenService(stores *store.Stores, groups *GroupService) *SafeHavenService {
	return &SafeHavenService{stores: stores, groups: groups}
}

// Create stores a safe haven owned by the actor. The radius must be
// positive; coordinates are stored as given.
func (s *SafeHavenService) Create(actorID string, sh *models.SafeHaven) (*models.SafeHaven, error) {
	if sh.RadiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("safe haven radius must be positive")
	}
	if sh.GroupID != "" {
		isMember, err := s.groups.IsMember(sh.GroupID, actorID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, errors.Forbiddenf("user %s is not a member of group %s", actorID, sh.GroupID)
		}
	}

	sh.UserID = actorID
	if err := s.stores.SafeHavens.Save(sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Update replaces mutable fields. Owner only.
func (s *SafeHavenService) Update(actorID string, sh *models.SafeHaven) (*models.SafeHaven, error) {
	existing, err := s.stores.SafeHavens.FindByID(sh.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actorID {
		return nil, errors.Forbiddenf("only the owner can update the safe haven")
	}
	if sh.RadiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("safe haven radius must be positive")
	}

	sh.UserID = existing.UserID
	sh.CreatedAt = existing.CreatedAt
	if err := s.stores.SafeHavens.Save(sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Delete removes the safe haven. Owner only.
func (s *SafeHavenService) Delete(actorID, id string) error {
	existing, err := s.stores.SafeHavens.FindByID(id)
	if err != nil {
		return err
	}
	if existing.UserID != actorID {
		return errors.Forbiddenf("only the owner can delete the safe haven")
	}
	return s.stores.SafeHavens.DeleteByID(id)
}

// FindByID returns the safe haven.
func (s *SafeHavenService) FindByID(id string) (*models.SafeHaven, error) {
	return s.stores.SafeHavens.FindByID(id)
}

// FindAccessible returns every safe haven the user can rely on, id
// ascending: their own, those shared with their groups, and public ones.
func (s *SafeHavenService) FindAccessible(userID string) ([]models.SafeHaven, error) {
	groupIDs, err := s.groups.MembershipGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.stores.SafeHavens.FindAccessible(userID, groupIDs)
}

// FindAccessibleNear 用户可达且在半径内的安全区
func (s *SafeHavenService) FindAccessibleNear(userID string, center geo.Point, radiusMeters float64) ([]models.SafeHaven, error) {
	if radiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("radius must be positive")
	}
	groupIDs, err := s.groups.MembershipGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.stores.SafeHavens.FindAccessibleNear(userID, groupIDs, center, radiusMeters)
}

// FindPublicNear 公开安全区
func (s *SafeHavenService) FindPublicNear(center geo.Point, radiusMeters float64) ([]models.SafeHaven, error) {
	if radiusMeters <= 0 {
		return nil, errors.InvalidArgumentf("radius must be positive")
	}
	return s.stores.SafeHavens.FindPublicNear(center, radiusMeters)
}

// LocateResult 包含判定结果
type LocateResult struct {
	Inside    bool              `json:"inside"`
	SafeHaven *models.SafeHaven `json:"safeHaven,omitempty"`
}

// Locate reports whether the point lies inside any safe haven accessible to
// the user. Containment is boundary inclusive; with overlapping havens the
// one with the smallest id wins.
func (s *SafeHavenService) Locate(userID string, p geo.Point) (*LocateResult, error) {
	havens, err := s.FindAccessible(userID)
	if err != nil {
		return nil, err
	}

	for i := range havens {
		center := geo.Point{Lat: havens[i].Lat, Lon: havens[i].Lon}
		if geo.Contains(center, havens[i].RadiusMeters, p) {
			return &LocateResult{Inside: true, SafeHaven: &havens[i]}, nil
		}
	}
	return &LocateResult{Inside: false}, nil
}
