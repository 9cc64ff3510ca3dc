package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
	"HibiscusGuard/pkg/geo"
)

// SafeHavenStore 安全区仓储
type SafeHavenStore struct {
	db *gorm.DB
}

// Save persists the safe haven, assigning an ID on first save.
func (s *SafeHavenStore) Save(sh *models.SafeHaven) error {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	if err := s.db.Save(sh).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save safe haven")
	}
	return nil
}

// FindByID returns the safe haven or a CodeNotFound error.
func (s *SafeHavenStore) FindByID(id string) (*models.SafeHaven, error) {
	var sh models.SafeHaven
	err := s.db.First(&sh, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("safe haven not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find safe haven")
	}
	return &sh, nil
}

// FindByOwner 所有者的私有安全区
func (s *SafeHavenStore) FindByOwner(userID string) ([]models.SafeHaven, error) {
	var havens []models.SafeHaven
	if err := s.db.Where("user_id = ?", userID).Find(&havens).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find safe havens by owner")
	}
	return havens, nil
}

// FindAccessible returns the de-duplicated union of the user's own havens,
// havens shared with any of the given groups, and public havens. Ordered by
// id ascending so containment checks are deterministic.
func (s *SafeHavenStore) FindAccessible(userID string, groupIDs []string) ([]models.SafeHaven, error) {
	var havens []models.SafeHaven
	q := s.db.Where("user_id = ?", userID).Or("is_public = ?", true)
	if len(groupIDs) > 0 {
		q = q.Or("group_id IN ?", groupIDs)
	}
	if err := s.db.Where(q).Order("id ASC").Find(&havens).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find accessible safe havens")
	}
	return havens, nil
}

// FindAccessibleNear 可见且在半径内的安全区
func (s *SafeHavenStore) FindAccessibleNear(userID string, groupIDs []string, center geo.Point, radiusMeters float64) ([]models.SafeHaven, error) {
	var havens []models.SafeHaven
	visible := s.db.Where("user_id = ?", userID).Or("is_public = ?", true)
	if len(groupIDs) > 0 {
		visible = visible.Or("group_id IN ?", groupIDs)
	}
	q := withinBox(s.db.Where(visible), "lat", "lon", center, radiusMeters).Order("id ASC")
	if err := q.Find(&havens).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find safe havens near")
	}
	return filterByDistance(havens, func(h models.SafeHaven) geo.Point {
		return geo.Point{Lat: h.Lat, Lon: h.Lon}
	}, center, radiusMeters), nil
}

// FindPublicNear 公开安全区
func (s *SafeHavenStore) FindPublicNear(center geo.Point, radiusMeters float64) ([]models.SafeHaven, error) {
	var havens []models.SafeHaven
	q := withinBox(s.db.Where("is_public = ?", true), "lat", "lon", center, radiusMeters)
	if err := q.Find(&havens).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find public safe havens near")
	}
	return filterByDistance(havens, func(h models.SafeHaven) geo.Point {
		return geo.Point{Lat: h.Lat, Lon: h.Lon}
	}, center, radiusMeters), nil
}

// ExistsByID reports whether the safe haven exists.
func (s *SafeHavenStore) ExistsByID(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.SafeHaven{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.WrapCode(errors.CodeStoreUnavailable, err, "safe haven exists")
	}
	return count > 0, nil
}

// Touch 更新修改时间
func (s *SafeHavenStore) Touch(id string) error {
	return s.db.Model(&models.SafeHaven{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

// DeleteByID removes the safe haven.
func (s *SafeHavenStore) DeleteByID(id string) error {
	if err := s.db.Delete(&models.SafeHaven{}, "id = ?", id).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "delete safe haven")
	}
	return nil
}
