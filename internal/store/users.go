package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
)

// UserStore 用户仓储
type UserStore struct {
	db *gorm.DB
}

// Save persists the user, assigning an ID on first save.
func (s *UserStore) Save(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.db.Save(user).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save user")
	}
	return nil
}

// FindByID returns the user or a CodeNotFound error.
func (s *UserStore) FindByID(id string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("user not found: %s", id)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find user")
	}
	return &user, nil
}

// FindByUsername returns the user or a CodeNotFound error.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "username = ?", username).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundf("user not found: %s", username)
	}
	if err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find user by username")
	}
	return &user, nil
}

// ExistsByID reports whether the user exists.
func (s *UserStore) ExistsByID(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.WrapCode(errors.CodeStoreUnavailable, err, "user exists")
	}
	return count > 0, nil
}

// UpdateLastKnownLocation 只更新最近位置字段
func (s *UserStore) UpdateLastKnownLocation(userID string, loc models.Location) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"loc_lat":       loc.Lat,
			"loc_lon":       loc.Lon,
			"loc_accuracy":  loc.Accuracy,
			"loc_source":    loc.Source,
			"loc_timestamp": loc.Timestamp,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, res.Error, "update last known location")
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("user not found: %s", userID)
	}
	return nil
}

// EmergencyPhone returns the user's emergency contact number, falling back
// to their own phone. ok is false when neither is set.
func (s *UserStore) EmergencyPhone(userID string) (string, bool) {
	var user models.User
	if err := s.db.Select("phone", "emergency_contact").First(&user, "id = ?", userID).Error; err != nil {
		return "", false
	}
	if user.EmergencyContact != "" {
		return user.EmergencyContact, true
	}
	if user.Phone != "" {
		return user.Phone, true
	}
	return "", false
}
