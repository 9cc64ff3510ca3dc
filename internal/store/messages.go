package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"HibiscusGuard/internal/models"
	"HibiscusGuard/pkg/errors"
)

// MessageStore 消息仓储
type MessageStore struct {
	db *gorm.DB
}

// Save persists the message, assigning an ID on first save.
func (s *MessageStore) Save(msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := s.db.Create(msg).Error; err != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, err, "save message")
	}
	return nil
}

// FindByGroup 组消息，旧的在前
func (s *MessageStore) FindByGroup(groupID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	q := s.db.Where("group_id = ?", groupID).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find group messages")
	}
	return msgs, nil
}

// FindDirect 双方的私聊消息
func (s *MessageStore) FindDirect(userA, userB string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	q := s.db.Where(
		s.db.Where("sender_id = ? AND recipient_id = ?", userA, userB).
			Or("sender_id = ? AND recipient_id = ?", userB, userA),
	).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, errors.WrapCode(errors.CodeStoreUnavailable, err, "find direct messages")
	}
	return msgs, nil
}

// MarkRead 标记已读
func (s *MessageStore) MarkRead(messageID string) error {
	now := time.Now()
	res := s.db.Model(&models.Message{}).Where("id = ?", messageID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		return errors.WrapCode(errors.CodeStoreUnavailable, res.Error, "mark message read")
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("message not found: %s", messageID)
	}
	return nil
}
