package service

import (
	"HibiscusGuard/internal/fanout"
	"HibiscusGuard/internal/models"
	"HibiscusGuard/internal/store"
	"HibiscusGuard/pkg/errors"
)

// MessageService 组聊与私聊。消息落库成功后推送接收方频道
type MessageService struct {
	stores     *store.Stores
	dispatcher *fanout.Dispatcher
	groups     *GroupService
}

// NewMessageService creates the message service.
func NewMessageService(stores *store.Stores, dispatcher *fanout.Dispatcher, groups *GroupService) *MessageService {
	return &MessageService{stores: stores, dispatcher: dispatcher, groups: groups}
}

// SendMessageInput 发送消息入参
type SendMessageInput struct {
	Content     string
	MessageType models.MessageType
	MediaURLs   []string
	Location    models.Location
}

// SendToGroup stores a group message and fans it out. Members only.
func (s *MessageService) SendToGroup(actorID, groupID string, in SendMessageInput) (*models.Message, error) {
	if in.Content == "" && len(in.MediaURLs) == 0 {
		return nil, errors.InvalidArgumentf("message content is required")
	}
	isMember, err := s.groups.IsMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbiddenf("user %s is not a member of group %s", actorID, groupID)
	}

	msg := &models.Message{
		SenderID:    actorID,
		GroupID:     groupID,
		Content:     in.Content,
		MessageType: messageTypeOrText(in.MessageType),
		MediaURLs:   in.MediaURLs,
		Location:    in.Location,
	}
	if err := s.stores.Messages.Save(msg); err != nil {
		return nil, err
	}

	s.dispatcher.SendGroupMessage(groupID, msg)
	return msg, nil
}

// SendDirect stores a direct message and fans it out to the recipient.
func (s *MessageService) SendDirect(actorID, recipientID string, in SendMessageInput) (*models.Message, error) {
	if in.Content == "" && len(in.MediaURLs) == 0 {
		return nil, errors.InvalidArgumentf("message content is required")
	}
	exists, err := s.stores.Users.ExistsByID(recipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFoundf("recipient not found: %s", recipientID)
	}

	msg := &models.Message{
		SenderID:    actorID,
		RecipientID: recipientID,
		Content:     in.Content,
		MessageType: messageTypeOrText(in.MessageType),
		MediaURLs:   in.MediaURLs,
		Location:    in.Location,
	}
	if err := s.stores.Messages.Save(msg); err != nil {
		return nil, err
	}

	s.dispatcher.SendDirectMessage(recipientID, msg)
	return msg, nil
}

// GroupHistory returns recent group messages, newest first. Members only.
func (s *MessageService) GroupHistory(actorID, groupID string, limit int) ([]models.Message, error) {
	isMember, err := s.groups.IsMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.Forbiddenf("user %s is not a member of group %s", actorID, groupID)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.stores.Messages.FindByGroup(groupID, limit)
}

// DirectHistory 双向私聊历史
func (s *MessageService) DirectHistory(actorID, otherID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.stores.Messages.FindDirect(actorID, otherID, limit)
}

// MarkRead 标记已读
func (s *MessageService) MarkRead(messageID string) error {
	return s.stores.Messages.MarkRead(messageID)
}

func messageTypeOrText(t models.MessageType) models.MessageType {
	if t == "" {
		return models.MessageText
	}
	return t
}
