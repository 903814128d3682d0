package service

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-chat/internal/audit"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/kafka"
	"github.com/weiawesome/wes-io-chat/internal/repository"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

type chatServiceImpl struct {
	repo        repository.ChatRepository
	broadcaster Broadcaster
	producer    kafka.EventProducer // nil when the event stream is disabled
	now         func() time.Time
}

// NewChatService creates a ChatService. producer may be nil.
func NewChatService(repo repository.ChatRepository, broadcaster Broadcaster, producer kafka.EventProducer) ChatService {
	return &chatServiceImpl{
		repo:        repo,
		broadcaster: broadcaster,
		producer:    producer,
		now:         time.Now,
	}
}

func (s *chatServiceImpl) CreateChat(ctx context.Context, actorID string, participantIDs []string) (*domain.Chat, error) {
	chat, err := s.repo.CreateChat(ctx, participantIDs)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreateChat, actorID, chat.ID, "chat created")
	s.publish(ctx, chat.ID, actorID, domain.EventNewChat, chat)
	return chat, nil
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error) {
	msg, err := domain.NewMessage(in.ChatID, in.Sender, in.Receiver, in.Text, in.MediaURLs)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.GetChat(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(in.Sender) {
		return nil, domain.ErrNotParticipant
	}

	stored, err := s.repo.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, in.Sender, stored.ChatID, stored.ID, "message sent")
	s.publish(ctx, stored.ChatID, in.Sender, domain.EventMessageReceived, stored)
	return stored, nil
}

func (s *chatServiceImpl) MarkMessageAsRead(ctx context.Context, actorID, messageID string) (*domain.Message, error) {
	msg, _, err := s.repo.MarkMessageAsRead(ctx, messageID)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionReadMessage, actorID, msg.ChatID, msg.ID, "message marked as read")
	s.publish(ctx, msg.ChatID, actorID, domain.EventMessageRead, domain.MessageReadPayload{MessageID: msg.ID})
	return msg, nil
}

func (s *chatServiceImpl) DeleteMessage(ctx context.Context, actorID, chatID, messageID string) error {
	deleted, err := s.repo.DeleteMessage(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrMessageNotFound
	}

	audit.LogWithDetail(ctx, audit.ActionDeleteMessage, actorID, chatID, messageID, "message deleted")
	s.publish(ctx, chatID, actorID, domain.EventMessageDelete, domain.MessageDeletePayload{MessageID: messageID})
	return nil
}

func (s *chatServiceImpl) DeleteChat(ctx context.Context, actorID, chatID string) error {
	deleted, err := s.repo.DeleteChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrChatNotFound
	}

	audit.Log(ctx, audit.ActionDeleteChat, actorID, chatID, "chat deleted")
	s.publish(ctx, chatID, actorID, domain.EventChatDelete, domain.ChatDeletePayload{ChatID: chatID})
	return nil
}

func (s *chatServiceImpl) GetUserChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	return s.repo.GetUserChats(ctx, userID)
}

func (s *chatServiceImpl) GetMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	if _, err := s.repo.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, chatID)
}

func (s *chatServiceImpl) GetAllChats(ctx context.Context) ([]domain.Chat, error) {
	return s.repo.GetAllChats(ctx)
}

// publish pushes event into the chat room and onto the event stream. The
// store is already updated at this point, so failures are only logged.
func (s *chatServiceImpl) publish(ctx context.Context, chatID, actorID, event string, payload interface{}) {
	l := log.Ctx(ctx)

	if err := s.broadcaster.Broadcast(chatID, event, payload, ""); err != nil {
		l.Warn().Err(err).Str(log.FieldEvent, event).Str(log.FieldChatID, chatID).Msg("failed to broadcast chat event")
	}

	if s.producer == nil {
		return
	}
	evt := &domain.ChatEvent{
		Type:      event,
		ChatID:    chatID,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: s.now().UTC(),
	}
	if err := s.producer.ProduceEvent(ctx, evt); err != nil {
		l.Warn().Err(err).Str(log.FieldEvent, event).Str(log.FieldChatID, chatID).Msg("failed to produce chat event")
	}
}
