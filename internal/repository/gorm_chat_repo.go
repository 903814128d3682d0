package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

const recentFirst = "created_at DESC, id DESC"

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db            *gorm.DB
	cascadeDelete bool
}

// NewGormChatRepository creates a GORM-backed chat repository. With
// cascadeDelete set, deleting a chat also deletes its messages.
func NewGormChatRepository(db *gorm.DB, cascadeDelete bool) *GormChatRepository {
	return &GormChatRepository{db: db, cascadeDelete: cascadeDelete}
}

// Models lists the tables owned by this repository, for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&domain.ChatModel{},
		&domain.ParticipantModel{},
		&domain.MessageModel{},
	}
}

func (r *GormChatRepository) CreateChat(ctx context.Context, participantIDs []string) (*domain.Chat, error) {
	l := log.Ctx(ctx)

	ids, err := domain.NormalizeParticipants(participantIDs)
	if err != nil {
		return nil, err
	}

	model := &domain.ChatModel{ID: domain.NewID()}
	for _, id := range ids {
		model.Participants = append(model.Participants, domain.ParticipantModel{UserID: id})
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create chat in db")
		return nil, err
	}

	l.Debug().Str(log.FieldChatID, model.ID).Int("participants", len(ids)).Msg("chat created in db")
	return model.ToDomain(), nil
}

func (r *GormChatRepository) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	if err := domain.ValidateID(chatID); err != nil {
		return nil, err
	}

	model, err := r.loadChat(r.db.WithContext(ctx), chatID)
	if err != nil {
		if !errors.Is(err, domain.ErrChatNotFound) {
			l := log.Ctx(ctx)
			l.Error().Err(err).Str(log.FieldChatID, chatID).Msg("failed to get chat")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormChatRepository) GetUserChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	l := log.Ctx(ctx)

	db := r.db.WithContext(ctx)
	memberOf := db.Model(&domain.ParticipantModel{}).Select("chat_id").Where("user_id = ?", userID)

	var models []domain.ChatModel
	err := withChatRelations(db).
		Where("id IN (?)", memberOf).
		Order("updated_at DESC").
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user chats from db")
		return nil, err
	}
	return chatsToDomain(models), nil
}

func (r *GormChatRepository) GetAllChats(ctx context.Context) ([]domain.Chat, error) {
	l := log.Ctx(ctx)

	var models []domain.ChatModel
	if err := withChatRelations(r.db.WithContext(ctx)).Order("updated_at DESC").Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list chats from db")
		return nil, err
	}
	return chatsToDomain(models), nil
}

func (r *GormChatRepository) SendMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	l := log.Ctx(ctx)

	// Checked here as well as in domain.NewMessage so that callers building
	// a Message by hand still cannot store an empty one.
	if msg == nil || msg.ChatID == "" {
		return nil, domain.ErrMissingChatID
	}
	if msg.Sender == "" {
		return nil, domain.ErrMissingSender
	}
	if !hasContent(msg.Text, msg.MediaURLs) {
		return nil, domain.ErrEmptyMessage
	}
	if err := domain.ValidateID(msg.ChatID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	model := domain.MessageToModel(msg)
	model.ID = domain.NewID()
	model.MediaURLs = nonEmpty(msg.MediaURLs)
	model.IsRead = false
	model.CreatedAt = now
	model.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.ChatModel{}).Where("id = ?", msg.ChatID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrChatNotFound
		}

		if err := tx.Create(model).Error; err != nil {
			return err
		}

		return tx.Model(&domain.ChatModel{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{
				"last_message_id": model.ID,
				"updated_at":      now,
			}).Error
	})
	if err != nil {
		if !errors.Is(err, domain.ErrChatNotFound) {
			l.Error().Err(err).Str(log.FieldChatID, msg.ChatID).Msg("failed to send message")
		}
		return nil, err
	}

	l.Debug().Str(log.FieldChatID, msg.ChatID).Str(log.FieldMessageID, model.ID).Msg("message stored")
	return model.ToDomain(), nil
}

func (r *GormChatRepository) GetMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	if err := domain.ValidateID(chatID); err != nil {
		return nil, err
	}

	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldChatID, chatID).Msg("failed to get messages from db")
		return nil, err
	}

	msgs := make([]domain.Message, len(models))
	for i := range models {
		msgs[i] = *models[i].ToDomain()
	}
	return msgs, nil
}

func (r *GormChatRepository) MarkMessageAsRead(ctx context.Context, messageID string) (*domain.Message, *domain.Chat, error) {
	l := log.Ctx(ctx)

	if err := domain.ValidateID(messageID); err != nil {
		return nil, nil, err
	}

	var (
		msg  domain.MessageModel
		chat *domain.ChatModel
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMessageNotFound
			}
			return err
		}

		now := time.Now().UTC()
		if !msg.IsRead {
			if err := tx.Model(&domain.MessageModel{}).
				Where("id = ?", messageID).
				Updates(map[string]interface{}{"is_read": true, "updated_at": now}).Error; err != nil {
				return err
			}
			msg.IsRead = true
			msg.UpdatedAt = now
		}

		res := tx.Model(&domain.ChatModel{}).
			Where("id = ? AND last_message_id = ?", msg.ChatID, messageID).
			Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		loaded, err := r.loadChat(tx, msg.ChatID)
		if err != nil {
			return err
		}
		chat = loaded
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrMessageNotFound) {
			l.Error().Err(err).Str(log.FieldMessageID, messageID).Msg("failed to mark message as read")
		}
		return nil, nil, err
	}

	if chat == nil {
		return msg.ToDomain(), nil, nil
	}
	return msg.ToDomain(), chat.ToDomain(), nil
}

func (r *GormChatRepository) DeleteMessage(ctx context.Context, chatID, messageID string) (bool, error) {
	l := log.Ctx(ctx)

	if err := domain.ValidateID(chatID); err != nil {
		return false, err
	}
	if err := domain.ValidateID(messageID); err != nil {
		return false, err
	}

	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND chat_id = ?", messageID, chatID).Delete(&domain.MessageModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true

		var chat domain.ChatModel
		if err := tx.Select("id", "last_message_id").First(&chat, "id = ?", chatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if chat.LastMessageID == nil || *chat.LastMessageID != messageID {
			return nil
		}

		return r.recomputeLastMessage(tx, chatID)
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldChatID, chatID).Str(log.FieldMessageID, messageID).Msg("failed to delete message")
		return false, err
	}

	if deleted {
		l.Debug().Str(log.FieldChatID, chatID).Str(log.FieldMessageID, messageID).Msg("message deleted from db")
	}
	return deleted, nil
}

func (r *GormChatRepository) DeleteChat(ctx context.Context, chatID string) (bool, error) {
	l := log.Ctx(ctx)

	if err := domain.ValidateID(chatID); err != nil {
		return false, err
	}

	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", chatID).Delete(&domain.ChatModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true

		if err := tx.Where("chat_id = ?", chatID).Delete(&domain.ParticipantModel{}).Error; err != nil {
			return err
		}
		if r.cascadeDelete {
			if err := tx.Where("chat_id = ?", chatID).Delete(&domain.MessageModel{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldChatID, chatID).Msg("failed to delete chat")
		return false, err
	}

	if deleted {
		l.Debug().Str(log.FieldChatID, chatID).Bool("cascade", r.cascadeDelete).Msg("chat deleted from db")
	}
	return deleted, nil
}

// recomputeLastMessage points the chat at its most recent remaining message,
// or clears the pointer when none remain.
func (r *GormChatRepository) recomputeLastMessage(tx *gorm.DB, chatID string) error {
	var latest domain.MessageModel
	var next interface{}

	err := tx.Select("id").Where("chat_id = ?", chatID).Order(recentFirst).First(&latest).Error
	switch {
	case err == nil:
		next = latest.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		next = nil
	default:
		return fmt.Errorf("failed to find latest message: %w", err)
	}

	return tx.Model(&domain.ChatModel{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message_id": next,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *GormChatRepository) loadChat(db *gorm.DB, chatID string) (*domain.ChatModel, error) {
	var model domain.ChatModel
	if err := withChatRelations(db).First(&model, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &model, nil
}

func withChatRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, user_id ASC") }).
		Preload("LastMessage")
}

func chatsToDomain(models []domain.ChatModel) []domain.Chat {
	chats := make([]domain.Chat, len(models))
	for i := range models {
		chats[i] = *models[i].ToDomain()
	}
	return chats
}

func hasContent(text string, media []string) bool {
	return text != "" || len(nonEmpty(media)) > 0
}

func nonEmpty(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
