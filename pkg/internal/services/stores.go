package services

import (
	"context"

	"github.com/skillsphere/videocall/pkg/internal/database"
	"github.com/skillsphere/videocall/pkg/internal/models"
)

// Persistence boundaries of the hub. Session rows are created by the session
// workflow elsewhere in the platform; this service only reads and updates.
type SessionStore interface {
	GetByRoomID(ctx context.Context, roomID string) (models.CallSession, error)
	GetByRoomIDWithParticipants(ctx context.Context, roomID string) (models.CallSession, error)
	ActiveParticipants(ctx context.Context, sessionID uint) ([]models.CallParticipant, error)
	ActiveParticipant(ctx context.Context, sessionID uint, userID string) (models.CallParticipant, error)
	SaveParticipant(ctx context.Context, participant *models.CallParticipant) error
	SaveSession(ctx context.Context, session *models.CallSession) error
}

type AuditStore interface {
	Add(ctx context.Context, record *models.KeyExchangeAudit) error
}

type ChatStore interface {
	Add(ctx context.Context, message *models.CallChatMessage) error
	History(ctx context.Context, sessionID uint, take, offset int) ([]models.CallChatMessage, error)
}

var (
	Sessions SessionStore = &dbSessionStore{}
	Audits   AuditStore   = &dbAuditStore{}
	Chats    ChatStore    = &dbChatStore{}
)

type dbSessionStore struct{}

func (v *dbSessionStore) GetByRoomID(ctx context.Context, roomID string) (models.CallSession, error) {
	var session models.CallSession
	if err := database.C.WithContext(ctx).
		Where(models.CallSession{RoomID: roomID}).
		First(&session).Error; err != nil {
		return session, err
	} else {
		return session, nil
	}
}

func (v *dbSessionStore) GetByRoomIDWithParticipants(ctx context.Context, roomID string) (models.CallSession, error) {
	var session models.CallSession
	if err := database.C.WithContext(ctx).
		Where(models.CallSession{RoomID: roomID}).
		Preload("Participants", "left_at IS NULL").
		First(&session).Error; err != nil {
		return session, err
	} else {
		return session, nil
	}
}

func (v *dbSessionStore) ActiveParticipants(ctx context.Context, sessionID uint) ([]models.CallParticipant, error) {
	var participants []models.CallParticipant
	if err := database.C.WithContext(ctx).
		Where("session_id = ? AND left_at IS NULL", sessionID).
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return participants, err
	} else {
		return participants, nil
	}
}

func (v *dbSessionStore) ActiveParticipant(ctx context.Context, sessionID uint, userID string) (models.CallParticipant, error) {
	var participant models.CallParticipant
	if err := database.C.WithContext(ctx).
		Where("session_id = ? AND user_id = ? AND left_at IS NULL", sessionID, userID).
		First(&participant).Error; err != nil {
		return participant, err
	} else {
		return participant, nil
	}
}

func (v *dbSessionStore) SaveParticipant(ctx context.Context, participant *models.CallParticipant) error {
	return database.C.WithContext(ctx).Save(participant).Error
}

func (v *dbSessionStore) SaveSession(ctx context.Context, session *models.CallSession) error {
	return database.C.WithContext(ctx).Save(session).Error
}

type dbAuditStore struct{}

func (v *dbAuditStore) Add(ctx context.Context, record *models.KeyExchangeAudit) error {
	return database.C.WithContext(ctx).Create(record).Error
}

type dbChatStore struct{}

func (v *dbChatStore) Add(ctx context.Context, message *models.CallChatMessage) error {
	return database.C.WithContext(ctx).Create(message).Error
}

func (v *dbChatStore) History(ctx context.Context, sessionID uint, take, offset int) ([]models.CallChatMessage, error) {
	if take > 100 {
		take = 100
	}

	var messages []models.CallChatMessage
	if err := database.C.WithContext(ctx).
		Where(models.CallChatMessage{SessionID: sessionID}).
		Limit(take).Offset(offset).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return messages, err
	} else {
		return messages, nil
	}
}
