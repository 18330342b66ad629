package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/skillsphere/videocall/pkg/internal/broker"
	"github.com/skillsphere/videocall/pkg/internal/models"
)

// In-call chat rides the same room fan-out as signaling. The session keeps a
// ChatUsed flag so analytics can tell which calls fell back to text.
func NewChatMessage(ctx context.Context, client *CallClient, roomID, message string) error {
	if !ValidateRoomID(roomID) {
		return ErrInvalidRoom
	}
	if len(message) == 0 {
		return errors.New("message cannot be empty")
	}
	if max := intSetting("calling.chat_max_length", 4096); len(message) > max {
		return fmt.Errorf("message too large (%d > %d)", len(message), max)
	}

	session, err := Sessions.GetByRoomID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("call session not found: %v", err)
	}

	msg := models.CallChatMessage{
		Uuid:       uuid.NewString(),
		SessionID:  session.ID,
		SenderID:   client.UserID,
		SenderName: client.Name,
		Body: datatypes.JSONMap{
			"text": message,
		},
	}

	if err := Chats.Add(ctx, &msg); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("Unable to persist chat message...")
	}

	if !session.ChatUsed {
		session.ChatUsed = true
		if err := Sessions.SaveSession(ctx, &session); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("Unable to flag session chat usage...")
		}
		broker.PublishQuietly("videocall.session.chat_used", map[string]any{
			"room_id": roomID,
		})
	}

	BroadcastToRoom(roomID, nil, models.EventPacket{
		Action: models.EventChatMessage,
		Payload: map[string]any{
			"id":          msg.Uuid,
			"user_id":     client.UserID,
			"sender_name": client.Name,
			"message":     message,
			"timestamp":   time.Now(),
		},
	})

	return nil
}
