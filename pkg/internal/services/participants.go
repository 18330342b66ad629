package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

// Participant rows follow the calls, not the other way around: persistence
// failures on join, toggle and heartbeat are logged and swallowed so a
// storage hiccup never blocks the realtime path.

func JoinRoom(ctx context.Context, client *CallClient, roomID string) ([]models.CallParticipant, error) {
	session, err := Sessions.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("call session not found: %v", err)
	}

	active, err := Sessions.ActiveParticipants(ctx, session.ID)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("Unable to list active participants...")
		active = nil
	}

	now := time.Now()
	participant, err := Sessions.ActiveParticipant(ctx, session.ID, client.UserID)
	if err == nil {
		participant.ConnectionID = client.ID
		participant.LastSeenAt = now
	} else {
		participant = models.CallParticipant{
			SessionID:         session.ID,
			UserID:            client.UserID,
			ConnectionID:      client.ID,
			IsInitiator:       len(active) == 0,
			JoinedAt:          now,
			LastSeenAt:        now,
			CameraEnabled:     true,
			MicrophoneEnabled: true,
		}
	}

	if err := Sessions.SaveParticipant(ctx, &participant); err != nil {
		log.Warn().Err(err).Str("room", roomID).Str("user", client.UserID).Msg("Unable to persist participant join...")
	}

	return active, nil
}

func LeaveRoom(ctx context.Context, client *CallClient, roomID string) {
	session, err := Sessions.GetByRoomID(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("Unable to load session on leave...")
		return
	}

	participant, err := Sessions.ActiveParticipant(ctx, session.ID, client.UserID)
	if err != nil {
		return
	}

	participant.LeftAt = lo.ToPtr(time.Now())
	if err := Sessions.SaveParticipant(ctx, &participant); err != nil {
		log.Warn().Err(err).Str("room", roomID).Str("user", client.UserID).Msg("Unable to persist participant leave...")
	}
}

func mutateParticipant(ctx context.Context, client *CallClient, roomID string, apply func(participant *models.CallParticipant)) {
	session, err := Sessions.GetByRoomID(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("Unable to load session for media update...")
		return
	}

	participant, err := Sessions.ActiveParticipant(ctx, session.ID, client.UserID)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Str("user", client.UserID).Msg("No active participant row for media update...")
		return
	}

	apply(&participant)
	participant.LastSeenAt = time.Now()

	if err := Sessions.SaveParticipant(ctx, &participant); err != nil {
		log.Warn().Err(err).Str("room", roomID).Str("user", client.UserID).Msg("Unable to persist media state update...")
	}
}

func broadcastMediaState(client *CallClient, roomID, action, mediaType string, enabled bool) {
	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: action,
		Payload: map[string]any{
			"user_id": client.UserID,
			"enabled": enabled,
		},
	})
	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: models.EventMediaChanged,
		Payload: map[string]any{
			"user_id": client.UserID,
			"type":    mediaType,
			"enabled": enabled,
		},
	})
}

func ToggleCamera(ctx context.Context, client *CallClient, roomID string, enabled bool) {
	if !ValidateRoomID(roomID) {
		return
	}
	mutateParticipant(ctx, client, roomID, func(participant *models.CallParticipant) {
		participant.CameraEnabled = enabled
	})
	broadcastMediaState(client, roomID, models.EventMediaCamera, "camera", enabled)
}

func ToggleMicrophone(ctx context.Context, client *CallClient, roomID string, enabled bool) {
	if !ValidateRoomID(roomID) {
		return
	}
	mutateParticipant(ctx, client, roomID, func(participant *models.CallParticipant) {
		participant.MicrophoneEnabled = enabled
	})
	broadcastMediaState(client, roomID, models.EventMediaMicrophone, "microphone", enabled)
}

func SetScreenShare(ctx context.Context, client *CallClient, roomID string, enabled bool) {
	if !ValidateRoomID(roomID) {
		return
	}
	mutateParticipant(ctx, client, roomID, func(participant *models.CallParticipant) {
		participant.ScreenShareEnabled = enabled
	})

	action := lo.Ternary(enabled, models.EventScreenStarted, models.EventScreenStopped)
	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: action,
		Payload: map[string]any{
			"user_id": client.UserID,
		},
	})
	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: models.EventMediaChanged,
		Payload: map[string]any{
			"user_id": client.UserID,
			"type":    "screen",
			"enabled": enabled,
		},
	})
}

// Heartbeat keeps the participant row warm; losing heartbeats does not kick
// anyone, the transport owns connection liveness.
func Heartbeat(ctx context.Context, client *CallClient, roomID string) {
	if !ValidateRoomID(roomID) {
		return
	}
	mutateParticipant(ctx, client, roomID, func(participant *models.CallParticipant) {})

	if err := client.Push(models.EventPacket{
		Action: models.EventHeartbeatAck,
		Payload: map[string]any{
			"timestamp": time.Now(),
		},
	}); err != nil {
		log.Debug().Err(err).Str("user", client.UserID).Msg("Unable to push heartbeat ack...")
	}
}
