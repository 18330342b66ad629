package services

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

type signalRequest struct {
	RoomID    string `json:"room_id"`
	Target    string `json:"target"`
	Sdp       string `json:"sdp"`
	Candidate string `json:"candidate"`
}

type exchangeRequest struct {
	RoomID          string     `json:"room_id"`
	Target          string     `json:"target"`
	Type            string     `json:"type"`
	Payload         string     `json:"payload"`
	KeyFingerprint  string     `json:"key_fingerprint"`
	KeyGeneration   int        `json:"key_generation"`
	ClientTimestamp *time.Time `json:"client_timestamp"`
}

type mediaRequest struct {
	RoomID  string `json:"room_id"`
	Enabled bool   `json:"enabled"`
}

// DealCommand dispatches one inbound gateway packet. A non-nil return is the
// reply pushed back to the sender; best-effort actions return nothing even
// when they fail.
func DealCommand(packet models.EventPacket, client *CallClient) *models.EventPacket {
	ctx := context.Background()

	switch packet.Action {
	case models.EventRoomJoin:
		var req struct {
			RoomID string `json:"room_id"`
		}
		models.FitStruct(packet.Payload, &req)
		if err := JoinCallRoom(ctx, client, req.RoomID); err != nil {
			return lo.ToPtr(models.EventPacketFromError(err))
		}
		return nil

	case models.EventSignalOffer:
		var req signalRequest
		models.FitStruct(packet.Payload, &req)
		if err := ForwardOffer(ctx, client, req.RoomID, req.Target, req.Sdp); err != nil {
			return lo.ToPtr(models.EventPacketFromError(err))
		}
		return nil

	case models.EventSignalAnswer:
		var req signalRequest
		models.FitStruct(packet.Payload, &req)
		if err := ForwardAnswer(ctx, client, req.RoomID, req.Target, req.Sdp); err != nil {
			return lo.ToPtr(models.EventPacketFromError(err))
		}
		return nil

	case models.EventSignalCandidate:
		var req signalRequest
		models.FitStruct(packet.Payload, &req)
		ForwardCandidate(ctx, client, req.RoomID, req.Target, req.Candidate)
		return nil

	case models.EventExchangeForward,
		models.EventExchangeOffer, models.EventExchangeAnswer, models.EventExchangeRotation:
		var req exchangeRequest
		models.FitStruct(packet.Payload, &req)

		kind := KeyExchangeKind(req.Type)
		switch packet.Action {
		// Older clients still send one action per subtype
		case models.EventExchangeOffer:
			kind = KeyExchangeOffer
		case models.EventExchangeAnswer:
			kind = KeyExchangeAnswer
		case models.EventExchangeRotation:
			kind = KeyExchangeRotation
		}

		err := ForwardKeyExchange(ctx, client, KeyExchangeRequest{
			RoomID:          req.RoomID,
			TargetID:        req.Target,
			Kind:            kind,
			Payload:         req.Payload,
			KeyFingerprint:  req.KeyFingerprint,
			KeyGeneration:   req.KeyGeneration,
			ClientTimestamp: req.ClientTimestamp,
		})
		if err != nil {
			reply := models.EventPacketFromError(err)
			var limited *RateLimitError
			if errors.As(err, &limited) {
				reply.Payload = map[string]any{
					"retry_after": int64(limited.RetryAfter.Seconds()),
				}
			}
			return &reply
		}
		return nil

	case models.EventHeartbeat:
		var req struct {
			RoomID string `json:"room_id"`
		}
		models.FitStruct(packet.Payload, &req)
		Heartbeat(ctx, client, req.RoomID)
		return nil

	case models.EventMediaCamera:
		var req mediaRequest
		models.FitStruct(packet.Payload, &req)
		ToggleCamera(ctx, client, req.RoomID, req.Enabled)
		return nil

	case models.EventMediaMicrophone:
		var req mediaRequest
		models.FitStruct(packet.Payload, &req)
		ToggleMicrophone(ctx, client, req.RoomID, req.Enabled)
		return nil

	case models.EventScreenStart, models.EventScreenStop:
		var req struct {
			RoomID string `json:"room_id"`
		}
		models.FitStruct(packet.Payload, &req)
		SetScreenShare(ctx, client, req.RoomID, packet.Action == models.EventScreenStart)
		return nil

	case models.EventChatSend:
		var req struct {
			RoomID  string `json:"room_id"`
			Message string `json:"message"`
		}
		models.FitStruct(packet.Payload, &req)
		if err := NewChatMessage(ctx, client, req.RoomID, req.Message); err != nil {
			return lo.ToPtr(models.EventPacketFromError(err))
		}
		return nil

	default:
		return &models.EventPacket{
			Action:  "error",
			Message: "command not found",
		}
	}
}
