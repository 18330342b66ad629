package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

// The signaling router is a dumb forwarder: offers, answers and candidates
// may interleave freely, ordering is the peers' problem. Only input
// validation and routing happen here.

func validateSignal(roomID, targetID string, size, max int) error {
	if !ValidateRoomID(roomID) {
		return ErrInvalidRoom
	}
	if err := validateTarget(targetID); err != nil {
		return err
	}
	if size > max {
		return fmt.Errorf("payload too large (%d > %d)", size, max)
	}
	return nil
}

func forwardSignal(ctx context.Context, sender *CallClient, roomID, targetID, action string, payload map[string]any) error {
	payload["from"] = sender.UserID
	_, err := DeliverToUser(ctx, sender, roomID, targetID, models.EventPacket{
		Action:  action,
		Payload: payload,
	})
	return err
}

func ForwardOffer(ctx context.Context, sender *CallClient, roomID, targetID, sdp string) error {
	if err := validateSignal(roomID, targetID, len(sdp), intSetting("calling.sdp_max_length", 50000)); err != nil {
		return err
	}
	if err := forwardSignal(ctx, sender, roomID, targetID, models.EventSignalOffer, map[string]any{"sdp": sdp}); err != nil {
		return fmt.Errorf("unable to deliver offer: %v", err)
	}
	return nil
}

func ForwardAnswer(ctx context.Context, sender *CallClient, roomID, targetID, sdp string) error {
	if err := validateSignal(roomID, targetID, len(sdp), intSetting("calling.sdp_max_length", 50000)); err != nil {
		return err
	}
	if err := forwardSignal(ctx, sender, roomID, targetID, models.EventSignalAnswer, map[string]any{"sdp": sdp}); err != nil {
		return fmt.Errorf("unable to deliver answer: %v", err)
	}
	return nil
}

// ForwardCandidate is best-effort: candidates are redundant by nature, so
// failures are logged and never surfaced to the sender.
func ForwardCandidate(ctx context.Context, sender *CallClient, roomID, targetID, candidate string) {
	if err := validateSignal(roomID, targetID, len(candidate), intSetting("calling.candidate_max_length", 10000)); err != nil {
		log.Debug().Err(err).Str("user", sender.UserID).Msg("Dropping invalid ice candidate...")
		return
	}
	if err := forwardSignal(ctx, sender, roomID, targetID, models.EventSignalCandidate, map[string]any{"candidate": candidate}); err != nil {
		log.Warn().Err(err).Str("user", sender.UserID).Msg("Unable to deliver ice candidate...")
	}
}
