package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

// E2EE key material is relayed, never interpreted. The earlier per-subtype
// handlers collapsed into this single pipeline: one validation pass, one
// rate-limit gate, one audit write for every attempt regardless of outcome.

type KeyExchangeKind = string

const (
	KeyExchangeOffer        = KeyExchangeKind("offer")
	KeyExchangeAnswer       = KeyExchangeKind("answer")
	KeyExchangeRotation     = KeyExchangeKind("rotation")
	KeyExchangeConfirmation = KeyExchangeKind("confirmation")
	KeyExchangeRejection    = KeyExchangeKind("rejection")
)

var exchangeActions = map[KeyExchangeKind]string{
	KeyExchangeOffer:        models.EventExchangeOffer,
	KeyExchangeAnswer:       models.EventExchangeAnswer,
	KeyExchangeRotation:     models.EventExchangeRotation,
	KeyExchangeConfirmation: models.EventExchangeConfirm,
	KeyExchangeRejection:    models.EventExchangeReject,
}

var exchangeLimitTypes = map[KeyExchangeKind]string{
	KeyExchangeOffer:        "key_offer",
	KeyExchangeAnswer:       "key_answer",
	KeyExchangeRotation:     "key_rotation",
	KeyExchangeConfirmation: "key_confirmation",
	KeyExchangeRejection:    "key_rejection",
}

type KeyExchangeRequest struct {
	RoomID          string
	TargetID        string
	Kind            KeyExchangeKind
	Payload         string
	KeyFingerprint  string
	KeyGeneration   int
	ClientTimestamp *time.Time
}

// ForwardKeyExchange runs the shared pipeline. Exactly one audit record is
// written per attempt; the record carries metadata only, the payload itself
// is never persisted.
func ForwardKeyExchange(ctx context.Context, sender *CallClient, req KeyExchangeRequest) error {
	started := time.Now()
	record := models.KeyExchangeAudit{
		RoomID:          req.RoomID,
		FromUserID:      sender.UserID,
		ToUserID:        req.TargetID,
		MessageType:     string(req.Kind),
		PayloadSize:     len(req.Payload),
		KeyFingerprint:  req.KeyFingerprint,
		KeyGeneration:   req.KeyGeneration,
		ClientIP:        sender.IP,
		UserAgent:       sender.UserAgent,
		ClientTimestamp: req.ClientTimestamp,
	}

	finish := func(err error, code string, rateLimited bool) error {
		record.Succeeded = err == nil
		record.ErrorCode = code
		record.RateLimited = rateLimited
		record.ProcessedIn = time.Since(started).Milliseconds()
		if aerr := Audits.Add(ctx, &record); aerr != nil {
			log.Error().Err(aerr).Str("room", req.RoomID).Msg("Unable to write key exchange audit record...")
		}
		return err
	}

	action, ok := exchangeActions[req.Kind]
	if !ok {
		return finish(fmt.Errorf("unknown key exchange type: %s", req.Kind), "invalid_type", false)
	}
	if !ValidateRoomID(req.RoomID) {
		return finish(ErrInvalidRoom, "invalid_room", false)
	}
	if err := validateTarget(req.TargetID); err != nil {
		return finish(err, "invalid_target", false)
	}
	if len(req.Payload) == 0 {
		return finish(errors.New("key exchange payload cannot be empty"), "empty_payload", false)
	}
	if max := intSetting("calling.key_exchange_max_bytes", 10000); len(req.Payload) > max {
		return finish(fmt.Errorf("key exchange payload too large (%d > %d)", len(req.Payload), max), "payload_too_large", false)
	}

	verdict, err := Limiter.CheckAndRecord(ctx, sender.UserID, exchangeLimitTypes[req.Kind])
	if err != nil {
		// The limiter itself fails open, an error here is unexpected
		log.Warn().Err(err).Str("user", sender.UserID).Msg("Rate limiter check failed, allowing operation...")
	} else if !verdict.Allowed {
		return finish(&RateLimitError{RetryAfter: verdict.RetryAfter}, "rate_limited", true)
	}

	payload := map[string]any{
		"payload": req.Payload,
	}
	if req.KeyFingerprint != "" {
		payload["key_fingerprint"] = req.KeyFingerprint
	}
	if req.KeyGeneration != 0 {
		payload["key_generation"] = req.KeyGeneration
	}

	if err := forwardSignal(ctx, sender, req.RoomID, req.TargetID, action, payload); err != nil {
		return finish(fmt.Errorf("unable to deliver key exchange message: %v", err), "delivery_failed", false)
	}

	return finish(nil, "", false)
}
