package services

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skillsphere/videocall/pkg/internal/database"
	"github.com/skillsphere/videocall/pkg/internal/models"
)

func DoAutoDatabaseCleanup() {
	deadline := time.Now().Add(-60 * time.Minute)
	log.Debug().Time("deadline", deadline).Msg("Now cleaning up entire database...")

	var count int64
	for _, model := range database.AutoMaintainRange {
		// The audit log is append-only and must survive cleanup
		if _, ok := model.(*models.KeyExchangeAudit); ok {
			continue
		}
		tx := database.C.Unscoped().Delete(model, "deleted_at <= ?", deadline)
		if tx.Error != nil {
			log.Error().Err(tx.Error).Msg("An error occurred when running database cleanup...")
		}
		count += tx.RowsAffected
	}

	log.Debug().Int64("affected", count).Msg("Clean up entire database accomplished.")
}

// DoSweepStaleParticipants marks participants that stopped heartbeating as
// left, covering transports that died without a disconnect callback.
func DoSweepStaleParticipants() {
	timeout := intSetting("calling.stale_participant_timeout", 300)
	deadline := time.Now().Add(-time.Duration(timeout) * time.Second)

	tx := database.C.Model(&models.CallParticipant{}).
		Where("left_at IS NULL AND last_seen_at < ?", deadline).
		Update("left_at", time.Now())
	if tx.Error != nil {
		log.Error().Err(tx.Error).Msg("An error occurred when sweeping stale participants...")
	} else if tx.RowsAffected > 0 {
		log.Info().Int64("affected", tx.RowsAffected).Msg("Swept stale call participants.")
	}
}
