package database

import (
	"github.com/skillsphere/videocall/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.CallSession{},
	&models.CallParticipant{},
	&models.CallChatMessage{},
	&models.KeyExchangeAudit{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
