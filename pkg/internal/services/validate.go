package services

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

var ErrInvalidRoom = errors.New("room id must be a 12-character lowercase hex token or a uuid")

var roomTokenRegex = regexp.MustCompile(`^[0-9a-f]{12}$`)

// ValidateRoomID accepts the two canonical room id forms. Room ids end up in
// shared-store keys and broker subjects, so anything else is rejected before
// it reaches either.
func ValidateRoomID(id string) bool {
	if roomTokenRegex.MatchString(id) {
		return true
	}
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	return false
}

func validateTarget(targetID string) error {
	if len(targetID) == 0 || len(targetID) > 100 {
		return errors.New("target user id must be between 1 and 100 characters")
	}
	return nil
}

func intSetting(key string, fallback int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}
	return fallback
}
