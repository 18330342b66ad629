package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoomID(t *testing.T) {
	accepted := []string{
		"abc123def456",
		"000000000000",
		"550e8400-e29b-41d4-a716-446655440000",
	}
	for _, id := range accepted {
		assert.True(t, ValidateRoomID(id), "expected %q to be accepted", id)
	}

	rejected := []string{
		"",
		"ABC123DEF456",
		"abc123def45g",
		"abc/23def456",
		"abc123def45",
		"abc123def4567",
		"../../secret",
		"550e8400-e29b-41d4-a716-44665544000z",
	}
	for _, id := range rejected {
		assert.False(t, ValidateRoomID(id), "expected %q to be rejected", id)
	}
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, validateTarget("user-1"))
	assert.Error(t, validateTarget(""))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, validateTarget(string(long)))
	assert.NoError(t, validateTarget(string(long[:100])))
}
