package models

import (
	"time"
)

// KeyExchangeAudit is append-only metadata about one key-exchange attempt.
// The encrypted payload itself is never stored, only its size and the key
// fingerprint/generation the client reported.
type KeyExchangeAudit struct {
	BaseModel

	RoomID      string `json:"room_id" gorm:"index"`
	FromUserID  string `json:"from_user_id" gorm:"index;size:100"`
	ToUserID    string `json:"to_user_id" gorm:"size:100"`
	MessageType string `json:"message_type"`

	Succeeded   bool   `json:"succeeded"`
	RateLimited bool   `json:"rate_limited"`
	ErrorCode   string `json:"error_code"`

	PayloadSize    int    `json:"payload_size"`
	KeyFingerprint string `json:"key_fingerprint"`
	KeyGeneration  int    `json:"key_generation"`

	ClientIP        string     `json:"client_ip"`
	UserAgent       string     `json:"user_agent"`
	ClientTimestamp *time.Time `json:"client_timestamp"`
	ProcessedIn     int64      `json:"processed_in"`
}
