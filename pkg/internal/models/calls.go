package models

import (
	"time"
)

type CallStatus = string

const (
	CallStatusOngoing = CallStatus("ongoing")
	CallStatusEnded   = CallStatus("ended")
)

// CallSession is created by the session workflow of the platform before any
// client connects; the signaling hub only reads and updates it.
type CallSession struct {
	BaseModel

	RoomID   string     `json:"room_id" gorm:"uniqueIndex"`
	Status   CallStatus `json:"status"`
	ChatUsed bool       `json:"chat_used"`
	EndedAt  *time.Time `json:"ended_at"`

	Participants []CallParticipant `json:"participants"`
}

// CallParticipant rows are never physically deleted; leaving a call only sets
// LeftAt so the history stays available for analytics. A participant is
// active while LeftAt is unset, and there is at most one active row per
// (session, user) pair.
type CallParticipant struct {
	BaseModel

	SessionID    uint       `json:"session_id" gorm:"index"`
	UserID       string     `json:"user_id" gorm:"index;size:100"`
	ConnectionID string     `json:"connection_id"`
	IsInitiator  bool       `json:"is_initiator"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at"`
	LastSeenAt   time.Time  `json:"last_seen_at"`

	CameraEnabled      bool `json:"camera_enabled"`
	MicrophoneEnabled  bool `json:"microphone_enabled"`
	ScreenShareEnabled bool `json:"screen_share_enabled"`

	Session CallSession `json:"session" gorm:"foreignKey:SessionID"`
}
