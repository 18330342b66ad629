package models

import "gorm.io/datatypes"

type CallChatMessage struct {
	BaseModel

	Uuid       string            `json:"uuid"`
	SessionID  uint              `json:"session_id" gorm:"index"`
	SenderID   string            `json:"sender_id" gorm:"size:100"`
	SenderName string            `json:"sender_name"`
	Body       datatypes.JSONMap `json:"body"`

	Session CallSession `json:"session" gorm:"foreignKey:SessionID"`
}
