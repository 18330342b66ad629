package models

import (
	jsoniter "github.com/json-iterator/go"
)

// Realtime gateway actions, inbound and outbound.
const (
	EventRoomJoin  = "calls.room.join"
	EventHeartbeat = "calls.heartbeat"

	EventSignalOffer     = "calls.signal.offer"
	EventSignalAnswer    = "calls.signal.answer"
	EventSignalCandidate = "calls.signal.candidate"

	EventExchangeForward  = "calls.e2ee.forward"
	EventExchangeOffer    = "calls.e2ee.offer"
	EventExchangeAnswer   = "calls.e2ee.answer"
	EventExchangeRotation = "calls.e2ee.rotation"
	EventExchangeConfirm  = "calls.e2ee.confirm"
	EventExchangeReject   = "calls.e2ee.reject"

	EventMediaCamera     = "calls.media.camera"
	EventMediaMicrophone = "calls.media.microphone"
	EventMediaChanged    = "calls.media.changed"
	EventScreenStart     = "calls.screen.start"
	EventScreenStop      = "calls.screen.stop"
	EventScreenStarted   = "calls.screen.started"
	EventScreenStopped   = "calls.screen.stopped"

	EventChatSend    = "calls.chat.send"
	EventChatMessage = "calls.chat.message"

	EventRoomJoined        = "calls.room.joined"
	EventParticipantJoined = "calls.participant.joined"
	EventParticipantLeft   = "calls.participant.left"
	EventHeartbeatAck      = "calls.heartbeat.ack"
)

type EventPacket struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func (v EventPacket) Marshal() []byte {
	data, _ := jsoniter.Marshal(v)
	return data
}

func EventPacketFromError(err error) EventPacket {
	return EventPacket{
		Action:  "error",
		Message: err.Error(),
	}
}

func FitStruct(src any, out any) {
	raw, _ := jsoniter.Marshal(src)
	_ = jsoniter.Unmarshal(raw, out)
}
