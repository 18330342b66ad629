package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/skillsphere/videocall/pkg/internal/broker"
	"github.com/skillsphere/videocall/pkg/internal/cache"
	"github.com/skillsphere/videocall/pkg/internal/models"
)

// InstanceID distinguishes this process in directory handles and relay
// envelopes when several instances serve the same deployment.
var InstanceID = uuid.NewString()

const relaySubject = "videocall.relay"

type Pushable interface {
	WriteMessage(messageType int, data []byte) error
}

type CallClient struct {
	ID        string
	UserID    string
	Name      string
	IP        string
	UserAgent string

	roomID    string
	conn      Pushable
	writeLock sync.Mutex
}

func (v *CallClient) Push(packet models.EventPacket) error {
	return v.pushRaw(packet.Marshal())
}

func (v *CallClient) pushRaw(data []byte) error {
	v.writeLock.Lock()
	defer v.writeLock.Unlock()
	if v.conn == nil {
		return fmt.Errorf("connection is gone")
	}
	return v.conn.WriteMessage(1, data)
}

func (v *CallClient) Room() string {
	clientsLock.RLock()
	defer clientsLock.RUnlock()
	return v.roomID
}

var (
	clients     = make(map[string]*CallClient)
	rooms       = make(map[string]map[string]*CallClient)
	clientsLock sync.RWMutex
)

// SetupRealtime wires the shared-store collaborators and the cross-instance
// relay. Must run after cache and broker are connected.
func SetupRealtime() {
	Directory = NewRedisDirectory(cache.Rd)
	Limiter = NewSlidingLimiter(NewRedisLimiterStore(cache.Rd))

	if broker.Nc != nil {
		if _, err := broker.Nc.Subscribe(relaySubject, handleRelay); err != nil {
			log.Error().Err(err).Msg("An error occurred when subscribing to the room relay...")
		}
	}
}

type relayEnvelope struct {
	Origin      string              `json:"origin"`
	Room        string              `json:"room"`
	Target      string              `json:"target,omitempty"`
	ExcludeUser string              `json:"exclude_user,omitempty"`
	Packet      jsoniter.RawMessage `json:"packet"`
}

func handleRelay(msg *nats.Msg) {
	var envelope relayEnvelope
	if err := jsoniter.Unmarshal(msg.Data, &envelope); err != nil {
		log.Warn().Err(err).Msg("Unable to unmarshal relay envelope...")
		return
	}
	if envelope.Origin == InstanceID {
		return
	}

	clientsLock.RLock()
	members := make([]*CallClient, 0, len(rooms[envelope.Room]))
	for _, member := range rooms[envelope.Room] {
		members = append(members, member)
	}
	clientsLock.RUnlock()

	for _, member := range members {
		if envelope.Target != "" && member.UserID != envelope.Target {
			continue
		}
		if envelope.Target == "" && member.UserID == envelope.ExcludeUser {
			continue
		}
		if err := member.pushRaw(envelope.Packet); err != nil {
			log.Warn().Err(err).Str("user", member.UserID).Msg("Unable to push relayed event...")
		}
	}
}

func publishRelay(roomID, target, excludeUser string, packet models.EventPacket) error {
	return broker.Publish(relaySubject, relayEnvelope{
		Origin:      InstanceID,
		Room:        roomID,
		Target:      target,
		ExcludeUser: excludeUser,
		Packet:      packet.Marshal(),
	})
}

// BroadcastToRoom pushes the packet to every member of the room on this
// instance except the excluded one, then relays it to sibling instances.
func BroadcastToRoom(roomID string, exclude *CallClient, packet models.EventPacket) {
	clientsLock.RLock()
	members := make([]*CallClient, 0, len(rooms[roomID]))
	for _, member := range rooms[roomID] {
		if exclude != nil && member.ID == exclude.ID {
			continue
		}
		members = append(members, member)
	}
	clientsLock.RUnlock()

	for _, member := range members {
		if err := member.Push(packet); err != nil {
			log.Warn().Err(err).Str("user", member.UserID).Msg("Unable to push event to room member...")
		}
	}

	if broker.Nc != nil {
		var excludeUser string
		if exclude != nil {
			excludeUser = exclude.UserID
		}
		if err := publishRelay(roomID, "", excludeUser, packet); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("Unable to relay room event...")
		}
	}
}

// DeliverToUser routes a point-to-point event: directory lookup first, room
// broadcast as fallback. Directory outages degrade to broadcast instead of
// blocking the exchange. Returns whether delivery was direct.
func DeliverToUser(ctx context.Context, sender *CallClient, roomID, targetUserID string, packet models.EventPacket) (bool, error) {
	handle, err := Directory.Lookup(ctx, targetUserID)
	if err != nil {
		if !errors.Is(err, ErrDirectoryMiss) {
			log.Warn().Err(err).Msg("Connection directory is unreachable, falling back to room broadcast...")
		}
		BroadcastToRoom(roomID, sender, packet)
		return false, nil
	}

	instance, connID, ok := strings.Cut(handle, "/")
	if !ok {
		BroadcastToRoom(roomID, sender, packet)
		return false, nil
	}

	if instance == InstanceID {
		clientsLock.RLock()
		target := clients[connID]
		clientsLock.RUnlock()

		if target == nil {
			// The directory is ahead of us, likely a reconnect in flight
			BroadcastToRoom(roomID, sender, packet)
			return false, nil
		}
		if err := target.Push(packet); err != nil {
			return true, err
		}
		return true, nil
	}

	if err := publishRelay(roomID, targetUserID, "", packet); err != nil {
		log.Warn().Err(err).Str("instance", instance).Msg("Unable to relay targeted event, falling back to room broadcast...")
		BroadcastToRoom(roomID, sender, packet)
		return false, nil
	}
	return true, nil
}
