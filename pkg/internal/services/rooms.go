package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/skillsphere/videocall/pkg/internal/broker"
	"github.com/skillsphere/videocall/pkg/internal/models"
)

// ConnectClient is one of the two places directory entries are created. The
// identity must already be authenticated by the transport layer.
func ConnectClient(userID, name string, conn Pushable, ip, userAgent string) *CallClient {
	client := &CallClient{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		IP:        ip,
		UserAgent: userAgent,
		conn:      conn,
	}

	clientsLock.Lock()
	clients[client.ID] = client
	clientsLock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handle := fmt.Sprintf("%s/%s", InstanceID, client.ID)
	if err := Directory.Register(ctx, userID, handle); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("Unable to register connection in the directory...")
	}

	return client
}

// DisconnectClient is the counterpart teardown: drop the directory entry if
// it still points at this connection, then leave the room with notification.
func DisconnectClient(client *CallClient) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if handle, err := Directory.Lookup(ctx, client.UserID); err == nil {
		// A newer connection may have overwritten the entry already
		if handle == fmt.Sprintf("%s/%s", InstanceID, client.ID) {
			if err := Directory.Remove(ctx, client.UserID); err != nil {
				log.Warn().Err(err).Str("user", client.UserID).Msg("Unable to remove connection from the directory...")
			}
		}
	}

	leaveCurrentRoom(ctx, client)

	clientsLock.Lock()
	delete(clients, client.ID)
	clientsLock.Unlock()

	client.writeLock.Lock()
	client.conn = nil
	client.writeLock.Unlock()
}

// JoinCallRoom validates the room, records the participant, notifies the rest
// of the room and answers the joiner with the active membership snapshot.
func JoinCallRoom(ctx context.Context, client *CallClient, roomID string) error {
	if !ValidateRoomID(roomID) {
		return ErrInvalidRoom
	}

	leaveCurrentRoom(ctx, client)

	others, err := JoinRoom(ctx, client, roomID)
	if err != nil {
		return err
	}

	clientsLock.Lock()
	if _, ok := rooms[roomID]; !ok {
		rooms[roomID] = make(map[string]*CallClient)
	}
	rooms[roomID][client.ID] = client
	client.roomID = roomID
	clientsLock.Unlock()

	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: models.EventParticipantJoined,
		Payload: map[string]any{
			"user_id":   client.UserID,
			"timestamp": time.Now(),
		},
	})

	if err := client.Push(models.EventPacket{
		Action: models.EventRoomJoined,
		Payload: map[string]any{
			"room_id": roomID,
			"participants": lo.Filter(others, func(item models.CallParticipant, idx int) bool {
				return item.UserID != client.UserID
			}),
		},
	}); err != nil {
		log.Warn().Err(err).Str("user", client.UserID).Msg("Unable to push room snapshot...")
	}

	broker.PublishQuietly("videocall.participant.joined", map[string]any{
		"room_id": roomID,
		"user_id": client.UserID,
	})

	return nil
}

func leaveCurrentRoom(ctx context.Context, client *CallClient) {
	clientsLock.Lock()
	roomID := client.roomID
	if roomID == "" {
		clientsLock.Unlock()
		return
	}
	delete(rooms[roomID], client.ID)
	if len(rooms[roomID]) == 0 {
		delete(rooms, roomID)
	}
	client.roomID = ""
	clientsLock.Unlock()

	LeaveRoom(ctx, client, roomID)

	BroadcastToRoom(roomID, client, models.EventPacket{
		Action: models.EventParticipantLeft,
		Payload: map[string]any{
			"user_id":   client.UserID,
			"timestamp": time.Now(),
		},
	})

	broker.PublishQuietly("videocall.participant.left", map[string]any{
		"room_id": roomID,
		"user_id": client.UserID,
	})
}
