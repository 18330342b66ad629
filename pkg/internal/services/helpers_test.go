package services

import (
	"context"
	"errors"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"

	"github.com/skillsphere/videocall/pkg/internal/models"
)

type fakeConn struct {
	mu      sync.Mutex
	packets []models.EventPacket
	fail    bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if f.fail {
		return errors.New("transport fault")
	}
	var packet models.EventPacket
	if err := jsoniter.Unmarshal(data, &packet); err != nil {
		return err
	}
	f.mu.Lock()
	f.packets = append(f.packets, packet)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) received(action string) []models.EventPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EventPacket
	for _, packet := range f.packets {
		if packet.Action == action {
			out = append(out, packet)
		}
	}
	return out
}

func (f *fakeConn) payloadOf(action string) map[string]any {
	packets := f.received(action)
	if len(packets) == 0 {
		return nil
	}
	payload, _ := packets[0].Payload.(map[string]any)
	return payload
}

type memoryDirectory struct {
	mu      sync.Mutex
	entries map[string]string
	failing bool
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{entries: make(map[string]string)}
}

func (d *memoryDirectory) Register(ctx context.Context, userID, handle string) error {
	if d.failing {
		return errors.New("directory store down")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[userID] = handle
	return nil
}

func (d *memoryDirectory) Lookup(ctx context.Context, userID string) (string, error) {
	if d.failing {
		return "", errors.New("directory store down")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	handle, ok := d.entries[userID]
	if !ok {
		return "", ErrDirectoryMiss
	}
	return handle, nil
}

func (d *memoryDirectory) Remove(ctx context.Context, userID string) error {
	if d.failing {
		return errors.New("directory store down")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, userID)
	return nil
}

type memoryLimiterStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	failing bool
}

func newMemoryLimiterStore() *memoryLimiterStore {
	return &memoryLimiterStore{windows: make(map[string][]time.Time)}
}

func (s *memoryLimiterStore) Tally(ctx context.Context, key string, cutoff time.Time) (int64, time.Time, error) {
	if s.failing {
		return 0, time.Time{}, errors.New("limiter store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]time.Time, 0, len(s.windows[key]))
	for _, at := range s.windows[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.windows[key] = kept

	var oldest time.Time
	if len(kept) > 0 {
		oldest = kept[0]
	}
	return int64(len(kept)), oldest, nil
}

func (s *memoryLimiterStore) Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	if s.failing {
		return errors.New("limiter store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[key] = append(s.windows[key], at)
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) CheckAndRecord(ctx context.Context, userID, opType string) (Verdict, error) {
	return Verdict{Allowed: true, Remaining: 1, RetryAfter: time.Minute}, nil
}

type denyAllLimiter struct {
	retryAfter time.Duration
}

func (v denyAllLimiter) CheckAndRecord(ctx context.Context, userID, opType string) (Verdict, error) {
	return Verdict{Allowed: false, RetryAfter: v.retryAfter}, nil
}

type memorySessionStore struct {
	mu           sync.Mutex
	sessions     map[string]*models.CallSession
	participants []*models.CallParticipant
	nextID       uint
	failSave     bool
}

func newMemorySessionStore(roomIDs ...string) *memorySessionStore {
	store := &memorySessionStore{sessions: make(map[string]*models.CallSession)}
	for _, roomID := range roomIDs {
		store.nextID++
		store.sessions[roomID] = &models.CallSession{
			BaseModel: models.BaseModel{ID: store.nextID},
			RoomID:    roomID,
			Status:    models.CallStatusOngoing,
		}
	}
	return store
}

func (s *memorySessionStore) GetByRoomID(ctx context.Context, roomID string) (models.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	if !ok {
		return models.CallSession{}, gorm.ErrRecordNotFound
	}
	return *session, nil
}

func (s *memorySessionStore) GetByRoomIDWithParticipants(ctx context.Context, roomID string) (models.CallSession, error) {
	session, err := s.GetByRoomID(ctx, roomID)
	if err != nil {
		return session, err
	}
	active, _ := s.ActiveParticipants(ctx, session.ID)
	session.Participants = active
	return session, nil
}

func (s *memorySessionStore) ActiveParticipants(ctx context.Context, sessionID uint) ([]models.CallParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CallParticipant
	for _, participant := range s.participants {
		if participant.SessionID == sessionID && participant.LeftAt == nil {
			out = append(out, *participant)
		}
	}
	return out, nil
}

func (s *memorySessionStore) ActiveParticipant(ctx context.Context, sessionID uint, userID string) (models.CallParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, participant := range s.participants {
		if participant.SessionID == sessionID && participant.UserID == userID && participant.LeftAt == nil {
			return *participant, nil
		}
	}
	return models.CallParticipant{}, gorm.ErrRecordNotFound
}

func (s *memorySessionStore) SaveParticipant(ctx context.Context, participant *models.CallParticipant) error {
	if s.failSave {
		return errors.New("database is down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if participant.ID == 0 {
		s.nextID++
		participant.ID = s.nextID
		clone := *participant
		s.participants = append(s.participants, &clone)
		return nil
	}
	for idx, existing := range s.participants {
		if existing.ID == participant.ID {
			clone := *participant
			s.participants[idx] = &clone
			return nil
		}
	}
	clone := *participant
	s.participants = append(s.participants, &clone)
	return nil
}

func (s *memorySessionStore) SaveSession(ctx context.Context, session *models.CallSession) error {
	if s.failSave {
		return errors.New("database is down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.RoomID] = &clone
	return nil
}

type memoryAuditStore struct {
	mu      sync.Mutex
	records []models.KeyExchangeAudit
}

func (s *memoryAuditStore) Add(ctx context.Context, record *models.KeyExchangeAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

type memoryChatStore struct {
	mu       sync.Mutex
	messages []models.CallChatMessage
}

func (s *memoryChatStore) Add(ctx context.Context, message *models.CallChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memoryChatStore) History(ctx context.Context, sessionID uint, take, offset int) ([]models.CallChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CallChatMessage
	for _, message := range s.messages {
		if message.SessionID == sessionID {
			out = append(out, message)
		}
	}
	return out, nil
}

// resetRealtime swaps every collaborator for a fake and clears the local
// registry so each test starts from an empty hub.
func resetRealtime(roomIDs ...string) (*memoryDirectory, *memorySessionStore, *memoryAuditStore, *memoryChatStore) {
	clientsLock.Lock()
	clients = make(map[string]*CallClient)
	rooms = make(map[string]map[string]*CallClient)
	clientsLock.Unlock()

	directory := newMemoryDirectory()
	sessions := newMemorySessionStore(roomIDs...)
	audits := &memoryAuditStore{}
	chats := &memoryChatStore{}

	Directory = directory
	Limiter = allowAllLimiter{}
	Sessions = sessions
	Audits = audits
	Chats = chats

	return directory, sessions, audits, chats
}

func joinTestClient(userID, roomID string) (*CallClient, *fakeConn) {
	conn := &fakeConn{}
	client := ConnectClient(userID, userID, conn, "127.0.0.1", "test-agent")
	if err := JoinCallRoom(context.Background(), client, roomID); err != nil {
		panic(err)
	}
	return client, conn
}
