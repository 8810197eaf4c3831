package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users      map[model.UserID]*model.User
	emailIndex map[string]model.UserID
	rooms      map[string]*model.Room
	codeIndex  map[model.RoomCode]string
	members    map[string][]model.RoomMember // room id -> members in join order
	scores     []*model.Score
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		rooms:      make(map[string]*model.Room),
		codeIndex:  make(map[model.RoomCode]string),
		members:    make(map[string][]model.RoomMember),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email != nil {
		if _, taken := s.emailIndex[*user.Email]; taken {
			return model.ErrEmailTaken
		}
		s.emailIndex[*user.Email] = user.ID
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room, admin model.RoomMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codeIndex[room.Code]; taken {
		return model.ErrRoomCodeTaken
	}
	r := *room
	r.Members = nil
	s.rooms[room.ID] = &r
	s.codeIndex[room.Code] = room.ID
	s.members[room.ID] = []model.RoomMember{admin}
	return nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	r := *s.rooms[id]
	r.Members = s.projectMembers(id)
	return &r, nil
}

func (s *Storage) AddRoomMember(ctx context.Context, member model.RoomMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[member.RoomID]; !ok {
		return false, model.ErrRoomNotFound
	}
	for _, m := range s.members[member.RoomID] {
		if m.UserID == member.UserID {
			return false, nil
		}
	}
	s.members[member.RoomID] = append(s.members[member.RoomID], member)
	return true, nil
}

func (s *Storage) ListRoomMembers(ctx context.Context, roomID string) ([]model.RoomMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, model.ErrRoomNotFound
	}
	return s.projectMembers(roomID), nil
}

// projectMembers copies a room's members, filling in the user's current
// username and guest flag. Caller must hold the lock.
func (s *Storage) projectMembers(roomID string) []model.RoomMember {
	stored := s.members[roomID]
	result := make([]model.RoomMember, len(stored))
	for i, m := range stored {
		if u, ok := s.users[m.UserID]; ok {
			m.Username = u.Username
			m.Guest = u.Guest
		}
		result[i] = m
	}
	return result
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := *score
	s.scores = append(s.scores, &sc)
	return nil
}

func (s *Storage) TopScores(ctx context.Context, query model.LeaderboardQuery) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []model.LeaderboardEntry
	for _, sc := range s.scores {
		if sc.Category != query.Category {
			continue
		}
		if query.RoomID != nil && (sc.RoomID == nil || *sc.RoomID != *query.RoomID) {
			continue
		}
		u, ok := s.users[sc.UserID]
		if !ok {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			ScoreID:   sc.ID,
			UserID:    sc.UserID,
			Value:     sc.Value,
			Username:  u.Username,
			Guest:     u.Guest,
			CreatedAt: sc.CreatedAt,
		})
	}

	dir := query.Category.Direction()
	sort.Slice(entries, func(i, j int) bool {
		return model.RanksBefore(dir, entries[i], entries[j])
	})

	if query.Limit > 0 && len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *Storage) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.Score, 0)
	for _, sc := range s.scores {
		if filter.Matches(sc) {
			matched = append(matched, sc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return model.NewerFirst(matched[i], matched[j])
	})

	result := make([]model.ScoreWithUser, 0, len(matched))
	for _, sc := range matched {
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
		u, ok := s.users[sc.UserID]
		if !ok {
			continue
		}
		result = append(result, model.ScoreWithUser{Score: *sc, Username: u.Username, Guest: u.Guest})
	}
	return result, nil
}

// Lifecycle

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// ScoreCount returns the number of stored scores (used by tests)
func (s *Storage) ScoreCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores)
}

// MemberCount returns the number of membership rows for a room (used by tests)
func (s *Storage) MemberCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[roomID])
}

// UserCount returns the number of stored users (used by tests)
func (s *Storage) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
