package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/humanbench/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) createGuest(id, name string) *model.User {
	u := &model.User{ID: model.UserID(id), Username: name, Guest: true, CreatedAt: s.now}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	return u
}

func (s *StorageSuite) insertScore(id string, userID model.UserID, c model.Category, v float64, roomID *string, offset time.Duration) {
	s.Require().NoError(s.storage.InsertScore(s.ctx, &model.Score{
		ID:        model.ScoreID(id),
		UserID:    userID,
		Category:  c,
		Value:     v,
		RoomID:    roomID,
		RawStats:  map[string]any{},
		CreatedAt: s.now.Add(offset),
	}))
}

// User tests

func (s *StorageSuite) TestCreateAndGetUser() {
	email, hash := "alice@example.com", "hash"
	u := &model.User{ID: "u1", Email: &email, PasswordHash: &hash, Username: "alice", CreatedAt: s.now}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)

	byEmail, err := s.storage.GetUserByEmail(s.ctx, email)
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), byEmail.ID)
}

func (s *StorageSuite) TestCreateUserDuplicateEmail() {
	email, hash := "alice@example.com", "hash"
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: "u1", Email: &email, PasswordHash: &hash, Username: "alice"}))

	err := s.storage.CreateUser(s.ctx, &model.User{ID: "u2", Email: &email, PasswordHash: &hash, Username: "alice2"})
	s.ErrorIs(err, model.ErrEmailTaken)
	s.Equal(1, s.storage.UserCount())
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.storage.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Room tests

func (s *StorageSuite) TestCreateRoomWithAdmin() {
	admin := s.createGuest("u1", "Guest-1111")
	room := &model.Room{ID: "r1", Code: "ABC123", Name: "Room ABC123", AdminID: admin.ID, CreatedAt: s.now}

	err := s.storage.CreateRoom(s.ctx, room, model.RoomMember{RoomID: "r1", UserID: admin.ID, IsAdmin: true, JoinedAt: s.now})
	s.Require().NoError(err)

	got, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("r1", got.ID)
	s.Require().Len(got.Members, 1)
	s.True(got.Members[0].IsAdmin)
	s.Equal("Guest-1111", got.Members[0].Username)
	s.True(got.Members[0].Guest)
}

func (s *StorageSuite) TestCreateRoomCodeCollision() {
	admin := s.createGuest("u1", "Guest-1111")
	_ = s.storage.CreateRoom(s.ctx, &model.Room{ID: "r1", Code: "ABC123"}, model.RoomMember{RoomID: "r1", UserID: admin.ID, IsAdmin: true})

	err := s.storage.CreateRoom(s.ctx, &model.Room{ID: "r2", Code: "ABC123"}, model.RoomMember{RoomID: "r2", UserID: admin.ID, IsAdmin: true})
	s.ErrorIs(err, model.ErrRoomCodeTaken)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoomByCode(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestAddRoomMemberIsIdempotent() {
	admin := s.createGuest("u1", "Guest-1111")
	other := s.createGuest("u2", "Guest-2222")
	_ = s.storage.CreateRoom(s.ctx, &model.Room{ID: "r1", Code: "ABC123"}, model.RoomMember{RoomID: "r1", UserID: admin.ID, IsAdmin: true})

	added, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "r1", UserID: other.ID})
	s.Require().NoError(err)
	s.True(added)

	added, err = s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "r1", UserID: other.ID})
	s.Require().NoError(err)
	s.False(added)

	s.Equal(2, s.storage.MemberCount("r1"))

	members, err := s.storage.ListRoomMembers(s.ctx, "r1")
	s.Require().NoError(err)
	s.Len(members, 2)
	s.False(members[1].IsAdmin)
}

func (s *StorageSuite) TestAddRoomMemberConcurrentJoins() {
	admin := s.createGuest("u1", "Guest-1111")
	other := s.createGuest("u2", "Guest-2222")
	_ = s.storage.CreateRoom(s.ctx, &model.Room{ID: "r1", Code: "ABC123"}, model.RoomMember{RoomID: "r1", UserID: admin.ID, IsAdmin: true})

	const callers = 50
	var added atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "r1", UserID: other.ID})
			if err == nil && ok {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), added.Load())
	s.Equal(2, s.storage.MemberCount("r1"))
}

func (s *StorageSuite) TestAddRoomMemberUnknownRoom() {
	_, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "missing", UserID: "u1"})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Score tests

func (s *StorageSuite) TestTopScoresAscending() {
	a := s.createGuest("a", "Alice")
	b := s.createGuest("b", "Bob")
	s.insertScore("s1", a.ID, model.CategoryReactionTime, 250, nil, 0)
	s.insertScore("s2", b.ID, model.CategoryReactionTime, 180, nil, time.Second)
	s.insertScore("s3", b.ID, model.CategorySequenceMemory, 9, nil, 2*time.Second)

	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryReactionTime, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("Bob", entries[0].Username)
	s.Equal(180.0, entries[0].Value)
	s.Equal("Alice", entries[1].Username)
}

func (s *StorageSuite) TestTopScoresDescending() {
	a := s.createGuest("a", "Alice")
	b := s.createGuest("b", "Bob")
	s.insertScore("s1", a.ID, model.CategorySequenceMemory, 7, nil, 0)
	s.insertScore("s2", b.ID, model.CategorySequenceMemory, 5, nil, time.Second)

	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategorySequenceMemory, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(7.0, entries[0].Value)
	s.Equal(5.0, entries[1].Value)
}

func (s *StorageSuite) TestTopScoresRoomScopeAndLimit() {
	a := s.createGuest("a", "Alice")
	room := "r1"
	other := "r2"
	s.insertScore("s1", a.ID, model.CategoryChimpTest, 10, &room, 0)
	s.insertScore("s2", a.ID, model.CategoryChimpTest, 12, &other, time.Second)
	s.insertScore("s3", a.ID, model.CategoryChimpTest, 14, nil, 2*time.Second)
	s.insertScore("s4", a.ID, model.CategoryChimpTest, 8, &room, 3*time.Second)

	scoped, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryChimpTest, RoomID: &room, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(scoped, 2)
	s.Equal(model.ScoreID("s1"), scoped[0].ScoreID)
	s.Equal(model.ScoreID("s4"), scoped[1].ScoreID)

	global, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryChimpTest, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(global, 2)
	s.Equal(14.0, global[0].Value)
	s.Equal(12.0, global[1].Value)
}

func (s *StorageSuite) TestTopScoresKeepsEveryAttempt() {
	a := s.createGuest("a", "Alice")
	s.insertScore("s1", a.ID, model.CategoryNumberMemory, 6, nil, 0)
	s.insertScore("s2", a.ID, model.CategoryNumberMemory, 6, nil, time.Second)

	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryNumberMemory, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	// Ties go to the earlier attempt
	s.Equal(model.ScoreID("s1"), entries[0].ScoreID)
}

func (s *StorageSuite) TestTopScoresEmpty() {
	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryAimTrainer, Limit: 10})
	s.Require().NoError(err)
	s.NotNil(entries)
	s.Empty(entries)
}

func (s *StorageSuite) TestListScoresNewestFirstWithFilters() {
	a := s.createGuest("a", "Alice")
	b := s.createGuest("b", "Bob")
	room := "r1"
	s.insertScore("s1", a.ID, model.CategoryChimpTest, 10, &room, 0)
	s.insertScore("s2", b.ID, model.CategoryChimpTest, 12, nil, time.Second)
	s.insertScore("s3", a.ID, model.CategoryReactionTime, 240, nil, 2*time.Second)
	s.insertScore("s4", b.ID, model.CategoryChimpTest, 8, &room, 3*time.Second)

	all, err := s.storage.ListScores(s.ctx, model.ScoreFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	s.Equal(model.ScoreID("s4"), all[0].ID)
	s.Equal("Bob", all[0].Username)
	s.Equal(model.ScoreID("s1"), all[3].ID)

	chimp, err := s.storage.ListScores(s.ctx, model.ScoreFilter{Category: model.CategoryChimpTest, UserID: b.ID})
	s.Require().NoError(err)
	s.Require().Len(chimp, 2)
	s.Equal(model.ScoreID("s4"), chimp[0].ID)
	s.Equal(model.ScoreID("s2"), chimp[1].ID)

	inRoom, err := s.storage.ListScores(s.ctx, model.ScoreFilter{RoomID: room, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(inRoom, 1)
	s.Equal(model.ScoreID("s4"), inRoom[0].ID)
}

func (s *StorageSuite) TestListScoresEmpty() {
	scores, err := s.storage.ListScores(s.ctx, model.ScoreFilter{Category: model.CategoryAimTrainer})
	s.Require().NoError(err)
	s.NotNil(scores)
	s.Empty(scores)
}
