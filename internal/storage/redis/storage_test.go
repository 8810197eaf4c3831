package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/humanbench/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) createGuest(id, name string) *model.User {
	u := &model.User{ID: model.UserID(id), Username: name, Guest: true, CreatedAt: s.now}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	return u
}

func (s *StorageSuite) createRoom(id string, code model.RoomCode, admin model.UserID) {
	room := &model.Room{ID: id, Code: code, Name: "Room " + string(code), AdminID: admin, CreatedAt: s.now}
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room, model.RoomMember{RoomID: id, UserID: admin, IsAdmin: true, JoinedAt: s.now}))
}

func (s *StorageSuite) insertScore(id string, userID model.UserID, c model.Category, v float64, roomID *string, offset time.Duration) {
	s.Require().NoError(s.storage.InsertScore(s.ctx, &model.Score{
		ID:        model.ScoreID(id),
		UserID:    userID,
		Category:  c,
		Value:     v,
		RoomID:    roomID,
		RawStats:  map[string]any{"attempts": 3.0},
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
	s.Require().NotNil(got.PasswordHash)
	s.Equal("hash", *got.PasswordHash)
	s.True(got.CreatedAt.Equal(s.now))

	byEmail, err := s.storage.GetUserByEmail(s.ctx, email)
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), byEmail.ID)
}

func (s *StorageSuite) TestCreateUserDuplicateEmail() {
	email, hash := "alice@example.com", "hash"
	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{ID: "u1", Email: &email, PasswordHash: &hash, Username: "alice"}))

	err := s.storage.CreateUser(s.ctx, &model.User{ID: "u2", Email: &email, PasswordHash: &hash, Username: "alice2"})
	s.ErrorIs(err, model.ErrEmailTaken)

	_, err = s.storage.GetUser(s.ctx, "u2")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.storage.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestKeysUsePrefix() {
	s.createGuest("u1", "Guest-1111")
	s.True(s.mini.Exists("humanbench:user:u1"))
}

// Room tests

func (s *StorageSuite) TestCreateRoomWithAdmin() {
	admin := s.createGuest("u1", "Guest-1111")
	s.createRoom("r1", "ABC123", admin.ID)

	got, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("r1", got.ID)
	s.Equal("Room ABC123", got.Name)
	s.Require().Len(got.Members, 1)
	s.True(got.Members[0].IsAdmin)
	s.Equal("Guest-1111", got.Members[0].Username)
	s.True(got.Members[0].Guest)
}

func (s *StorageSuite) TestCreateRoomCodeCollision() {
	admin := s.createGuest("u1", "Guest-1111")
	s.createRoom("r1", "ABC123", admin.ID)

	err := s.storage.CreateRoom(s.ctx, &model.Room{ID: "r2", Code: "ABC123"}, model.RoomMember{RoomID: "r2", UserID: admin.ID, IsAdmin: true})
	s.ErrorIs(err, model.ErrRoomCodeTaken)

	got, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("r1", got.ID)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoomByCode(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestAddRoomMemberIsIdempotent() {
	admin := s.createGuest("u1", "Guest-1111")
	other := s.createGuest("u2", "Guest-2222")
	s.createRoom("r1", "ABC123", admin.ID)

	added, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "r1", UserID: other.ID, JoinedAt: s.now.Add(time.Minute)})
	s.Require().NoError(err)
	s.True(added)

	added, err = s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "r1", UserID: other.ID, JoinedAt: s.now.Add(time.Hour)})
	s.Require().NoError(err)
	s.False(added)

	members, err := s.storage.ListRoomMembers(s.ctx, "r1")
	s.Require().NoError(err)
	s.Require().Len(members, 2)
	s.Equal(admin.ID, members[0].UserID)
	s.Equal(other.ID, members[1].UserID)
	s.False(members[1].IsAdmin)
	s.Equal("Guest-2222", members[1].Username)
	// The original join time is kept
	s.True(members[1].JoinedAt.Equal(s.now.Add(time.Minute)))
}

func (s *StorageSuite) TestAddRoomMemberConcurrentJoins() {
	admin := s.createGuest("u1", "Guest-1111")
	other := s.createGuest("u2", "Guest-2222")
	s.createRoom("r1", "ABC123", admin.ID)

	const callers = 30
	var added atomic.Int32
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{
				RoomID:   "r1",
				UserID:   other.ID,
				JoinedAt: s.now.Add(time.Duration(i) * time.Millisecond),
			})
			if err != nil {
				errs <- err
				return
			}
			if ok {
				added.Add(1)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	s.Equal(int32(1), added.Load())

	members, err := s.storage.ListRoomMembers(s.ctx, "r1")
	s.Require().NoError(err)
	s.Len(members, 2)
}

func (s *StorageSuite) TestAddRoomMemberUnknownRoom() {
	_, err := s.storage.AddRoomMember(s.ctx, model.RoomMember{RoomID: "missing", UserID: "u1"})
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.storage.ListRoomMembers(s.ctx, "missing")
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
	s.True(entries[1].Guest)
}

func (s *StorageSuite) TestTopScoresDescending() {
	a := s.createGuest("a", "Alice")
	b := s.createGuest("b", "Bob")
	s.insertScore("s1", a.ID, model.CategorySequenceMemory, 7, nil, 0)
	s.insertScore("s2", b.ID, model.CategorySequenceMemory, 5, nil, time.Second)
	s.insertScore("s3", b.ID, model.CategorySequenceMemory, 11, nil, 2*time.Second)

	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategorySequenceMemory, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(11.0, entries[0].Value)
	s.Equal(7.0, entries[1].Value)
	s.Equal(5.0, entries[2].Value)
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

func (s *StorageSuite) TestTopScoresTiesGoToEarlierAttempt() {
	a := s.createGuest("a", "Alice")
	b := s.createGuest("b", "Bob")
	s.insertScore("s2", b.ID, model.CategoryAimTrainer, 400, nil, time.Second)
	s.insertScore("s1", a.ID, model.CategoryAimTrainer, 400, nil, 0)

	entries, err := s.storage.TopScores(s.ctx, model.LeaderboardQuery{Category: model.CategoryAimTrainer, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.ScoreID("s1"), entries[0].ScoreID)
	s.Equal(model.ScoreID("s2"), entries[1].ScoreID)
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
	s.Equal(model.ScoreID("s1"), all[3].ID)
	s.Equal("Bob", all[0].Username)
	s.True(all[0].Guest)
	s.Equal(map[string]any{"attempts": 3.0}, all[0].RawStats)

	mine, err := s.storage.ListScores(s.ctx, model.ScoreFilter{UserID: a.ID, Category: model.CategoryChimpTest})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(model.ScoreID("s1"), mine[0].ID)

	inRoom, err := s.storage.ListScores(s.ctx, model.ScoreFilter{RoomID: room})
	s.Require().NoError(err)
	s.Require().Len(inRoom, 2)
	s.Equal(model.ScoreID("s4"), inRoom[0].ID)
	s.Equal(model.ScoreID("s1"), inRoom[1].ID)

	limited, err := s.storage.ListScores(s.ctx, model.ScoreFilter{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal(model.ScoreID("s3"), limited[1].ID)
}

func (s *StorageSuite) TestListScoresPagesThroughHistory() {
	a := s.createGuest("a", "Alice")
	for i := 0; i < 150; i++ {
		category := model.CategoryNumberMemory
		if i%2 == 0 {
			category = model.CategoryAimTrainer
		}
		s.insertScore(fmt.Sprintf("s%03d", i), a.ID, category, float64(i), nil, time.Duration(i)*time.Second)
	}

	scores, err := s.storage.ListScores(s.ctx, model.ScoreFilter{Category: model.CategoryAimTrainer, Limit: 60})
	s.Require().NoError(err)
	s.Require().Len(scores, 60)
	s.Equal(model.ScoreID("s148"), scores[0].ID)
	s.Equal(model.ScoreID("s030"), scores[59].ID)
}

func (s *StorageSuite) TestListScoresEmpty() {
	scores, err := s.storage.ListScores(s.ctx, model.ScoreFilter{UserID: "nobody"})
	s.Require().NoError(err)
	s.NotNil(scores)
	s.Empty(scores)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))

	s.mini.Close()
	err := s.storage.Ping(s.ctx)
	s.ErrorIs(err, model.ErrStorage)
}
