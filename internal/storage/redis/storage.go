package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
//
// Uniqueness of emails and room codes is enforced with SETNX index keys and
// membership idempotence with HSETNX, so concurrent writers race safely.
type Storage struct {
	client *redis.Client
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, model.WrapStorage("connect", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return model.WrapStorage("encode user", err)
	}

	if user.Email != nil {
		claimed, err := s.client.SetNX(ctx, s.keys.emailIndex(*user.Email), string(user.ID), 0).Result()
		if err != nil {
			return model.WrapStorage("claim email", err)
		}
		if !claimed {
			return model.ErrEmailTaken
		}
	}

	if err := s.client.Set(ctx, s.keys.user(user.ID), data, 0).Err(); err != nil {
		if user.Email != nil {
			_ = s.client.Del(ctx, s.keys.emailIndex(*user.Email)).Err()
		}
		return model.WrapStorage("save user", err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, s.keys.user(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.WrapStorage("get user", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, model.WrapStorage("decode user", err)
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	// Look up user ID from email index
	id, err := s.client.Get(ctx, s.keys.emailIndex(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.WrapStorage("get email index", err)
	}

	return s.GetUser(ctx, model.UserID(id))
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room, admin model.RoomMember) error {
	stored := *room
	stored.Members = nil
	roomData, err := json.Marshal(stored)
	if err != nil {
		return model.WrapStorage("encode room", err)
	}
	memberData, err := json.Marshal(admin)
	if err != nil {
		return model.WrapStorage("encode member", err)
	}

	claimed, err := s.client.SetNX(ctx, s.keys.roomCodeIndex(room.Code), room.ID, 0).Result()
	if err != nil {
		return model.WrapStorage("claim room code", err)
	}
	if !claimed {
		return model.ErrRoomCodeTaken
	}

	// Room and admin membership become visible together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.room(room.ID), roomData, 0)
	pipe.HSet(ctx, s.keys.roomMembers(room.ID), string(admin.UserID), memberData)
	if _, err := pipe.Exec(ctx); err != nil {
		_ = s.client.Del(ctx, s.keys.roomCodeIndex(room.Code)).Err()
		return model.WrapStorage("save room", err)
	}
	return nil
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	roomID, err := s.client.Get(ctx, s.keys.roomCodeIndex(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, model.WrapStorage("get room code index", err)
	}

	data, err := s.client.Get(ctx, s.keys.room(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, model.WrapStorage("get room", err)
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, model.WrapStorage("decode room", err)
	}

	members, err := s.ListRoomMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Members = members
	return &room, nil
}

func (s *Storage) AddRoomMember(ctx context.Context, member model.RoomMember) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keys.room(member.RoomID)).Result()
	if err != nil {
		return false, model.WrapStorage("check room", err)
	}
	if exists == 0 {
		return false, model.ErrRoomNotFound
	}

	data, err := json.Marshal(member)
	if err != nil {
		return false, model.WrapStorage("encode member", err)
	}

	added, err := s.client.HSetNX(ctx, s.keys.roomMembers(member.RoomID), string(member.UserID), data).Result()
	if err != nil {
		return false, model.WrapStorage("add member", err)
	}
	return added, nil
}

func (s *Storage) ListRoomMembers(ctx context.Context, roomID string) ([]model.RoomMember, error) {
	raw, err := s.client.HGetAll(ctx, s.keys.roomMembers(roomID)).Result()
	if err != nil {
		return nil, model.WrapStorage("list members", err)
	}
	if len(raw) == 0 {
		exists, err := s.client.Exists(ctx, s.keys.room(roomID)).Result()
		if err != nil {
			return nil, model.WrapStorage("check room", err)
		}
		if exists == 0 {
			return nil, model.ErrRoomNotFound
		}
		return []model.RoomMember{}, nil
	}

	members := make([]model.RoomMember, 0, len(raw))
	userIDs := make([]model.UserID, 0, len(raw))
	for _, v := range raw {
		var m model.RoomMember
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, model.WrapStorage("decode member", err)
		}
		members = append(members, m)
		userIDs = append(userIDs, m.UserID)
	}

	users, err := s.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if u, ok := users[members[i].UserID]; ok {
			members[i].Username = u.Username
			members[i].Guest = u.Guest
		}
	}

	// Hash iteration order is random; present members in join order
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) error {
	data, err := json.Marshal(score)
	if err != nil {
		return model.WrapStorage("encode score", err)
	}

	z := redis.Z{
		Score:  rankKey(score.Category, score.Value),
		Member: rankMember(score.CreatedAt, score.ID),
	}

	// Score row and its leaderboard index entries are written atomically
	h := redis.Z{Score: 0, Member: z.Member}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.score(score.ID), data, 0)
	pipe.ZAdd(ctx, s.keys.leaderboard(score.Category, nil), z)
	pipe.ZAdd(ctx, s.keys.history(model.ScoreFilter{}), h)
	pipe.ZAdd(ctx, s.keys.userHistory(score.UserID), h)
	if score.RoomID != nil {
		pipe.ZAdd(ctx, s.keys.leaderboard(score.Category, score.RoomID), z)
		pipe.ZAdd(ctx, s.keys.roomHistory(*score.RoomID), h)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return model.WrapStorage("insert score", err)
	}
	return nil
}

func (s *Storage) TopScores(ctx context.Context, query model.LeaderboardQuery) ([]model.LeaderboardEntry, error) {
	stop := int64(-1)
	if query.Limit > 0 {
		stop = int64(query.Limit - 1)
	}

	members, err := s.client.ZRange(ctx, s.keys.leaderboard(query.Category, query.RoomID), 0, stop).Result()
	if err != nil {
		return nil, model.WrapStorage("range leaderboard", err)
	}
	if len(members) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	scores, err := s.loadScores(ctx, members)
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx, scoreUserIDs(scores))
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		u, ok := users[sc.UserID]
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
	return entries, nil
}

// historyPageSize is how many history members are read per ZREVRANGE
const historyPageSize = 100

func (s *Storage) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreWithUser, error) {
	key := s.keys.history(filter)

	var matched []model.Score
	for start := int64(0); filter.Limit <= 0 || len(matched) < filter.Limit; start += historyPageSize {
		members, err := s.client.ZRevRange(ctx, key, start, start+historyPageSize-1).Result()
		if err != nil {
			return nil, model.WrapStorage("range history", err)
		}

		page, err := s.loadScores(ctx, members)
		if err != nil {
			return nil, err
		}
		for i := range page {
			if !filter.Matches(&page[i]) {
				continue
			}
			matched = append(matched, page[i])
			if filter.Limit > 0 && len(matched) == filter.Limit {
				break
			}
		}

		if len(members) < historyPageSize {
			break
		}
	}

	users, err := s.loadUsers(ctx, scoreUserIDs(matched))
	if err != nil {
		return nil, err
	}

	result := make([]model.ScoreWithUser, 0, len(matched))
	for _, sc := range matched {
		u, ok := users[sc.UserID]
		if !ok {
			continue
		}
		result = append(result, model.ScoreWithUser{Score: sc, Username: u.Username, Guest: u.Guest})
	}
	return result, nil
}

// loadScores fetches the score bodies behind index members, in member order
func (s *Storage) loadScores(ctx context.Context, members []string) ([]model.Score, error) {
	if len(members) == 0 {
		return nil, nil
	}

	scoreKeys := make([]string, len(members))
	for i, m := range members {
		scoreKeys[i] = s.keys.score(scoreIDFromMember(m))
	}

	values, err := s.client.MGet(ctx, scoreKeys...).Result()
	if err != nil {
		return nil, model.WrapStorage("load scores", err)
	}

	scores := make([]model.Score, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // index entry without a score body
		}
		var sc model.Score
		if err := json.Unmarshal([]byte(str), &sc); err != nil {
			return nil, model.WrapStorage("decode score", err)
		}
		scores = append(scores, sc)
	}
	return scores, nil
}

func scoreUserIDs(scores []model.Score) []model.UserID {
	ids := make([]model.UserID, len(scores))
	for i, sc := range scores {
		ids[i] = sc.UserID
	}
	return ids
}

// loadUsers fetches the given users with a single MGET
func (s *Storage) loadUsers(ctx context.Context, ids []model.UserID) (map[model.UserID]*model.User, error) {
	result := make(map[model.UserID]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	userKeys := make([]string, len(ids))
	for i, id := range ids {
		userKeys[i] = s.keys.user(id)
	}

	values, err := s.client.MGet(ctx, userKeys...).Result()
	if err != nil {
		return nil, model.WrapStorage("load users", err)
	}
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var u model.User
		if err := json.Unmarshal([]byte(str), &u); err != nil {
			return nil, model.WrapStorage("decode user", err)
		}
		result[u.ID] = &u
	}
	return result, nil
}

// Lifecycle

func (s *Storage) Ping(ctx context.Context) error {
	return model.WrapStorage("ping", s.client.Ping(ctx).Err())
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}
