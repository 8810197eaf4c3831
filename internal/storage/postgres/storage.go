package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

const (
	insertUserQuery        = `INSERT INTO users (id, email, password_hash, username, guest, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	selectUserQuery        = `SELECT id, email, password_hash, username, guest, created_at FROM users WHERE id = $1`
	selectUserByEmailQuery = `SELECT id, email, password_hash, username, guest, created_at FROM users WHERE email = $1`

	insertRoomQuery       = `INSERT INTO rooms (id, code, name, admin_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	selectRoomByCodeQuery = `SELECT id, code, name, admin_id, created_at FROM rooms WHERE code = $1`
	roomExistsQuery       = `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`

	insertMemberQuery = `INSERT INTO room_members (room_id, user_id, is_admin, joined_at) VALUES ($1, $2, $3, $4) ON CONFLICT (room_id, user_id) DO NOTHING`

	selectMembersQuery = `SELECT m.room_id, m.user_id, u.username, u.guest, m.is_admin, m.joined_at ` +
		`FROM room_members m JOIN users u ON u.id = m.user_id ` +
		`WHERE m.room_id = $1 ORDER BY m.joined_at ASC, m.user_id ASC`

	insertScoreQuery = `INSERT INTO scores (id, user_id, category, value, room_id, raw_stats, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sqlx.DB
}

// New connects to PostgreSQL and, when configured, applies migrations
func New(cfg Config) (*Storage, error) {
	db, err := sqlx.Connect("pgx", cfg.URL)
	if err != nil {
		return nil, model.WrapStorage("connect", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, model.WrapStorage("migrate", err)
		}
	}

	return NewWithDB(db), nil
}

// NewWithDB creates a PostgreSQL storage with an existing handle (for testing)
func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, insertUserQuery,
		user.ID, user.Email, user.PasswordHash, user.Username, user.Guest, user.CreatedAt)
	return mapError("create user", err, nil)
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.db.GetContext(ctx, &user, selectUserQuery, id); err != nil {
		return nil, mapError("get user", err, model.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.GetContext(ctx, &user, selectUserByEmailQuery, email); err != nil {
		return nil, mapError("get user by email", err, model.ErrUserNotFound)
	}
	return &user, nil
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room, admin model.RoomMember) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError("begin create room", err, nil)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertRoomQuery,
		room.ID, room.Code, room.Name, room.AdminID, room.CreatedAt); err != nil {
		return mapError("create room", err, nil)
	}
	if _, err := tx.ExecContext(ctx, insertMemberQuery,
		admin.RoomID, admin.UserID, admin.IsAdmin, admin.JoinedAt); err != nil {
		return mapError("add room admin", err, nil)
	}

	return mapError("commit create room", tx.Commit(), nil)
}

func (s *Storage) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	var room model.Room
	if err := s.db.GetContext(ctx, &room, selectRoomByCodeQuery, code); err != nil {
		return nil, mapError("get room", err, model.ErrRoomNotFound)
	}

	members, err := s.ListRoomMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Members = members
	return &room, nil
}

func (s *Storage) AddRoomMember(ctx context.Context, member model.RoomMember) (bool, error) {
	res, err := s.db.ExecContext(ctx, insertMemberQuery,
		member.RoomID, member.UserID, member.IsAdmin, member.JoinedAt)
	if err != nil {
		return false, mapError("add room member", err, model.ErrRoomNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError("add room member", err, nil)
	}
	return n > 0, nil
}

func (s *Storage) ListRoomMembers(ctx context.Context, roomID string) ([]model.RoomMember, error) {
	members := []model.RoomMember{}
	if err := s.db.SelectContext(ctx, &members, selectMembersQuery, roomID); err != nil {
		return nil, mapError("list room members", err, model.ErrRoomNotFound)
	}
	if len(members) > 0 {
		return members, nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, roomExistsQuery, roomID); err != nil {
		return nil, mapError("check room", err, model.ErrRoomNotFound)
	}
	if !exists {
		return nil, model.ErrRoomNotFound
	}
	return members, nil
}

// Score operations

func (s *Storage) InsertScore(ctx context.Context, score *model.Score) error {
	rawStats := score.RawStats
	if rawStats == nil {
		rawStats = map[string]any{}
	}
	data, err := json.Marshal(rawStats)
	if err != nil {
		return model.WrapStorage("encode raw stats", err)
	}

	_, err = s.db.ExecContext(ctx, insertScoreQuery,
		score.ID, score.UserID, score.Category, score.Value, score.RoomID, data, score.CreatedAt)
	return mapError("insert score", err, nil)
}

// leaderboardRow is a score joined with its submitter
type leaderboardRow struct {
	ScoreID   string    `db:"id"`
	UserID    string    `db:"user_id"`
	Value     float64   `db:"value"`
	Username  string    `db:"username"`
	Guest     bool      `db:"guest"`
	CreatedAt time.Time `db:"created_at"`
}

// topScoresQuery builds the ranking query. The order direction comes from the
// category table, never from caller input.
func topScoresQuery(dir model.Direction, roomScoped, limited bool) string {
	order := "DESC"
	if dir == model.Ascending {
		order = "ASC"
	}

	var b strings.Builder
	b.WriteString(`SELECT s.id, s.user_id, s.value, u.username, u.guest, s.created_at `)
	b.WriteString(`FROM scores s JOIN users u ON u.id = s.user_id `)
	b.WriteString(`WHERE s.category = $1`)
	next := 2
	if roomScoped {
		fmt.Fprintf(&b, ` AND s.room_id = $%d`, next)
		next++
	}
	fmt.Fprintf(&b, ` ORDER BY s.value %s, s.created_at ASC, s.id ASC`, order)
	if limited {
		fmt.Fprintf(&b, ` LIMIT $%d`, next)
	}
	return b.String()
}

func (s *Storage) TopScores(ctx context.Context, query model.LeaderboardQuery) ([]model.LeaderboardEntry, error) {
	args := []any{query.Category}
	if query.RoomID != nil {
		args = append(args, *query.RoomID)
	}
	if query.Limit > 0 {
		args = append(args, query.Limit)
	}

	q := topScoresQuery(query.Category.Direction(), query.RoomID != nil, query.Limit > 0)

	var rows []leaderboardRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, mapError("top scores", err, nil)
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = model.LeaderboardEntry{
			ScoreID:   model.ScoreID(r.ScoreID),
			UserID:    model.UserID(r.UserID),
			Value:     r.Value,
			Username:  r.Username,
			Guest:     r.Guest,
			CreatedAt: r.CreatedAt,
		}
	}
	return entries, nil
}

// historyRow is a full score joined with its submitter
type historyRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Category  string    `db:"category"`
	Value     float64   `db:"value"`
	RoomID    *string   `db:"room_id"`
	RawStats  []byte    `db:"raw_stats"`
	CreatedAt time.Time `db:"created_at"`
	Username  string    `db:"username"`
	Guest     bool      `db:"guest"`
}

// listScoresQuery builds the history query for the set fields of filter
func listScoresQuery(filter model.ScoreFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT s.id, s.user_id, s.category, s.value, s.room_id, s.raw_stats, s.created_at, u.username, u.guest `)
	b.WriteString(`FROM scores s JOIN users u ON u.id = s.user_id`)

	var conds []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Category != "" {
		add("s.category", filter.Category)
	}
	if filter.RoomID != "" {
		add("s.room_id", filter.RoomID)
	}
	if filter.UserID != "" {
		add("s.user_id", filter.UserID)
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	b.WriteString(` ORDER BY s.created_at DESC, s.id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	return b.String(), args
}

func (s *Storage) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreWithUser, error) {
	// user ids are UUIDs; anything else can never match
	if filter.UserID != "" {
		if _, err := uuid.Parse(string(filter.UserID)); err != nil {
			return []model.ScoreWithUser{}, nil
		}
	}

	q, args := listScoresQuery(filter)
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, mapError("list scores", err, nil)
	}

	result := make([]model.ScoreWithUser, len(rows))
	for i, r := range rows {
		rawStats := map[string]any{}
		if len(r.RawStats) > 0 {
			if err := json.Unmarshal(r.RawStats, &rawStats); err != nil {
				return nil, model.WrapStorage("decode raw stats", err)
			}
		}
		result[i] = model.ScoreWithUser{
			Score: model.Score{
				ID:        model.ScoreID(r.ID),
				UserID:    model.UserID(r.UserID),
				Category:  model.Category(r.Category),
				Value:     r.Value,
				RoomID:    r.RoomID,
				RawStats:  rawStats,
				CreatedAt: r.CreatedAt,
			},
			Username: r.Username,
			Guest:    r.Guest,
		}
	}
	return result, nil
}

// Lifecycle

func (s *Storage) Ping(ctx context.Context) error {
	return model.WrapStorage("ping", s.db.PingContext(ctx))
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}
