package storage

import (
	"context"

	"github.com/mcoot/humanbench/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations return the model sentinel errors for the cases they name
// and wrap any other failure with model.WrapStorage.
type Storage interface {
	// User operations

	// CreateUser inserts a user. Returns model.ErrEmailTaken if the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Room operations

	// CreateRoom inserts the room and its admin membership atomically.
	// Returns model.ErrRoomCodeTaken if the code is already assigned.
	CreateRoom(ctx context.Context, room *model.Room, admin model.RoomMember) error
	// GetRoomByCode returns the room with its members populated
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	// AddRoomMember inserts the membership if absent. The returned bool is
	// false when the user was already a member.
	AddRoomMember(ctx context.Context, member model.RoomMember) (bool, error)
	ListRoomMembers(ctx context.Context, roomID string) ([]model.RoomMember, error)

	// Score operations

	InsertScore(ctx context.Context, score *model.Score) error
	// TopScores returns the best scores matching the query, ordered by
	// model.RanksBefore for the category's direction
	TopScores(ctx context.Context, query model.LeaderboardQuery) ([]model.LeaderboardEntry, error)
	// ListScores returns scores matching the filter ordered by model.NewerFirst
	ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreWithUser, error)

	// Lifecycle

	Ping(ctx context.Context) error
	Close() error
}
