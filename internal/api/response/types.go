package response

import (
	"time"

	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/services/auth"
	"github.com/mcoot/humanbench/internal/services/ranking"
)

// User represents a user in API responses. Email is only present when the
// caller is the user themselves.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Guest     bool      `json:"guest"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserFromModel converts a model.User, including the email
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		Username:  u.Username,
		Guest:     u.Guest,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      UserFromModel(&s.User),
	}
}

// Score represents a stored benchmark attempt
type Score struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Category  string         `json:"category"`
	Value     float64        `json:"value"`
	RoomID    *string        `json:"roomId"`
	RawStats  map[string]any `json:"rawStats"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ScoreFromModel converts a model.Score
func ScoreFromModel(s *model.Score) Score {
	return Score{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Category:  string(s.Category),
		Value:     s.Value,
		RoomID:    s.RoomID,
		RawStats:  s.RawStats,
		CreatedAt: s.CreatedAt,
	}
}

// ScoreOwner is the public profile of a score's submitter
type ScoreOwner struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
}

// ScoreHistoryEntry is a stored attempt with its submitter
type ScoreHistoryEntry struct {
	Score
	User ScoreOwner `json:"user"`
}

// ScoreHistoryFromModel converts a score listing
func ScoreHistoryFromModel(scores []model.ScoreWithUser) []ScoreHistoryEntry {
	entries := make([]ScoreHistoryEntry, len(scores))
	for i := range scores {
		entries[i] = ScoreHistoryEntry{
			Score: ScoreFromModel(&scores[i].Score),
			User: ScoreOwner{
				Username: scores[i].Username,
				Guest:    scores[i].Guest,
			},
		}
	}
	return entries
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	ScoreID   string    `json:"scoreId"`
	Value     float64   `json:"value"`
	Username  string    `json:"username"`
	Guest     bool      `json:"guest"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardFromModel converts a leaderboard to its ranked entries
func LeaderboardFromModel(b *ranking.Leaderboard) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(b.Entries))
	for i, e := range b.Entries {
		entries[i] = LeaderboardEntry{
			Rank:      i + 1,
			ScoreID:   string(e.ScoreID),
			Value:     e.Value,
			Username:  e.Username,
			Guest:     e.Guest,
			CreatedAt: e.CreatedAt,
		}
	}
	return entries
}

// RoomMember represents a room member
type RoomMember struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Guest    bool      `json:"guest"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room represents a room with its members
type Room struct {
	ID        string       `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	AdminID   string       `json:"adminId"`
	CreatedAt time.Time    `json:"createdAt"`
	Members   []RoomMember `json:"members"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r *model.Room) Room {
	members := make([]RoomMember, len(r.Members))
	for i, m := range r.Members {
		members[i] = RoomMember{
			UserID:   string(m.UserID),
			Username: m.Username,
			Guest:    m.Guest,
			IsAdmin:  m.IsAdmin,
			JoinedAt: m.JoinedAt,
		}
	}
	return Room{
		ID:        r.ID,
		Code:      string(r.Code),
		Name:      r.Name,
		AdminID:   string(r.AdminID),
		CreatedAt: r.CreatedAt,
		Members:   members,
	}
}

// Join messages
const (
	MessageJoined        = "Joined room successfully"
	MessageAlreadyJoined = "Already joined"
)

// JoinRoomResponse is the response for joining a room
type JoinRoomResponse struct {
	Message string `json:"message"`
	Room    Room   `json:"room"`
}

// Health is the response for the health check
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
