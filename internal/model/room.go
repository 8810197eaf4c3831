package model

import (
	"strings"
	"time"
)

// RoomCode is the short human-shareable identifier for joining rooms
type RoomCode string

// Normalize upper-cases and trims a user supplied code
func (c RoomCode) Normalize() RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(string(c))))
}

// Room is a private group of users sharing a scoped leaderboard
type Room struct {
	ID        string       `json:"id" db:"id"`
	Code      RoomCode     `json:"code" db:"code"`
	Name      string       `json:"name" db:"name"`
	AdminID   UserID       `json:"admin_id" db:"admin_id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	Members   []RoomMember `json:"members,omitempty" db:"-"`
}

// RoomMember links a user to a room. Username and Guest are read-side
// projections of the user row and are not stored on the membership
type RoomMember struct {
	RoomID   string    `json:"room_id" db:"room_id"`
	UserID   UserID    `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username"`
	Guest    bool      `json:"guest" db:"guest"`
	IsAdmin  bool      `json:"is_admin" db:"is_admin"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
