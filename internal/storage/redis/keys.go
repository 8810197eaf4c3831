package redis

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/humanbench/internal/model"
)

// keys builds every Redis key under a common prefix
type keys struct {
	prefix string
}

func (k keys) user(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", k.prefix, id)
}

// emailIndex maps an email to the owning user id; written with SETNX
func (k keys) emailIndex(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, email)
}

func (k keys) room(id string) string {
	return fmt.Sprintf("%s:room:%s", k.prefix, id)
}

// roomCodeIndex maps a room code to the room id; written with SETNX
func (k keys) roomCodeIndex(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:room_code:%s", k.prefix, code)
}

// roomMembers is a HASH of user id -> membership JSON
func (k keys) roomMembers(roomID string) string {
	return fmt.Sprintf("%s:room_members:%s", k.prefix, roomID)
}

func (k keys) score(id model.ScoreID) string {
	return fmt.Sprintf("%s:score:%s", k.prefix, id)
}

// leaderboard is a ZSET of ranked score members for a category, optionally room scoped
func (k keys) leaderboard(category model.Category, roomID *string) string {
	if roomID == nil {
		return fmt.Sprintf("%s:lb:%s", k.prefix, category)
	}
	return fmt.Sprintf("%s:lb:%s:room:%s", k.prefix, category, *roomID)
}

// history is a ZSET of every score member with a constant score, so that
// ZREVRANGE walks it newest first by member order. Scoped by user, else room,
// else global.
func (k keys) history(filter model.ScoreFilter) string {
	switch {
	case filter.UserID != "":
		return k.userHistory(filter.UserID)
	case filter.RoomID != "":
		return k.roomHistory(filter.RoomID)
	default:
		return fmt.Sprintf("%s:history", k.prefix)
	}
}

func (k keys) userHistory(id model.UserID) string {
	return fmt.Sprintf("%s:history:user:%s", k.prefix, id)
}

func (k keys) roomHistory(roomID string) string {
	return fmt.Sprintf("%s:history:room:%s", k.prefix, roomID)
}

// rankKey converts a value to a ZSET score so that ascending ZRANGE order
// matches the category's ranking direction
func rankKey(category model.Category, value float64) float64 {
	if category.Direction() == model.Descending {
		return -value
	}
	return value
}

// rankMember encodes the tie-break order (older first, then id) into a
// lexicographically sortable member
func rankMember(createdAt time.Time, id model.ScoreID) string {
	return fmt.Sprintf("%020d:%s", createdAt.UnixNano(), id)
}

// scoreIDFromMember recovers the score id from a rankMember string
func scoreIDFromMember(member string) model.ScoreID {
	if i := strings.IndexByte(member, ':'); i >= 0 {
		return model.ScoreID(member[i+1:])
	}
	return model.ScoreID(member)
}
