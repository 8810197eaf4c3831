package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Score:
		o.printScore(v)
	case []LeaderboardEntry:
		o.printLeaderboard(v)
	case []ScoreHistoryEntry:
		o.printScoreHistory(v)
	case Room:
		o.printRoom(v)
	case JoinResult:
		fmt.Fprintln(o.w, v.Message)
		o.printRoom(v.Room)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Guest    bool    `json:"guest"`
	Email    *string `json:"email,omitempty"`
}

// AuthResult combines user and token
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Score response type
type Score struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Value     float64        `json:"value"`
	RoomID    *string        `json:"roomId"`
	RawStats  map[string]any `json:"rawStats"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ScoreOwner is the submitter attached to a history entry
type ScoreOwner struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
}

// ScoreHistoryEntry response type
type ScoreHistoryEntry struct {
	Score
	UserID string     `json:"userId"`
	User   ScoreOwner `json:"user"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	Value     float64   `json:"value"`
	Username  string    `json:"username"`
	Guest     bool      `json:"guest"`
	CreatedAt time.Time `json:"createdAt"`
}

// Room response type
type Room struct {
	ID      string       `json:"id"`
	Code    string       `json:"code"`
	Name    string       `json:"name"`
	AdminID string       `json:"adminId"`
	Members []RoomMember `json:"members"`
}

// RoomMember response type
type RoomMember struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
	IsAdmin  bool   `json:"isAdmin"`
}

// JoinResult response type
type JoinResult struct {
	Message string `json:"message"`
	Room    Room   `json:"room"`
}

// HealthResult response type
type HealthResult struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.Username, u.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", yesNo(u.Guest))
	if u.Email != nil {
		fmt.Fprintf(o.w, "Email: %s\n", *u.Email)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printScore(s Score) {
	fmt.Fprintf(o.w, "Score %s recorded\n", s.ID)
	fmt.Fprintf(o.w, "%s: %g\n", s.Category, s.Value)
	if s.RoomID != nil {
		fmt.Fprintf(o.w, "Room: %s\n", *s.RoomID)
	}
}

func (o *Output) printLeaderboard(entries []LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No scores yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tVALUE\tWHEN")
	for _, e := range entries {
		name := e.Username
		if e.Guest {
			name += " (guest)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%g\t%s\n", e.Rank, name, e.Value, e.CreatedAt.Format(time.DateTime))
	}
	_ = tw.Flush()
}

func (o *Output) printScoreHistory(entries []ScoreHistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No scores yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tUSER\tCATEGORY\tVALUE\tROOM")
	for _, e := range entries {
		name := e.User.Username
		if e.User.Guest {
			name += " (guest)"
		}
		room := "-"
		if e.RoomID != nil {
			room = *e.RoomID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\n", e.CreatedAt.Format(time.DateTime), name, e.Category, e.Value, room)
	}
	_ = tw.Flush()
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Name, r.Code)
	fmt.Fprintf(o.w, "ID: %s\n", r.ID)
	fmt.Fprintf(o.w, "Members (%d):\n", len(r.Members))
	for _, m := range r.Members {
		tag := ""
		if m.IsAdmin {
			tag = " [admin]"
		}
		if m.Guest {
			tag += " [guest]"
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", m.Username, m.UserID, tag)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
