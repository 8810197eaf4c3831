package request

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubmitScoreRequest is the request body for recording a benchmark attempt
type SubmitScoreRequest struct {
	Category string `json:"category"`
	// Value is a pointer so an omitted value can be told apart from zero
	Value    *float64       `json:"value"`
	RoomID   *string        `json:"roomId,omitempty"`
	RawStats map[string]any `json:"rawStats,omitempty"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name string `json:"name,omitempty"`
}
