// Package wire defines the JSON frames exchanged with clients.
// One JSON object per websocket frame, field names fixed by the client contract.
package wire

// Client → server frame. Type selects which of the optional fields apply.
type ClientFrame struct {
	Type           string `json:"type"`
	GameID         string `json:"gameId,omitempty"`
	Role           string `json:"role,omitempty"`
	PreferredColor string `json:"preferredColor,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Promotion      string `json:"promotion,omitempty"`
}

// Frame types accepted from clients.
const (
	TypeJoin  = "join"
	TypeMove  = "move"
	TypeReset = "reset"
)

// Roles accepted on a join frame.
const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

// LastMove is the most recently applied move, for display.
type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State is the full snapshot broadcast to every viewer of a room.
type State struct {
	Type     string    `json:"type"`
	FEN      string    `json:"fen"`
	LastMove *LastMove `json:"lastMove"`
	Turn     string    `json:"turn"`
	GameOver bool      `json:"gameOver"`
}

// Joined acknowledges a join frame. YouAre is null when the role was not recognized.
type Joined struct {
	Type   string  `json:"type"`
	YouAre *string `json:"youAre"`
	GameID string  `json:"gameId"`
}

const (
	TypeState  = "state"
	TypeJoined = "joined"
)
