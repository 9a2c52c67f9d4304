// Package mafiav1 defines the wire contract between the mafia game server
// and its clients: request/response messages, the codec carrying them, and
// the gRPC service descriptors for both directions.
package mafiav1

// RegisterRequest announces a client and the address of its callback server.
type RegisterRequest struct {
	Host string `json:"host"`
	Port int32  `json:"port"`
	Name string `json:"name"`
}

// RegisterResponse carries the session id assigned to the client.
type RegisterResponse struct {
	Id string `json:"id"`
}

// LeaveRequest withdraws the session with the given id.
type LeaveRequest struct {
	Id string `json:"id"`
}

// PerformActionRequest submits one action. TargetName is empty for actions
// without a target.
type PerformActionRequest struct {
	Id         string `json:"id"`
	Action     string `json:"action"`
	TargetName string `json:"target_name,omitempty"`
}

// PlayerStatsRequest looks up the persisted record of a player.
type PlayerStatsRequest struct {
	Name string `json:"name"`
}

// PlayerStatsResponse is a player's persisted record.
type PlayerStatsResponse struct {
	Name          string  `json:"name"`
	Avatar        string  `json:"avatar"`
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	SecondsPlayed float64 `json:"seconds_played"`
}

// ListPlayersResponse holds every persisted record, ordered by name.
type ListPlayersResponse struct {
	Players []*PlayerStatsResponse `json:"players"`
}

// UpdateAvatarRequest sets the avatar of a player's record. An empty Avatar
// restores the default.
type UpdateAvatarRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// JoinNotification tells a client that a player joined its game.
type JoinNotification struct {
	Player string `json:"player"`
}

// LeaveNotification tells a client that a player left its game.
type LeaveNotification struct {
	Player string `json:"player"`
}

// ActionNotification carries one human readable game event.
type ActionNotification struct {
	Notification string `json:"notification"`
}

// RoleMessage tells a client its role once the game starts.
type RoleMessage struct {
	Role string `json:"role"`
}

// AvailableActions prompts a client with the actions it may take now.
type AvailableActions struct {
	Actions []string `json:"actions"`
}
