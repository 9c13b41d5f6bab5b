package core

// CommandKind describes what a player session asked the room to do.
// Internal kinds carry timer expiries into the same inbox so the room keeps
// a single ordered stream of work.
type CommandKind int

const (
	// CommandJoin attaches a client as a fresh player or a reconnection.
	CommandJoin CommandKind = iota
	// CommandLeave detaches a client, gracefully or not.
	CommandLeave
	// CommandPlayerReady toggles race readiness.
	CommandPlayerReady
	// CommandResourcesLoaded reports asset-loading completion.
	CommandResourcesLoaded
	// CommandStartRace is the host's request to force-start.
	CommandStartRace
	// CommandPlayerUpdate merges client-reported movement state.
	CommandPlayerUpdate
	// CommandPlayerFinished records a race completion.
	CommandPlayerFinished

	cmdCountdownTick
	cmdReconnectTimeout
	cmdResetRoom
)

// MovementUpdate is a partial patch of movement state; nil fields keep their
// prior value.
type MovementUpdate struct {
	Position  *Position
	Lane      *int
	IsJumping *bool
	Score     *int
}

// JoinRequest carries a join handshake into the room. Reply receives exactly
// one result.
type JoinRequest struct {
	Client         *Client
	Name           string
	SessionID      string // non-empty for reconnection attempts
	ReconnectToken string
	Reply          chan JoinResult
}

// JoinResult is the room's answer to a join handshake.
type JoinResult struct {
	SessionID string
	Err       *CoreError
}

// Command is one unit of work for the room actor.
type Command struct {
	Kind      CommandKind
	SessionID string

	Join     *JoinRequest
	Graceful bool
	Ready    bool
	Loaded   bool
	Update   *MovementUpdate
	Score    *int

	gen uint64 // reconnect wait generation guard
}
