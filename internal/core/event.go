package core

// EventKind is a notification the room emits to clients.
type EventKind int

const (
	// EventNotification is a human-readable toast (join/leave/ready/host changes).
	EventNotification EventKind = iota
	// EventWelcome is the personal greeting carrying session identity.
	EventWelcome
	// EventState delivers a versioned snapshot of the room document.
	EventState
	// EventRaceCountdown is one countdown tick (3, 2, 1).
	EventRaceCountdown
	// EventRaceStart marks entry into the racing phase.
	EventRaceStart
	// EventRacePaused marks a pause caused by a disconnect.
	EventRacePaused
	// EventRaceResumed marks the end of a pause.
	EventRaceResumed
	// EventPlayerFinished reports an individual finish.
	EventPlayerFinished
	// EventRaceEnded delivers the final rankings.
	EventRaceEnded
	// EventRaceReset announces the automatic return to waiting.
	EventRaceReset
	// EventPlayerUpdate rebroadcasts another player's movement patch.
	EventPlayerUpdate
	// EventError notifies a client about a domain error.
	EventError
)

// Notification is the toast payload.
type Notification struct {
	Type     string
	Title    string
	Message  string
	Duration int // display milliseconds
}

// Welcome carries the joiner's identity and reconnect credential.
type Welcome struct {
	RoomID          string
	SessionID       string
	ReconnectToken  string
	IsClassroomMode bool
	Reconnected     bool
}

// PauseInfo names the player whose disconnect paused the race.
type PauseInfo struct {
	Reason     string
	PlayerName string
	Message    string
}

// FinishInfo reports one player crossing the line.
type FinishInfo struct {
	SessionID  string
	PlayerName string
	Score      int
	Time       int64
}

// RankEntry is one row of the final rankings.
type RankEntry struct {
	Rank       int
	SessionID  string
	PlayerName string
	Score      int
	Time       int64
}

// MovementEvent is the compact rebroadcast of a movement patch.
type MovementEvent struct {
	SessionID string
	Position  Position
	Lane      int
	IsJumping bool
	Score     int
}

// Event is sent to clients to describe what happened in the room.
type Event struct {
	Kind EventKind

	Notification *Notification
	Welcome      *Welcome
	State        *Snapshot
	Countdown    int
	StartTime    int64
	Paused       *PauseInfo
	Message      string
	Finish       *FinishInfo
	Rankings     []RankEntry
	Movement     *MovementEvent
	Error        *CoreError
}
