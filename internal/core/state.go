package core

// Phase is the room lifecycle phase.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseRacing    Phase = "racing"
	PhasePaused    Phase = "paused"
	PhaseFinished  Phase = "finished"
)

// PlayerView is a player's entry in a state snapshot.
type PlayerView struct {
	SessionID       string       `json:"sessionId"`
	Name            string       `json:"name"`
	Color           ColorPair    `json:"color"`
	Score           int          `json:"score"`
	Lane            int          `json:"lane"`
	Position        Position     `json:"position"`
	IsJumping       bool         `json:"isJumping"`
	Ready           bool         `json:"ready"`
	Finished        bool         `json:"finished"`
	FinishTime      int64        `json:"finishTime"`
	ResourcesLoaded bool         `json:"resourcesLoaded"`
	IsSpectator     bool         `json:"isSpectator"`
	Status          PlayerStatus `json:"status"`
}

// Snapshot is the replicated room document, broadcast as an immutable value
// whenever the room mutates structurally. Version is monotonic; clients diff
// against the last version they have seen. Player order is join order, which
// is also the ranking tiebreak contract.
type Snapshot struct {
	Version         uint64       `json:"version"`
	Phase           Phase        `json:"phase"`
	Countdown       int          `json:"countdown"`
	StartTime       int64        `json:"startTime"` // unix milliseconds, 0 outside a race
	HostID          string       `json:"hostId"`
	IsClassroomMode bool         `json:"isClassroomMode"`
	CanReplay       bool         `json:"canReplay"`
	MaxPlayers      int          `json:"maxPlayers"`
	Players         []PlayerView `json:"players"`
}

func playerView(p *Player) PlayerView {
	return PlayerView{
		SessionID:       p.ID,
		Name:            p.Name,
		Color:           p.Color,
		Score:           p.Score,
		Lane:            p.Lane,
		Position:        p.Pos,
		IsJumping:       p.IsJumping,
		Ready:           p.Ready,
		Finished:        p.Finished,
		FinishTime:      p.FinishTime,
		ResourcesLoaded: p.ResourcesLoaded,
		IsSpectator:     p.IsSpectator,
		Status:          p.Status,
	}
}
