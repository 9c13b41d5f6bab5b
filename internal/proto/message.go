package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin            = "join"
	InboundTypeLeave           = "leave"
	InboundTypePlayerReady     = "playerReady"
	InboundTypeResourcesLoaded = "resourcesLoaded"
	InboundTypeStartRace       = "startRace"
	InboundTypePlayerUpdate    = "playerUpdate"
	InboundTypePlayerFinished  = "playerFinished"

	OutboundTypeNotification   = "notification"
	OutboundTypeWelcome        = "welcome"
	OutboundTypeState          = "state"
	OutboundTypeRaceCountdown  = "raceCountdown"
	OutboundTypeRaceStart      = "raceStart"
	OutboundTypeRacePaused     = "racePaused"
	OutboundTypeRaceResumed    = "raceResumed"
	OutboundTypePlayerFinished = "playerFinished"
	OutboundTypeRaceEnded      = "raceEnded"
	OutboundTypeRaceReset      = "raceReset"
	OutboundTypePlayerUpdate   = "playerUpdate"
	OutboundTypeError          = "error"
)

// JoinData is the first frame a client must send after connecting. SessionID
// and ReconnectToken are set only when resuming a dropped session.
type JoinData struct {
	PlayerName     string `json:"playerName,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
	ReconnectToken string `json:"reconnectToken,omitempty"`
}

// ReadyData toggles race readiness.
type ReadyData struct {
	Ready bool `json:"ready"`
}

// ResourcesLoadedData reports asset loading. A missing field means loaded.
type ResourcesLoadedData struct {
	Loaded *bool `json:"loaded,omitempty"`
}

// PositionData is a world position.
type PositionData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlayerUpdateData is a partial movement patch; absent fields keep their
// prior value.
type PlayerUpdateData struct {
	Position  *PositionData `json:"position,omitempty"`
	Lane      *int          `json:"lane,omitempty"`
	IsJumping *bool         `json:"isJumping,omitempty"`
	Score     *int          `json:"score,omitempty"`
}

// PlayerFinishedData reports completion with an optional final score.
type PlayerFinishedData struct {
	Score *int `json:"score,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// NotificationData is a toast shown by the client.
type NotificationData struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Duration int    `json:"duration"`
}

// WelcomeData is the personal reply to a successful join.
type WelcomeData struct {
	RoomID          string `json:"roomId"`
	SessionID       string `json:"sessionId"`
	ReconnectToken  string `json:"reconnectToken"`
	IsClassroomMode bool   `json:"isClassroomMode"`
	Reconnected     bool   `json:"reconnected,omitempty"`
}

// RaceCountdownData is one countdown tick.
type RaceCountdownData struct {
	Countdown int `json:"countdown"`
}

// RaceStartData marks race begin.
type RaceStartData struct {
	StartTime int64 `json:"startTime"`
}

// RacePausedData names the disconnected player.
type RacePausedData struct {
	Reason     string `json:"reason"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// RaceResumedData announces the end of a pause.
type RaceResumedData struct {
	Message string `json:"message"`
}

// PlayerFinishedEvent reports an individual finish.
type PlayerFinishedEvent struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Time       int64  `json:"time"`
}

// RankingEntry is one row of the final standings.
type RankingEntry struct {
	Rank       int    `json:"rank"`
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Time       int64  `json:"time"`
}

// RaceEndedData delivers the final standings.
type RaceEndedData struct {
	Rankings []RankingEntry `json:"rankings"`
}

// PlayerUpdateEvent rebroadcasts another player's movement.
type PlayerUpdateEvent struct {
	SessionID string       `json:"sessionId"`
	Position  PositionData `json:"position"`
	Lane      int          `json:"lane"`
	IsJumping bool         `json:"isJumping"`
	Score     int          `json:"score"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
