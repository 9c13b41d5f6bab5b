package core

// PlayerStatus is the connection status of a player session.
type PlayerStatus string

const (
	StatusOnline  PlayerStatus = "online"
	StatusOffline PlayerStatus = "offline"
)

// ColorPair is the shirt/shorts color combination rendered by clients.
type ColorPair struct {
	Shirt  uint32 `json:"shirt"`
	Shorts uint32 `json:"shorts"`
}

// playerColors is the fixed cosmetic palette, assigned round-robin by join order.
var playerColors = [...]ColorPair{
	{Shirt: 0xff0000, Shorts: 0x8b0000}, // red
	{Shirt: 0x0000ff, Shorts: 0x00008b}, // blue
	{Shirt: 0x00ff00, Shorts: 0x006400}, // green
	{Shirt: 0xff00ff, Shorts: 0x8b008b}, // magenta
	{Shirt: 0xffa500, Shorts: 0xff8c00}, // orange
	{Shirt: 0x00ffff, Shorts: 0x008b8b}, // cyan
	{Shirt: 0xffff00, Shorts: 0xcccc00}, // yellow
	{Shirt: 0xff1493, Shorts: 0xc71585}, // deep pink
	{Shirt: 0x9370db, Shorts: 0x663399}, // purple
	{Shirt: 0x20b2aa, Shorts: 0x008b8b}, // light sea green
}

// Position is the client-reported world position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// spawnZ is the far-back coordinate every player starts from.
const spawnZ = -4000

// Player is the per-session record inside a room. Movement fields are
// client-authoritative and advisory only.
type Player struct {
	ID              string
	Name            string
	Color           ColorPair
	Score           int
	Lane            int
	Pos             Position
	IsJumping       bool
	Ready           bool
	Finished        bool
	FinishTime      int64 // milliseconds since race start
	ResourcesLoaded bool
	IsSpectator     bool
	Status          PlayerStatus
}

// resetRace clears the fields that only have meaning during a race.
func (p *Player) resetRace() {
	p.Finished = false
	p.FinishTime = 0
	p.Score = 0
}

// resetLobby additionally clears readiness, for the post-race return to waiting.
func (p *Player) resetLobby() {
	p.resetRace()
	p.Ready = false
	p.ResourcesLoaded = false
}
