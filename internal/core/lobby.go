package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// LobbyConfig carries the per-room defaults applied at creation time.
type LobbyConfig struct {
	MaxPlayersPerRoom int
	ReconnectWindow   time.Duration
	ResetDelay        time.Duration
}

// Lobby owns the live room set: public discovery by mode filter,
// find-or-create matchmaking, and disposal of emptied rooms. Rooms are fully
// partitioned; the lobby only routes.
type Lobby struct {
	cfg    LobbyConfig
	tokens TokenIssuer
	clock  clockwork.Clock
	log    *zerolog.Logger

	mu      sync.Mutex
	rooms   map[string]*Room
	baseCtx context.Context
}

// NewLobby constructs an empty lobby.
func NewLobby(cfg LobbyConfig, tokens TokenIssuer, clock clockwork.Clock, logger *zerolog.Logger) *Lobby {
	return &Lobby{
		cfg:     cfg,
		tokens:  tokens,
		clock:   clock,
		log:     logger,
		rooms:   make(map[string]*Room),
		baseCtx: context.Background(),
	}
}

// Run pins the lifetime context for all rooms and blocks until it ends.
func (l *Lobby) Run(ctx context.Context) {
	l.mu.Lock()
	l.baseCtx = ctx
	l.mu.Unlock()
	<-ctx.Done()
}

// Room returns the room with the given id, or nil.
func (l *Lobby) Room(id string) *Room {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rooms[id]
}

// Rooms lists summaries of all live rooms.
func (l *Lobby) Rooms() []RoomInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	infos := make([]RoomInfo, 0, len(l.rooms))
	for _, r := range l.rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// RoomCount returns the number of live rooms.
func (l *Lobby) RoomCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

// JoinOrCreate finds a joinable room matching the mode filter, or creates
// one. Classroom rooms never mix with normal ones.
func (l *Lobby) JoinOrCreate(mode string, classroom bool) *Room {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.rooms {
		info := r.Info()
		if info.Mode != mode || info.IsClassroomMode != classroom {
			continue
		}
		if info.Players >= info.MaxPlayers {
			continue
		}
		if classroom && info.Phase == PhaseFinished {
			continue // terminal, no replay
		}
		return r
	}

	room := NewRoom(RoomConfig{
		ID:              uuid.NewString(),
		Mode:            mode,
		ClassroomMode:   classroom,
		MaxPlayers:      l.cfg.MaxPlayersPerRoom,
		ReconnectWindow: l.cfg.ReconnectWindow,
		ResetDelay:      l.cfg.ResetDelay,
	}, l.tokens, l.clock, l.log)
	room.onEmpty = l.remove
	l.rooms[room.ID()] = room

	go room.Run(l.baseCtx)
	return room
}

func (l *Lobby) remove(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, roomID)
}
