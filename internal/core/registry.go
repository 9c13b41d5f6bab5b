package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry owns identity issuance, color allocation and quorum queries for a
// room's player set. Players are kept in join order; that order is the
// ranking tiebreak contract and must survive removals. The registry is not
// safe for concurrent use: only the owning room goroutine touches it.
type Registry struct {
	players []*Player
	index   map[string]*Player
	joinSeq int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Player)}
}

// Add creates a player with a fresh session id, a default name derived from
// join order, and a palette color assigned round-robin.
func (r *Registry) Add(name string, spectator bool) *Player {
	r.joinSeq++
	if name == "" {
		name = fmt.Sprintf("Player%d", r.joinSeq)
	}

	p := &Player{
		ID:          uuid.NewString(),
		Name:        name,
		Color:       playerColors[(r.joinSeq-1)%len(playerColors)],
		Pos:         Position{Z: spawnZ},
		Status:      StatusOnline,
		IsSpectator: spectator,
	}
	r.players = append(r.players, p)
	r.index[p.ID] = p
	return p
}

// Get returns the player for a session id, or nil.
func (r *Registry) Get(sessionID string) *Player {
	return r.index[sessionID]
}

// Remove deletes a player, preserving the join order of the rest.
func (r *Registry) Remove(sessionID string) *Player {
	p, ok := r.index[sessionID]
	if !ok {
		return nil
	}
	delete(r.index, sessionID)
	for i, q := range r.players {
		if q.ID == sessionID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	return p
}

// First returns the earliest-joined remaining player, or nil.
func (r *Registry) First() *Player {
	if len(r.players) == 0 {
		return nil
	}
	return r.players[0]
}

// Players returns the join-ordered player slice. Callers must not mutate it.
func (r *Registry) Players() []*Player {
	return r.players
}

func (r *Registry) Len() int {
	return len(r.players)
}

// ActualPlayerCount counts racers, excluding spectators.
func (r *Registry) ActualPlayerCount() int {
	n := 0
	for _, p := range r.players {
		if !p.IsSpectator {
			n++
		}
	}
	return n
}

// ReadyCount counts non-spectator players that flagged ready.
func (r *Registry) ReadyCount() int {
	n := 0
	for _, p := range r.players {
		if !p.IsSpectator && p.Ready {
			n++
		}
	}
	return n
}

// ResourcesLoadedCount counts non-spectator players that finished loading.
func (r *Registry) ResourcesLoadedCount() int {
	n := 0
	for _, p := range r.players {
		if !p.IsSpectator && p.ResourcesLoaded {
			n++
		}
	}
	return n
}

// AllPlayersReady reports whether every non-spectator player is ready.
// False when there are no racers at all.
func (r *Registry) AllPlayersReady() bool {
	racers := 0
	for _, p := range r.players {
		if p.IsSpectator {
			continue
		}
		racers++
		if !p.Ready {
			return false
		}
	}
	return racers > 0
}

// AllResourcesLoaded reports whether every non-spectator player has loaded.
func (r *Registry) AllResourcesLoaded() bool {
	racers := 0
	for _, p := range r.players {
		if p.IsSpectator {
			continue
		}
		racers++
		if !p.ResourcesLoaded {
			return false
		}
	}
	return racers > 0
}

// AllPlayersOnline reports whether every player, spectators included, is online.
func (r *Registry) AllPlayersOnline() bool {
	for _, p := range r.players {
		if p.Status != StatusOnline {
			return false
		}
	}
	return true
}

// AllRacersFinished reports whether every non-spectator player has finished.
// False when there are no racers.
func (r *Registry) AllRacersFinished() bool {
	racers := 0
	for _, p := range r.players {
		if p.IsSpectator {
			continue
		}
		racers++
		if !p.Finished {
			return false
		}
	}
	return racers > 0
}
