package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/velorun/race-server/internal/config"
	"github.com/velorun/race-server/internal/core"
)

const (
	serverName    = "race-server"
	serverVersion = "1.0.0"
)

// defaultMode groups public rooms that did not ask for a specific lobby.
const defaultMode = "public"

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LobbyHandlers provides HTTP handlers for room discovery and matchmaking.
type LobbyHandlers struct {
	lobby   *core.Lobby
	cfg     config.Config
	log     *zerolog.Logger
	started time.Time
}

// NewLobbyHandlers creates a new lobby handlers instance.
func NewLobbyHandlers(lobby *core.Lobby, cfg config.Config, logger *zerolog.Logger) *LobbyHandlers {
	return &LobbyHandlers{
		lobby:   lobby,
		cfg:     cfg,
		log:     logger,
		started: time.Now(),
	}
}

// JoinRoomRequest represents the matchmaking request body.
type JoinRoomRequest struct {
	PlayerName      string `json:"playerName" binding:"max=32"`
	Mode            string `json:"mode" binding:"max=32"`
	IsClassroomMode bool   `json:"isClassroomMode"`
}

// JoinRoomResponse carries the room to connect the WebSocket to.
type JoinRoomResponse struct {
	RoomID string `json:"roomId"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	IsClassroomMode bool   `json:"isClassroomMode"`
	Phase           string `json:"phase"`
	Players         int    `json:"players"`
	MaxPlayers      int    `json:"maxPlayers"`
}

// JoinRoom finds or creates a room matching the mode filter.
// POST /api/rooms/join
func (h *LobbyHandlers) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Mode == "" {
		req.Mode = defaultMode
	}

	room := h.lobby.JoinOrCreate(req.Mode, req.IsClassroomMode)
	h.log.Info().Str("room_id", room.ID()).Str("mode", req.Mode).Bool("classroom", req.IsClassroomMode).Msg("room matched")
	c.JSON(http.StatusOK, JoinRoomResponse{RoomID: room.ID()})
}

// ListRooms lists all live rooms.
// GET /api/rooms
func (h *LobbyHandlers) ListRooms(c *gin.Context) {
	infos := h.lobby.Rooms()
	response := make([]RoomResponse, 0, len(infos))
	for _, info := range infos {
		response = append(response, RoomResponse{
			ID:              info.ID,
			Mode:            info.Mode,
			IsClassroomMode: info.IsClassroomMode,
			Phase:           string(info.Phase),
			Players:         info.Players,
			MaxPlayers:      info.MaxPlayers,
		})
	}
	c.JSON(http.StatusOK, response)
}

// Info reports server metadata.
// GET /api/info
func (h *LobbyHandlers) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":              serverName,
		"version":           serverVersion,
		"maxPlayersPerRoom": h.cfg.MaxPlayersPerRoom,
		"activeRooms":       h.lobby.RoomCount(),
	})
}

// Health is the liveness probe.
// GET /health
func (h *LobbyHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"uptime":            time.Since(h.started).Seconds(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"rooms":             h.lobby.RoomCount(),
		"maxPlayersPerRoom": h.cfg.MaxPlayersPerRoom,
	})
}
