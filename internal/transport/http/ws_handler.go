package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/velorun/race-server/internal/core"
	"github.com/velorun/race-server/internal/proto"
)

const joinHandshakeTimeout = 10 * time.Second

// errClientLeft marks an explicit leave frame; the disconnect is consented.
var errClientLeft = errors.New("client left")

// WSHandler upgrades HTTP connections and bridges them to a room session.
type WSHandler struct {
	lobby *core.Lobby
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(lobby *core.Lobby, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{lobby: lobby, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	roomID := r.URL.Query().Get("room")
	room := h.lobby.Room(roomID)
	if room == nil {
		stdhttp.Error(w, "room not found", stdhttp.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient()
	sessionID, err := h.joinHandshake(ctx, conn, room, client)
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("join handshake failed")
		conn.Close(websocket.StatusPolicyViolation, "join rejected")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, room, sessionID)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	graceful := errors.Is(err, errClientLeft)
	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !graceful && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			graceful = true
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Debug().Err(err).Str("session_id", sessionID).Msg("ws connection closed with error")
		}
	} else if err == nil {
		graceful = true
	}

	room.Leave(sessionID, graceful)
	conn.Close(status, reason)
}

// joinHandshake reads the mandatory first join frame and attaches the client
// to the room, returning the assigned session id.
func (h *WSHandler) joinHandshake(ctx context.Context, conn *websocket.Conn, room *core.Room, client *core.Client) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, joinHandshakeTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(ctx, conn, &inbound); err != nil {
		return "", err
	}
	if inbound.Type != proto.InboundTypeJoin {
		return "", errors.New("first frame must be join")
	}

	var join proto.JoinData
	if len(inbound.Data) > 0 {
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return "", err
		}
	}

	res, err := room.Join(ctx, core.JoinRequest{
		Client:         client,
		Name:           join.PlayerName,
		SessionID:      join.SessionID,
		ReconnectToken: join.ReconnectToken,
	})
	if err != nil {
		return "", err
	}
	if res.Err != nil {
		_ = wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: res.Err.Code, Msg: res.Err.Message},
		})
		return "", res.Err
	}
	return res.SessionID, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, room *core.Room, sessionID string) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(sessionID, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd.Kind == core.CommandLeave {
			room.Submit(*cmd)
			return errClientLeft
		}
		room.Submit(*cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
