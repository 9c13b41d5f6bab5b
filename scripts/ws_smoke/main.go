package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/velorun/race-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run matches into a room over REST, attaches over WebSocket, flags ready and
// prints everything the room broadcasts until the timeout.
func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	name := flag.String("name", "smoke-tester", "player name")
	mode := flag.String("mode", "public", "lobby mode filter")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	body, _ := json.Marshal(map[string]any{"playerName": *name, "mode": *mode})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *base+"/api/rooms/join", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("matchmake: %w", err)
	}
	defer resp.Body.Close()

	var match struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		return fmt.Errorf("decode matchmake response: %w", err)
	}
	fmt.Printf("matched into room %s\n", match.RoomID)

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?room=" + match.RoomID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, _ := json.Marshal(proto.JoinData{PlayerName: *name})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	readyPayload, _ := json.Marshal(proto.ReadyData{Ready: true})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypePlayerReady, Data: readyPayload}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		raw, _ := json.Marshal(outbound.Data)
		fmt.Printf("received: type=%s data=%s\n", outbound.Type, raw)
	}
}
