package http

import (
	"encoding/json"
	"testing"

	"github.com/velorun/race-server/internal/core"
	"github.com/velorun/race-server/internal/proto"
)

func mustMap(t *testing.T, msgType string, data string) *core.Command {
	t.Helper()

	cmd, protoErr, err := inboundToCommand("sess-1", proto.Inbound{
		Type: msgType,
		Data: json.RawMessage(data),
	})
	if err != nil {
		t.Fatalf("map %s: %v", msgType, err)
	}
	if protoErr != nil {
		t.Fatalf("map %s: unexpected protocol error %+v", msgType, protoErr)
	}
	return cmd
}

func TestMapPlayerReady(t *testing.T) {
	cmd := mustMap(t, proto.InboundTypePlayerReady, `{"ready":true}`)
	if cmd.Kind != core.CommandPlayerReady || !cmd.Ready || cmd.SessionID != "sess-1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd = mustMap(t, proto.InboundTypePlayerReady, `{"ready":false}`)
	if cmd.Ready {
		t.Fatal("ready flag not carried through")
	}
}

func TestMapResourcesLoadedDefaultsToTrue(t *testing.T) {
	cmd := mustMap(t, proto.InboundTypeResourcesLoaded, ``)
	if cmd.Kind != core.CommandResourcesLoaded || !cmd.Loaded {
		t.Fatalf("absent payload should mean loaded: %+v", cmd)
	}

	cmd = mustMap(t, proto.InboundTypeResourcesLoaded, `{"loaded":false}`)
	if cmd.Loaded {
		t.Fatal("explicit false lost in mapping")
	}
}

func TestMapPlayerUpdateKeepsPartialPatch(t *testing.T) {
	cmd := mustMap(t, proto.InboundTypePlayerUpdate, `{"lane":2}`)
	if cmd.Kind != core.CommandPlayerUpdate {
		t.Fatalf("unexpected kind: %v", cmd.Kind)
	}
	upd := cmd.Update
	if upd.Lane == nil || *upd.Lane != 2 {
		t.Fatalf("lane patch lost: %+v", upd)
	}
	if upd.Position != nil || upd.IsJumping != nil || upd.Score != nil {
		t.Fatalf("absent fields must stay nil: %+v", upd)
	}

	cmd = mustMap(t, proto.InboundTypePlayerUpdate, `{"position":{"x":1,"y":0,"z":-3500},"isJumping":true}`)
	if cmd.Update.Position == nil || cmd.Update.Position.Z != -3500 {
		t.Fatalf("position patch lost: %+v", cmd.Update)
	}
	if cmd.Update.IsJumping == nil || !*cmd.Update.IsJumping {
		t.Fatalf("jump patch lost: %+v", cmd.Update)
	}
}

func TestMapPlayerFinishedScoreOptional(t *testing.T) {
	cmd := mustMap(t, proto.InboundTypePlayerFinished, `{"score":42}`)
	if cmd.Kind != core.CommandPlayerFinished || cmd.Score == nil || *cmd.Score != 42 {
		t.Fatalf("score lost: %+v", cmd)
	}

	cmd = mustMap(t, proto.InboundTypePlayerFinished, ``)
	if cmd.Score != nil {
		t.Fatal("absent score should map to nil")
	}
}

func TestMapLeaveIsGraceful(t *testing.T) {
	cmd := mustMap(t, proto.InboundTypeLeave, ``)
	if cmd.Kind != core.CommandLeave || !cmd.Graceful {
		t.Fatalf("leave must be a graceful departure: %+v", cmd)
	}
}

func TestMapUnknownTypeReturnsProtocolError(t *testing.T) {
	cmd, protoErr, err := inboundToCommand("sess-1", proto.Inbound{Type: "teleport"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != nil {
		t.Fatalf("unknown type must not produce a command: %+v", cmd)
	}
	if protoErr == nil || protoErr.Code != "invalid_message" {
		t.Fatalf("unexpected protocol error: %+v", protoErr)
	}
}

func TestOutboundFromStateEvent(t *testing.T) {
	snap := &core.Snapshot{Version: 7, Phase: core.PhaseRacing}
	out := outboundFromEvent(&core.Event{Kind: core.EventState, State: snap})
	if out.Type != proto.OutboundTypeState {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	if out.Data != any(snap) {
		t.Fatal("state snapshot must pass through unchanged")
	}
}

func TestOutboundFromRaceEnded(t *testing.T) {
	ev := &core.Event{Kind: core.EventRaceEnded, Rankings: []core.RankEntry{
		{Rank: 1, SessionID: "a", PlayerName: "alice", Score: 50, Time: 30000},
		{Rank: 2, SessionID: "b", PlayerName: "bob", Score: 10, Time: 31000},
	}}
	out := outboundFromEvent(ev)
	if out.Type != proto.OutboundTypeRaceEnded {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	data, ok := out.Data.(proto.RaceEndedData)
	if !ok {
		t.Fatalf("unexpected payload type: %T", out.Data)
	}
	if len(data.Rankings) != 2 || data.Rankings[0].PlayerName != "alice" || data.Rankings[1].Rank != 2 {
		t.Fatalf("rankings mangled: %+v", data.Rankings)
	}
}
