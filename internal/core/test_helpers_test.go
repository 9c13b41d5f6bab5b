package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// stubTokens is a deterministic TokenIssuer for tests.
type stubTokens struct{}

func (stubTokens) Issue(roomID, sessionID string) (string, error) {
	return "tok-" + sessionID, nil
}

func (stubTokens) Verify(roomID, sessionID, token string) error {
	if token != "tok-"+sessionID {
		return errors.New("bad token")
	}
	return nil
}

func newTestRoom(t *testing.T, classroom bool, maxPlayers int) (*Room, *clockwork.FakeClock) {
	t.Helper()

	fc := clockwork.NewFakeClock()
	logger := zerolog.Nop()
	room := NewRoom(RoomConfig{
		ID:              "test-room",
		Mode:            "public",
		ClassroomMode:   classroom,
		MaxPlayers:      maxPlayers,
		ReconnectWindow: 10 * time.Second,
		ResetDelay:      10 * time.Second,
	}, stubTokens{}, fc, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go room.Run(ctx)

	return room, fc
}

func join(t *testing.T, room *Room, name string) (*Client, string) {
	t.Helper()

	c := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := room.Join(ctx, JoinRequest{Client: c, Name: name})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	if res.Err != nil {
		t.Fatalf("join %s rejected: %v", name, res.Err)
	}
	return c, res.SessionID
}

func rejoin(t *testing.T, room *Room, sessionID string) *Client {
	t.Helper()

	c := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := room.Join(ctx, JoinRequest{Client: c, SessionID: sessionID, ReconnectToken: "tok-" + sessionID})
	if err != nil {
		t.Fatalf("rejoin %s: %v", sessionID, err)
	}
	if res.Err != nil {
		t.Fatalf("rejoin %s rejected: %v", sessionID, res.Err)
	}
	return c
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNotification waits for a toast with the given title, discarding
// everything else in between.
func mustNotification(t *testing.T, ch <-chan *Event, title string) *Notification {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventNotification && ev.Notification.Title == title {
				return ev.Notification
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected notification %q not received", title)
	return nil
}

// mustPhase drains snapshots until one reports the wanted phase.
func mustPhase(t *testing.T, ch <-chan *Event, phase Phase) *Snapshot {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventState && ev.State.Phase == phase {
				return ev.State
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected snapshot with phase %q not received", phase)
	return nil
}

// expectNoEvent drains the channel for a short window and fails if an event
// of the given kind shows up.
func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// tickCountdown fires the next pending 1-second countdown tick.
func tickCountdown(fc *clockwork.FakeClock) {
	fc.BlockUntil(1)
	fc.Advance(time.Second)
}

// startRaceFor drives an unmoderated room with the given clients through
// ready-up and the full countdown into racing.
func startRaceFor(t *testing.T, room *Room, fc *clockwork.FakeClock, sessions []string, clients []*Client) {
	t.Helper()

	for _, sid := range sessions {
		room.Submit(Command{Kind: CommandPlayerReady, SessionID: sid, Ready: true})
	}
	mustEvent(t, clients[0].Events, EventRaceCountdown)

	for i := 0; i < countdownFrom; i++ {
		tickCountdown(fc)
	}
	mustEvent(t, clients[0].Events, EventRaceStart)
	for _, c := range clients[1:] {
		mustEvent(t, c.Events, EventRaceStart)
	}
	for _, c := range clients {
		drain(c.Events)
	}
}
