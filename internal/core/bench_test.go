package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func benchmarkMovementFanout(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := clockwork.NewFakeClock()
	logger := zerolog.Nop()
	room := NewRoom(RoomConfig{
		ID:              "bench",
		Mode:            "public",
		MaxPlayers:      recipients + 1,
		ReconnectWindow: 10 * time.Second,
		ResetDelay:      10 * time.Second,
	}, stubTokens{}, fc, &logger)
	go room.Run(ctx)

	joinBench := func(name string) (*Client, string) {
		c := NewClient()
		jctx, jcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer jcancel()
		res, err := room.Join(jctx, JoinRequest{Client: c, Name: name})
		if err != nil || res.Err != nil {
			b.Fatalf("join %s: %v %v", name, err, res.Err)
		}
		return c, res.SessionID
	}

	sender, senderID := joinBench("sender")
	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c, sid := joinBench(fmt.Sprintf("c%d", i))
		room.Submit(Command{Kind: CommandPlayerReady, SessionID: sid, Ready: true})
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid dropped frames.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for {
				select {
				case <-cl.Events:
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}
	go func() {
		for {
			select {
			case <-sender.Events:
			case <-ctx.Done():
				return
			}
		}
	}()

	stopDrain := make(chan struct{})
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			select {
			case <-target.Events:
			case <-stopDrain:
				return
			}
		}
	}()

	room.Submit(Command{Kind: CommandPlayerReady, SessionID: senderID, Ready: true})
	for i := 0; i < countdownFrom; i++ {
		fc.BlockUntil(1)
		fc.Advance(time.Second)
	}
	close(stopDrain)
	<-drainDone

	lane := 1
	score := 0
	upd := &MovementUpdate{
		Position: &Position{X: 1, Z: -3000},
		Lane:     &lane,
		Score:    &score,
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		room.Submit(Command{Kind: CommandPlayerUpdate, SessionID: senderID, Update: upd})
		for {
			ev := <-target.Events
			if ev.Kind == EventPlayerUpdate {
				break
			}
		}
	}
}

func BenchmarkMovementFanout_10(b *testing.B)  { benchmarkMovementFanout(b, 10) }
func BenchmarkMovementFanout_100(b *testing.B) { benchmarkMovementFanout(b, 100) }
func BenchmarkMovementFanout_500(b *testing.B) { benchmarkMovementFanout(b, 500) }
