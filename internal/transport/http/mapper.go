package http

import (
	"encoding/json"

	"github.com/velorun/race-server/internal/core"
	"github.com/velorun/race-server/internal/proto"
)

func inboundToCommand(sessionID string, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypePlayerReady:
		var ready proto.ReadyData
		if err := json.Unmarshal(inbound.Data, &ready); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:      core.CommandPlayerReady,
			SessionID: sessionID,
			Ready:     ready.Ready,
		}, nil, nil
	case proto.InboundTypeResourcesLoaded:
		var res proto.ResourcesLoadedData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &res); err != nil {
				return nil, nil, err
			}
		}
		// Absent field means loaded.
		loaded := res.Loaded == nil || *res.Loaded
		return &core.Command{
			Kind:      core.CommandResourcesLoaded,
			SessionID: sessionID,
			Loaded:    loaded,
		}, nil, nil
	case proto.InboundTypeStartRace:
		return &core.Command{
			Kind:      core.CommandStartRace,
			SessionID: sessionID,
		}, nil, nil
	case proto.InboundTypePlayerUpdate:
		var upd proto.PlayerUpdateData
		if err := json.Unmarshal(inbound.Data, &upd); err != nil {
			return nil, nil, err
		}
		move := &core.MovementUpdate{
			Lane:      upd.Lane,
			IsJumping: upd.IsJumping,
			Score:     upd.Score,
		}
		if upd.Position != nil {
			move.Position = &core.Position{X: upd.Position.X, Y: upd.Position.Y, Z: upd.Position.Z}
		}
		return &core.Command{
			Kind:      core.CommandPlayerUpdate,
			SessionID: sessionID,
			Update:    move,
		}, nil, nil
	case proto.InboundTypePlayerFinished:
		var fin proto.PlayerFinishedData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &fin); err != nil {
				return nil, nil, err
			}
		}
		return &core.Command{
			Kind:      core.CommandPlayerFinished,
			SessionID: sessionID,
			Score:     fin.Score,
		}, nil, nil
	case proto.InboundTypeLeave:
		return &core.Command{
			Kind:      core.CommandLeave,
			SessionID: sessionID,
			Graceful:  true,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNotification:
		n := event.Notification
		return proto.Outbound{
			Type: proto.OutboundTypeNotification,
			Data: proto.NotificationData{
				Type:     n.Type,
				Title:    n.Title,
				Message:  n.Message,
				Duration: n.Duration,
			},
		}
	case core.EventWelcome:
		w := event.Welcome
		return proto.Outbound{
			Type: proto.OutboundTypeWelcome,
			Data: proto.WelcomeData{
				RoomID:          w.RoomID,
				SessionID:       w.SessionID,
				ReconnectToken:  w.ReconnectToken,
				IsClassroomMode: w.IsClassroomMode,
				Reconnected:     w.Reconnected,
			},
		}
	case core.EventState:
		return proto.Outbound{
			Type: proto.OutboundTypeState,
			Data: event.State,
		}
	case core.EventRaceCountdown:
		return proto.Outbound{
			Type: proto.OutboundTypeRaceCountdown,
			Data: proto.RaceCountdownData{Countdown: event.Countdown},
		}
	case core.EventRaceStart:
		return proto.Outbound{
			Type: proto.OutboundTypeRaceStart,
			Data: proto.RaceStartData{StartTime: event.StartTime},
		}
	case core.EventRacePaused:
		p := event.Paused
		return proto.Outbound{
			Type: proto.OutboundTypeRacePaused,
			Data: proto.RacePausedData{
				Reason:     p.Reason,
				PlayerName: p.PlayerName,
				Message:    p.Message,
			},
		}
	case core.EventRaceResumed:
		return proto.Outbound{
			Type: proto.OutboundTypeRaceResumed,
			Data: proto.RaceResumedData{Message: event.Message},
		}
	case core.EventPlayerFinished:
		f := event.Finish
		return proto.Outbound{
			Type: proto.OutboundTypePlayerFinished,
			Data: proto.PlayerFinishedEvent{
				SessionID:  f.SessionID,
				PlayerName: f.PlayerName,
				Score:      f.Score,
				Time:       f.Time,
			},
		}
	case core.EventRaceEnded:
		rankings := make([]proto.RankingEntry, 0, len(event.Rankings))
		for _, e := range event.Rankings {
			rankings = append(rankings, proto.RankingEntry{
				Rank:       e.Rank,
				SessionID:  e.SessionID,
				PlayerName: e.PlayerName,
				Score:      e.Score,
				Time:       e.Time,
			})
		}
		return proto.Outbound{
			Type: proto.OutboundTypeRaceEnded,
			Data: proto.RaceEndedData{Rankings: rankings},
		}
	case core.EventRaceReset:
		return proto.Outbound{Type: proto.OutboundTypeRaceReset}
	case core.EventPlayerUpdate:
		m := event.Movement
		return proto.Outbound{
			Type: proto.OutboundTypePlayerUpdate,
			Data: proto.PlayerUpdateEvent{
				SessionID: m.SessionID,
				Position:  proto.PositionData{X: m.Position.X, Y: m.Position.Y, Z: m.Position.Z},
				Lane:      m.Lane,
				IsJumping: m.IsJumping,
				Score:     m.Score,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeNotification}
	}
}
