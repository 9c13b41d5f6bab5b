package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	countdownFrom     = 3
	countdownInterval = time.Second

	notifySuccess = "success"
	notifyInfo    = "info"
	notifyWarning = "warning"
	notifyError   = "error"
)

// TokenIssuer mints and checks reconnect credentials bound to a session.
type TokenIssuer interface {
	Issue(roomID, sessionID string) (string, error)
	Verify(roomID, sessionID, token string) error
}

// RoomConfig fixes a room's identity and timing constants at creation.
type RoomConfig struct {
	ID              string
	Mode            string
	ClassroomMode   bool
	MaxPlayers      int
	ReconnectWindow time.Duration
	ResetDelay      time.Duration
}

// RoomInfo is the lobby-facing summary of a room.
type RoomInfo struct {
	ID              string
	Mode            string
	IsClassroomMode bool
	Phase           Phase
	Players         int
	MaxPlayers      int
}

type reconnectWait struct {
	timer  clockwork.Timer
	cancel chan struct{}
	gen    uint64
}

// Room is the authoritative race session. All state below the inbox is owned
// by the single goroutine running Run; the exported methods only enqueue.
type Room struct {
	cfg    RoomConfig
	clock  clockwork.Clock
	tokens TokenIssuer
	log    zerolog.Logger

	inbox chan Command
	done  chan struct{}

	// onEmpty, when set, is invoked once after the last player leaves.
	onEmpty func(roomID string)

	registry  *Registry
	phase     Phase
	countdown int
	startTime time.Time
	hostID    string
	version   uint64
	joined    bool // at least one player ever joined

	clients   map[string]*Client
	reconnect map[string]*reconnectWait
	waitGen   uint64

	statsMu sync.Mutex
	stats   RoomInfo
}

// NewRoom builds a room in the waiting phase. Run must be started for it to
// process anything.
func NewRoom(cfg RoomConfig, tokens TokenIssuer, clock clockwork.Clock, logger *zerolog.Logger) *Room {
	r := &Room{
		cfg:       cfg,
		clock:     clock,
		tokens:    tokens,
		log:       logger.With().Str("room_id", cfg.ID).Logger(),
		inbox:     make(chan Command, 256),
		done:      make(chan struct{}),
		registry:  NewRegistry(),
		phase:     PhaseWaiting,
		countdown: countdownFrom,
		clients:   make(map[string]*Client),
		reconnect: make(map[string]*reconnectWait),
	}
	r.stats = RoomInfo{
		ID:              cfg.ID,
		Mode:            cfg.Mode,
		IsClassroomMode: cfg.ClassroomMode,
		Phase:           PhaseWaiting,
		MaxPlayers:      cfg.MaxPlayers,
	}
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.cfg.ID }

// Info returns the lobby-facing summary. Safe for concurrent use.
func (r *Room) Info() RoomInfo {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// Run processes the inbox until the context is canceled or the room empties
// out after having hosted at least one player.
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	r.log.Info().Str("mode", r.cfg.Mode).Bool("classroom", r.cfg.ClassroomMode).Msg("room created")

	for {
		select {
		case cmd := <-r.inbox:
			r.dispatch(cmd)
			if r.joined && r.registry.Len() == 0 {
				r.log.Info().Msg("room empty, disposing")
				if r.onEmpty != nil {
					r.onEmpty(r.cfg.ID)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Join performs the join handshake and blocks until the room answers or the
// context expires.
func (r *Room) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	req.Reply = make(chan JoinResult, 1)
	if err := r.enqueue(Command{Kind: CommandJoin, Join: &req}); err != nil {
		return JoinResult{}, err
	}
	select {
	case res := <-req.Reply:
		return res, nil
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	case <-r.done:
		return JoinResult{}, fmt.Errorf("room %s closed", r.cfg.ID)
	}
}

// Leave detaches a session. Graceful leaves remove the player immediately;
// ungraceful ones open the reconnection window.
func (r *Room) Leave(sessionID string, graceful bool) {
	_ = r.enqueue(Command{Kind: CommandLeave, SessionID: sessionID, Graceful: graceful})
}

// Submit hands a player command to the room.
func (r *Room) Submit(cmd Command) {
	_ = r.enqueue(cmd)
}

func (r *Room) enqueue(cmd Command) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return fmt.Errorf("room %s closed", r.cfg.ID)
	}
}

func (r *Room) dispatch(cmd Command) {
	switch cmd.Kind {
	case CommandJoin:
		r.handleJoin(cmd.Join)
	case CommandLeave:
		r.handleLeave(cmd.SessionID, cmd.Graceful)
	case CommandPlayerReady:
		r.handlePlayerReady(cmd.SessionID, cmd.Ready)
	case CommandResourcesLoaded:
		r.handleResourcesLoaded(cmd.SessionID, cmd.Loaded)
	case CommandStartRace:
		r.handleStartRace(cmd.SessionID)
	case CommandPlayerUpdate:
		r.handlePlayerUpdate(cmd.SessionID, cmd.Update)
	case CommandPlayerFinished:
		r.handlePlayerFinished(cmd.SessionID, cmd.Score)
	case cmdCountdownTick:
		r.handleCountdownTick()
	case cmdReconnectTimeout:
		r.handleReconnectTimeout(cmd.SessionID, cmd.gen)
	case cmdResetRoom:
		r.handleReset()
	}
}

// Join and leave protocol.

func (r *Room) handleJoin(req *JoinRequest) {
	if req.SessionID != "" {
		r.handleRejoin(req)
		return
	}

	if r.registry.Len() >= r.cfg.MaxPlayers {
		req.Reply <- JoinResult{Err: coreError(ErrCodeRoomFull, "room is full")}
		return
	}

	first := r.registry.Len() == 0
	p := r.registry.Add(req.Name, first && r.cfg.ClassroomMode)
	if first {
		r.hostID = p.ID
		r.log.Info().Str("player", p.Name).Msg("host assigned")
	}
	r.joined = true
	r.clients[p.ID] = req.Client

	token, err := r.tokens.Issue(r.cfg.ID, p.ID)
	if err != nil {
		r.log.Error().Err(err).Msg("issue reconnect token")
	}

	req.Reply <- JoinResult{SessionID: p.ID}
	r.log.Info().Str("player", p.Name).Str("session_id", p.ID).Msg("player joined")

	r.send(p.ID, &Event{Kind: EventWelcome, Welcome: &Welcome{
		RoomID:          r.cfg.ID,
		SessionID:       p.ID,
		ReconnectToken:  token,
		IsClassroomMode: r.cfg.ClassroomMode,
	}})
	suffix := ""
	if r.cfg.ClassroomMode {
		suffix = " (Classroom Mode)"
	}
	r.send(p.ID, &Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifySuccess,
		Title:    "Welcome!",
		Message:  fmt.Sprintf("You joined room %s%s", r.cfg.ID, suffix),
		Duration: 3000,
	}})
	r.broadcastExcept(p.ID, &Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifyInfo,
		Title:    "Player Joined",
		Message:  fmt.Sprintf("%s joined the room (%d/%d)", p.Name, r.registry.ActualPlayerCount(), r.cfg.MaxPlayers),
		Duration: 3000,
	}})

	r.broadcastState()
	if !r.cfg.ClassroomMode {
		r.checkAutoStart()
	}
}

func (r *Room) handleRejoin(req *JoinRequest) {
	p := r.registry.Get(req.SessionID)
	if p == nil {
		req.Reply <- JoinResult{Err: coreError(ErrCodeSessionNotFound, "unknown session")}
		return
	}
	if err := r.tokens.Verify(r.cfg.ID, req.SessionID, req.ReconnectToken); err != nil {
		r.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("reconnect token rejected")
		req.Reply <- JoinResult{Err: coreError(ErrCodeBadToken, "invalid reconnect token")}
		return
	}
	if p.Status != StatusOffline {
		req.Reply <- JoinResult{Err: coreError(ErrCodeBadRequest, "session already connected")}
		return
	}

	r.cancelReconnectWait(req.SessionID)
	p.Status = StatusOnline
	r.clients[p.ID] = req.Client

	token, err := r.tokens.Issue(r.cfg.ID, p.ID)
	if err != nil {
		r.log.Error().Err(err).Msg("issue reconnect token")
	}

	req.Reply <- JoinResult{SessionID: p.ID}
	r.log.Info().Str("player", p.Name).Msg("player reconnected")

	r.send(p.ID, &Event{Kind: EventWelcome, Welcome: &Welcome{
		RoomID:          r.cfg.ID,
		SessionID:       p.ID,
		ReconnectToken:  token,
		IsClassroomMode: r.cfg.ClassroomMode,
		Reconnected:     true,
	}})
	r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifySuccess,
		Title:    "Player Reconnected",
		Message:  fmt.Sprintf("%s is back!", p.Name),
		Duration: 3000,
	}})

	if r.phase == PhasePaused && r.registry.AllPlayersOnline() {
		r.phase = PhaseRacing
		r.broadcast(&Event{Kind: EventRaceResumed, Message: "All players reconnected! Race resumed."})
	}
	r.broadcastState()
}

func (r *Room) handleLeave(sessionID string, graceful bool) {
	p := r.registry.Get(sessionID)
	if p == nil {
		return
	}
	delete(r.clients, sessionID)

	if graceful {
		r.log.Info().Str("player", p.Name).Msg("player left")
		r.removePlayer(sessionID)
		r.broadcastState()
		return
	}

	if p.Status == StatusOffline {
		// Stale transport teardown for a session already waiting to reconnect.
		return
	}

	p.Status = StatusOffline
	r.log.Info().Str("player", p.Name).Msg("player disconnected, opening reconnection window")

	r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifyWarning,
		Title:    "Player Disconnected",
		Message:  fmt.Sprintf("%s disconnected. Waiting for reconnection...", p.Name),
		Duration: 5000,
	}})

	if r.phase == PhaseRacing {
		r.phase = PhasePaused
		r.broadcast(&Event{Kind: EventRacePaused, Paused: &PauseInfo{
			Reason:     "player_disconnected",
			PlayerName: p.Name,
			Message:    fmt.Sprintf("Waiting for %s to reconnect...", p.Name),
		}})
	}

	r.startReconnectWait(sessionID)
	r.broadcastState()
}

func (r *Room) startReconnectWait(sessionID string) {
	r.waitGen++
	w := &reconnectWait{
		timer:  r.clock.NewTimer(r.cfg.ReconnectWindow),
		cancel: make(chan struct{}),
		gen:    r.waitGen,
	}
	r.reconnect[sessionID] = w

	go func() {
		select {
		case <-w.timer.Chan():
			_ = r.enqueue(Command{Kind: cmdReconnectTimeout, SessionID: sessionID, gen: w.gen})
		case <-w.cancel:
			stopAndDrainTimer(w.timer)
		case <-r.done:
			stopAndDrainTimer(w.timer)
		}
	}()
}

func (r *Room) cancelReconnectWait(sessionID string) {
	if w, ok := r.reconnect[sessionID]; ok {
		close(w.cancel)
		delete(r.reconnect, sessionID)
	}
}

func (r *Room) handleReconnectTimeout(sessionID string, gen uint64) {
	w, ok := r.reconnect[sessionID]
	if !ok || w.gen != gen {
		return // wait was canceled by a reconnection
	}
	delete(r.reconnect, sessionID)

	p := r.registry.Get(sessionID)
	if p == nil || p.Status != StatusOffline {
		return
	}
	r.log.Info().Str("player", p.Name).Msg("reconnection window expired")
	r.removePlayer(sessionID)
	r.broadcastState()
}

// removePlayer drops a player and handles host reassignment, pause recovery
// and end-of-race re-evaluation. Callers broadcast the state snapshot.
func (r *Room) removePlayer(sessionID string) {
	p := r.registry.Remove(sessionID)
	if p == nil {
		return
	}
	delete(r.clients, sessionID)
	r.cancelReconnectWait(sessionID)

	r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifyWarning,
		Title:    "Player Left",
		Message:  fmt.Sprintf("%s left the room (%d remaining)", p.Name, r.registry.Len()),
		Duration: 3000,
	}})

	if r.hostID == sessionID {
		if next := r.registry.First(); next != nil {
			r.hostID = next.ID
			r.log.Info().Str("player", next.Name).Msg("host reassigned")
			r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
				Type:     notifyInfo,
				Title:    "New Host",
				Message:  fmt.Sprintf("%s is now the room host.", next.Name),
				Duration: 3000,
			}})
		} else {
			r.hostID = ""
		}
	}

	if r.phase == PhasePaused && r.registry.AllPlayersOnline() {
		r.phase = PhaseRacing
		r.broadcast(&Event{Kind: EventRaceResumed, Message: fmt.Sprintf("Race resumed without %s", p.Name)})
	}

	r.checkRaceComplete()
}

// Message handlers.

func (r *Room) handlePlayerReady(sessionID string, ready bool) {
	p := r.registry.Get(sessionID)
	if p == nil || p.IsSpectator {
		return
	}
	p.Ready = ready

	title := "Player Ready"
	verb := "ready"
	if !ready {
		title = "Player Not Ready"
		verb = "not ready"
	}
	r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifyInfo,
		Title:    title,
		Message:  fmt.Sprintf("%s is %s (%d/%d)", p.Name, verb, r.registry.ReadyCount(), r.registry.ActualPlayerCount()),
		Duration: 2000,
	}})

	if !r.cfg.ClassroomMode {
		r.checkAutoStart()
	}
	r.broadcastState()
}

func (r *Room) handleResourcesLoaded(sessionID string, loaded bool) {
	p := r.registry.Get(sessionID)
	if p == nil || p.IsSpectator {
		return
	}
	p.ResourcesLoaded = loaded

	if loaded {
		r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
			Type:     notifyInfo,
			Title:    "Resources Loaded",
			Message:  fmt.Sprintf("%s is ready (%d/%d)", p.Name, r.registry.ResourcesLoadedCount(), r.registry.ActualPlayerCount()),
			Duration: 2000,
		}})
	}
	r.broadcastState()
}

func (r *Room) handleStartRace(sessionID string) {
	if sessionID != r.hostID {
		r.send(sessionID, &Event{Kind: EventNotification, Notification: &Notification{
			Type:     notifyError,
			Title:    "Permission Denied",
			Message:  "Only the host can start the race",
			Duration: 3000,
		}})
		return
	}

	if r.cfg.ClassroomMode {
		if !r.registry.AllPlayersReady() {
			r.send(sessionID, &Event{Kind: EventNotification, Notification: &Notification{
				Type:     notifyWarning,
				Title:    "Not Ready",
				Message:  "All players must be ready first",
				Duration: 3000,
			}})
			return
		}
		if !r.registry.AllResourcesLoaded() {
			r.send(sessionID, &Event{Kind: EventNotification, Notification: &Notification{
				Type:     notifyWarning,
				Title:    "Loading Resources",
				Message:  "Wait for all players to load resources",
				Duration: 3000,
			}})
			return
		}
	}

	r.startCountdown()
}

func (r *Room) handlePlayerUpdate(sessionID string, upd *MovementUpdate) {
	p := r.registry.Get(sessionID)
	if p == nil || upd == nil || r.phase != PhaseRacing {
		return
	}
	if upd.Position != nil {
		p.Pos = *upd.Position
	}
	if upd.Lane != nil {
		p.Lane = *upd.Lane
	}
	if upd.IsJumping != nil {
		p.IsJumping = *upd.IsJumping
	}
	if upd.Score != nil {
		p.Score = *upd.Score
	}

	// Movement is advisory; rebroadcast compactly instead of snapshotting.
	r.broadcastExcept(sessionID, &Event{Kind: EventPlayerUpdate, Movement: &MovementEvent{
		SessionID: sessionID,
		Position:  p.Pos,
		Lane:      p.Lane,
		IsJumping: p.IsJumping,
		Score:     p.Score,
	}})
}

func (r *Room) handlePlayerFinished(sessionID string, score *int) {
	p := r.registry.Get(sessionID)
	if p == nil || p.Finished {
		return
	}

	p.Finished = true
	p.FinishTime = r.clock.Now().Sub(r.startTime).Milliseconds()
	if score != nil {
		p.Score = *score
	}
	r.log.Info().Str("player", p.Name).Int("score", p.Score).Msg("player finished")

	r.broadcast(&Event{Kind: EventPlayerFinished, Finish: &FinishInfo{
		SessionID:  sessionID,
		PlayerName: p.Name,
		Score:      p.Score,
		Time:       p.FinishTime,
	}})

	r.checkRaceComplete()
	r.broadcastState()
}

// Phase transitions.

func (r *Room) checkAutoStart() {
	if r.phase != PhaseWaiting {
		return
	}
	if r.registry.ActualPlayerCount() < 2 {
		return
	}
	if r.registry.AllPlayersReady() {
		r.startCountdown()
	}
}

func (r *Room) startCountdown() {
	if r.phase != PhaseWaiting {
		return
	}
	r.log.Info().Int("players", r.registry.Len()).Msg("starting race countdown")

	r.phase = PhaseCountdown
	r.countdown = countdownFrom
	r.broadcast(&Event{Kind: EventRaceCountdown, Countdown: r.countdown})
	r.broadcastState()
	r.armCountdownTick()
}

func (r *Room) armCountdownTick() {
	t := r.clock.NewTimer(countdownInterval)
	go func() {
		select {
		case <-t.Chan():
			_ = r.enqueue(Command{Kind: cmdCountdownTick})
		case <-r.done:
			stopAndDrainTimer(t)
		}
	}()
}

func (r *Room) handleCountdownTick() {
	if r.phase != PhaseCountdown {
		return
	}
	r.countdown--
	if r.countdown > 0 {
		r.broadcast(&Event{Kind: EventRaceCountdown, Countdown: r.countdown})
		r.broadcastState()
		r.armCountdownTick()
		return
	}
	r.beginRace()
}

func (r *Room) beginRace() {
	r.phase = PhaseRacing
	r.startTime = r.clock.Now()
	r.countdown = 0
	for _, p := range r.registry.Players() {
		p.resetRace()
	}
	r.log.Info().Msg("race started")

	r.broadcast(&Event{Kind: EventRaceStart, StartTime: r.startTime.UnixMilli()})
	r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
		Type:     notifySuccess,
		Title:    "GO!",
		Message:  "Race has started! Good luck!",
		Duration: 2000,
	}})
	r.broadcastState()
}

func (r *Room) checkRaceComplete() {
	if r.phase != PhaseRacing && r.phase != PhasePaused {
		return
	}
	if !r.registry.AllRacersFinished() {
		return
	}
	r.endRace()
}

func (r *Room) endRace() {
	r.phase = PhaseFinished
	r.log.Info().Msg("race ended")

	r.broadcast(&Event{Kind: EventRaceEnded, Rankings: r.computeRankings()})
	r.broadcastState()
	r.armReset()
}

// computeRankings sorts by score descending; ties keep join order. Insertion
// sort over the join-ordered slice keeps the tiebreak stable.
func (r *Room) computeRankings() []RankEntry {
	players := r.registry.Players()
	entries := make([]RankEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, RankEntry{
			SessionID:  p.ID,
			PlayerName: p.Name,
			Score:      p.Score,
			Time:       p.FinishTime,
		})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Score > entries[j-1].Score; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (r *Room) armReset() {
	t := r.clock.NewTimer(r.cfg.ResetDelay)
	go func() {
		select {
		case <-t.Chan():
			_ = r.enqueue(Command{Kind: cmdResetRoom})
		case <-r.done:
			stopAndDrainTimer(t)
		}
	}()
}

func (r *Room) handleReset() {
	if r.phase != PhaseFinished {
		return
	}
	if r.cfg.ClassroomMode {
		// Terminal in classroom mode: a notice replaces the reset.
		r.broadcast(&Event{Kind: EventNotification, Notification: &Notification{
			Type:     notifyInfo,
			Title:    "Race Ended",
			Message:  "Classroom mode: Please return to lobby",
			Duration: 5000,
		}})
		return
	}

	r.phase = PhaseWaiting
	r.startTime = time.Time{}
	r.countdown = countdownFrom
	for _, p := range r.registry.Players() {
		p.resetLobby()
	}
	r.log.Info().Msg("room reset")

	r.broadcast(&Event{Kind: EventRaceReset})
	r.broadcastState()
}

// Broadcast plumbing.

func (r *Room) send(sessionID string, ev *Event) {
	if c, ok := r.clients[sessionID]; ok {
		c.push(ev)
	}
}

func (r *Room) broadcast(ev *Event) {
	for _, c := range r.clients {
		c.push(ev)
	}
}

func (r *Room) broadcastExcept(sessionID string, ev *Event) {
	for id, c := range r.clients {
		if id == sessionID {
			continue
		}
		c.push(ev)
	}
}

// broadcastState bumps the version and fans out a fresh immutable snapshot.
func (r *Room) broadcastState() {
	r.version++
	snap := r.snapshot()
	r.broadcast(&Event{Kind: EventState, State: snap})

	r.statsMu.Lock()
	r.stats.Phase = snap.Phase
	r.stats.Players = len(snap.Players)
	r.statsMu.Unlock()
}

func (r *Room) snapshot() *Snapshot {
	players := r.registry.Players()
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, playerView(p))
	}
	var startMs int64
	if !r.startTime.IsZero() {
		startMs = r.startTime.UnixMilli()
	}
	return &Snapshot{
		Version:         r.version,
		Phase:           r.phase,
		Countdown:       r.countdown,
		StartTime:       startMs,
		HostID:          r.hostID,
		IsClassroomMode: r.cfg.ClassroomMode,
		CanReplay:       !r.cfg.ClassroomMode,
		MaxPlayers:      r.cfg.MaxPlayers,
		Players:         views,
	}
}

// stopAndDrainTimer stops a timer and drains the channel if it already fired.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
