package table

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trickster/apps/server/internal/auth"
	"trickster/apps/server/internal/codec"
	"trickster/game"
	"trickster/game/npc"
)

func (t *Table) handleJoin(e Event) error {
	if t.game != nil {
		return ErrAlreadyStarted
	}
	if e.ConnID == "" {
		return fmt.Errorf("join without connection")
	}
	for _, s := range t.seats {
		if s != nil && s.ConnID == e.ConnID {
			return ErrAlreadySeated
		}
	}
	seat, err := t.pickSeatLocked(e.Seat)
	if err != nil {
		return err
	}

	t.seats[seat] = &SeatInfo{
		Name:      normalizeName(e.Name, seat),
		ConnID:    e.ConnID,
		Connected: true,
	}
	if !t.hostSeat.Valid() {
		t.hostSeat = seat
	}
	delete(t.spectators, e.ConnID)
	token := t.tokens.Issue(auth.SeatRef{GameID: t.ID, Seat: seat})
	t.log.Info("player joined", zap.Int("seat", int(seat)), zap.String("conn", e.ConnID))

	t.sendLocked(e.ConnID, codec.ServerMessage{Joined: &codec.Joined{Seat: seat, Token: token}})
	t.broadcastSnapshotsLocked()
	return nil
}

// handleResume reattaches a connection to a seat it holds a token for.
func (t *Table) handleResume(e Event) error {
	if !e.Seat.Valid() {
		return game.ErrInvalidSeat
	}
	s := t.seats[e.Seat]
	if s == nil || s.Bot {
		return ErrNotSeated
	}
	if s.ConnID != "" && s.ConnID != e.ConnID {
		t.sendLocked(s.ConnID, codec.ServerMessage{Error: &codec.Error{
			Code:    codec.CodeUnauthorized,
			Reason:  "seat_resumed_elsewhere",
			Message: "seat taken over by another connection",
		}})
	}
	s.ConnID = e.ConnID
	s.Connected = true
	if e.Name != "" {
		s.Name = normalizeName(e.Name, e.Seat)
	}
	delete(t.spectators, e.ConnID)
	t.log.Info("player resumed", zap.Int("seat", int(e.Seat)), zap.String("conn", e.ConnID))

	t.sendLocked(e.ConnID, codec.ServerMessage{Joined: &codec.Joined{Seat: e.Seat}})
	t.broadcastSnapshotsLocked()
	return nil
}

func (t *Table) handleAddBot(e Event) error {
	if t.game != nil {
		return ErrAlreadyStarted
	}
	if err := t.checkHostLocked(e.From); err != nil {
		return err
	}
	d := e.Difficulty
	if !d.Valid() {
		d = npc.Medium
	}
	seat, err := t.pickSeatLocked(e.Seat)
	if err != nil {
		return err
	}
	t.seatBot(seat, d)
	t.log.Info("bot seated", zap.Int("seat", int(seat)), zap.Stringer("difficulty", d))
	t.broadcastSnapshotsLocked()
	return nil
}

func (t *Table) seatBot(seat game.Seat, d npc.Difficulty) {
	seed := t.seed
	if seed == 0 {
		seed = t.clock.Now().UnixNano()
	}
	brain := npc.NewBrain(d, seed+int64(seat)+1)
	t.brains[seat] = brain
	t.seats[seat] = &SeatInfo{Name: brain.Name(), Bot: true, Difficulty: d}
}

func (t *Table) handleStart(e Event) error {
	if t.game != nil {
		return ErrAlreadyStarted
	}
	if err := t.checkHostLocked(e.From); err != nil {
		return err
	}
	for _, s := range t.seats {
		if s == nil {
			return ErrSeatsOpen
		}
	}
	g, err := game.NewGame(game.Config{Seed: t.seed})
	if err != nil {
		return err
	}
	t.game = g
	st := g.State()
	t.log.Info("game started", zap.Int64("seed", g.Seed()), zap.Int("dealer", int(st.Dealer)))

	t.armTurnLocked()
	t.broadcastSnapshotsLocked()
	t.saveRoomLocked()
	return nil
}

func (t *Table) handleSpectate(e Event) error {
	if e.ConnID == "" {
		return fmt.Errorf("spectate without connection")
	}
	t.spectators[e.ConnID] = struct{}{}
	t.sendLocked(e.ConnID, codec.ServerMessage{Joined: &codec.Joined{Seat: game.NoSeat, Spectator: true}})
	t.sendSnapshotLocked(e.ConnID, game.NoSeat, t.nextSeq())
	return nil
}

// handleConnLost marks the seat offline. Its turn timer keeps running,
// so the game goes on with fallback actions.
func (t *Table) handleConnLost(e Event) error {
	delete(t.spectators, e.ConnID)
	changed := false
	for i, s := range t.seats {
		if s == nil || s.ConnID != e.ConnID {
			continue
		}
		s.ConnID = ""
		s.Connected = false
		changed = true
		t.log.Info("player disconnected", zap.Int("seat", i))
	}
	if changed {
		t.broadcastSnapshotsLocked()
	}
	return nil
}

func (t *Table) handleDebugScores(e Event) error {
	if t.game == nil {
		return ErrNotStarted
	}
	t.game.DebugSetScores(e.Scores[0], e.Scores[1])
	t.log.Warn("debug: scores overwritten", zap.Int("team1", e.Scores[0]), zap.Int("team2", e.Scores[1]))
	t.broadcastSnapshotsLocked()
	t.saveRoomLocked()
	return nil
}

func (t *Table) pickSeatLocked(want game.Seat) (game.Seat, error) {
	if want.Valid() {
		if t.seats[want] != nil {
			return game.NoSeat, ErrSeatTaken
		}
		return want, nil
	}
	if want != game.NoSeat {
		return game.NoSeat, game.ErrInvalidSeat
	}
	for i, s := range t.seats {
		if s == nil {
			return game.Seat(i), nil
		}
	}
	return game.NoSeat, ErrTableFull
}

// checkHostLocked lets anyone act while no human holds a seat.
func (t *Table) checkHostLocked(from game.Seat) error {
	if t.hostSeat.Valid() && from != t.hostSeat {
		return ErrNotHost
	}
	return nil
}

func normalizeName(raw string, seat game.Seat) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fmt.Sprintf("Player %d", int(seat)+1)
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}
