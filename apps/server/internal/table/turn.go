package table

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trickster/apps/server/internal/archive"
	"trickster/apps/server/internal/codec"
	"trickster/game"
	"trickster/game/npc"
)

func (t *Table) handleAction(e Event) error {
	if t.game == nil {
		return ErrNotStarted
	}
	a := e.Action
	a.Seat = e.Seat
	out, err := t.game.Apply(a, game.SourceManual)
	if err != nil {
		t.log.Debug("action rejected", zap.Stringer("action", a), zap.Error(err))
		return err
	}
	t.commitLocked(out, game.SourceManual)
	return nil
}

// handleTimeout applies the fallback for an expired turn. A key for an
// older turn is stale and dropped. A key for the current turn that names
// a seat not on turn means the scheduler and the round disagree; the
// room cannot continue.
func (t *Table) handleTimeout(key TurnKey) error {
	if t.game == nil || key.GameID != t.ID {
		return nil
	}
	state := t.game.State()
	if key.Turn != state.Turn {
		t.log.Debug("stale timer discarded", zap.Int("seat", int(key.Seat)), zap.Uint32("turn", key.Turn), zap.Uint32("current", state.Turn))
		return nil
	}
	if on := state.OnTurn(); on != key.Seat {
		t.desyncLocked(key, fmt.Sprintf("timer fired for %s but %s is on turn (phase %s)", key.Seat, on, state.Phase))
		return ErrDesync
	}

	a := npc.Fallback(state, key.Seat)
	out, err := t.game.Apply(a, game.SourceTimeout)
	if err != nil {
		t.desyncLocked(key, fmt.Sprintf("fallback %s rejected: %v", a, err))
		return ErrDesync
	}
	t.log.Info("turn timed out", zap.Int("seat", int(key.Seat)), zap.Uint32("turn", key.Turn), zap.Stringer("action", a))
	t.commitLocked(out, game.SourceTimeout)
	return nil
}

func (t *Table) handleBotTurn(key TurnKey) error {
	if t.game == nil || key.GameID != t.ID {
		return nil
	}
	state := t.game.State()
	brain := t.brains[key.Seat]
	if key.Turn != state.Turn || state.OnTurn() != key.Seat || brain == nil {
		return nil
	}
	a := brain.Decide(state, key.Seat)
	out, err := t.game.Apply(a, game.SourceBot)
	if err != nil {
		t.log.Error("bot action rejected, using fallback", zap.Stringer("action", a), zap.Error(err))
		a = npc.Fallback(state, key.Seat)
		if out, err = t.game.Apply(a, game.SourceBot); err != nil {
			t.desyncLocked(key, fmt.Sprintf("bot fallback %s rejected: %v", a, err))
			return ErrDesync
		}
	}
	t.commitLocked(out, game.SourceBot)
	return nil
}

func (t *Table) handleNextRound(round int) error {
	if t.game == nil {
		return nil
	}
	state := t.game.State()
	if state.Phase != game.PhaseRoundOver || state.Number != round {
		return nil
	}
	if err := t.game.StartNextRound(); err != nil {
		if errors.Is(err, game.ErrGameOver) {
			return nil
		}
		return err
	}
	next := t.game.State()
	t.log.Info("round dealt", zap.Int("round", next.Number), zap.Int("dealer", int(next.Dealer)))
	t.armTurnLocked()
	t.broadcastSnapshotsLocked()
	t.saveRoomLocked()
	return nil
}

// commitLocked publishes an accepted transition and schedules the next
// turn. Broadcast and persistence never block the actor.
func (t *Table) commitLocked(out game.Outcome, src game.Source) {
	t.clearTurnTimerLocked()

	if out.Redealt {
		t.log.Info("all seats skipped, redealing")
	}
	if out.ForcedBid {
		st := t.game.State()
		t.faults.ReportFault(Fault{
			GameID:  t.ID,
			Kind:    FaultForcedBid,
			Message: fmt.Sprintf("bidding exhausted after %d redeals; %s takes contract %d", game.MaxRedeals, st.Bidder, st.Contract),
			At:      t.clock.Now(),
		})
	}
	if out.Trick != nil {
		t.broadcastLocked(codec.ServerMessage{Trick: out.Trick})
	}
	if res := out.RoundEnd; res != nil {
		t.log.Info("round settled",
			zap.Int("round", res.Number),
			zap.Bool("made", res.Made),
			zap.Int("team1", res.Scores[0]),
			zap.Int("team2", res.Scores[1]),
			zap.Stringer("source", src),
		)
		t.broadcastLocked(codec.ServerMessage{Round: res})
		if res.GameOver {
			t.finishLocked(res)
		} else {
			t.scheduleNextRoundLocked(res.Number)
		}
	}

	t.armTurnLocked()
	t.broadcastSnapshotsLocked()
	if out.RoundEnd == nil || !out.RoundEnd.GameOver {
		t.saveRoomLocked()
	}
}

func (t *Table) finishLocked(res *game.RoundResult) {
	t.clearTimersLocked()
	t.finishedAt = t.clock.Now()
	t.broadcastLocked(codec.ServerMessage{GameOver: &codec.GameOver{Winner: res.Winner, Scores: res.Scores}})

	sum := t.game.Summary()
	rec := archive.Record{GameID: t.ID, FinishedAt: t.finishedAt.UTC(), Summary: sum}
	t.persistLocked(func() {
		t.withArchive("save summary", func(ctx context.Context) error { return t.archive.SaveSummary(ctx, rec) })
		t.deleteRoom()
	})
	t.dispatchGameOverHooks(sum)
	t.log.Info("game over", zap.Stringer("winner", res.Winner), zap.Int("team1", res.Scores[0]), zap.Int("team2", res.Scores[1]))
}

// armTurnLocked starts the turn timer for the on-turn seat, or asks the
// bot in that seat to act right away.
func (t *Table) armTurnLocked() {
	state := t.game.State()
	seat := state.OnTurn()
	if !seat.Valid() {
		return
	}
	key := TurnKey{GameID: t.ID, Seat: seat, Turn: state.Turn}
	t.turnKey = key
	if s := t.seats[seat]; s != nil && s.Bot {
		go t.enqueue(Event{Type: EventBotTurn, Key: key})
		return
	}
	t.deadline = t.clock.Now().Add(game.TurnTimeout)
	t.turnTimer = t.clock.AfterFunc(game.TurnTimeout, func() {
		t.enqueue(Event{Type: EventTimeout, Key: key})
	})
}

func (t *Table) scheduleNextRoundLocked(round int) {
	if t.nextRoundTimer != nil {
		t.nextRoundTimer.Stop()
	}
	t.nextRoundTimer = t.clock.AfterFunc(roundEndDelay, func() {
		t.enqueue(Event{Type: EventNextRound, Round: round})
	})
}

func (t *Table) clearTurnTimerLocked() {
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
	t.turnKey = TurnKey{}
	t.deadline = time.Time{}
}

func (t *Table) clearTimersLocked() {
	t.clearTurnTimerLocked()
	if t.nextRoundTimer != nil {
		t.nextRoundTimer.Stop()
		t.nextRoundTimer = nil
	}
}

func (t *Table) desyncLocked(key TurnKey, msg string) {
	t.faults.ReportFault(Fault{
		GameID:  t.ID,
		Kind:    FaultDesync,
		Key:     key,
		Message: msg,
		At:      t.clock.Now(),
	})
	t.closeLocked("desync")
}

// remainingLocked is the time left on the current turn timer.
func (t *Table) remainingLocked() time.Duration {
	if t.deadline.IsZero() {
		return 0
	}
	rem := t.deadline.Sub(t.clock.Now())
	if rem < 0 {
		return 0
	}
	return rem
}
