package table

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trickster/apps/server/internal/archive"
	"trickster/apps/server/internal/auth"
	"trickster/game"
)

const persistTimeout = 3 * time.Second

// persistOp is one queued archive write. A room save carries the room;
// anything else carries a job.
type persistOp struct {
	room *archive.Room
	job  func()
}

// persistLoop runs queued writes in order until the queue is closed and
// empty, then closes persistDone.
func (t *Table) persistLoop() {
	defer close(t.persistDone)
	for {
		op, ok := t.nextPersistOp()
		if !ok {
			return
		}
		t.runPersistOp(op)
	}
}

func (t *Table) nextPersistOp() (persistOp, bool) {
	t.pmu.Lock()
	defer t.pmu.Unlock()
	for len(t.pending) == 0 {
		if t.persistClosed {
			return persistOp{}, false
		}
		t.pcond.Wait()
	}
	op := t.pending[0]
	t.pending[0] = persistOp{}
	t.pending = t.pending[1:]
	return op, true
}

func (t *Table) runPersistOp(op persistOp) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("persist job panic", zap.Any("panic", r))
		}
	}()
	if op.room != nil {
		room := *op.room
		t.withArchive("save room", func(ctx context.Context) error { return t.archive.SaveRoom(ctx, room) })
		return
	}
	op.job()
}

// persistLocked queues job behind every earlier write. Jobs are never
// dropped.
func (t *Table) persistLocked(job func()) {
	if t.archive == nil {
		return
	}
	t.pmu.Lock()
	defer t.pmu.Unlock()
	if t.persistClosed {
		return
	}
	t.pending = append(t.pending, persistOp{job: job})
	t.pcond.Signal()
}

// queueRoom replaces any room save still waiting, so at most one is
// pending and it is the latest.
func (t *Table) queueRoom(room archive.Room) {
	t.pmu.Lock()
	defer t.pmu.Unlock()
	if t.persistClosed {
		return
	}
	kept := t.pending[:0]
	for _, op := range t.pending {
		if op.room == nil {
			kept = append(kept, op)
		}
	}
	t.pending = append(kept, persistOp{room: &room})
	t.pcond.Signal()
}

func (t *Table) pendingPersist() int {
	t.pmu.Lock()
	defer t.pmu.Unlock()
	return len(t.pending)
}

// closePersistLocked stops accepting writes; queued ones still run.
func (t *Table) closePersistLocked() {
	t.pmu.Lock()
	defer t.pmu.Unlock()
	if t.persistClosed {
		return
	}
	t.persistClosed = true
	t.pcond.Broadcast()
}

func (t *Table) withArchive(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		t.log.Warn("archive "+op+" failed", zap.Error(err))
	}
}

// saveRoomLocked snapshots the room for restore after a restart.
func (t *Table) saveRoomLocked() {
	if t.archive == nil || t.game == nil {
		return
	}
	room := archive.Room{
		GameID:    t.ID,
		UpdatedAt: t.clock.Now().UTC(),
		HostSeat:  t.hostSeat,
		Snapshot:  t.game.Snapshot(),
	}
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		rs := archive.RoomSeat{Occupied: true, Name: s.Name, Bot: s.Bot}
		if s.Bot {
			rs.Difficulty = s.Difficulty.String()
		} else if d, ok := t.tokens.Digest(auth.SeatRef{GameID: t.ID, Seat: game.Seat(i)}); ok {
			rs.TokenDigest = d
		}
		room.Seats[i] = rs
	}
	t.queueRoom(room)
}

func (t *Table) deleteRoom() {
	t.withArchive("delete room", func(ctx context.Context) error { return t.archive.DeleteRoom(ctx, t.ID) })
}
