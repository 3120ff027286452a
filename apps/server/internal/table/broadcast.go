package table

import (
	"trickster/apps/server/internal/codec"
	"trickster/card"
	"trickster/game"
)

func (t *Table) stamp(msg *codec.ServerMessage, seq uint64) {
	msg.GameID = t.ID
	msg.Seq = seq
	msg.TsMs = t.clock.Now().UnixMilli()
}

func (t *Table) sendLocked(connID string, msg codec.ServerMessage) {
	if connID == "" {
		return
	}
	t.stamp(&msg, t.nextSeq())
	t.send(connID, codec.EncodeServer(msg))
}

// broadcastLocked sends one envelope to every connected seat and spectator.
func (t *Table) broadcastLocked(msg codec.ServerMessage) {
	t.stamp(&msg, t.nextSeq())
	data := codec.EncodeServer(msg)
	for _, s := range t.seats {
		if s != nil && s.Connected && s.ConnID != "" {
			t.send(s.ConnID, data)
		}
	}
	for connID := range t.spectators {
		t.send(connID, data)
	}
}

func (t *Table) broadcastErrorLocked(reason, message string) {
	t.broadcastLocked(codec.ServerMessage{Error: &codec.Error{
		Code:    codec.CodeInternal,
		Reason:  reason,
		Message: message,
	}})
}

// broadcastSnapshotsLocked sends each recipient the round redacted for
// it. All copies share one sequence number.
func (t *Table) broadcastSnapshotsLocked() {
	seq := t.nextSeq()
	for i, s := range t.seats {
		if s != nil && s.Connected && s.ConnID != "" {
			t.sendSnapshotLocked(s.ConnID, game.Seat(i), seq)
		}
	}
	if len(t.spectators) == 0 {
		return
	}
	msg := codec.ServerMessage{Snapshot: t.snapshotForLocked(game.NoSeat)}
	t.stamp(&msg, seq)
	data := codec.EncodeServer(msg)
	for connID := range t.spectators {
		t.send(connID, data)
	}
}

func (t *Table) sendSnapshotLocked(connID string, viewer game.Seat, seq uint64) {
	msg := codec.ServerMessage{Snapshot: t.snapshotForLocked(viewer)}
	t.stamp(&msg, seq)
	t.send(connID, codec.EncodeServer(msg))
}

func (t *Table) snapshotForLocked(viewer game.Seat) *codec.Snapshot {
	snap := &codec.Snapshot{
		Started:     t.game != nil,
		HostSeat:    t.hostSeat,
		RemainingMs: uint32(t.remainingLocked().Milliseconds()),
	}
	if t.game != nil {
		snap.View = t.game.View(viewer)
	} else {
		snap.View = waitingView(viewer)
	}
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		info := codec.PlayerInfo{
			Occupied:  true,
			Name:      s.Name,
			Bot:       s.Bot,
			Connected: s.Bot || s.Connected,
		}
		if s.Bot {
			info.Difficulty = s.Difficulty.String()
		}
		snap.Players[i] = info
	}
	return snap
}

// waitingView is the view of a room whose game has not started.
func waitingView(viewer game.Seat) game.View {
	v := game.View{
		Viewer: viewer,
		Dealer: game.NoSeat,
		OnTurn: game.NoSeat,
		Bidder: game.NoSeat,
		Trump:  card.SuitNone,
		Trick:  game.Trick{Leader: game.NoSeat},
		Winner: game.NoTeam,
	}
	for i := range v.Seats {
		seat := game.Seat(i)
		v.Seats[i] = game.SeatState{Seat: seat, Team: seat.Team()}
	}
	return v
}
