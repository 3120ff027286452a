package table

import (
	"time"

	"go.uber.org/zap"
)

type FaultKind string

const (
	// FaultDesync closes the room.
	FaultDesync FaultKind = "desync"
	// FaultForcedBid is informational; the round goes on.
	FaultForcedBid FaultKind = "forced_bid"
)

// Fault is an operator-facing report. Rejected actions are never faults.
type Fault struct {
	GameID  string
	Kind    FaultKind
	Key     TurnKey
	Message string
	At      time.Time
}

type FaultReporter interface {
	ReportFault(f Fault)
}

// LogFaultReporter writes faults to the log.
type LogFaultReporter struct {
	Log *zap.Logger
}

func (r LogFaultReporter) ReportFault(f Fault) {
	fields := []zap.Field{
		zap.String("game", f.GameID),
		zap.String("kind", string(f.Kind)),
		zap.String("message", f.Message),
		zap.Time("at", f.At),
	}
	if f.Kind == FaultDesync {
		fields = append(fields, zap.Int("seat", int(f.Key.Seat)), zap.Uint32("turn", f.Key.Turn))
		r.Log.Error("room fault", fields...)
		return
	}
	r.Log.Warn("room fault", fields...)
}
