package game

import "errors"

// Protocol errors.
var (
	ErrStaleTurn   = errors.New("stale turn")
	ErrOutOfTurn   = errors.New("action out of turn")
	ErrWrongPhase  = errors.New("action not allowed in this phase")
	ErrRoundOver   = errors.New("round already over")
	ErrGameOver    = errors.New("game already over")
	ErrInvalidSeat = errors.New("invalid seat")
)

// Rule violations.
var (
	ErrIllegalBid     = errors.New("illegal bid")
	ErrDealerUndercut = errors.New("dealer may not bid below the highest bid")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrMustFollowSuit = errors.New("must follow the led suit")
)

// Rejection is returned for every refused action. The state passed to
// Apply is never modified when a Rejection is returned.
type Rejection struct {
	Action Action
	Reason error
}

func (r *Rejection) Error() string {
	return "rejected " + r.Action.String() + ": " + r.Reason.Error()
}

func (r *Rejection) Unwrap() error { return r.Reason }

// IsRuleViolation distinguishes illegal bids/cards from protocol errors.
func (r *Rejection) IsRuleViolation() bool {
	return errors.Is(r.Reason, ErrIllegalBid) ||
		errors.Is(r.Reason, ErrCardNotInHand) ||
		errors.Is(r.Reason, ErrMustFollowSuit)
}

func reject(a Action, reason error) *Rejection {
	return &Rejection{Action: a, Reason: reason}
}

// dealerUndercut wraps ErrIllegalBid so callers can match either.
type dealerUndercut struct{}

func (dealerUndercut) Error() string        { return ErrDealerUndercut.Error() }
func (dealerUndercut) Is(target error) bool { return target == ErrDealerUndercut || target == ErrIllegalBid }

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
