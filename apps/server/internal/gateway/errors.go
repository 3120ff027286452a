package gateway

import (
	"errors"

	"trickster/apps/server/internal/auth"
	"trickster/apps/server/internal/codec"
	"trickster/apps/server/internal/table"
	"trickster/game"
)

var (
	errNoGame        = errors.New("game not found")
	errTokenMismatch = errors.New("seat token belongs to another game")
)

type errorReason struct {
	err    error
	code   int32
	reason string
}

// Order matters: the dealer undercut also matches ErrIllegalBid.
var errorReasons = []errorReason{
	{codec.ErrMalformed, codec.CodeBadRequest, "malformed"},
	{auth.ErrUnknownToken, codec.CodeUnauthorized, "unknown_token"},
	{errTokenMismatch, codec.CodeUnauthorized, "token_mismatch"},
	{errNoGame, codec.CodeNotFound, "game_not_found"},

	{game.ErrStaleTurn, codec.CodeRejected, "stale_turn"},
	{game.ErrOutOfTurn, codec.CodeRejected, "out_of_turn"},
	{game.ErrWrongPhase, codec.CodeRejected, "wrong_phase"},
	{game.ErrRoundOver, codec.CodeRejected, "round_over"},
	{game.ErrGameOver, codec.CodeRejected, "game_over"},
	{game.ErrInvalidSeat, codec.CodeRejected, "invalid_seat"},
	{game.ErrDealerUndercut, codec.CodeRejected, "dealer_undercut"},
	{game.ErrIllegalBid, codec.CodeRejected, "illegal_bid"},
	{game.ErrCardNotInHand, codec.CodeRejected, "card_not_in_hand"},
	{game.ErrMustFollowSuit, codec.CodeRejected, "must_follow_suit"},

	{table.ErrTableClosed, codec.CodeNotFound, "table_closed"},
	{table.ErrTableFull, codec.CodeRejected, "table_full"},
	{table.ErrSeatTaken, codec.CodeRejected, "seat_taken"},
	{table.ErrAlreadySeated, codec.CodeRejected, "already_seated"},
	{table.ErrNotSeated, codec.CodeRejected, "not_seated"},
	{table.ErrNotHost, codec.CodeRejected, "not_host"},
	{table.ErrNotStarted, codec.CodeRejected, "not_started"},
	{table.ErrAlreadyStarted, codec.CodeRejected, "already_started"},
	{table.ErrSeatsOpen, codec.CodeRejected, "seats_open"},
	{table.ErrDesync, codec.CodeInternal, "desync"},
}

// errorFrame turns a dispatch error into the Error payload sent back to
// the client.
func errorFrame(err error) *codec.Error {
	var frame *codec.Error
	if errors.As(err, &frame) {
		return frame
	}
	for _, r := range errorReasons {
		if errors.Is(err, r.err) {
			return &codec.Error{Code: r.code, Reason: r.reason, Message: err.Error()}
		}
	}
	return &codec.Error{Code: codec.CodeInternal, Reason: "internal", Message: "internal error"}
}
