package replay

import (
	"fmt"
	"reflect"

	"trickster/game"
)

// GenerateTape re-runs the action log of sum from its seed and returns
// the event sequence. Every recorded trick and round result must match
// what the engine produces.
func GenerateTape(sum game.GameSummary) (*Tape, error) {
	b := &tapeBuilder{}
	if err := run(sum, b); err != nil {
		return nil, err
	}
	return &Tape{TapeVersion: TapeVersion, Seed: sum.Seed, Events: b.events}, nil
}

// Verify checks that sum is exactly what its seed and action log produce.
func Verify(sum game.GameSummary) error {
	return run(sum, &tapeBuilder{})
}

func run(sum game.GameSummary, b *tapeBuilder) error {
	if sum.Debug {
		return &ReplayError{StepIndex: -1, Reason: "debug_game", Message: "scores were force-set; game cannot be replayed"}
	}
	if sum.Seed == 0 {
		return &ReplayError{StepIndex: -1, Reason: "missing_seed", Message: "summary has no seed"}
	}
	dealer := sum.FirstDealer
	g, err := game.NewGame(game.Config{Seed: sum.Seed, FirstDealer: &dealer, DeckOverride: sum.FirstDeck})
	if err != nil {
		return &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}
	b.add(Event{Type: EventRoundStart, Round: 1, Dealer: &dealer})

	roundIdx := 0
	for stepIdx, rec := range sum.Actions {
		st := g.State()
		if rec.Round != st.Number {
			if st.Phase != game.PhaseRoundOver || rec.Round != st.Number+1 {
				return &ReplayError{
					StepIndex: int32(stepIdx),
					Reason:    "round_sequence",
					Message:   fmt.Sprintf("action for round %d while round %d is %s", rec.Round, st.Number, st.Phase),
					Expected:  expectedFrom(st),
				}
			}
			if err := g.StartNextRound(); err != nil {
				return &ReplayError{StepIndex: int32(stepIdx), Reason: "next_round_failed", Message: err.Error(), Expected: expectedFrom(st)}
			}
			st = g.State()
			d := st.Dealer
			b.add(Event{Type: EventRoundStart, Round: st.Number, Dealer: &d})
		}

		out, err := g.Apply(rec.Action, rec.Source)
		if err != nil {
			return &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "action_rejected",
				Message:   err.Error(),
				Expected:  expectedFrom(st),
			}
		}
		a := rec.Action
		b.add(Event{Type: EventAction, Round: st.Number, Action: &a, Source: rec.Source})
		if out.Trick != nil {
			b.add(Event{Type: EventTrick, Round: st.Number, Trick: out.Trick})
		}
		if out.RoundEnd == nil {
			continue
		}

		if roundIdx >= len(sum.Rounds) {
			return &ReplayError{StepIndex: int32(stepIdx), Reason: "extra_round", Message: fmt.Sprintf("round %d is not in the summary", st.Number)}
		}
		got := g.Summary().Rounds[roundIdx]
		if want := sum.Rounds[roundIdx]; !reflect.DeepEqual(got.Result, want.Result) || !reflect.DeepEqual(got.Tricks, want.Tricks) {
			return &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "round_mismatch",
				Message:   fmt.Sprintf("round %d replays to %v, summary has %v", st.Number, got.Result.Scores, want.Result.Scores),
			}
		}
		roundIdx++
		b.add(Event{Type: EventRoundEnd, Round: st.Number, Result: out.RoundEnd})
		if out.RoundEnd.GameOver {
			w := out.RoundEnd.Winner
			b.add(Event{Type: EventGameOver, Round: st.Number, Winner: &w})
		}
	}

	final := g.Summary()
	switch {
	case len(final.Rounds) != len(sum.Rounds):
		return &ReplayError{StepIndex: -1, Reason: "round_count", Message: fmt.Sprintf("replayed %d rounds, summary has %d", len(final.Rounds), len(sum.Rounds))}
	case final.Scores != sum.Scores:
		return &ReplayError{StepIndex: -1, Reason: "score_mismatch", Message: fmt.Sprintf("replayed scores %v, summary has %v", final.Scores, sum.Scores)}
	case final.Finished != sum.Finished || (sum.Finished && final.Winner != sum.Winner):
		return &ReplayError{StepIndex: -1, Reason: "result_mismatch", Message: fmt.Sprintf("replayed winner %s, summary has %s", final.Winner, sum.Winner)}
	case final.Seats != sum.Seats:
		return &ReplayError{StepIndex: -1, Reason: "seat_totals_mismatch", Message: "per-seat totals differ"}
	}
	return nil
}
