package replay

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"trickster/game"
	"trickster/game/npc"
)

// playedSummary plays a complete bot game and returns its summary.
func playedSummary(t *testing.T, seed int64) game.GameSummary {
	t.Helper()
	g, err := game.NewGame(game.Config{Seed: seed})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	brain := npc.NewBrain(npc.Hard, seed)
	for steps := 0; !g.Over(); steps++ {
		if steps > 5000 {
			t.Fatalf("game did not finish")
		}
		s := g.State()
		if s.Phase == game.PhaseRoundOver {
			if err := g.StartNextRound(); err != nil {
				t.Fatal(err)
			}
			continue
		}
		src := game.SourceBot
		a := brain.Decide(s, s.OnTurn())
		if steps%5 == 0 {
			src = game.SourceTimeout
			a = npc.Fallback(s, s.OnTurn())
		}
		if _, err := g.Apply(a, src); err != nil {
			t.Fatalf("apply %s: %v", a, err)
		}
	}
	return g.Summary()
}

func TestVerify_AcceptsRecordedGame(t *testing.T) {
	sum := playedSummary(t, 2024)
	if !sum.Finished {
		t.Fatalf("expected finished game")
	}

	raw, err := json.Marshal(sum)
	if err != nil {
		t.Fatal(err)
	}
	var decoded game.GameSummary
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if err := Verify(decoded); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestGenerateTape_IsDeterministic(t *testing.T) {
	sum := playedSummary(t, 77)

	tapeA, err := GenerateTape(sum)
	if err != nil {
		t.Fatalf("GenerateTape A failed: %v", err)
	}
	tapeB, err := GenerateTape(sum)
	if err != nil {
		t.Fatalf("GenerateTape B failed: %v", err)
	}
	if !reflect.DeepEqual(tapeA, tapeB) {
		t.Fatalf("expected deterministic tape for the same summary")
	}

	counts := map[string]int{}
	for _, e := range tapeA.Events {
		counts[e.Type]++
	}
	if counts[EventAction] != len(sum.Actions) {
		t.Fatalf("expected %d action events, got %d", len(sum.Actions), counts[EventAction])
	}
	if counts[EventRoundEnd] != len(sum.Rounds) || counts[EventRoundStart] != len(sum.Rounds) {
		t.Fatalf("unexpected round events: %v", counts)
	}
	if counts[EventTrick] != len(sum.Rounds)*game.TricksPerRound {
		t.Fatalf("unexpected trick events: %d", counts[EventTrick])
	}
	if counts[EventGameOver] != 1 {
		t.Fatalf("expected one gameOver event, got %d", counts[EventGameOver])
	}
	last := tapeA.Events[len(tapeA.Events)-1]
	if last.Type != EventGameOver || *last.Winner != sum.Winner {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestVerify_ReportsTamperedAction(t *testing.T) {
	sum := playedSummary(t, 9)
	sum.Actions[0].Action.Seat = sum.Actions[0].Action.Seat.Next()

	err := Verify(sum)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) {
		t.Fatalf("expected ReplayError, got %v", err)
	}
	if replayErr.Reason != "action_rejected" || replayErr.StepIndex != 0 {
		t.Fatalf("unexpected error: %v", replayErr)
	}
	if replayErr.Expected == nil || replayErr.Expected.OnTurn == sum.Actions[0].Action.Seat {
		t.Fatalf("expected state should name the real on-turn seat")
	}
}

func TestVerify_ReportsTamperedScores(t *testing.T) {
	sum := playedSummary(t, 9)
	sum.Scores[game.Team2] += 3

	err := Verify(sum)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) || replayErr.Reason != "score_mismatch" {
		t.Fatalf("expected score_mismatch, got %v", err)
	}
}

func TestVerify_RefusesDebugGames(t *testing.T) {
	sum := playedSummary(t, 3)
	sum.Debug = true
	err := Verify(sum)
	var replayErr *ReplayError
	if !errors.As(err, &replayErr) || replayErr.Reason != "debug_game" {
		t.Fatalf("expected debug_game, got %v", err)
	}
}
