package replay

import (
	"fmt"

	"trickster/game"
)

type ReplayError struct {
	StepIndex int32          `json:"step_index"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Expected  *ExpectedState `json:"expected,omitempty"`
}

// ExpectedState describes the engine's position when a step failed.
type ExpectedState struct {
	Round  int       `json:"round"`
	Phase  string    `json:"phase,omitempty"`
	OnTurn game.Seat `json:"on_turn"`
	Turn   uint32    `json:"turn"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}

func expectedFrom(s *game.RoundState) *ExpectedState {
	return &ExpectedState{
		Round:  s.Number,
		Phase:  s.Phase.String(),
		OnTurn: s.OnTurn(),
		Turn:   s.Turn,
	}
}
