package game

import "trickster/card"

// RoundResult is the settled outcome of one round.
type RoundResult struct {
	Number     int       `json:"number"`
	Dealer     Seat      `json:"dealer"`
	Bidder     Seat      `json:"bidder"`
	Contract   int       `json:"contract"`
	Trump      card.Suit `json:"trump"`
	ForcedBid  bool      `json:"forced_bid,omitempty"`
	Made       bool      `json:"made"`
	TeamPoints [2]int    `json:"team_points"`
	Delta      [2]int    `json:"delta"`
	Scores     [2]int    `json:"scores"`
	GameOver   bool      `json:"game_over,omitempty"`
	Winner     Team      `json:"winner"`
}

// settle applies round scoring to s, which must have played all tricks.
// Offense adds its points when it reaches the contract and loses the
// contract otherwise; defense always adds its points.
func (s *RoundState) settle() RoundResult {
	offense := s.Bidder.Team()
	defense := offense.Other()

	var points [2]int
	points[offense] = s.TeamPoints(offense)
	points[defense] = s.TeamPoints(defense)

	made := points[offense] >= s.Contract
	var delta [2]int
	if made {
		delta[offense] = points[offense]
	} else {
		delta[offense] = -s.Contract
	}
	delta[defense] = points[defense]

	s.Delta = delta
	s.Scores[Team1] += delta[Team1]
	s.Scores[Team2] += delta[Team2]
	s.Phase = PhaseRoundOver
	s.Trick = Trick{Leader: NoSeat}

	if s.Scores[Team1] >= WinThreshold || s.Scores[Team2] >= WinThreshold {
		s.GameOver = true
		s.Winner = leader(s.Scores, offense)
	}

	return RoundResult{
		Number:     s.Number,
		Dealer:     s.Dealer,
		Bidder:     s.Bidder,
		Contract:   s.Contract,
		Trump:      s.Trump,
		ForcedBid:  s.ForcedBid,
		Made:       made,
		TeamPoints: points,
		Delta:      delta,
		Scores:     s.Scores,
		GameOver:   s.GameOver,
		Winner:     s.Winner,
	}
}

// leader picks the higher score; a tie goes to tiebreak.
func leader(scores [2]int, tiebreak Team) Team {
	switch {
	case scores[Team1] > scores[Team2]:
		return Team1
	case scores[Team2] > scores[Team1]:
		return Team2
	}
	return tiebreak
}
