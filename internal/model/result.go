package model

// Outcome is a match result from one viewer's perspective
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
)

// GameResult is the classified outcome of a game for one viewer.
// Winner/Loser fields are set for win and lose, First/Second for a tie.
type GameResult struct {
	Outcome Outcome `json:"outcome"`

	Winner       *User `json:"winner,omitempty"`
	Loser        *User `json:"loser,omitempty"`
	WinnerPoints int   `json:"winnerPoints"`
	LoserPoints  int   `json:"loserPoints"`

	First        *User `json:"first,omitempty"`
	Second       *User `json:"second,omitempty"`
	FirstPoints  int   `json:"firstPoints"`
	SecondPoints int   `json:"secondPoints"`

	CorrectAnswers int  `json:"correctAnswers"` // viewer's own tally
	TotalQuestions int  `json:"totalQuestions"`
	Forfeit        bool `json:"forfeit"` // decided by a player leaving
}

// QuizResult is what one player's quiz run produced
type QuizResult struct {
	GameID         string `json:"gameId"`
	Answers        []int  `json:"answers"`
	CorrectAnswers int    `json:"correctAnswers"`
	Points         int    `json:"points"`
	TotalQuestions int    `json:"totalQuestions"`
}
