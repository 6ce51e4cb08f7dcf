package model

import "time"

// Game is the shared record both players synchronize on
type Game struct {
	ID               string     `json:"gameId" bson:"_id"`
	GameInProgress   bool       `json:"gameInProgress" bson:"gameInProgress"`
	Category         string     `json:"category" bson:"category"`
	Questions        []Question `json:"questions" bson:"questions"`
	QuestionDuration int        `json:"questionDuration" bson:"questionDuration"` // seconds per question
	Lobby            Lobby      `json:"lobby" bson:"lobby"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
}

// Lobby holds the two seats. Every per-seat field is written only by the
// player sitting in that seat.
type Lobby struct {
	Founder *User `json:"founder" bson:"founder"`
	Member  *User `json:"member" bson:"member"`

	IsFounderReady bool `json:"isFounderReady" bson:"isFounderReady"`
	IsMemberReady  bool `json:"isMemberReady" bson:"isMemberReady"`

	FounderPoints int `json:"founderPoints" bson:"founderPoints"`
	MemberPoints  int `json:"memberPoints" bson:"memberPoints"`

	FounderAnswersList []int `json:"founderAnswersList" bson:"founderAnswersList"`
	MemberAnswersList  []int `json:"memberAnswersList" bson:"memberAnswersList"`

	FounderCorrectAnswersQuantity int `json:"founderCorrectAnswersQuantity" bson:"founderCorrectAnswersQuantity"`
	MemberCorrectAnswersQuantity  int `json:"memberCorrectAnswersQuantity" bson:"memberCorrectAnswersQuantity"`

	HasFounderFinishedGame bool `json:"hasFounderFinishedGame" bson:"hasFounderFinishedGame"`
	HasMemberFinishedGame  bool `json:"hasMemberFinishedGame" bson:"hasMemberFinishedGame"`

	HasFounderLeftGame bool `json:"hasFounderLeftGame" bson:"hasFounderLeftGame"`
	HasMemberLeftGame  bool `json:"hasMemberLeftGame" bson:"hasMemberLeftGame"`
}

// ArchivedGame is the permanent copy kept after a game is resolved
type ArchivedGame struct {
	Game       `bson:",inline"`
	ArchivedAt time.Time `json:"archivedAt" bson:"archivedAt"`
}

// LobbyState is the rendezvous state as seen from either client
type LobbyState string

const (
	LobbyEmpty     LobbyState = "empty"
	LobbyNotReady  LobbyState = "not_ready"
	LobbyOneReady  LobbyState = "one_ready"
	LobbyBothReady LobbyState = "both_ready"
	LobbyStarted   LobbyState = "started"
)

// IsFull reports whether the member seat is taken
func (l *Lobby) IsFull() bool {
	return l.Member != nil
}

// User returns the snapshot occupying seat, or nil
func (l *Lobby) User(seat Seat) *User {
	switch seat {
	case SeatFounder:
		return l.Founder
	case SeatMember:
		return l.Member
	}
	return nil
}

// Ready reports the seat's readiness flag
func (l *Lobby) Ready(seat Seat) bool {
	switch seat {
	case SeatFounder:
		return l.IsFounderReady
	case SeatMember:
		return l.IsMemberReady
	}
	return false
}

// Points returns the seat's recorded points
func (l *Lobby) Points(seat Seat) int {
	switch seat {
	case SeatFounder:
		return l.FounderPoints
	case SeatMember:
		return l.MemberPoints
	}
	return 0
}

// CorrectAnswers returns the seat's correct answer tally
func (l *Lobby) CorrectAnswers(seat Seat) int {
	switch seat {
	case SeatFounder:
		return l.FounderCorrectAnswersQuantity
	case SeatMember:
		return l.MemberCorrectAnswersQuantity
	}
	return 0
}

// Finished reports whether the seat completed the quiz
func (l *Lobby) Finished(seat Seat) bool {
	switch seat {
	case SeatFounder:
		return l.HasFounderFinishedGame
	case SeatMember:
		return l.HasMemberFinishedGame
	}
	return false
}

// Left reports whether the seat exited before finishing
func (l *Lobby) Left(seat Seat) bool {
	switch seat {
	case SeatFounder:
		return l.HasFounderLeftGame
	case SeatMember:
		return l.HasMemberLeftGame
	}
	return false
}

// State derives the lobby state of a game
func (g *Game) State() LobbyState {
	switch {
	case g.GameInProgress:
		return LobbyStarted
	case !g.Lobby.IsFull():
		return LobbyEmpty
	case g.Lobby.IsFounderReady && g.Lobby.IsMemberReady:
		return LobbyBothReady
	case g.Lobby.IsFounderReady || g.Lobby.IsMemberReady:
		return LobbyOneReady
	}
	return LobbyNotReady
}
