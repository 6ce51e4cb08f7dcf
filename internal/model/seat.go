package model

// Seat identifies which half of a lobby a user occupies
type Seat int

const (
	SeatNone Seat = iota
	SeatFounder
	SeatMember
)

func (s Seat) String() string {
	switch s {
	case SeatFounder:
		return "founder"
	case SeatMember:
		return "member"
	}
	return "none"
}

// Other returns the opposite seat. SeatNone has no opposite.
func (s Seat) Other() Seat {
	switch s {
	case SeatFounder:
		return SeatMember
	case SeatMember:
		return SeatFounder
	}
	return SeatNone
}

// ResolveSeat maps uid to the seat it occupies. The founder seat is checked
// first; an empty uid never matches.
func ResolveSeat(lobby *Lobby, uid string) Seat {
	if lobby == nil || uid == "" {
		return SeatNone
	}
	if lobby.Founder != nil && lobby.Founder.UID == uid {
		return SeatFounder
	}
	if lobby.Member != nil && lobby.Member.UID == uid {
		return SeatMember
	}
	return SeatNone
}
