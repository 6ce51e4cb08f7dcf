package model

// User is an identity snapshot taken when a player creates or joins a game.
// It is not a live reference: later profile changes do not reach stored games.
type User struct {
	UID         string `json:"uid" bson:"uid"`
	DisplayName string `json:"displayName" bson:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
}

// UserStats is the per-user aggregate updated once per resolved game
type UserStats struct {
	UID         string  `json:"uid" bson:"_id"`
	DisplayName string  `json:"displayName" bson:"displayName"`
	GamesPlayed int     `json:"gamesPlayed" bson:"gamesPlayed"`
	Wins        int     `json:"wins" bson:"wins"`
	WinRatio    float64 `json:"winRatio" bson:"winRatio"`
	TotalPoints int     `json:"totalPoints" bson:"totalPoints"`
}
