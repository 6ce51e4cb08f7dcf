package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToPlayer(gameID, uid string, msgType string, payload interface{})
	BroadcastToGame(gameID string, msgType string, payload interface{})
}

// Message types pushed by the game services
const (
	MsgQuestion     = "question"
	MsgQuizFinished = "quiz_finished"
	MsgGameResolved = "game_resolved"
)
