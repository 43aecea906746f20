package entity

// Session is the stored form of one engine: its snapshots and the active index.
type Session struct {
	ID          string  `json:"id"`
	History     []Board `json:"history"`
	CurrentMove int     `json:"current_move"`
}

// GameView is what clients receive after every operation on a session.
type GameView struct {
	SessionID     string   `json:"session_id,omitempty"`
	Board         Board    `json:"board"`
	CurrentMove   int      `json:"current_move"`
	HistoryLength int      `json:"history_length"`
	NextPlayer    Mark     `json:"next_player,omitempty"`
	Winner        Mark     `json:"winner,omitempty"`
	Draw          bool     `json:"draw"`
	Status        string   `json:"status"`
	Moves         []string `json:"moves"`
}

func (that *GameView) IsFinished() bool {
	return that.Winner != EmptyCell || that.Draw
}
