package database

// GameResult is one finished game as stored in the results table.
type GameResult struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Player1      string `json:"player1"`
	Player2      string `json:"player2"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	Winner       string `json:"winner"`
}
