package models

// StandingsRow — строка турнирной таблицы группы. Считается на стороне
// удалённого сервиса, здесь потребляется только на чтение.
type StandingsRow struct {
	GroupID       int    `json:"group_id"`
	Position      int    `json:"position"`
	CoupleID      int    `json:"couple_id"`
	CoupleName    string `json:"couple_name"`
	MatchesPlayed int    `json:"matches_played"`
	MatchesWon    int    `json:"matches_won"`
	MatchesDrawn  int    `json:"matches_drawn"`
	MatchesLost   int    `json:"matches_lost"`
	GamesWon      int    `json:"games_won"`
	GamesLost     int    `json:"games_lost"`
	TotalPoints   int    `json:"total_points"`
}
