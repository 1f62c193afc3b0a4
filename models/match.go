package models

import "time"

// MatchResultStatus представляет статусы ввода результата, соответствующие ENUM в удалённом API.
type MatchResultStatus string

const (
	MatchResultPending     MatchResultStatus = "pending"
	MatchResultCompleted   MatchResultStatus = "completed"
	MatchResultTimeExpired MatchResultStatus = "time_expired"
	MatchResultForfeited   MatchResultStatus = "forfeited"
)

// IsTerminal reports whether the status ends the result-entry workflow.
// Terminal states stay re-enterable: a finished match can be re-opened and
// re-submitted to correct referee mistakes.
func (s MatchResultStatus) IsTerminal() bool {
	switch s {
	case MatchResultCompleted, MatchResultTimeExpired, MatchResultForfeited:
		return true
	}
	return false
}

// Match создаётся пачкой при генерации и мутируется только через
// lifecycle-сервис (статус/результат) или планировщик (корт/время).
// GroupID и BracketID взаимоисключающие.
type Match struct {
	ID                int               `json:"id"`
	StageID           int               `json:"stage_id"`
	GroupID           *int              `json:"group_id,omitempty"`
	BracketID         *int              `json:"bracket_id,omitempty"`
	Couple1ID         int               `json:"couple1_id"`
	Couple2ID         int               `json:"couple2_id"`
	CourtID           *int              `json:"court_id,omitempty"`
	ScheduledStart    *time.Time        `json:"scheduled_start,omitempty"`
	ScheduledEnd      *time.Time        `json:"scheduled_end,omitempty"`
	DisplayOrder      *int              `json:"display_order,omitempty"`
	IsTimeLimited     bool              `json:"is_time_limited"`
	TimeLimitMinutes  *int              `json:"time_limit_minutes,omitempty"`
	MatchResultStatus MatchResultStatus `json:"match_result_status"`
	WinnerCoupleID    *int              `json:"winner_couple_id,omitempty"`
	Games             []Game            `json:"games"`
}

// Game принадлежит исключительно своему матчу. WinnerID всегда производное
// (большее количество очков; ничья — nil), никогда не вводится напрямую.
type Game struct {
	GameNumber      int  `json:"game_number"`
	Couple1Score    int  `json:"couple1_score"`
	Couple2Score    int  `json:"couple2_score"`
	WinnerID        *int `json:"winner_id,omitempty"`
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

// HasCouple reports whether coupleID plays in this match.
func (m *Match) HasCouple(coupleID int) bool {
	return m.Couple1ID == coupleID || m.Couple2ID == coupleID
}

// CloneGames returns a defensive copy of the games slice.
func (m *Match) CloneGames() []Game {
	if m.Games == nil {
		return nil
	}
	games := make([]Game, len(m.Games))
	copy(games, m.Games)
	return games
}
