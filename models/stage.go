package models

import "encoding/json"

// StageType представляет тип этапа турнира, соответствующий ENUM в удалённом API.
type StageType string

const (
	StageTypeGroup       StageType = "group"
	StageTypeElimination StageType = "elimination"
)

// Stage представляет один этап турнира (групповой или на вылет).
// StageType неизменяем после создания: смена типа делает форму Config невалидной.
type Stage struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	Name         string    `json:"name"`
	StageType    StageType `json:"stage_type"`
	Order        int       `json:"order"`
	ConfigJSON   *string   `json:"-"` // Raw JSON string as delivered by the API

	// Parsed config, populated by ParseConfig, not serialized back
	Config *StageConfig `json:"config,omitempty"`
}

// StageConfig fixes scoring, match rules, advancement and scheduling policy
// for every group/bracket of the stage.
type StageConfig struct {
	Scoring     ScoringConfig     `json:"scoring"`
	MatchRules  MatchRulesConfig  `json:"match_rules"`
	Advancement AdvancementConfig `json:"advancement_rules"`
	Scheduling  SchedulingConfig  `json:"scheduling"`
}

type ScoringConfig struct {
	WinPoints      int `json:"win_points"`
	DrawPoints     int `json:"draw_points"`
	LossPoints     int `json:"loss_points"`
	GameWinPoints  int `json:"game_win_points"`
	GameLossPoints int `json:"game_loss_points"`
}

type MatchRulesConfig struct {
	GamesPerMatch       int    `json:"games_per_match"`
	WinCriteria         string `json:"win_criteria"` // e.g. "best_of", "all_games"
	TimeLimited         bool   `json:"time_limited"`
	TimeLimitMinutes    int    `json:"time_limit_minutes"`
	BreakBetweenMatches int    `json:"break_between_matches"`
}

type AdvancementConfig struct {
	TopN        int      `json:"top_n"`
	ToBracket   bool     `json:"to_bracket"`
	Tiebreakers []string `json:"tiebreaker"` // ordered, first applies first
}

type SchedulingConfig struct {
	AutoSchedule       bool   `json:"auto_schedule"`
	OverlapAllowed     bool   `json:"overlap_allowed"`
	SchedulingPriority string `json:"scheduling_priority"`
}

// ParseConfig разбирает ConfigJSON в типизированную структуру.
// Пустой или отсутствующий JSON не считается ошибкой.
func (s *Stage) ParseConfig() (*StageConfig, error) {
	if s.Config != nil {
		return s.Config, nil
	}
	if s.ConfigJSON == nil || *s.ConfigJSON == "" {
		return nil, nil
	}
	var cfg StageConfig
	if err := json.Unmarshal([]byte(*s.ConfigJSON), &cfg); err != nil {
		return nil, err
	}
	s.Config = &cfg
	return &cfg, nil
}
