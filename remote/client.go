package remote

import (
	"context"

	"github.com/Dosada05/tournament-staging/models"
)

// MatchUpdate is the write payload for a result-entry transition.
type MatchUpdate struct {
	Games             []models.Game            `json:"games"`
	WinnerCoupleID    *int                     `json:"winner_couple_id"`
	MatchResultStatus models.MatchResultStatus `json:"match_result_status"`
}

// Интерфейсы нарезаны по потребителям: каждый сервис зависит только от
// нужного ему куска API, тесты подменяют маленькие фейки.

type StageAPI interface {
	FetchStage(ctx context.Context, stageID int) (*models.Stage, error)
	FetchStageGroups(ctx context.Context, stageID int) ([]models.Group, error)
	FetchStageBrackets(ctx context.Context, stageID int) ([]models.Bracket, error)
	FetchStageCouples(ctx context.Context, stageID int) ([]models.Couple, error)
	FetchStageCourts(ctx context.Context, stageID int) ([]models.Court, error)
	FetchTournamentCourts(ctx context.Context, tournamentID int) ([]models.Court, error)
}

type AssignmentAPI interface {
	FetchGroupCouples(ctx context.Context, groupID int) ([]models.Couple, error)
	AddCoupleToGroup(ctx context.Context, groupID, coupleID int) error
	RemoveCoupleFromGroup(ctx context.Context, groupID, coupleID int) error
}

type GenerationAPI interface {
	GenerateGroupMatches(ctx context.Context, groupID int) ([]models.Match, error)
	GenerateBracketMatches(ctx context.Context, bracketID int, seeds []int) ([]models.Match, error)
}

type MatchAPI interface {
	FetchStageMatches(ctx context.Context, stageID int) ([]models.Match, error)
	UpdateMatch(ctx context.Context, matchID int, update MatchUpdate) error
}

type StandingsAPI interface {
	FetchGroupStandings(ctx context.Context, groupID int) ([]models.StandingsRow, error)
}

// Client is the full surface of the tournament API this core consumes.
type Client interface {
	StageAPI
	AssignmentAPI
	GenerationAPI
	MatchAPI
	StandingsAPI
}
