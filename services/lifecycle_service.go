package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/store"
)

// ResultInput — сырой ввод результата от судьи/организатора.
type ResultInput struct {
	Status         models.MatchResultStatus `json:"match_result_status"`
	Games          []models.Game            `json:"games"`
	WinnerCoupleID *int                     `json:"winner_couple_id"`
}

// BoardNotifier получает сигнал после каждого изменения pending-набора
// матчей этапа: ввод результата и перегенерация меняют состав корзин,
// табло и когорту таймера нужно пересчитать.
type BoardNotifier interface {
	MatchSetChanged(ctx context.Context, stageID int)
}

// LifecycleService ведёт workflow ввода результата:
// pending -> {completed, time_expired, forfeited}. Терминальные статусы
// повторно входимы — результат можно открыть и переподать заново.
type LifecycleService interface {
	SubmitResult(ctx context.Context, matchID int, input ResultInput) (*models.Match, error)
}

type lifecycleService struct {
	store    *store.EntityStore
	client   remote.MatchAPI
	notifier BoardNotifier
	logger   *slog.Logger
}

func NewLifecycleService(
	entityStore *store.EntityStore,
	client remote.MatchAPI,
	notifier BoardNotifier,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		store:    entityStore,
		client:   client,
		notifier: notifier,
		logger:   logger,
	}
}

// GameWinnerID выводит победителя гейма из счёта: строго больше очков —
// победа, равенство — nil (незавершённый/невалидный гейм).
// Никогда не вводится напрямую.
func GameWinnerID(g models.Game, couple1ID, couple2ID int) *int {
	switch {
	case g.Couple1Score > g.Couple2Score:
		return &couple1ID
	case g.Couple2Score > g.Couple1Score:
		return &couple2ID
	default:
		return nil
	}
}

// DeriveGameWinners returns a copy of games with winner_id recomputed for
// every game. Single source of the derivation, callers never duplicate it.
func DeriveGameWinners(games []models.Game, couple1ID, couple2ID int) []models.Game {
	out := make([]models.Game, len(games))
	for i, g := range games {
		g.WinnerID = GameWinnerID(g, couple1ID, couple2ID)
		out[i] = g
	}
	return out
}

// CountGameWins counts games won by coupleID.
func CountGameWins(games []models.Game, coupleID int) int {
	n := 0
	for _, g := range games {
		if g.WinnerID != nil && *g.WinnerID == coupleID {
			n++
		}
	}
	return n
}

// MatchWinnerID выбирает победителя матча по строгому большинству выигранных
// геймов. Равенство — нет победителя (nil).
func MatchWinnerID(games []models.Game, couple1ID, couple2ID int) *int {
	wins1 := CountGameWins(games, couple1ID)
	wins2 := CountGameWins(games, couple2ID)
	switch {
	case wins1 > wins2:
		return &couple1ID
	case wins2 > wins1:
		return &couple2ID
	default:
		return nil
	}
}

func (s *lifecycleService) SubmitResult(ctx context.Context, matchID int, input ResultInput) (*models.Match, error) {
	match, ok := s.store.MatchByID(matchID)
	if !ok {
		return nil, ErrMatchNotFound
	}

	games := DeriveGameWinners(input.Games, match.Couple1ID, match.Couple2ID)

	var winnerID *int
	switch input.Status {
	case models.MatchResultCompleted:
		winnerID = MatchWinnerID(games, match.Couple1ID, match.Couple2ID)
		if winnerID == nil {
			// Ничья по геймам не даёт completed-результата: нужен явный выбор
			// победителя через time_expired/forfeited.
			return nil, fmt.Errorf("%w: match %d", ErrTiedMatchResult, matchID)
		}

	case models.MatchResultTimeExpired, models.MatchResultForfeited:
		if input.WinnerCoupleID == nil {
			return nil, fmt.Errorf("%w: status %s", ErrWinnerRequired, input.Status)
		}
		if !match.HasCouple(*input.WinnerCoupleID) {
			return nil, fmt.Errorf("%w: couple %d, match %d", ErrWinnerNotInMatch, *input.WinnerCoupleID, matchID)
		}
		winnerID = input.WinnerCoupleID

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidResultStatus, input.Status)
	}

	// Сначала удалённая запись: оптимистичная локальная мутация запрещена,
	// иначе покажем результат, который молча не сохранился.
	update := remote.MatchUpdate{
		Games:             games,
		WinnerCoupleID:    winnerID,
		MatchResultStatus: input.Status,
	}
	if err := s.client.UpdateMatch(ctx, matchID, update); err != nil {
		return nil, err
	}

	match.Games = games
	match.WinnerCoupleID = winnerID
	match.MatchResultStatus = input.Status
	s.store.PutMatch(match)

	s.logger.Info("match result recorded",
		slog.Int("match_id", matchID),
		slog.Int("stage_id", match.StageID),
		slog.String("status", string(input.Status)),
		slog.Int("winner_couple_id", *winnerID),
	)

	if s.notifier != nil {
		s.notifier.MatchSetChanged(ctx, match.StageID)
	}
	return &match, nil
}
