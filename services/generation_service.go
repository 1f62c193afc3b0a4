package services

import (
	"fmt"
	"log/slog"
	"sync"

	"context"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/store"
)

// GenerationService — фасад над удалённой генерацией матчей. Удалённая
// сторона не идемпотентна, поэтому повторная генерация для группы/сетки,
// у которой уже есть матчи, требует явного подтверждения (force).
type GenerationService interface {
	GenerateForGroup(ctx context.Context, groupID int, force bool) ([]models.Match, error)
	GenerateForBracket(ctx context.Context, bracketID int, seeds []int, force bool) ([]models.Match, error)
	// NoteExistingMatches ставит локальный has-matches флаг при загрузке
	// снапшота, чтобы не перечитывать его с сервера перед каждым вызовом.
	NoteExistingMatches(scope GenerationScope, id int)
	HasMatches(scope GenerationScope, id int) bool
	// SetBoardNotifier подключает получателя пересчёта табло; выставляется
	// один раз при сборке приложения (staging-сервис конструируется позже).
	SetBoardNotifier(n BoardNotifier)
}

type GenerationScope string

const (
	ScopeGroup   GenerationScope = "group"
	ScopeBracket GenerationScope = "bracket"
)

type generationScopeKey struct {
	scope GenerationScope
	id    int
}

type generationService struct {
	store  *store.EntityStore
	client remote.GenerationAPI
	locker *StageLocker
	logger *slog.Logger

	mu        sync.Mutex
	generated map[generationScopeKey]bool
	notifier  BoardNotifier
}

func NewGenerationService(
	entityStore *store.EntityStore,
	client remote.GenerationAPI,
	locker *StageLocker,
	logger *slog.Logger,
) GenerationService {
	return &generationService{
		store:     entityStore,
		client:    client,
		locker:    locker,
		logger:    logger,
		generated: make(map[generationScopeKey]bool),
	}
}

func (s *generationService) SetBoardNotifier(n BoardNotifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

func (s *generationService) boardNotifier() BoardNotifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifier
}

func (s *generationService) NoteExistingMatches(scope GenerationScope, id int) {
	s.mu.Lock()
	s.generated[generationScopeKey{scope, id}] = true
	s.mu.Unlock()
}

func (s *generationService) HasMatches(scope GenerationScope, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated[generationScopeKey{scope, id}]
}

func (s *generationService) GenerateForGroup(ctx context.Context, groupID int, force bool) ([]models.Match, error) {
	group, ok := s.store.GroupByID(groupID)
	if !ok {
		return nil, ErrGroupNotFound
	}

	unlock := s.locker.Lock(group.StageID)
	defer unlock()

	if s.HasMatches(ScopeGroup, groupID) && !force {
		return nil, fmt.Errorf("%w: group %d", ErrMatchesAlreadyGenerated, groupID)
	}

	// Ошибка удалённого вызова отдаётся как есть, без повторов —
	// повторная попытка остаётся за вызывающим.
	matches, err := s.client.GenerateGroupMatches(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.store.ReplaceGroupMatches(groupID, matches)
	s.NoteExistingMatches(ScopeGroup, groupID)

	s.logger.Info("group matches generated",
		slog.Int("stage_id", group.StageID),
		slog.Int("group_id", groupID),
		slog.Int("count", len(matches)),
		slog.Bool("regenerated", force),
	)

	// Новые pending-матчи должны сразу попасть в корзины и когорту таймера.
	if n := s.boardNotifier(); n != nil {
		n.MatchSetChanged(ctx, group.StageID)
	}
	return matches, nil
}

func (s *generationService) GenerateForBracket(ctx context.Context, bracketID int, seeds []int, force bool) ([]models.Match, error) {
	bracket, ok := s.store.BracketByID(bracketID)
	if !ok {
		return nil, ErrBracketNotFound
	}

	unlock := s.locker.Lock(bracket.StageID)
	defer unlock()

	if s.HasMatches(ScopeBracket, bracketID) && !force {
		return nil, fmt.Errorf("%w: bracket %d", ErrMatchesAlreadyGenerated, bracketID)
	}

	matches, err := s.client.GenerateBracketMatches(ctx, bracketID, seeds)
	if err != nil {
		return nil, err
	}

	s.store.ReplaceBracketMatches(bracketID, matches)
	s.NoteExistingMatches(ScopeBracket, bracketID)

	s.logger.Info("bracket matches generated",
		slog.Int("stage_id", bracket.StageID),
		slog.Int("bracket_id", bracketID),
		slog.Int("count", len(matches)),
		slog.Bool("regenerated", force),
	)

	if n := s.boardNotifier(); n != nil {
		n.MatchSetChanged(ctx, bracket.StageID)
	}
	return matches, nil
}
