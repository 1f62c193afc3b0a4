package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/tournament-staging/courts"
	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/store"
	"golang.org/x/sync/errgroup"
)

// MatchView — матч, обогащённый для табло: имя корта и timing-статус.
type MatchView struct {
	models.Match
	CourtName    string `json:"court_name,omitempty"`
	TimingStatus string `json:"timing_status"`
}

// BoardView — производное разбиение матчей этапа: что сейчас играется,
// что следующее, что в очереди и что завершено, плюс состояние таймера.
type BoardView struct {
	StageID   int               `json:"stage_id"`
	Live      []MatchView       `json:"live"`
	Next      []MatchView       `json:"next"`
	Upcoming  []MatchView       `json:"upcoming"`
	Completed []MatchView       `json:"completed"`
	Timer     models.TimerState `json:"timer"`
}

// StagingService координирует этап целиком: параллельная загрузка снапшота,
// пересчёт табло, синхронизация когорты таймера и рассылка по websocket.
type StagingService interface {
	BoardNotifier

	// LoadStage перечитывает этап с удалённого сервиса и замещает локальный
	// стейт. Устаревшая загрузка (селектор сменился) тихо отбрасывается.
	LoadStage(ctx context.Context, stageID int) (*BoardView, error)
	Board(ctx context.Context, stageID int) (*BoardView, error)
	RecomputeBoard(ctx context.Context, stageID int) (*BoardView, error)
	GroupStandings(ctx context.Context, groupID int) ([]models.StandingsRow, error)

	TimerState(stageID int) models.TimerState
	StartTimer(stageID int) (models.TimerState, error)
	PauseTimer(stageID int) (models.TimerState, error)
	ResetTimer(stageID int) models.TimerState

	HandleTimerExpired(stageID int, matchIDs []int)
}

type stagingService struct {
	store  *store.EntityStore
	client remote.Client
	gen    GenerationService
	timers *TimerService
	hub    *courts.Hub
	locker *StageLocker
	clock  Clock
	logger *slog.Logger

	genMu       sync.Mutex
	generations map[int]int64
}

func NewStagingService(
	entityStore *store.EntityStore,
	client remote.Client,
	gen GenerationService,
	timers *TimerService,
	hub *courts.Hub,
	locker *StageLocker,
	clock Clock,
	logger *slog.Logger,
) StagingService {
	return &stagingService{
		store:       entityStore,
		client:      client,
		gen:         gen,
		timers:      timers,
		hub:         hub,
		locker:      locker,
		clock:       clock,
		logger:      logger,
		generations: make(map[int]int64),
	}
}

// nextGeneration помечает новую загрузку этапа; прежние in-flight загрузки
// этим же счётчиком отсекаются перед коммитом в стор.
func (s *stagingService) nextGeneration(stageID int) int64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[stageID]++
	return s.generations[stageID]
}

func (s *stagingService) currentGeneration(stageID int) int64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[stageID]
}

func (s *stagingService) LoadStage(ctx context.Context, stageID int) (*BoardView, error) {
	generation := s.nextGeneration(stageID)

	stage, err := s.client.FetchStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, ErrStageNotFound
	}
	if _, err := stage.ParseConfig(); err != nil {
		return nil, fmt.Errorf("stage %d has malformed config: %w", stageID, err)
	}

	snap := store.StageSnapshot{Stage: *stage}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := s.client.FetchStageGroups(gCtx, stageID)
		if err != nil {
			return err
		}
		snap.Groups = groups
		return nil
	})
	g.Go(func() error {
		brackets, err := s.client.FetchStageBrackets(gCtx, stageID)
		if err != nil {
			return err
		}
		snap.Brackets = brackets
		return nil
	})
	g.Go(func() error {
		couples, err := s.client.FetchStageCouples(gCtx, stageID)
		if err != nil {
			return err
		}
		snap.Couples = couples
		return nil
	})
	g.Go(func() error {
		matches, err := s.client.FetchStageMatches(gCtx, stageID)
		if err != nil {
			return err
		}
		snap.Matches = matches
		return nil
	})
	g.Go(func() error {
		stageCourts, err := s.client.FetchStageCourts(gCtx, stageID)
		if err != nil {
			return err
		}
		snap.StageCourts = stageCourts
		return nil
	})
	g.Go(func() error {
		tournamentCourts, err := s.client.FetchTournamentCourts(gCtx, stage.TournamentID)
		if err != nil {
			return err
		}
		snap.TournamentCourts = tournamentCourts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Вторая волна: составы групп, когда сами группы уже известны.
	var membersMu sync.Mutex
	snap.GroupCouples = make(map[int][]models.Couple, len(snap.Groups))
	g2, g2Ctx := errgroup.WithContext(ctx)
	for _, group := range snap.Groups {
		group := group
		g2.Go(func() error {
			members, err := s.client.FetchGroupCouples(g2Ctx, group.ID)
			if err != nil {
				return err
			}
			membersMu.Lock()
			snap.GroupCouples[group.ID] = members
			membersMu.Unlock()
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(stageID)
	defer unlock()

	// Поздно пришедший ответ не должен затирать более новый выбор.
	if s.currentGeneration(stageID) != generation {
		s.logger.Debug("discarding stale stage load",
			slog.Int("stage_id", stageID),
			slog.Int64("generation", generation),
		)
		return nil, ErrStaleSelection
	}

	s.store.ReplaceStage(snap)

	// has-matches флаги генерации из загруженного набора
	for _, m := range snap.Matches {
		if m.GroupID != nil {
			s.gen.NoteExistingMatches(ScopeGroup, *m.GroupID)
		}
		if m.BracketID != nil {
			s.gen.NoteExistingMatches(ScopeBracket, *m.BracketID)
		}
	}

	s.logger.Info("stage snapshot loaded",
		slog.Int("stage_id", stageID),
		slog.Int("groups", len(snap.Groups)),
		slog.Int("brackets", len(snap.Brackets)),
		slog.Int("couples", len(snap.Couples)),
		slog.Int("matches", len(snap.Matches)),
	)

	return s.recompute(stageID), nil
}

func (s *stagingService) Board(ctx context.Context, stageID int) (*BoardView, error) {
	if _, ok := s.store.StageByID(stageID); !ok {
		return nil, ErrStageNotFound
	}
	return s.buildView(stageID, courts.BuildBoard(s.store.MatchesByStage(stageID), s.clock.Now())), nil
}

func (s *stagingService) RecomputeBoard(ctx context.Context, stageID int) (*BoardView, error) {
	if _, ok := s.store.StageByID(stageID); !ok {
		return nil, ErrStageNotFound
	}
	return s.recompute(stageID), nil
}

// recompute перестраивает корзины, синхронизирует когорту таймера и
// рассылает обновление в комнату этапа.
func (s *stagingService) recompute(stageID int) *BoardView {
	board := courts.BuildBoard(s.store.MatchesByStage(stageID), s.clock.Now())
	s.timers.Coordinator(stageID).SyncCohort(board.ActiveTimeLimited())

	view := s.buildView(stageID, board)
	s.hub.BroadcastToRoom(courts.StageRoom(stageID), courts.MessageBoardUpdated, view)
	return view
}

func (s *stagingService) buildView(stageID int, board courts.Board) *BoardView {
	stage, _ := s.store.StageByID(stageID)
	sources := []courts.NameSource{
		{Label: "stage", Courts: s.store.StageCourts(stageID)},
		{Label: "tournament", Courts: s.store.TournamentCourts(stage.TournamentID)},
	}
	now := s.clock.Now()

	toViews := func(matches []models.Match) []MatchView {
		out := make([]MatchView, 0, len(matches))
		for _, m := range matches {
			v := MatchView{Match: m, TimingStatus: courts.TimingStatusOf(m, now).String()}
			if m.CourtID != nil {
				v.CourtName = courts.ResolveCourtName(*m.CourtID, sources...)
			}
			out = append(out, v)
		}
		return out
	}

	return &BoardView{
		StageID:   stageID,
		Live:      toViews(board.Live),
		Next:      toViews(board.Next),
		Upcoming:  toViews(board.Upcoming),
		Completed: toViews(board.Completed),
		Timer:     s.timers.Coordinator(stageID).State(),
	}
}

func (s *stagingService) GroupStandings(ctx context.Context, groupID int) ([]models.StandingsRow, error) {
	if _, ok := s.store.GroupByID(groupID); !ok {
		return nil, ErrGroupNotFound
	}
	return s.client.FetchGroupStandings(ctx, groupID)
}

// MatchSetChanged реализует BoardNotifier: ввод результата или перегенерация
// меняет pending-набор, корзины и когорта пересчитываются.
func (s *stagingService) MatchSetChanged(ctx context.Context, stageID int) {
	s.recompute(stageID)
}

func (s *stagingService) TimerState(stageID int) models.TimerState {
	return s.timers.Coordinator(stageID).State()
}

func (s *stagingService) StartTimer(stageID int) (models.TimerState, error) {
	coord := s.timers.Coordinator(stageID)
	if err := coord.Start(); err != nil {
		return models.TimerState{}, err
	}
	state := coord.State()
	s.hub.BroadcastToRoom(courts.StageRoom(stageID), courts.MessageTimerUpdated, state)
	return state, nil
}

func (s *stagingService) PauseTimer(stageID int) (models.TimerState, error) {
	coord := s.timers.Coordinator(stageID)
	if err := coord.Pause(); err != nil {
		return models.TimerState{}, err
	}
	state := coord.State()
	s.hub.BroadcastToRoom(courts.StageRoom(stageID), courts.MessageTimerUpdated, state)
	return state, nil
}

func (s *stagingService) ResetTimer(stageID int) models.TimerState {
	coord := s.timers.Coordinator(stageID)
	coord.Reset()
	state := coord.State()
	s.hub.BroadcastToRoom(courts.StageRoom(stageID), courts.MessageTimerUpdated, state)
	return state
}

// HandleTimerExpired рассылает событие истечения; сами матчи переводит в
// time_expired судья через lifecycle-сервис, указав победителя явно.
func (s *stagingService) HandleTimerExpired(stageID int, matchIDs []int) {
	s.hub.BroadcastToRoom(courts.StageRoom(stageID), courts.MessageTimerExpired, map[string]interface{}{
		"stage_id":  stageID,
		"match_ids": matchIDs,
		"timer":     s.timers.Coordinator(stageID).State(),
	})
}
