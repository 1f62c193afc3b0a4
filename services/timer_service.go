package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/repositories"
)

// Clock отделяет координатор от настенных часов: тесты подменяют время.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ExpireFunc вызывается при достижении нуля с id матчей когорты.
// Координатор сам матчи не мутирует — переход в time_expired делает
// получатель колбэка.
type ExpireFunc func(stageID int, matchIDs []int)

const timerTickInterval = 1 * time.Second

// TimerCoordinator — один общий отсчёт на когорту активных time-limited
// матчей этапа. Не по таймеру на матч: корты играют синхронными слотами,
// табло показывает одни часы.
type TimerCoordinator struct {
	stageID  int
	repo     repositories.TimerStateRepository
	clock    Clock
	logger   *slog.Logger
	onExpire ExpireFunc

	mu    sync.Mutex
	state models.TimerState
}

func newTimerCoordinator(
	stageID int,
	repo repositories.TimerStateRepository,
	clock Clock,
	logger *slog.Logger,
	onExpire ExpireFunc,
) *TimerCoordinator {
	c := &TimerCoordinator{
		stageID:  stageID,
		repo:     repo,
		clock:    clock,
		logger:   logger,
		onExpire: onExpire,
	}
	c.restore()
	return c
}

// restore поднимает сохранённый снапшот и примиряет его с настенными
// часами: прошедшее с lastUpdated время вычитается из остатка, ноль или
// меньше — таймер сразу expired. Битый снапшот равносилен его отсутствию.
func (c *TimerCoordinator) restore() {
	now := c.clock.Now()
	fresh := models.TimerState{Status: models.TimerNotStarted, LastUpdated: now}

	payload, err := c.repo.Load(context.Background(), c.stageID)
	if err != nil {
		if !errors.Is(err, repositories.ErrTimerStateNotFound) {
			c.logger.Error("failed to load timer snapshot",
				slog.Int("stage_id", c.stageID),
				slog.Any("error", err),
			)
		}
		c.state = fresh
		return
	}

	var restored models.TimerState
	if err := json.Unmarshal(payload, &restored); err != nil {
		c.logger.Warn("corrupt timer snapshot, starting fresh",
			slog.Int("stage_id", c.stageID),
			slog.Any("error", err),
		)
		c.state = fresh
		return
	}

	if restored.Status == models.TimerRunning {
		elapsed := int(now.Sub(restored.LastUpdated).Seconds())
		if elapsed > 0 {
			restored.TimeRemaining -= elapsed
		}
		if restored.TimeRemaining <= 0 {
			restored.TimeRemaining = 0
			restored.Status = models.TimerExpired
			c.logger.Warn("timer expired while offline",
				slog.Int("stage_id", c.stageID),
				slog.Any("match_ids", restored.ActiveMatchIDs),
			)
		}
	}
	restored.LastUpdated = now
	c.state = restored
	c.persistLocked()
}

// SyncCohort пересчитывает когорту: если набор id отличается от прежнего,
// таймер сбрасывается в not-started с лимитом новой когорты; неизменная
// когорта не трогает идущий отсчёт.
func (c *TimerCoordinator) SyncCohort(cohort []models.Match) {
	ids := make([]int, 0, len(cohort))
	for _, m := range cohort {
		ids = append(ids, m.ID)
	}
	sort.Ints(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	if sameIDSet(ids, c.state.ActiveMatchIDs) {
		return
	}

	total := cohortTotalSeconds(cohort)
	if mixed := mixedLimits(cohort); mixed {
		// Решение продукта: при разных лимитах в когорте берём минимальный,
		// чтобы ни один матч молча не переиграл свой лимит.
		c.logger.Warn("cohort has mixed time limits, using the minimum",
			slog.Int("stage_id", c.stageID),
			slog.Any("match_ids", ids),
			slog.Int("total_seconds", total),
		)
	}

	c.state = models.TimerState{
		TimeRemaining:  total,
		Status:         models.TimerNotStarted,
		TotalTime:      total,
		ActiveMatchIDs: ids,
		LastUpdated:    c.clock.Now(),
	}
	c.persistLocked()

	c.logger.Info("timer cohort changed",
		slog.Int("stage_id", c.stageID),
		slog.Any("match_ids", ids),
		slog.Int("total_seconds", total),
	)
}

func (c *TimerCoordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Status {
	case models.TimerNotStarted:
		// Пустая когорта даёт нулевой лимит — отсчитывать нечего.
		if c.state.TotalTime <= 0 {
			return ErrTimerTransition
		}
		now := c.clock.Now()
		c.state.Status = models.TimerRunning
		c.state.StartedAt = &now
		c.state.PausedAt = nil
		if c.state.TimeRemaining <= 0 {
			c.state.TimeRemaining = c.state.TotalTime
		}
		c.state.LastUpdated = now
	case models.TimerPaused:
		now := c.clock.Now()
		c.state.Status = models.TimerRunning
		c.state.PausedAt = nil
		c.state.LastUpdated = now
	default:
		return ErrTimerTransition
	}
	c.persistLocked()
	return nil
}

func (c *TimerCoordinator) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.TimerRunning {
		return ErrTimerTransition
	}
	now := c.clock.Now()
	c.state.Status = models.TimerPaused
	c.state.PausedAt = &now
	c.state.LastUpdated = now
	c.persistLocked()
	return nil
}

// Reset допустим из любого состояния.
func (c *TimerCoordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Status = models.TimerNotStarted
	c.state.TimeRemaining = c.state.TotalTime
	c.state.StartedAt = nil
	c.state.PausedAt = nil
	c.state.LastUpdated = c.clock.Now()
	c.persistLocked()
}

// Tick продвигает идущий отсчёт на прошедшее с последнего обновления время.
// Секундный тик не должен зависеть от сетевых вызовов — персист локальный.
func (c *TimerCoordinator) Tick(now time.Time) {
	c.mu.Lock()

	if c.state.Status != models.TimerRunning {
		c.mu.Unlock()
		return
	}
	elapsed := int(now.Sub(c.state.LastUpdated).Seconds())
	if elapsed <= 0 {
		c.mu.Unlock()
		return
	}

	c.state.TimeRemaining -= elapsed
	c.state.LastUpdated = now

	expired := false
	var matchIDs []int
	if c.state.TimeRemaining <= 0 {
		c.state.TimeRemaining = 0
		c.state.Status = models.TimerExpired
		expired = true
		matchIDs = append([]int(nil), c.state.ActiveMatchIDs...)
	}
	c.persistLocked()
	c.mu.Unlock()

	if expired {
		c.logger.Info("timer expired",
			slog.Int("stage_id", c.stageID),
			slog.Any("match_ids", matchIDs),
		)
		if c.onExpire != nil {
			c.onExpire(c.stageID, matchIDs)
		}
	}
}

// State returns a copy safe for serialization.
func (c *TimerCoordinator) State() models.TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Detach очищает снапшот только для таймера, которому нечего переживать:
// идущий или приостановленный отсчёт обязан пережить остановку.
func (c *TimerCoordinator) Detach(ctx context.Context) {
	c.mu.Lock()
	status := c.state.Status
	c.mu.Unlock()

	if status == models.TimerNotStarted || status == models.TimerExpired {
		if err := c.repo.Clear(ctx, c.stageID); err != nil {
			c.logger.Error("failed to clear timer snapshot",
				slog.Int("stage_id", c.stageID),
				slog.Any("error", err),
			)
		}
	}
}

func (c *TimerCoordinator) run(ctx context.Context) {
	ticker := time.NewTicker(timerTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(c.clock.Now())
		}
	}
}

// persistLocked сохраняет снапшот; вызывается под c.mu. Ошибка персиста
// логируется и не останавливает отсчёт.
func (c *TimerCoordinator) persistLocked() {
	payload, err := json.Marshal(c.state)
	if err != nil {
		c.logger.Error("failed to marshal timer state", slog.Any("error", err))
		return
	}
	if err := c.repo.Save(context.Background(), c.stageID, payload); err != nil {
		c.logger.Error("failed to persist timer state",
			slog.Int("stage_id", c.stageID),
			slog.Any("error", err),
		)
	}
}

func sameIDSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cohortTotalSeconds берёт минимальный лимит по когорте в секундах.
func cohortTotalSeconds(cohort []models.Match) int {
	total := 0
	for _, m := range cohort {
		if m.TimeLimitMinutes == nil {
			continue
		}
		limit := *m.TimeLimitMinutes * 60
		if total == 0 || limit < total {
			total = limit
		}
	}
	return total
}

func mixedLimits(cohort []models.Match) bool {
	seen := 0
	for _, m := range cohort {
		if m.TimeLimitMinutes == nil {
			continue
		}
		if seen != 0 && *m.TimeLimitMinutes != seen {
			return true
		}
		seen = *m.TimeLimitMinutes
	}
	return false
}

// TimerService держит по координатору на этап и управляет их жизненным
// циклом: одна координационная горутина на когорту.
type TimerService struct {
	repo   repositories.TimerStateRepository
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	onExpire ExpireFunc
	coords   map[int]*coordEntry
	tickCtx  context.Context
}

type coordEntry struct {
	coord  *TimerCoordinator
	cancel context.CancelFunc
}

func NewTimerService(
	repo repositories.TimerStateRepository,
	clock Clock,
	logger *slog.Logger,
) *TimerService {
	return &TimerService{
		repo:   repo,
		clock:  clock,
		logger: logger,
		coords: make(map[int]*coordEntry),
	}
}

// SetExpireFunc подключает получателя событий истечения (staging-сервис);
// выставляется один раз при сборке приложения.
func (s *TimerService) SetExpireFunc(f ExpireFunc) {
	s.mu.Lock()
	s.onExpire = f
	s.mu.Unlock()
}

// StartTicking включает секундные тики для всех текущих и будущих
// координаторов. Без вызова (в тестах) координаторы продвигаются вручную.
func (s *TimerService) StartTicking(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickCtx = ctx
	for _, e := range s.coords {
		if e.cancel == nil {
			runCtx, cancel := context.WithCancel(ctx)
			e.cancel = cancel
			go e.coord.run(runCtx)
		}
	}
}

// Coordinator возвращает координатор этапа, создавая и восстанавливая его
// при первом обращении.
func (s *TimerService) Coordinator(stageID int) *TimerCoordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.coords[stageID]; ok {
		return e.coord
	}

	coord := newTimerCoordinator(stageID, s.repo, s.clock, s.logger, func(id int, matchIDs []int) {
		s.mu.Lock()
		f := s.onExpire
		s.mu.Unlock()
		if f != nil {
			f(id, matchIDs)
		}
	})

	e := &coordEntry{coord: coord}
	if s.tickCtx != nil {
		runCtx, cancel := context.WithCancel(s.tickCtx)
		e.cancel = cancel
		go coord.run(runCtx)
	}
	s.coords[stageID] = e
	return coord
}

// Detach останавливает горутину этапа и чистит снапшот простаивающего таймера.
func (s *TimerService) Detach(ctx context.Context, stageID int) {
	s.mu.Lock()
	e, ok := s.coords[stageID]
	if ok {
		delete(s.coords, stageID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.coord.Detach(ctx)
}
