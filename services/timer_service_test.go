package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/stretchr/testify/require"
)

var timerTestStart = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func limitedMatch(id, minutes int) models.Match {
	return models.Match{
		ID:                id,
		StageID:           1,
		IsTimeLimited:     true,
		TimeLimitMinutes:  intPtr(minutes),
		MatchResultStatus: models.MatchResultPending,
	}
}

func newTestCoordinator(t *testing.T, repo *memoryTimerRepo, clock *fakeClock, onExpire ExpireFunc) *TimerCoordinator {
	t.Helper()
	svc := NewTimerService(repo, clock, testLogger())
	if onExpire != nil {
		svc.SetExpireFunc(onExpire)
	}
	return svc.Coordinator(1)
}

func TestTimerCohortSync(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	coord.SyncCohort([]models.Match{limitedMatch(301, 20), limitedMatch(302, 20)})

	state := coord.State()
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Equal(t, 20*60, state.TotalTime)
	require.Equal(t, 20*60, state.TimeRemaining)
	require.Equal(t, []int{301, 302}, state.ActiveMatchIDs)
}

func TestTimerCohortUnchangedDoesNotResetCountdown(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	cohort := []models.Match{limitedMatch(301, 20)}
	coord.SyncCohort(cohort)
	require.NoError(t, coord.Start())

	coord.Tick(clock.Advance(5 * time.Minute))

	// та же когорта — отсчёт не трогаем
	coord.SyncCohort(cohort)
	require.Equal(t, 15*60, coord.State().TimeRemaining)
	require.Equal(t, models.TimerRunning, coord.State().Status)
}

func TestTimerCohortChangeResetsCountdown(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	coord.SyncCohort([]models.Match{limitedMatch(301, 20)})
	require.NoError(t, coord.Start())
	coord.Tick(clock.Advance(5 * time.Minute))

	coord.SyncCohort([]models.Match{limitedMatch(302, 15)})

	state := coord.State()
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Equal(t, 15*60, state.TimeRemaining)
	require.Equal(t, []int{302}, state.ActiveMatchIDs)
}

func TestTimerMixedLimitsUseMinimum(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	coord.SyncCohort([]models.Match{limitedMatch(301, 20), limitedMatch(302, 15), limitedMatch(303, 25)})

	require.Equal(t, 15*60, coord.State().TotalTime)
}

func TestTimerTransitions(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)
	coord.SyncCohort([]models.Match{limitedMatch(301, 10)})

	// pause before start is invalid
	require.ErrorIs(t, coord.Pause(), ErrTimerTransition)

	require.NoError(t, coord.Start())
	require.Equal(t, models.TimerRunning, coord.State().Status)
	require.NotNil(t, coord.State().StartedAt)

	// double start is invalid
	require.ErrorIs(t, coord.Start(), ErrTimerTransition)

	coord.Tick(clock.Advance(3 * time.Minute))
	require.NoError(t, coord.Pause())
	require.Equal(t, models.TimerPaused, coord.State().Status)
	require.Equal(t, 7*60, coord.State().TimeRemaining)

	// время на паузе не утекает
	clock.Advance(10 * time.Minute)
	coord.Tick(clock.Now())
	require.Equal(t, 7*60, coord.State().TimeRemaining)

	// start from paused resumes
	require.NoError(t, coord.Start())
	coord.Tick(clock.Advance(2 * time.Minute))
	require.Equal(t, 5*60, coord.State().TimeRemaining)

	coord.Reset()
	state := coord.State()
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Equal(t, 10*60, state.TimeRemaining)
	require.Nil(t, state.StartedAt)
	require.Nil(t, state.PausedAt)
}

func TestTimerTickToZeroFiresExpireCallback(t *testing.T) {
	clock := newFakeClock(timerTestStart)

	var mu sync.Mutex
	var gotStage int
	var gotMatches []int
	fired := 0

	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, func(stageID int, matchIDs []int) {
		mu.Lock()
		gotStage = stageID
		gotMatches = matchIDs
		fired++
		mu.Unlock()
	})

	coord.SyncCohort([]models.Match{limitedMatch(301, 1), limitedMatch(302, 1)})
	require.NoError(t, coord.Start())

	coord.Tick(clock.Advance(61 * time.Second))

	state := coord.State()
	require.Equal(t, models.TimerExpired, state.Status)
	require.Zero(t, state.TimeRemaining)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, fired)
	require.Equal(t, 1, gotStage)
	require.Equal(t, []int{301, 302}, gotMatches)
}

func TestTimerTickIgnoredWhenNotRunning(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)
	coord.SyncCohort([]models.Match{limitedMatch(301, 10)})

	coord.Tick(clock.Advance(5 * time.Minute))
	require.Equal(t, 10*60, coord.State().TimeRemaining)
	require.Equal(t, models.TimerNotStarted, coord.State().Status)
}

func TestTimerRestoreRunningSubtractsOfflineTime(t *testing.T) {
	repo := newMemoryTimerRepo()
	saved := models.TimerState{
		TimeRemaining:  100,
		Status:         models.TimerRunning,
		TotalTime:      20 * 60,
		ActiveMatchIDs: []int{301},
		LastUpdated:    timerTestStart,
	}
	payload, err := json.Marshal(saved)
	require.NoError(t, err)
	repo.put(1, payload)

	// процесс вернулся через 40 секунд
	clock := newFakeClock(timerTestStart.Add(40 * time.Second))
	coord := newTestCoordinator(t, repo, clock, nil)

	state := coord.State()
	require.Equal(t, models.TimerRunning, state.Status)
	require.Equal(t, 60, state.TimeRemaining)
	require.Equal(t, []int{301}, state.ActiveMatchIDs)
}

func TestTimerRestoreExpiredWhileOffline(t *testing.T) {
	repo := newMemoryTimerRepo()
	saved := models.TimerState{
		TimeRemaining:  100,
		Status:         models.TimerRunning,
		TotalTime:      20 * 60,
		ActiveMatchIDs: []int{301},
		LastUpdated:    timerTestStart,
	}
	payload, err := json.Marshal(saved)
	require.NoError(t, err)
	repo.put(1, payload)

	fired := 0
	clock := newFakeClock(timerTestStart.Add(150 * time.Second))
	coord := newTestCoordinator(t, repo, clock, func(int, []int) { fired++ })

	state := coord.State()
	require.Equal(t, models.TimerExpired, state.Status)
	require.Zero(t, state.TimeRemaining)
	// истечение в офлайне не стреляет колбэком — некому было играть
	require.Zero(t, fired)
}

func TestTimerRestorePausedKeepsRemaining(t *testing.T) {
	repo := newMemoryTimerRepo()
	pausedAt := timerTestStart.Add(-time.Minute)
	saved := models.TimerState{
		TimeRemaining:  420,
		Status:         models.TimerPaused,
		TotalTime:      20 * 60,
		PausedAt:       &pausedAt,
		ActiveMatchIDs: []int{301},
		LastUpdated:    timerTestStart,
	}
	payload, err := json.Marshal(saved)
	require.NoError(t, err)
	repo.put(1, payload)

	clock := newFakeClock(timerTestStart.Add(time.Hour))
	coord := newTestCoordinator(t, repo, clock, nil)

	state := coord.State()
	require.Equal(t, models.TimerPaused, state.Status)
	require.Equal(t, 420, state.TimeRemaining)
}

func TestTimerRestoreCorruptSnapshotStartsFresh(t *testing.T) {
	repo := newMemoryTimerRepo()
	repo.put(1, []byte(`{"timeRemaining": "not-a-number"`))

	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, repo, clock, nil)

	state := coord.State()
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Zero(t, state.TimeRemaining)
}

func TestTimerStatePersistsAcrossCoordinators(t *testing.T) {
	repo := newMemoryTimerRepo()
	clock := newFakeClock(timerTestStart)

	first := NewTimerService(repo, clock, testLogger()).Coordinator(1)
	first.SyncCohort([]models.Match{limitedMatch(301, 10)})
	require.NoError(t, first.Start())
	first.Tick(clock.Advance(2 * time.Minute))

	// новый сервис (новый процесс) восстанавливает тот же отсчёт
	second := NewTimerService(repo, clock, testLogger()).Coordinator(1)
	state := second.State()
	require.Equal(t, models.TimerRunning, state.Status)
	require.Equal(t, 8*60, state.TimeRemaining)
	require.Equal(t, []int{301}, state.ActiveMatchIDs)
}

func TestTimerDetachClearsOnlyIdleSnapshots(t *testing.T) {
	repo := newMemoryTimerRepo()
	clock := newFakeClock(timerTestStart)
	svc := NewTimerService(repo, clock, testLogger())

	coord := svc.Coordinator(1)
	coord.SyncCohort([]models.Match{limitedMatch(301, 10)})
	require.NoError(t, coord.Start())

	// запущенный таймер обязан пережить detach
	svc.Detach(context.Background(), 1)
	require.True(t, repo.has(1))

	coord = svc.Coordinator(1)
	coord.Reset()
	svc.Detach(context.Background(), 1)
	require.False(t, repo.has(1))
}

func TestTimerEmptyCohortZeroTotal(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	coord.SyncCohort([]models.Match{limitedMatch(301, 10)})
	coord.SyncCohort(nil)

	state := coord.State()
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Zero(t, state.TotalTime)
	require.Empty(t, state.ActiveMatchIDs)
}

func TestTimerStartRejectedWithoutCohort(t *testing.T) {
	clock := newFakeClock(timerTestStart)
	coord := newTestCoordinator(t, newMemoryTimerRepo(), clock, nil)

	// свежий координатор: когорты нет, лимит нулевой
	require.ErrorIs(t, coord.Start(), ErrTimerTransition)

	coord.SyncCohort([]models.Match{limitedMatch(301, 10)})
	coord.SyncCohort(nil)

	// когорта опустела — запуск снова невозможен
	require.ErrorIs(t, coord.Start(), ErrTimerTransition)
	require.Equal(t, models.TimerNotStarted, coord.State().Status)
}
