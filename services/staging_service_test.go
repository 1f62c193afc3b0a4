package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/tournament-staging/courts"
	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/store"
	"github.com/stretchr/testify/require"
)

type stagingFixture struct {
	store   *store.EntityStore
	client  *fakeRemote
	gen     GenerationService
	timers  *TimerService
	clock   *fakeClock
	service StagingService
}

func newStagingFixture(t *testing.T, client *fakeRemote) *stagingFixture {
	t.Helper()
	entityStore := store.NewEntityStore()
	locker := NewStageLocker()
	clock := newFakeClock(timerTestStart)
	logger := testLogger()
	timers := NewTimerService(newMemoryTimerRepo(), clock, logger)
	gen := NewGenerationService(entityStore, client, locker, logger)

	svc := NewStagingService(entityStore, client, gen, timers, courts.NewHub(), locker, clock, logger)
	timers.SetExpireFunc(svc.HandleTimerExpired)
	gen.SetBoardNotifier(svc)

	return &stagingFixture{
		store:   entityStore,
		client:  client,
		gen:     gen,
		timers:  timers,
		clock:   clock,
		service: svc,
	}
}

func stageRemote() *fakeRemote {
	start := timerTestStart.Add(-10 * time.Minute)
	soon := timerTestStart.Add(20 * time.Minute)
	return &fakeRemote{
		fetchStage: func(_ context.Context, stageID int) (*models.Stage, error) {
			return &models.Stage{ID: stageID, TournamentID: 100, Name: "Group Stage", StageType: models.StageTypeGroup}, nil
		},
		fetchStageGroups: func(context.Context, int) ([]models.Group, error) {
			return []models.Group{{ID: 10, StageID: 1, Name: "A"}}, nil
		},
		fetchStageCouples: func(context.Context, int) ([]models.Couple, error) {
			return []models.Couple{{ID: 201}, {ID: 202}, {ID: 203}, {ID: 204}}, nil
		},
		fetchGroupCouples: func(_ context.Context, groupID int) ([]models.Couple, error) {
			return []models.Couple{{ID: 201}, {ID: 202}}, nil
		},
		fetchStageMatches: func(context.Context, int) ([]models.Match, error) {
			return []models.Match{
				{
					ID: 301, StageID: 1, GroupID: intPtr(10),
					Couple1ID: 201, Couple2ID: 202,
					CourtID: intPtr(1), ScheduledStart: timePtr(start),
					IsTimeLimited: true, TimeLimitMinutes: intPtr(20),
					MatchResultStatus: models.MatchResultPending,
				},
				{
					ID: 302, StageID: 1, GroupID: intPtr(10),
					Couple1ID: 203, Couple2ID: 204,
					CourtID: intPtr(1), ScheduledStart: timePtr(soon),
					IsTimeLimited: true, TimeLimitMinutes: intPtr(20),
					MatchResultStatus: models.MatchResultPending,
				},
				{
					ID: 303, StageID: 1, GroupID: intPtr(10),
					Couple1ID: 201, Couple2ID: 203,
					MatchResultStatus: models.MatchResultCompleted, WinnerCoupleID: intPtr(201),
				},
			}, nil
		},
		fetchStageCourts: func(context.Context, int) ([]models.Court, error) {
			return []models.Court{{ID: 1, Name: "Centre Court"}}, nil
		},
	}
}

func TestLoadStageBuildsBoard(t *testing.T) {
	fx := newStagingFixture(t, stageRemote())

	view, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	require.Equal(t, 1, view.StageID)
	require.Len(t, view.Live, 1)
	require.Equal(t, 301, view.Live[0].ID)
	require.Equal(t, "Centre Court", view.Live[0].CourtName)
	require.Equal(t, "in-progress", view.Live[0].TimingStatus)

	require.Len(t, view.Next, 1)
	require.Equal(t, 302, view.Next[0].ID)

	require.Len(t, view.Completed, 1)
	require.Equal(t, 303, view.Completed[0].ID)

	// таймер синхронизирован на активный time-limited матч
	require.Equal(t, []int{301}, view.Timer.ActiveMatchIDs)
	require.Equal(t, 20*60, view.Timer.TotalTime)
	require.Equal(t, models.TimerNotStarted, view.Timer.Status)

	// стор наполнен снапшотом
	require.Len(t, fx.store.CouplesByGroup(10), 2)
	require.Len(t, fx.store.UnassignedCouples(1), 2)

	// загруженные матчи ставят has-matches флаг генерации
	require.True(t, fx.gen.HasMatches(ScopeGroup, 10))
}

func TestLoadStageRemoteFailure(t *testing.T) {
	client := stageRemote()
	remoteErr := errors.New("api down")
	client.fetchStageMatches = func(context.Context, int) ([]models.Match, error) { return nil, remoteErr }

	fx := newStagingFixture(t, client)

	_, err := fx.service.LoadStage(context.Background(), 1)
	require.ErrorIs(t, err, remoteErr)

	// ничего не закоммичено
	_, ok := fx.store.StageByID(1)
	require.False(t, ok)
}

func TestLoadStageStaleLoadIsDiscarded(t *testing.T) {
	client := stageRemote()
	fx := newStagingFixture(t, client)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	client.fetchStageMatches = func(context.Context, int) ([]models.Match, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
		return nil, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = fx.service.LoadStage(context.Background(), 1)
	}()

	// вторая загрузка стартует после первой и обгоняет её
	<-started
	_, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	close(release)
	wg.Wait()
	require.ErrorIs(t, firstErr, ErrStaleSelection)
}

func TestBoardRequiresLoadedStage(t *testing.T) {
	fx := newStagingFixture(t, stageRemote())

	_, err := fx.service.Board(context.Background(), 1)
	require.ErrorIs(t, err, ErrStageNotFound)

	_, err = fx.service.RecomputeBoard(context.Background(), 1)
	require.ErrorIs(t, err, ErrStageNotFound)
}

func TestMatchResultRecordedRebuildsBoardAndCohort(t *testing.T) {
	fx := newStagingFixture(t, stageRemote())

	_, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	lifecycle := NewLifecycleService(fx.store, fx.client, fx.service, testLogger())
	_, err = lifecycle.SubmitResult(context.Background(), 301, ResultInput{
		Status: models.MatchResultCompleted,
		Games:  []models.Game{{GameNumber: 1, Couple1Score: 6, Couple2Score: 3}},
	})
	require.NoError(t, err)

	view, err := fx.service.Board(context.Background(), 1)
	require.NoError(t, err)

	// 302 продвинулся в голову корта, 301 ушёл в completed
	require.Len(t, view.Live, 1)
	require.Equal(t, 302, view.Live[0].ID)
	require.Len(t, view.Completed, 2)
	require.Equal(t, 303, view.Completed[0].ID)
	require.Equal(t, 301, view.Completed[1].ID)

	// когорта таймера пересчитана на нового активного
	require.Equal(t, []int{302}, fx.service.TimerState(1).ActiveMatchIDs)
}

func TestGeneratedMatchesRebuildBoardAndCohort(t *testing.T) {
	client := stageRemote()
	client.fetchStageMatches = func(context.Context, int) ([]models.Match, error) { return nil, nil }
	client.genGroupMatches = func(_ context.Context, groupID int) ([]models.Match, error) {
		return []models.Match{
			{
				ID: 401, StageID: 1, GroupID: intPtr(groupID),
				Couple1ID: 201, Couple2ID: 202,
				CourtID: intPtr(1), ScheduledStart: timePtr(timerTestStart.Add(-5 * time.Minute)),
				IsTimeLimited: true, TimeLimitMinutes: intPtr(20),
				MatchResultStatus: models.MatchResultPending,
			},
		}, nil
	}
	fx := newStagingFixture(t, client)

	view, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, view.Live)
	require.Empty(t, view.Timer.ActiveMatchIDs)

	_, err = fx.gen.GenerateForGroup(context.Background(), 10, false)
	require.NoError(t, err)

	// сгенерированный матч сразу в голове корта и в когорте таймера
	view, err = fx.service.Board(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, view.Live, 1)
	require.Equal(t, 401, view.Live[0].ID)

	state := fx.service.TimerState(1)
	require.Equal(t, []int{401}, state.ActiveMatchIDs)
	require.Equal(t, 20*60, state.TotalTime)
}

func TestTimerControlFlowThroughStagingService(t *testing.T) {
	fx := newStagingFixture(t, stageRemote())

	_, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	state, err := fx.service.StartTimer(1)
	require.NoError(t, err)
	require.Equal(t, models.TimerRunning, state.Status)

	state, err = fx.service.PauseTimer(1)
	require.NoError(t, err)
	require.Equal(t, models.TimerPaused, state.Status)

	state = fx.service.ResetTimer(1)
	require.Equal(t, models.TimerNotStarted, state.Status)
	require.Equal(t, 20*60, state.TimeRemaining)

	_, err = fx.service.PauseTimer(1)
	require.ErrorIs(t, err, ErrTimerTransition)
}

func TestTimerExpiryReachesExpireHandler(t *testing.T) {
	fx := newStagingFixture(t, stageRemote())

	_, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	_, err = fx.service.StartTimer(1)
	require.NoError(t, err)

	// 20 минут лимита вышли; тик доводит до нуля и зовёт HandleTimerExpired,
	// который не должен паниковать без подписчиков
	fx.timers.Coordinator(1).Tick(fx.clock.Advance(21 * time.Minute))

	state := fx.service.TimerState(1)
	require.Equal(t, models.TimerExpired, state.Status)
	require.Zero(t, state.TimeRemaining)
}

func TestGroupStandingsReadThrough(t *testing.T) {
	client := stageRemote()
	client.fetchGroupStandings = func(_ context.Context, groupID int) ([]models.StandingsRow, error) {
		return []models.StandingsRow{
			{GroupID: groupID, Position: 1, CoupleID: 201, MatchesWon: 2},
			{GroupID: groupID, Position: 2, CoupleID: 202, MatchesWon: 1},
		}, nil
	}
	fx := newStagingFixture(t, client)

	_, err := fx.service.LoadStage(context.Background(), 1)
	require.NoError(t, err)

	rows, err := fx.service.GroupStandings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 201, rows[0].CoupleID)

	_, err = fx.service.GroupStandings(context.Background(), 99)
	require.ErrorIs(t, err, ErrGroupNotFound)
}
