package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

// fakeClock — управляемые часы для тестов таймера и табло.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// memoryTimerRepo — снапшоты таймера в памяти вместо Postgres.
type memoryTimerRepo struct {
	mu        sync.Mutex
	snapshots map[int][]byte
	saveErr   error
}

func newMemoryTimerRepo() *memoryTimerRepo {
	return &memoryTimerRepo{snapshots: make(map[int][]byte)}
}

func (r *memoryTimerRepo) Save(_ context.Context, stageID int, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	r.snapshots[stageID] = cp
	return nil
}

func (r *memoryTimerRepo) Load(_ context.Context, stageID int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.snapshots[stageID]
	if !ok {
		return nil, repositories.ErrTimerStateNotFound
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, nil
}

func (r *memoryTimerRepo) Clear(_ context.Context, stageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, stageID)
	return nil
}

func (r *memoryTimerRepo) put(stageID int, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[stageID] = payload
}

func (r *memoryTimerRepo) has(stageID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.snapshots[stageID]
	return ok
}

// fakeRemote реализует remote.Client через подменяемые хуки; невыставленный
// хук возвращает нулевое значение без ошибки.
type fakeRemote struct {
	mu sync.Mutex

	fetchStage            func(ctx context.Context, stageID int) (*models.Stage, error)
	fetchStageGroups      func(ctx context.Context, stageID int) ([]models.Group, error)
	fetchStageBrackets    func(ctx context.Context, stageID int) ([]models.Bracket, error)
	fetchStageCouples     func(ctx context.Context, stageID int) ([]models.Couple, error)
	fetchStageCourts      func(ctx context.Context, stageID int) ([]models.Court, error)
	fetchTournamentCourts func(ctx context.Context, tournamentID int) ([]models.Court, error)
	fetchGroupCouples     func(ctx context.Context, groupID int) ([]models.Couple, error)
	addCoupleToGroup      func(ctx context.Context, groupID, coupleID int) error
	removeCoupleFromGroup func(ctx context.Context, groupID, coupleID int) error
	genGroupMatches       func(ctx context.Context, groupID int) ([]models.Match, error)
	genBracketMatches     func(ctx context.Context, bracketID int, seeds []int) ([]models.Match, error)
	fetchStageMatches     func(ctx context.Context, stageID int) ([]models.Match, error)
	updateMatch           func(ctx context.Context, matchID int, update remote.MatchUpdate) error
	fetchGroupStandings   func(ctx context.Context, groupID int) ([]models.StandingsRow, error)

	addCalls    []placement
	removeCalls []placement
	updateCalls []remote.MatchUpdate
}

func (f *fakeRemote) FetchStage(ctx context.Context, stageID int) (*models.Stage, error) {
	if f.fetchStage != nil {
		return f.fetchStage(ctx, stageID)
	}
	return &models.Stage{ID: stageID}, nil
}

func (f *fakeRemote) FetchStageGroups(ctx context.Context, stageID int) ([]models.Group, error) {
	if f.fetchStageGroups != nil {
		return f.fetchStageGroups(ctx, stageID)
	}
	return nil, nil
}

func (f *fakeRemote) FetchStageBrackets(ctx context.Context, stageID int) ([]models.Bracket, error) {
	if f.fetchStageBrackets != nil {
		return f.fetchStageBrackets(ctx, stageID)
	}
	return nil, nil
}

func (f *fakeRemote) FetchStageCouples(ctx context.Context, stageID int) ([]models.Couple, error) {
	if f.fetchStageCouples != nil {
		return f.fetchStageCouples(ctx, stageID)
	}
	return nil, nil
}

func (f *fakeRemote) FetchStageCourts(ctx context.Context, stageID int) ([]models.Court, error) {
	if f.fetchStageCourts != nil {
		return f.fetchStageCourts(ctx, stageID)
	}
	return nil, nil
}

func (f *fakeRemote) FetchTournamentCourts(ctx context.Context, tournamentID int) ([]models.Court, error) {
	if f.fetchTournamentCourts != nil {
		return f.fetchTournamentCourts(ctx, tournamentID)
	}
	return nil, nil
}

func (f *fakeRemote) FetchGroupCouples(ctx context.Context, groupID int) ([]models.Couple, error) {
	if f.fetchGroupCouples != nil {
		return f.fetchGroupCouples(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeRemote) AddCoupleToGroup(ctx context.Context, groupID, coupleID int) error {
	f.mu.Lock()
	f.addCalls = append(f.addCalls, placement{groupID: groupID, coupleID: coupleID})
	f.mu.Unlock()
	if f.addCoupleToGroup != nil {
		return f.addCoupleToGroup(ctx, groupID, coupleID)
	}
	return nil
}

func (f *fakeRemote) RemoveCoupleFromGroup(ctx context.Context, groupID, coupleID int) error {
	f.mu.Lock()
	f.removeCalls = append(f.removeCalls, placement{groupID: groupID, coupleID: coupleID})
	f.mu.Unlock()
	if f.removeCoupleFromGroup != nil {
		return f.removeCoupleFromGroup(ctx, groupID, coupleID)
	}
	return nil
}

func (f *fakeRemote) GenerateGroupMatches(ctx context.Context, groupID int) ([]models.Match, error) {
	if f.genGroupMatches != nil {
		return f.genGroupMatches(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeRemote) GenerateBracketMatches(ctx context.Context, bracketID int, seeds []int) ([]models.Match, error) {
	if f.genBracketMatches != nil {
		return f.genBracketMatches(ctx, bracketID, seeds)
	}
	return nil, nil
}

func (f *fakeRemote) FetchStageMatches(ctx context.Context, stageID int) ([]models.Match, error) {
	if f.fetchStageMatches != nil {
		return f.fetchStageMatches(ctx, stageID)
	}
	return nil, nil
}

func (f *fakeRemote) UpdateMatch(ctx context.Context, matchID int, update remote.MatchUpdate) error {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, update)
	f.mu.Unlock()
	if f.updateMatch != nil {
		return f.updateMatch(ctx, matchID, update)
	}
	return nil
}

func (f *fakeRemote) FetchGroupStandings(ctx context.Context, groupID int) ([]models.StandingsRow, error) {
	if f.fetchGroupStandings != nil {
		return f.fetchGroupStandings(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeRemote) addCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addCalls)
}
