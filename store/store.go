package store

import (
	"sort"
	"sync"

	"github.com/Dosada05/tournament-staging/models"
)

// EntityStore — единственный разделяемый изменяемый стейт системы.
// Арена сущностей по id, читается через копирующие проекции; все мутации
// идут через сервисы, никогда напрямую из обработчиков.
type EntityStore struct {
	mu sync.RWMutex

	stages   map[int]models.Stage
	groups   map[int]models.Group
	brackets map[int]models.Bracket
	couples  map[int]models.Couple
	matches  map[int]models.Match

	// assignment state, owned by the assignment engine
	stageCouples map[int][]int       // stage id -> couple ids, insertion order
	groupCouples map[int][]int       // group id -> couple ids, assignment order
	coupleGroup  map[int]map[int]int // stage id -> couple id -> group id

	stageCourts      map[int][]models.Court
	tournamentCourts map[int][]models.Court
}

func NewEntityStore() *EntityStore {
	return &EntityStore{
		stages:           make(map[int]models.Stage),
		groups:           make(map[int]models.Group),
		brackets:         make(map[int]models.Bracket),
		couples:          make(map[int]models.Couple),
		matches:          make(map[int]models.Match),
		stageCouples:     make(map[int][]int),
		groupCouples:     make(map[int][]int),
		coupleGroup:      make(map[int]map[int]int),
		stageCourts:      make(map[int][]models.Court),
		tournamentCourts: make(map[int][]models.Court),
	}
}

// StageSnapshot is everything a single remote load produces for one stage.
type StageSnapshot struct {
	Stage            models.Stage
	Groups           []models.Group
	Brackets         []models.Bracket
	Couples          []models.Couple // all couples entered in the stage, insertion order
	GroupCouples     map[int][]models.Couple
	Matches          []models.Match
	StageCourts      []models.Court
	TournamentCourts []models.Court
}

// ReplaceStage atomically swaps all stage-scoped data for snap.Stage.ID.
// Прежние данные этапа (группы, сетки, матчи, составы) полностью вытесняются.
func (s *EntityStore) ReplaceStage(snap StageSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stageID := snap.Stage.ID
	s.stages[stageID] = snap.Stage

	// drop previous stage-scoped rows
	for id, g := range s.groups {
		if g.StageID == stageID {
			delete(s.groups, id)
			delete(s.groupCouples, id)
		}
	}
	for id, b := range s.brackets {
		if b.StageID == stageID {
			delete(s.brackets, id)
		}
	}
	for id, m := range s.matches {
		if m.StageID == stageID {
			delete(s.matches, id)
		}
	}
	delete(s.coupleGroup, stageID)
	delete(s.stageCouples, stageID)

	for _, g := range snap.Groups {
		s.groups[g.ID] = g
	}
	for _, b := range snap.Brackets {
		s.brackets[b.ID] = b
	}
	coupleIDs := make([]int, 0, len(snap.Couples))
	for _, c := range snap.Couples {
		s.couples[c.ID] = c
		coupleIDs = append(coupleIDs, c.ID)
	}
	s.stageCouples[stageID] = coupleIDs

	assigned := make(map[int]int)
	for groupID, members := range snap.GroupCouples {
		ids := make([]int, 0, len(members))
		for _, c := range members {
			s.couples[c.ID] = c
			ids = append(ids, c.ID)
			assigned[c.ID] = groupID
		}
		s.groupCouples[groupID] = ids
	}
	s.coupleGroup[stageID] = assigned

	for _, m := range snap.Matches {
		s.matches[m.ID] = cloneMatch(m)
	}

	if snap.StageCourts != nil {
		s.stageCourts[stageID] = append([]models.Court(nil), snap.StageCourts...)
	}
	if snap.TournamentCourts != nil {
		s.tournamentCourts[snap.Stage.TournamentID] = append([]models.Court(nil), snap.TournamentCourts...)
	}
}

func (s *EntityStore) StageByID(id int) (models.Stage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages[id]
	return st, ok
}

func (s *EntityStore) GroupByID(id int) (models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

func (s *EntityStore) BracketByID(id int) (models.Bracket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brackets[id]
	return b, ok
}

func (s *EntityStore) CoupleByID(id int) (models.Couple, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.couples[id]
	return c, ok
}

// GroupsByStage returns the stage's groups ordered by id for determinism.
func (s *EntityStore) GroupsByStage(stageID int) []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Group, 0)
	for _, g := range s.groups {
		if g.StageID == stageID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntityStore) BracketsByStage(stageID int) []models.Bracket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Bracket, 0)
	for _, b := range s.brackets {
		if b.StageID == stageID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CouplesByGroup returns the group's members in assignment order.
func (s *EntityStore) CouplesByGroup(groupID int) []models.Couple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.groupCouples[groupID]
	out := make([]models.Couple, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.couples[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// GroupOfCouple reports which group of the stage the couple is assigned to.
func (s *EntityStore) GroupOfCouple(stageID, coupleID int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groupID, ok := s.coupleGroup[stageID][coupleID]
	return groupID, ok
}

// UnassignedCouples returns stage couples without a group, in insertion order.
// Порядок вставки служит стабильным тайбрейком для balanced-распределения.
func (s *EntityStore) UnassignedCouples(stageID int) []models.Couple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assigned := s.coupleGroup[stageID]
	out := make([]models.Couple, 0)
	for _, id := range s.stageCouples[stageID] {
		if _, ok := assigned[id]; ok {
			continue
		}
		if c, ok := s.couples[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// GroupSizes returns current member counts keyed by group id.
func (s *EntityStore) GroupSizes(stageID int) map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int)
	for id, g := range s.groups {
		if g.StageID == stageID {
			out[id] = len(s.groupCouples[id])
		}
	}
	return out
}

// AddCoupleToGroup records an assignment. Invariant checks live in the
// assignment service; the store only keeps the indexes consistent.
func (s *EntityStore) AddCoupleToGroup(groupID, coupleID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return
	}
	for _, id := range s.groupCouples[groupID] {
		if id == coupleID {
			return
		}
	}
	s.groupCouples[groupID] = append(s.groupCouples[groupID], coupleID)
	if s.coupleGroup[g.StageID] == nil {
		s.coupleGroup[g.StageID] = make(map[int]int)
	}
	s.coupleGroup[g.StageID][coupleID] = groupID
}

// RemoveCoupleFromGroup is a no-op when the couple is not in the group.
func (s *EntityStore) RemoveCoupleFromGroup(groupID, coupleID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return
	}
	ids := s.groupCouples[groupID]
	for i, id := range ids {
		if id == coupleID {
			s.groupCouples[groupID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if assigned, ok := s.coupleGroup[g.StageID]; ok {
		if assigned[coupleID] == groupID {
			delete(assigned, coupleID)
		}
	}
}

func (s *EntityStore) MatchByID(id int) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, false
	}
	return cloneMatch(m), true
}

// MatchesByStage returns copies of the stage's matches ordered by id.
func (s *EntityStore) MatchesByStage(stageID int) []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0)
	for _, m := range s.matches {
		if m.StageID == stageID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntityStore) MatchesByGroup(groupID int) []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0)
	for _, m := range s.matches {
		if m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntityStore) MatchesByBracket(bracketID int) []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0)
	for _, m := range s.matches {
		if m.BracketID != nil && *m.BracketID == bracketID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PutMatch replaces a single match, keyed by id.
func (s *EntityStore) PutMatch(m models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = cloneMatch(m)
}

// ReplaceGroupMatches swaps the whole match set of a group, the ingest shape
// of the generation facade. Matches are never deleted individually.
func (s *EntityStore) ReplaceGroupMatches(groupID int, matches []models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.GroupID != nil && *m.GroupID == groupID {
			delete(s.matches, id)
		}
	}
	for _, m := range matches {
		s.matches[m.ID] = cloneMatch(m)
	}
}

func (s *EntityStore) ReplaceBracketMatches(bracketID int, matches []models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.BracketID != nil && *m.BracketID == bracketID {
			delete(s.matches, id)
		}
	}
	for _, m := range matches {
		s.matches[m.ID] = cloneMatch(m)
	}
}

func (s *EntityStore) SetStageCourts(stageID int, courts []models.Court) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageCourts[stageID] = append([]models.Court(nil), courts...)
}

func (s *EntityStore) SetTournamentCourts(tournamentID int, courts []models.Court) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournamentCourts[tournamentID] = append([]models.Court(nil), courts...)
}

func (s *EntityStore) StageCourts(stageID int) []models.Court {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Court(nil), s.stageCourts[stageID]...)
}

func (s *EntityStore) TournamentCourts(tournamentID int) []models.Court {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Court(nil), s.tournamentCourts[tournamentID]...)
}

func cloneMatch(m models.Match) models.Match {
	out := m
	out.Games = m.CloneGames()
	return out
}
