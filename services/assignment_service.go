package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/Dosada05/tournament-staging/models"
	"github.com/Dosada05/tournament-staging/remote"
	"github.com/Dosada05/tournament-staging/store"
)

// AssignMethod выбирает стратегию автораспределения пар по группам.
type AssignMethod string

const (
	AssignMethodRandom   AssignMethod = "random"
	AssignMethodBalanced AssignMethod = "balanced"
)

type AssignmentService interface {
	// Assign помещает пару в группу. Пара, уже состоящая в другой группе
	// этого этапа, не переназначается — сначала её нужно убрать.
	Assign(ctx context.Context, groupID, coupleID int) error
	// Unassign идемпотентен: удаление отсутствующего назначения — no-op.
	Unassign(ctx context.Context, groupID, coupleID int) error
	// AutoAssign распределяет все неназначенные пары этапа по его группам
	// и возвращает количество перемещённых пар.
	AutoAssign(ctx context.Context, stageID int, method AssignMethod) (int, error)
}

type assignmentService struct {
	store  *store.EntityStore
	client remote.AssignmentAPI
	locker *StageLocker
	logger *slog.Logger
	rng    *rand.Rand
}

func NewAssignmentService(
	entityStore *store.EntityStore,
	client remote.AssignmentAPI,
	locker *StageLocker,
	logger *slog.Logger,
) AssignmentService {
	return &assignmentService{
		store:  entityStore,
		client: client,
		locker: locker,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *assignmentService) Assign(ctx context.Context, groupID, coupleID int) error {
	group, ok := s.store.GroupByID(groupID)
	if !ok {
		return ErrGroupNotFound
	}
	if _, ok := s.store.CoupleByID(coupleID); !ok {
		return ErrCoupleNotFound
	}

	unlock := s.locker.Lock(group.StageID)
	defer unlock()

	if currentGroup, assigned := s.store.GroupOfCouple(group.StageID, coupleID); assigned {
		if currentGroup == groupID {
			return nil // уже в этой группе
		}
		return fmt.Errorf("%w: couple %d is in group %d", ErrCoupleAlreadyAssigned, coupleID, currentGroup)
	}

	// Сначала удалённая запись, локальный стейт только после успеха.
	if err := s.client.AddCoupleToGroup(ctx, groupID, coupleID); err != nil {
		return err
	}
	s.store.AddCoupleToGroup(groupID, coupleID)

	s.logger.Info("couple assigned to group",
		slog.Int("stage_id", group.StageID),
		slog.Int("group_id", groupID),
		slog.Int("couple_id", coupleID),
	)
	return nil
}

func (s *assignmentService) Unassign(ctx context.Context, groupID, coupleID int) error {
	group, ok := s.store.GroupByID(groupID)
	if !ok {
		return ErrGroupNotFound
	}

	unlock := s.locker.Lock(group.StageID)
	defer unlock()

	currentGroup, assigned := s.store.GroupOfCouple(group.StageID, coupleID)
	if !assigned || currentGroup != groupID {
		return nil // нечего удалять — успех без мутации
	}

	if err := s.client.RemoveCoupleFromGroup(ctx, groupID, coupleID); err != nil {
		return err
	}
	s.store.RemoveCoupleFromGroup(groupID, coupleID)

	s.logger.Info("couple unassigned from group",
		slog.Int("stage_id", group.StageID),
		slog.Int("group_id", groupID),
		slog.Int("couple_id", coupleID),
	)
	return nil
}

// placement — одно вычисленное размещение пары в группу.
type placement struct {
	groupID  int
	coupleID int
}

func (s *assignmentService) AutoAssign(ctx context.Context, stageID int, method AssignMethod) (int, error) {
	if method != AssignMethodRandom && method != AssignMethodBalanced {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAssignMethod, method)
	}
	if _, ok := s.store.StageByID(stageID); !ok {
		return 0, ErrStageNotFound
	}

	unlock := s.locker.Lock(stageID)
	defer unlock()

	groups := s.store.GroupsByStage(stageID)
	if len(groups) == 0 {
		return 0, ErrNoGroupsInStage
	}

	unassigned := s.store.UnassignedCouples(stageID)
	if len(unassigned) == 0 {
		return 0, nil // нет неназначенных пар — успех, ноль перемещений
	}

	placements := s.computePlacements(groups, s.store.GroupSizes(stageID), unassigned, method)

	moved := 0
	for _, p := range placements {
		if err := s.client.AddCoupleToGroup(ctx, p.groupID, p.coupleID); err != nil {
			return moved, fmt.Errorf("auto-assign stopped after %d of %d placements: %w", moved, len(placements), err)
		}
		s.store.AddCoupleToGroup(p.groupID, p.coupleID)
		moved++
	}

	s.logger.Info("auto-assign finished",
		slog.Int("stage_id", stageID),
		slog.String("method", string(method)),
		slog.Int("moved", moved),
	)
	return moved, nil
}

// computePlacements раздаёт пары по кругу. Уже назначенные пары никогда не
// трогаются; существующие размеры групп учитываются, чтобы после раздачи
// max(size) - min(size) <= 1.
func (s *assignmentService) computePlacements(
	groups []models.Group,
	sizes map[int]int,
	unassigned []models.Couple,
	method AssignMethod,
) []placement {
	order := make([]models.Couple, len(unassigned))
	copy(order, unassigned)
	if method == AssignMethodRandom {
		s.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	// balanced: порядок вставки уже стабильный тайбрейк

	counts := make(map[int]int, len(groups))
	for _, g := range groups {
		counts[g.ID] = sizes[g.ID]
	}

	placements := make([]placement, 0, len(order))
	for _, c := range order {
		target := groups[0].ID
		for _, g := range groups[1:] {
			if counts[g.ID] < counts[target] {
				target = g.ID
			}
		}
		placements = append(placements, placement{groupID: target, coupleID: c.ID})
		counts[target]++
	}

	// детерминированный порядок применения при равных размерах
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].groupID < placements[j].groupID
	})
	return placements
}
