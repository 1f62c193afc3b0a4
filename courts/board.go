package courts

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-staging/models"
)

// CourtQueue is the ordered pending-match queue of one physical court.
// Active — голова очереди, то, что судья должен играть прямо сейчас.
type CourtQueue struct {
	CourtID int
	Active  *models.Match
	Queue   []models.Match // remainder after the active match, priority order
}

// Board is the tournament-wide partition of matches derived from the
// pending set: live / next / upcoming / completed.
type Board struct {
	Live      []models.Match
	Next      []models.Match
	Upcoming  []models.Match
	Completed []models.Match
	ByCourt   map[int]CourtQueue
}

// BuildBoard answers "what should be played right now on each court" for the
// whole match set. Pending matches without a court cannot go live and land in
// the upcoming pool.
func BuildBoard(matches []models.Match, now time.Time) Board {
	board := Board{ByCourt: make(map[int]CourtQueue)}

	perCourt := make(map[int][]models.Match)
	var unplaced []models.Match

	for _, m := range matches {
		if m.MatchResultStatus != models.MatchResultPending {
			board.Completed = append(board.Completed, m)
			continue
		}
		if m.CourtID == nil {
			unplaced = append(unplaced, m)
			continue
		}
		perCourt[*m.CourtID] = append(perCourt[*m.CourtID], m)
	}

	// most recent first; завершённых таймстемпов нет, id убывает вместе со временем создания
	sort.Slice(board.Completed, func(i, j int) bool {
		return board.Completed[i].ID > board.Completed[j].ID
	})

	courtIDs := make([]int, 0, len(perCourt))
	for id := range perCourt {
		courtIDs = append(courtIDs, id)
	}
	sort.Ints(courtIDs)

	for _, courtID := range courtIDs {
		queue := perCourt[courtID]
		SortQueue(queue, now)

		active := queue[0]
		rest := queue[1:]

		board.Live = append(board.Live, active)

		cq := CourtQueue{CourtID: courtID, Active: &active}
		cq.Queue = append(cq.Queue, rest...)
		board.ByCourt[courtID] = cq

		// "next" is strictly the match right behind the active one, and only
		// when its own timing says it starts soon
		for i, m := range rest {
			if i == 0 && TimingStatusOf(m, now) == TimingUpcoming {
				board.Next = append(board.Next, m)
			} else {
				board.Upcoming = append(board.Upcoming, m)
			}
		}
	}

	board.Upcoming = append(board.Upcoming, unplaced...)
	SortQueue(board.Upcoming, now)
	SortQueue(board.Next, now)
	SortQueue(board.Live, now)

	return board
}

// ActiveTimeLimited returns the scheduler-selected active match of every
// court, filtered to time-limited ones — the countdown cohort.
func (b Board) ActiveTimeLimited() []models.Match {
	out := make([]models.Match, 0, len(b.Live))
	for _, m := range b.Live {
		if m.IsTimeLimited {
			out = append(out, m)
		}
	}
	return out
}
