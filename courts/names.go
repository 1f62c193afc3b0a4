package courts

import (
	"fmt"

	"github.com/Dosada05/tournament-staging/models"
)

// NameSource — один именованный источник данных о кортах. Источники
// просматриваются в порядке передачи, первый найденный выигрывает.
type NameSource struct {
	Label  string // e.g. "stage", "tournament", "extra"
	Courts []models.Court
}

// ResolveCourtName looks courtID up across ranked sources and falls back to a
// synthesized label. Never fails for an unknown id.
func ResolveCourtName(courtID int, sources ...NameSource) string {
	for _, src := range sources {
		for _, c := range src.Courts {
			if c.ID == courtID && c.Name != "" {
				return c.Name
			}
		}
	}
	return fmt.Sprintf("Court %d", courtID)
}
