package models

// Group — контейнер пар внутри группового этапа (stage_type = group).
type Group struct {
	ID      int    `json:"id"`
	StageID int    `json:"stage_id"`
	Name    string `json:"name"`

	// Опционально загружаемый состав, не мапится напрямую
	Couples []Couple `json:"couples,omitempty"`
}

type BracketType string

const (
	BracketTypeMain   BracketType = "main"
	BracketTypeSilver BracketType = "silver"
	BracketTypeBronze BracketType = "bronze"
)

// Bracket — сетка на вылет внутри этапа (stage_type = elimination).
type Bracket struct {
	ID          int         `json:"id"`
	StageID     int         `json:"stage_id"`
	BracketType BracketType `json:"bracket_type"`
}
