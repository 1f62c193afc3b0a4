package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrStageNotFound   = errors.New("stage not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrBracketNotFound = errors.New("bracket not found")
	ErrCoupleNotFound  = errors.New("couple not found")
	ErrMatchNotFound   = errors.New("match not found")

	// Ошибки назначения пар
	ErrCoupleAlreadyAssigned = errors.New("couple is already assigned to another group in this stage")
	ErrNoGroupsInStage       = errors.New("stage has no groups to assign couples into")
	ErrInvalidAssignMethod   = errors.New("invalid auto-assign method")

	// Ошибки генерации матчей
	ErrMatchesAlreadyGenerated = errors.New("matches already generated, re-generation requires confirmation")

	// Ошибки ввода результата (валидация, состояние не меняется)
	ErrTiedMatchResult     = errors.New("completed match must have a decisive winner, game wins are tied")
	ErrWinnerRequired      = errors.New("winner couple must be supplied for this result status")
	ErrWinnerNotInMatch    = errors.New("winner couple does not play in this match")
	ErrInvalidResultStatus = errors.New("invalid match result status")

	// Ошибки таймера
	ErrTimerTransition = errors.New("invalid timer state transition")

	// Внутренняя: отменённая устаревшая загрузка, наружу не показывается
	ErrStaleSelection = errors.New("stage selection changed during load")
)
