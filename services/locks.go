package services

import "sync"

// StageLocker сериализует мутации в пределах одного этапа: два параллельных
// назначения или генерации не должны портить одну и ту же группу/сетку.
type StageLocker struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewStageLocker() *StageLocker {
	return &StageLocker{locks: make(map[int]*sync.Mutex)}
}

// Lock acquires the per-stage mutex and returns its unlock func.
func (l *StageLocker) Lock(stageID int) func() {
	l.mu.Lock()
	m, ok := l.locks[stageID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[stageID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
