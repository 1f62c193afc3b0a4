package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrTimerStateNotFound = errors.New("timer state not found")

// TimerStateRepository хранит снапшоты таймера по этапу. Запущенный/
// приостановленный таймер обязан переживать перезапуск процесса.
type TimerStateRepository interface {
	Save(ctx context.Context, stageID int, payload []byte) error
	Load(ctx context.Context, stageID int) ([]byte, error)
	Clear(ctx context.Context, stageID int) error
}

type PostgresTimerStateRepository struct {
	db *sql.DB
}

func NewPostgresTimerStateRepository(db *sql.DB) *PostgresTimerStateRepository {
	return &PostgresTimerStateRepository{db: db}
}

// EnsureSchema создаёт таблицу снапшотов, если её ещё нет.
func (r *PostgresTimerStateRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS timer_states (
			stage_id   INTEGER PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure timer_states schema: %w", err)
	}
	return nil
}

func (r *PostgresTimerStateRepository) Save(ctx context.Context, stageID int, payload []byte) error {
	query := `
		INSERT INTO timer_states (stage_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (stage_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, stageID, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save timer state for stage %d: %w", stageID, err)
	}
	return nil
}

func (r *PostgresTimerStateRepository) Load(ctx context.Context, stageID int) ([]byte, error) {
	query := `SELECT payload FROM timer_states WHERE stage_id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, stageID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimerStateNotFound
		}
		return nil, fmt.Errorf("failed to load timer state for stage %d: %w", stageID, err)
	}
	return payload, nil
}

func (r *PostgresTimerStateRepository) Clear(ctx context.Context, stageID int) error {
	query := `DELETE FROM timer_states WHERE stage_id = $1`
	if _, err := r.db.ExecContext(ctx, query, stageID); err != nil {
		return fmt.Errorf("failed to clear timer state for stage %d: %w", stageID, err)
	}
	return nil
}
