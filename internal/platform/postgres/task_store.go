package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/platform/logger"
	"github.com/naskhq/nask/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
// Put and reads run on the injected handle; Update runs a transaction with
// a row lock so concurrent read-modify-write cycles on the same id
// serialize instead of interleaving.
type PostgresTaskStore struct {
	db *sql.DB
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Put persists a task snapshot. An existing row for the same id is
// replaced, mirroring the in-memory store's upsert semantics.
func (s *PostgresTaskStore) Put(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", store.ErrUpdateFailed)
	}
	log := logger.FromContextOrDefault(ctx, nil)

	query := `
		INSERT INTO tasks (id, type, payload_input, status, result, notify_url,
		                   queue_position, percent_done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			queue_position = EXCLUDED.queue_position,
			percent_done = EXCLUDED.percent_done,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		string(task.ID),
		string(task.Type),
		task.Payload.Input,
		string(task.Status),
		nullableResult(task.Result),
		task.NotifyURL,
		task.QueuePosition,
		task.PercentDone,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"task_type", task.Type,
			"error", err)
		return MapError(err)
	}

	return nil
}

// Get returns the snapshot for id, or store.ErrTaskNotFound.
func (s *PostgresTaskStore) Get(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx, selectTaskQuery+` WHERE id = $1`, string(id)))
}

// List returns all snapshots in insertion order.
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectTaskQuery+` ORDER BY seq`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// Update applies mutate to the stored task inside a transaction holding a
// row lock on the task. The row is only rewritten if the mutator succeeds,
// so a failed update leaves the previous state intact.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id domain.TaskID,
	mutate store.Mutator,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, nil)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := scanTask(tx.QueryRowContext(ctx,
		selectTaskQuery+` WHERE id = $1 FOR UPDATE`, string(id)))
	if err != nil {
		return nil, err
	}

	if err := mutate(task); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}

	query := `
		UPDATE tasks
		SET status = $1, result = $2, queue_position = $3, percent_done = $4,
		    updated_at = $5
		WHERE id = $6
	`
	if _, err := tx.ExecContext(ctx, query,
		string(task.Status),
		nullableResult(task.Result),
		task.QueuePosition,
		task.PercentDone,
		task.UpdatedAt,
		string(id),
	); err != nil {
		log.Error("failed to persist task update",
			"task_id", id,
			"error", err)
		return nil, MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task update: %w", err)
	}
	return task, nil
}

const selectTaskQuery = `
	SELECT id, type, payload_input, status, result, notify_url,
	       queue_position, percent_done, created_at, updated_at
	FROM tasks
`

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task   domain.Task
		id     string
		typ    string
		status string
		result sql.NullString
	)
	err := row.Scan(
		&id,
		&typ,
		&task.Payload.Input,
		&status,
		&result,
		&task.NotifyURL,
		&task.QueuePosition,
		&task.PercentDone,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}

	task.ID = domain.TaskID(id)
	task.Type = domain.TaskType(typ)
	task.Status = domain.TaskStatus(status)
	if result.Valid {
		task.Result = []byte(result.String)
	}
	return &task, nil
}

func nullableResult(result []byte) any {
	if len(result) == 0 {
		return nil
	}
	return string(result)
}
