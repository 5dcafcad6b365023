package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"immitrack/internal/models"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrDuplicateID = errors.New("task id already exists")
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// TaskRepository is the persistence boundary: create, list, partial update.
type TaskRepository interface {
	AddTask(ctx context.Context, task models.NewTask) (*models.Task, error)
	GetTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
}

// Seeder inserts fixture tasks keeping their identifiers.
type Seeder interface {
	BulkInsert(ctx context.Context, tasks []models.Task) (int, error)
}

type taskRepository struct {
	db    *sql.DB
	newID func() string
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db, newID: uuid.NewString}
}

const taskColumns = `id, title, description, details, subtasks, deadline, is_date_tentative,
       priority, critical, shared, cost, ariane, pavel, expanded`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t        models.Task
		subtasks []byte
		deadline sql.NullTime
		priority string
	)
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Details, &subtasks, &deadline, &t.IsDateTentative,
		&priority, &t.Critical, &t.Shared, &t.Cost, &t.Ariane, &t.Pavel, &t.Expanded,
	); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	if deadline.Valid {
		t.Deadline = deadline.Time.Format(models.DateLayout)
	}
	t.Subtasks = []models.Subtask{}
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
			return nil, fmt.Errorf("decode subtasks of %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

// encodeSubtasks returns text, not []byte: lib/pq would send []byte as bytea.
func encodeSubtasks(subs []models.Subtask) (string, error) {
	if subs == nil {
		subs = []models.Subtask{}
	}
	b, err := json.Marshal(subs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableDate lets an empty deadline land as NULL instead of failing the cast.
func nullableDate(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func (r *taskRepository) AddTask(ctx context.Context, in models.NewTask) (*models.Task, error) {
	id := in.ID
	if id == "" {
		id = r.newID()
	}
	t := in.Task(id)
	subs, err := encodeSubtasks(t.Subtasks)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO tasks (
			id, title, description, details, subtasks, deadline, is_date_tentative,
			priority, critical, shared, cost, ariane, pavel, expanded, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING ` + taskColumns
	stored, err := scanTask(r.db.QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, t.Details, subs, nullableDate(t.Deadline), t.IsDateTentative,
		string(t.Priority), t.Critical, t.Shared, t.Cost, t.Ariane, t.Pavel, t.Expanded, time.Now().UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("add task %s: %w", t.ID, ErrDuplicateID)
		}
		return nil, fmt.Errorf("add task: %w", err)
	}
	return stored, nil
}

// isUniqueViolation recognises a duplicate key from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

func (r *taskRepository) GetTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("get tasks: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes only the columns present in the patch.
func (r *taskRepository) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	sets, args, err := patchAssignments(patch)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return r.findByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING `+taskColumns,
		strings.Join(sets, ", "), len(args))

	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return t, nil
}

func (r *taskRepository) findByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func patchAssignments(p models.TaskPatch) ([]string, []any, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Details != nil {
		add("details", *p.Details)
	}
	if p.Subtasks != nil {
		b, err := encodeSubtasks(*p.Subtasks)
		if err != nil {
			return nil, nil, err
		}
		add("subtasks", b)
	}
	if p.Deadline != nil {
		add("deadline", nullableDate(*p.Deadline))
	}
	if p.IsDateTentative != nil {
		add("is_date_tentative", *p.IsDateTentative)
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority))
	}
	if p.Critical != nil {
		add("critical", *p.Critical)
	}
	if p.Shared != nil {
		add("shared", *p.Shared)
	}
	if p.Cost != nil {
		add("cost", *p.Cost)
	}
	if p.Ariane != nil {
		add("ariane", *p.Ariane)
	}
	if p.Pavel != nil {
		add("pavel", *p.Pavel)
	}
	if p.Expanded != nil {
		add("expanded", *p.Expanded)
	}
	return sets, args, nil
}

func (r *taskRepository) BulkInsert(ctx context.Context, tasks []models.Task) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO tasks (
	id, title, description, details, subtasks, deadline, is_date_tentative,
	priority, critical, shared, cost, ariane, pavel, expanded, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO NOTHING`

	base := time.Now().UTC()
	inserted := 0
	for i, t := range tasks {
		subs, err := encodeSubtasks(t.Subtasks)
		if err != nil {
			return inserted, err
		}
		if t.Priority == "" {
			t.Priority = models.PriorityNormal
		}
		// keep fixture order stable under ORDER BY created_at
		createdAt := base.Add(time.Duration(i) * time.Millisecond)
		res, err := tx.ExecContext(ctx, q,
			t.ID, t.Title, t.Description, t.Details, subs, nullableDate(t.Deadline), t.IsDateTentative,
			string(t.Priority), t.Critical, t.Shared, t.Cost, t.Ariane, t.Pavel, t.Expanded, createdAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("seed task %s: %w", t.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}
