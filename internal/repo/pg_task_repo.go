package repo

import (
	"context"
	"errors"
	"time"

	dom "studytodo/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, course, type, due, done, created_at, updated_at`

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

// NewPGTaskRepo returns a new PGTaskRepo.
func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks ORDER BY done ASC, due ASC NULLS LAST, created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return dom.Task{}, ErrInvalidID
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return notFound(scanTask(r.db.QueryRow(ctx, query, uid)))
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (id, title, course, type, due, done)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRow(ctx, query,
		uuid.New(), t.Title, t.Course, string(t.Type), t.Due, t.Done,
	))
}

// Update applies only the provided fields in a single statement.
func (r *PGTaskRepo) Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return dom.Task{}, ErrInvalidID
	}
	var typ *string
	if patch.Type != nil {
		s := string(*patch.Type)
		typ = &s
	}
	query := `
		UPDATE tasks SET
			title      = COALESCE($2::text, title),
			course     = COALESCE($3::text, course),
			type       = COALESCE($4::text, type),
			done       = COALESCE($5::boolean, done),
			due        = CASE WHEN $6::boolean THEN $7::timestamptz ELSE due END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns
	return notFound(scanTask(r.db.QueryRow(ctx, query,
		uid, patch.Title, patch.Course, typ, patch.Done, patch.DueSet, patch.Due,
	)))
}

func (r *PGTaskRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) DeleteDone(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE done = TRUE`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var (
		t   dom.Task
		typ string
		due *time.Time
	)
	err := row.Scan(&t.ID, &t.Title, &t.Course, &typ, &due, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return dom.Task{}, err
	}
	t.Type = dom.TaskType(typ)
	t.Due = due
	return t, nil
}

func notFound(t dom.Task, err error) (dom.Task, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, ErrNotFound
	}
	return t, err
}
