package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nodue/core/task"
)

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

type taskRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Description   null.String `db:"description"`
	OwnerID       string      `db:"owner_id"`
	ProofRequired bool        `db:"proof_required"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r taskRow) unpack() task.Task {
	return task.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description.String,
		OwnerID:       r.OwnerID,
		ProofRequired: r.ProofRequired,
		CreatedAt:     r.CreatedAt,
	}
}

const taskColumns = `id, title, description, owner_id, proof_required, created_at`

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	tsk.ID = uuid.New().String()
	r := taskRow{
		ID:            tsk.ID,
		Title:         tsk.Title,
		Description:   null.NewString(tsk.Description, tsk.Description != ""),
		OwnerID:       tsk.OwnerID,
		ProofRequired: tsk.ProofRequired,
		CreatedAt:     tsk.CreatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO task (id, title, description, owner_id, proof_required, created_at)
		VALUES (:id, :title, :description, :owner_id, :proof_required, :created_at)`, r)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return tsk, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var r taskRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+taskColumns+` FROM task WHERE id = $1`, id)
	if err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "getting task by id")
	}
	return r.unpack(), nil
}

func (repo *taskRepository) QueryTasksByOwner(ctx context.Context, ownerID string) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+taskColumns+` FROM task WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks by owner")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.unpack())
	}
	return tasks, nil
}
