package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nodue/core/assignment"
)

type studentTaskRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*studentTaskRepository)(nil)

func NewStudentTaskRepository(db *sqlx.DB) *studentTaskRepository {
	return &studentTaskRepository{db: db}
}

type studentTaskRow struct {
	ID                 string      `db:"id"`
	StudentID          string      `db:"student_id"`
	TaskID             string      `db:"task_id"`
	RequestSent        bool        `db:"request_sent"`
	CompletedByTeacher bool        `db:"completed_by_teacher"`
	ProofImage         null.String `db:"proof_image"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func (r studentTaskRow) unpack() assignment.StudentTask {
	return assignment.StudentTask{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		TaskID:             r.TaskID,
		RequestSent:        r.RequestSent,
		CompletedByTeacher: r.CompletedByTeacher,
		ProofImage:         r.ProofImage.String,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func unpackStudentTasks(rows []studentTaskRow) []assignment.StudentTask {
	sts := make([]assignment.StudentTask, 0, len(rows))
	for _, r := range rows {
		sts = append(sts, r.unpack())
	}
	return sts
}

const studentTaskColumns = `id, student_id, task_id, request_sent, completed_by_teacher, proof_image, created_at, updated_at`

// CreateStudentTasks runs the fan-out as independent inserts so one failure
// does not void the rest; the caller compares the returned count against the
// roster size to detect a partial assignment.
func (repo *studentTaskRepository) CreateStudentTasks(ctx context.Context, taskID string, studentIDs []string) (int, error) {
	now := time.Now().UTC()
	created := 0
	var firstErr error
	for _, sid := range studentIDs {
		_, err := repo.db.ExecContext(ctx, `
			INSERT INTO student_task (id, student_id, task_id, request_sent, completed_by_teacher, created_at, updated_at)
			VALUES ($1, $2, $3, false, false, $4, $4)
			ON CONFLICT (student_id, task_id) DO NOTHING`,
			uuid.New().String(), sid, taskID, now)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		created++
	}
	return created, errors.Wrap(firstErr, "fanning out student tasks")
}

func (repo *studentTaskRepository) GetStudentTaskByID(ctx context.Context, id string) (assignment.StudentTask, error) {
	var r studentTaskRow
	err := repo.db.GetContext(ctx, &r, `SELECT `+studentTaskColumns+` FROM student_task WHERE id = $1`, id)
	if err != nil {
		return assignment.StudentTask{}, trapNoRowsErr(err, assignment.ErrNotFound, "getting student task by id")
	}
	return r.unpack(), nil
}

func (repo *studentTaskRepository) QueryStudentTasksByStudent(ctx context.Context, studentID string) ([]assignment.StudentTask, error) {
	var rows []studentTaskRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+studentTaskColumns+` FROM student_task WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student tasks")
	}
	return unpackStudentTasks(rows), nil
}

func (repo *studentTaskRepository) QueryStudentTasksByStudentAndOwner(ctx context.Context, studentID, ownerID string) ([]assignment.StudentTask, error) {
	var rows []studentTaskRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT st.id, st.student_id, st.task_id, st.request_sent, st.completed_by_teacher, st.proof_image, st.created_at, st.updated_at
		FROM student_task st
		JOIN task t ON t.id = st.task_id
		WHERE st.student_id = $1 AND t.owner_id = $2
		ORDER BY st.created_at DESC`, studentID, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student tasks by owner")
	}
	return unpackStudentTasks(rows), nil
}

func (repo *studentTaskRepository) QueryPendingByOwner(ctx context.Context, ownerID string) ([]assignment.StudentTask, error) {
	var rows []studentTaskRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT st.id, st.student_id, st.task_id, st.request_sent, st.completed_by_teacher, st.proof_image, st.created_at, st.updated_at
		FROM student_task st
		JOIN task t ON t.id = st.task_id
		WHERE t.owner_id = $1 AND st.request_sent AND NOT st.completed_by_teacher
		ORDER BY st.updated_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending student tasks")
	}
	return unpackStudentTasks(rows), nil
}

func (repo *studentTaskRepository) QueryAllStudentTasks(ctx context.Context) ([]assignment.StudentTask, error) {
	var rows []studentTaskRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT `+studentTaskColumns+` FROM student_task`)
	if err != nil {
		return nil, errors.Wrap(err, "querying all student tasks")
	}
	return unpackStudentTasks(rows), nil
}

// SetRequestSent is a conditional single-row update: the guard on
// completed_by_teacher makes a request racing an approval lose cleanly.
func (repo *studentTaskRepository) SetRequestSent(ctx context.Context, id, proofImage string) (assignment.StudentTask, error) {
	var r studentTaskRow
	err := repo.db.GetContext(ctx, &r, `
		UPDATE student_task
		SET request_sent = true,
		    proof_image = COALESCE(NULLIF($2, ''), proof_image),
		    updated_at = $3
		WHERE id = $1 AND NOT completed_by_teacher
		RETURNING `+studentTaskColumns,
		id, proofImage, time.Now().UTC())
	if err == nil {
		return r.unpack(), nil
	}

	// no row updated: closed or missing
	if _, getErr := repo.GetStudentTaskByID(ctx, id); getErr == nil {
		return assignment.StudentTask{}, assignment.ErrTaskClosed
	}
	return assignment.StudentTask{}, trapNoRowsErr(err, assignment.ErrNotFound, "marking request sent")
}

func (repo *studentTaskRepository) SetCompleted(ctx context.Context, id string) (assignment.StudentTask, error) {
	var r studentTaskRow
	err := repo.db.GetContext(ctx, &r, `
		UPDATE student_task
		SET completed_by_teacher = true, updated_at = $2
		WHERE id = $1
		RETURNING `+studentTaskColumns,
		id, time.Now().UTC())
	if err != nil {
		return assignment.StudentTask{}, trapNoRowsErr(err, assignment.ErrNotFound, "marking completed")
	}
	return r.unpack(), nil
}
