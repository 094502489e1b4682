package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/nodue/core/assignment"
)

type studentTaskRepository struct {
	db *DB
}

var _ assignment.Repository = (*studentTaskRepository)(nil)

func NewStudentTaskRepository(db *DB) *studentTaskRepository {
	return &studentTaskRepository{db: db}
}

func (repo *studentTaskRepository) query(match func(assignment.StudentTask) bool) []assignment.StudentTask {
	rows := make([]assignment.StudentTask, 0)
	for _, st := range repo.db.studentTasks {
		if match(*st) {
			rows = append(rows, *st)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows
}

func (repo *studentTaskRepository) CreateStudentTasks(_ context.Context, taskID string, studentIDs []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	created := 0
	for _, sid := range studentIDs {
		st := assignment.StudentTask{
			ID:        uuid.New().String(),
			StudentID: sid,
			TaskID:    taskID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		repo.db.studentTasks[st.ID] = &st
		created++
	}
	return created, nil
}

func (repo *studentTaskRepository) GetStudentTaskByID(_ context.Context, id string) (assignment.StudentTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.studentTasks[id]; ok {
		return *st, nil
	}
	return assignment.StudentTask{}, assignment.ErrNotFound
}

func (repo *studentTaskRepository) QueryStudentTasksByStudent(_ context.Context, studentID string) ([]assignment.StudentTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(st assignment.StudentTask) bool { return st.StudentID == studentID }), nil
}

func (repo *studentTaskRepository) QueryStudentTasksByStudentAndOwner(_ context.Context, studentID, ownerID string) ([]assignment.StudentTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(st assignment.StudentTask) bool {
		if st.StudentID != studentID {
			return false
		}
		tsk, ok := repo.db.tasks[st.TaskID]
		return ok && tsk.OwnerID == ownerID
	}), nil
}

func (repo *studentTaskRepository) QueryPendingByOwner(_ context.Context, ownerID string) ([]assignment.StudentTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(st assignment.StudentTask) bool {
		if !st.RequestSent || st.CompletedByTeacher {
			return false
		}
		tsk, ok := repo.db.tasks[st.TaskID]
		return ok && tsk.OwnerID == ownerID
	}), nil
}

func (repo *studentTaskRepository) QueryAllStudentTasks(_ context.Context) ([]assignment.StudentTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(assignment.StudentTask) bool { return true }), nil
}

func (repo *studentTaskRepository) SetRequestSent(_ context.Context, id, proofImage string) (assignment.StudentTask, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.studentTasks[id]
	if !ok {
		return assignment.StudentTask{}, assignment.ErrNotFound
	}
	if st.CompletedByTeacher {
		return assignment.StudentTask{}, assignment.ErrTaskClosed
	}
	st.RequestSent = true
	if proofImage != "" {
		st.ProofImage = proofImage
	}
	st.UpdatedAt = time.Now().UTC()
	return *st, nil
}

func (repo *studentTaskRepository) SetCompleted(_ context.Context, id string) (assignment.StudentTask, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.studentTasks[id]
	if !ok {
		return assignment.StudentTask{}, assignment.ErrNotFound
	}
	st.CompletedByTeacher = true
	st.UpdatedAt = time.Now().UTC()
	return *st, nil
}
