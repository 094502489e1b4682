package task

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nodue/core/policy"
	"github.com/trezcool/nodue/core/user"
)

var ErrNotFound = errors.New("task not found")

// PartialAssignmentError reports a task-creation fan-out that did not reach
// every student. The task and the rows already created are kept; the caller
// decides whether to retry the missing assignments.
type PartialAssignmentError struct {
	TaskID   string
	Created  int
	Expected int
}

func (e *PartialAssignmentError) Error() string {
	return fmt.Sprintf("task %s assigned to %d of %d students", e.TaskID, e.Created, e.Expected)
}

type (
	Repository interface {
		CreateTask(ctx context.Context, tsk Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		QueryTasksByOwner(ctx context.Context, ownerID string) ([]Task, error)
	}

	// AssignmentWriter fans a new task out into one ledger row per student.
	// It returns the number of rows actually created; inserts are independent,
	// a failed one does not roll back the others.
	AssignmentWriter interface {
		CreateStudentTasks(ctx context.Context, taskID string, studentIDs []string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, caller policy.Caller, nt NewTask) (Task, error)
		QueryByOwner(ctx context.Context, caller policy.Caller) ([]Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		ledger  AssignmentWriter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, ledger AssignmentWriter) Service {
	return &service{repo: repo, usrRepo: usrRepo, ledger: ledger}
}

// Create registers the task and assigns it to every current student.
// A partial fan-out returns the created Task along with *PartialAssignmentError.
func (svc *service) Create(ctx context.Context, caller policy.Caller, nt NewTask) (Task, error) {
	if err := policy.Decide(caller, policy.ActionCreateTask, policy.Resource{}); err != nil {
		return Task{}, err
	}

	tsk := Task{
		Title:         nt.Title,
		Description:   nt.Description,
		OwnerID:       caller.ID,
		ProofRequired: nt.ProofRequired,
		CreatedAt:     time.Now().UTC(),
	}
	tsk, err := svc.repo.CreateTask(ctx, tsk)
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}

	students, err := svc.usrRepo.QueryStudents(ctx)
	if err != nil {
		// the task exists but no student was assigned
		return tsk, errors.Wrap(err, "querying students for fan-out")
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}

	created, err := svc.ledger.CreateStudentTasks(ctx, tsk.ID, ids)
	if err != nil || created < len(ids) {
		return tsk, &PartialAssignmentError{TaskID: tsk.ID, Created: created, Expected: len(ids)}
	}
	return tsk, nil
}

func (svc *service) QueryByOwner(ctx context.Context, caller policy.Caller) ([]Task, error) {
	if err := policy.Decide(caller, policy.ActionCreateTask, policy.Resource{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryTasksByOwner(ctx, caller.ID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}
