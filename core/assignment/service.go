package assignment

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/policy"
	"github.com/trezcool/nodue/core/task"
	"github.com/trezcool/nodue/core/user"
)

var (
	ErrNotFound      = errors.New("student task not found")
	ErrProofRequired = errors.New("this task requires proof of completion")
	// ErrTaskClosed rejects any transition on an approved row; approval is terminal.
	ErrTaskClosed = errors.New("task already approved")
	// ErrRequestNotSent is only returned under the strict approval policy
	// (Config.Clearance.RequireRequestBeforeApproval).
	ErrRequestNotSent = errors.New("student has not requested completion yet")
)

type (
	Repository interface {
		// CreateStudentTasks inserts one row per student for the given task.
		// Inserts are independent; it returns how many actually succeeded.
		CreateStudentTasks(ctx context.Context, taskID string, studentIDs []string) (int, error)
		GetStudentTaskByID(ctx context.Context, id string) (StudentTask, error)
		QueryStudentTasksByStudent(ctx context.Context, studentID string) ([]StudentTask, error)
		// QueryStudentTasksByStudentAndOwner restricts the rows to tasks owned
		// by the given staff account (the teacher view scope).
		QueryStudentTasksByStudentAndOwner(ctx context.Context, studentID, ownerID string) ([]StudentTask, error)
		// QueryPendingByOwner returns requested-but-unapproved rows on the owner's tasks.
		QueryPendingByOwner(ctx context.Context, ownerID string) ([]StudentTask, error)
		QueryAllStudentTasks(ctx context.Context) ([]StudentTask, error)
		// SetRequestSent atomically marks the row requested and stores the
		// proof reference, guarded against rows already approved.
		SetRequestSent(ctx context.Context, id, proofImage string) (StudentTask, error)
		// SetCompleted atomically marks the row approved; idempotent.
		SetCompleted(ctx context.Context, id string) (StudentTask, error)
	}

	Service interface {
		RequestCompletion(ctx context.Context, caller policy.Caller, studentTaskID, proofImage string) (StudentTask, error)
		Approve(ctx context.Context, caller policy.Caller, studentTaskID string) (StudentTask, error)
		ListForStudent(ctx context.Context, caller policy.Caller, studentID string) ([]StudentTaskView, error)
		PendingForOwner(ctx context.Context, caller policy.Caller) ([]StudentTaskView, error)
		StatsForStudent(ctx context.Context, caller policy.Caller, studentID string) (StudentStats, error)
		BatchStats(ctx context.Context, caller policy.Caller) (BatchStats, error)
		AllCleared(ctx context.Context, studentID string) (bool, error)
	}

	service struct {
		repo     Repository
		taskRepo task.Repository
		usrRepo  user.Repository
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, taskRepo task.Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:     repo,
		taskRepo: taskRepo,
		usrRepo:  usrRepo,
		mailSvc:  mailSvc,
	}
}

// RequestCompletion transitions a row to REQUESTED on behalf of its student.
// Re-requesting while already REQUESTED is a no-op re-affirmation; requesting
// an APPROVED row fails with ErrTaskClosed.
func (svc *service) RequestCompletion(ctx context.Context, caller policy.Caller, studentTaskID, proofImage string) (StudentTask, error) {
	st, err := svc.repo.GetStudentTaskByID(ctx, studentTaskID)
	if err != nil {
		return StudentTask{}, err
	}
	if err = policy.Decide(caller, policy.ActionViewStudentTasks, policy.Resource{StudentID: st.StudentID}); err != nil {
		return StudentTask{}, err
	}
	if caller.ID != st.StudentID {
		// staff may see the row but only its student may request
		return StudentTask{}, policy.ErrForbidden
	}

	switch st.Status() {
	case StatusApproved:
		return StudentTask{}, ErrTaskClosed
	case StatusRequested:
		return st, nil
	}

	tsk, err := svc.taskRepo.GetTaskByID(ctx, st.TaskID)
	if err != nil {
		return StudentTask{}, errors.Wrap(err, "resolving parent task")
	}
	if tsk.ProofRequired && proofImage == "" {
		return StudentTask{}, ErrProofRequired
	}

	st, err = svc.repo.SetRequestSent(ctx, st.ID, proofImage)
	if err != nil {
		return StudentTask{}, err
	}

	svc.notifyOwner(ctx, tsk, st)
	return st, nil
}

// Approve transitions a row to APPROVED. Teachers may only approve rows on
// tasks they own; advisors are unrestricted. Approving an APPROVED row is a
// no-op. Approving a NOT_STARTED row succeeds unless the strict policy is on.
func (svc *service) Approve(ctx context.Context, caller policy.Caller, studentTaskID string) (StudentTask, error) {
	st, err := svc.repo.GetStudentTaskByID(ctx, studentTaskID)
	if err != nil {
		return StudentTask{}, err
	}
	tsk, err := svc.taskRepo.GetTaskByID(ctx, st.TaskID)
	if err != nil {
		return StudentTask{}, errors.Wrap(err, "resolving parent task")
	}
	if err = policy.Decide(caller, policy.ActionApproveStudentTask, policy.Resource{OwnerID: tsk.OwnerID}); err != nil {
		return StudentTask{}, err
	}

	if st.CompletedByTeacher {
		return st, nil
	}
	if core.Conf.Clearance.RequireRequestBeforeApproval && !st.RequestSent {
		return StudentTask{}, ErrRequestNotSent
	}

	st, err = svc.repo.SetCompleted(ctx, st.ID)
	if err != nil {
		return StudentTask{}, err
	}

	svc.notifyStudentIfCleared(ctx, st)
	return st, nil
}

func (svc *service) ListForStudent(ctx context.Context, caller policy.Caller, studentID string) ([]StudentTaskView, error) {
	if err := policy.Decide(caller, policy.ActionViewStudentTasks, policy.Resource{StudentID: studentID}); err != nil {
		return nil, err
	}
	if _, err := svc.usrRepo.GetUserByID(ctx, studentID); err != nil {
		return nil, err
	}

	var rows []StudentTask
	var err error
	if caller.Role == user.RoleTeacher {
		rows, err = svc.repo.QueryStudentTasksByStudentAndOwner(ctx, studentID, caller.ID)
	} else {
		rows, err = svc.repo.QueryStudentTasksByStudent(ctx, studentID)
	}
	if err != nil {
		return nil, err
	}
	return svc.withTasks(ctx, rows)
}

func (svc *service) PendingForOwner(ctx context.Context, caller policy.Caller) ([]StudentTaskView, error) {
	if err := policy.Decide(caller, policy.ActionCreateTask, policy.Resource{}); err != nil {
		return nil, err
	}
	rows, err := svc.repo.QueryPendingByOwner(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return svc.withTasks(ctx, rows)
}

func (svc *service) StatsForStudent(ctx context.Context, caller policy.Caller, studentID string) (StudentStats, error) {
	if err := policy.Decide(caller, policy.ActionViewStudentTasks, policy.Resource{StudentID: studentID}); err != nil {
		return StudentStats{}, err
	}
	return svc.statsForStudent(ctx, studentID)
}

// BatchStats groups student counts and ledger tallies by batch label.
// Rows whose student no longer resolves are skipped, not errored.
func (svc *service) BatchStats(ctx context.Context, caller policy.Caller) (BatchStats, error) {
	if err := policy.Decide(caller, policy.ActionViewBatchStats, policy.Resource{}); err != nil {
		return BatchStats{}, err
	}

	students, err := svc.usrRepo.QueryStudents(ctx)
	if err != nil {
		return BatchStats{}, errors.Wrap(err, "querying students")
	}
	rows, err := svc.repo.QueryAllStudentTasks(ctx)
	if err != nil {
		return BatchStats{}, errors.Wrap(err, "querying student tasks")
	}

	stats := BatchStats{
		StudentsByBatch:  make(map[string]BatchStudents),
		TaskStatsByBatch: make(map[string]BatchTasks),
	}

	batches := make(map[string]string, len(students)) // studentID -> batch label
	for _, s := range students {
		batch := svc.batchLabel(s.Batch)
		batches[s.ID] = batch
		bs := stats.StudentsByBatch[batch]
		bs.TotalStudents++
		stats.StudentsByBatch[batch] = bs
	}

	for _, st := range rows {
		batch, ok := batches[st.StudentID]
		if !ok { // orphaned row
			continue
		}
		bt := stats.TaskStatsByBatch[batch]
		bt.TotalTasks++
		if st.CompletedByTeacher {
			bt.Completed++
		} else {
			bt.Pending++
		}
		stats.TaskStatsByBatch[batch] = bt
	}
	return stats, nil
}

// AllCleared reports whether the student holds a no-due clearance: at least
// one assigned task and every one approved. A student with no tasks at all is
// not cleared.
func (svc *service) AllCleared(ctx context.Context, studentID string) (bool, error) {
	rows, err := svc.repo.QueryStudentTasksByStudent(ctx, studentID)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	for _, st := range rows {
		if !st.CompletedByTeacher {
			return false, nil
		}
	}
	return true, nil
}

func (svc *service) statsForStudent(ctx context.Context, studentID string) (StudentStats, error) {
	rows, err := svc.repo.QueryStudentTasksByStudent(ctx, studentID)
	if err != nil {
		return StudentStats{}, err
	}

	stats := StudentStats{Total: len(rows)}
	for _, st := range rows {
		switch st.Status() {
		case StatusApproved:
			stats.Completed++
		case StatusRequested:
			stats.Pending++
		default:
			stats.NotStarted++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = (stats.Completed*100 + stats.Total/2) / stats.Total
		stats.Cleared = stats.Completed == stats.Total
	}
	return stats, nil
}

func (svc *service) batchLabel(batch string) string {
	if batch == "" {
		return core.Conf.Clearance.DefaultBatch
	}
	return batch
}

func (svc *service) withTasks(ctx context.Context, rows []StudentTask) ([]StudentTaskView, error) {
	views := make([]StudentTaskView, 0, len(rows))
	cache := make(map[string]task.Task)
	for _, st := range rows {
		tsk, ok := cache[st.TaskID]
		if !ok {
			var err error
			if tsk, err = svc.taskRepo.GetTaskByID(ctx, st.TaskID); err != nil {
				return nil, errors.Wrap(err, "resolving parent task")
			}
			cache[st.TaskID] = tsk
		}
		views = append(views, StudentTaskView{StudentTask: st, Task: tsk})
	}
	return views, nil
}

// notifyOwner mails the task owner that a completion request arrived. Best
// effort; a mail failure never fails the transition.
func (svc *service) notifyOwner(ctx context.Context, tsk task.Task, st StudentTask) {
	owner, err := svc.usrRepo.GetUserByID(ctx, tsk.OwnerID)
	if err != nil {
		return
	}
	student, err := svc.usrRepo.GetUserByID(ctx, st.StudentID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject: fmt.Sprintf("Completion requested: %s", tsk.Title),
		BodyStr: fmt.Sprintf("%s has requested completion of %q. Review it on %s.",
			student.Name, tsk.Title, core.Conf.FrontendBaseURL),
	})
}

// notifyStudentIfCleared mails the student once their last task is approved.
func (svc *service) notifyStudentIfCleared(ctx context.Context, st StudentTask) {
	cleared, err := svc.AllCleared(ctx, st.StudentID)
	if err != nil || !cleared {
		return
	}
	student, err := svc.usrRepo.GetUserByID(ctx, st.StudentID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "No-due clearance complete",
		BodyStr: fmt.Sprintf("All your tasks have been approved. Your no-due certificate is available on %s.",
			core.Conf.FrontendBaseURL),
	})
}
