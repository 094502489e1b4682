package assignment

import (
	"time"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/task"
)

// Status is the derived state of a StudentTask row.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRequested  Status = "requested"
	StatusApproved   Status = "approved" // terminal
)

// StudentTask is one student's standing on one task. Exactly one row exists
// per (student, task) pair, created when the task fans out. Only this package
// mutates RequestSent, CompletedByTeacher and ProofImage.
type StudentTask struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	TaskID      string `json:"task_id"`
	RequestSent bool   `json:"request_sent"`
	// CompletedByTeacher marks staff approval; once set the row is terminal.
	CompletedByTeacher bool `json:"completed_by_teacher"`
	// ProofImage is an opaque reference to the uploaded proof; the core never
	// inspects it.
	ProofImage string    `json:"proof_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (st StudentTask) Status() Status {
	switch {
	case st.CompletedByTeacher:
		return StatusApproved
	case st.RequestSent:
		return StatusRequested
	}
	return StatusNotStarted
}

// StudentTaskView joins a ledger row with its parent task for read endpoints.
type StudentTaskView struct {
	StudentTask
	Task task.Task `json:"task"`
}

// CompletionRequest is the student's payload when requesting completion.
type CompletionRequest struct {
	ProofImage string `json:"proof_image" validate:"omitempty,max=1000000"`
}

func (cr *CompletionRequest) Validate() error {
	cr.ProofImage = core.CleanString(cr.ProofImage)
	return core.Validate.Struct(cr)
}

// StudentStats summarizes one student's completion standing.
type StudentStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	NotStarted int `json:"not_started"`
	// CompletionRate is Completed/Total as a rounded percentage; 0 when the
	// student has no assigned tasks.
	CompletionRate int `json:"completion_rate"`
	// Cleared is true only when at least one task exists and all are approved.
	Cleared bool `json:"cleared"`
}

type (
	// BatchStudents counts the students registered under a batch label.
	BatchStudents struct {
		TotalStudents int `json:"total_students"`
	}

	// BatchTasks tallies ledger rows under the batch of their student.
	BatchTasks struct {
		TotalTasks int `json:"total_tasks"`
		Completed  int `json:"completed"`
		Pending    int `json:"pending"`
	}

	// BatchStats is the admin-facing batch-wise no-due summary. Student counts
	// and task tallies are grouped independently, so a batch may appear in one
	// map and not the other.
	BatchStats struct {
		StudentsByBatch  map[string]BatchStudents `json:"students_by_batch"`
		TaskStatsByBatch map[string]BatchTasks    `json:"task_stats_by_batch"`
	}
)
