// Package policy centralizes every authorization decision of the clearance
// workflow in a single table so that it can be tested independently of the
// HTTP layer and of the services enforcing it.
package policy

import "github.com/pkg/errors"

var ErrForbidden = errors.New("permission denied")

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionCreateTask         Action = "task:create"
	ActionApproveStudentTask Action = "student_task:approve"
	ActionViewStudentTasks   Action = "student_task:view"
	ActionViewBatchStats     Action = "stats:view_batches"
)

type (
	// Caller is the authenticated identity attempting an Action.
	Caller struct {
		ID   string
		Role string
	}

	// Resource carries the ownership attributes a decision may depend on.
	// OwnerID is the staff account owning the parent Task; StudentID is the
	// student a StudentTask row (or view) belongs to. Either may be empty when
	// the action does not target a specific resource.
	Resource struct {
		OwnerID   string
		StudentID string
	}
)

// roles duplicated from core/user to keep this package free of entity imports.
const (
	roleStudent = "student"
	roleTeacher = "teacher"
	roleAdvisor = "advisor"
	roleAdmin   = "admin"
)

// Decide returns nil when the caller may perform the action on the resource,
// ErrForbidden otherwise.
//
//	          create Task  approve        view rows of student X   batch stats
//	student   deny         deny           only X == caller         deny
//	teacher   allow        only own task  allow (query is scoped)  deny
//	advisor   allow        allow          allow                    deny
//	admin     deny         deny           deny                     allow
func Decide(caller Caller, action Action, res Resource) error {
	switch action {
	case ActionCreateTask:
		if caller.Role == roleTeacher || caller.Role == roleAdvisor {
			return nil
		}

	case ActionApproveStudentTask:
		switch caller.Role {
		case roleAdvisor:
			return nil
		case roleTeacher:
			if res.OwnerID == caller.ID {
				return nil
			}
		}

	case ActionViewStudentTasks:
		switch caller.Role {
		case roleStudent:
			if res.StudentID == caller.ID {
				return nil
			}
		case roleTeacher, roleAdvisor:
			// a teacher's results are additionally scoped to their own tasks
			// by the repository query; the advisor's are not.
			return nil
		}

	case ActionViewBatchStats:
		if caller.Role == roleAdmin {
			return nil
		}
	}
	return ErrForbidden
}

// Allowed is a convenience wrapper over Decide.
func Allowed(caller Caller, action Action, res Resource) bool {
	return Decide(caller, action, res) == nil
}
