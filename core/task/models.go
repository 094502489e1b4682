package task

import (
	"time"

	"github.com/trezcool/nodue/core"
)

// Task is an obligation assigned to every student. Immutable after creation.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// OwnerID is the staff account that created the task; it scopes a
	// teacher's approval and view rights.
	OwnerID       string    `json:"owner_id"`
	ProofRequired bool      `json:"proof_required"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewTask contains information needed to create a Task.
type NewTask struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description"`
	ProofRequired bool   `json:"proof_required"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return core.Validate.Struct(nt)
}
