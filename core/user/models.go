package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/nodue/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdvisor = "advisor"
	RoleAdmin   = "admin"
)

var (
	AllRoles   = []string{RoleStudent, RoleTeacher, RoleAdvisor, RoleAdmin}
	StaffRoles = []string{RoleTeacher, RoleAdvisor}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Advisor", Value: RoleAdvisor},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	// Batch is the cohort label used for aggregation; only meaningful for students.
	Batch        string    `json:"batch,omitempty"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsAdvisor() bool { return u.Role == RoleAdvisor }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }

// IsStaff reports whether the user may own tasks.
func (u *User) IsStaff() bool { return u.IsTeacher() || u.IsAdvisor() }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Batch           string `json:"batch" validate:"omitempty,max=50"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Batch = core.CleanString(nu.Batch)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	if nu.Role != RoleStudent && nu.Batch != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "batch", Error: errBatchStaffText})
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}
