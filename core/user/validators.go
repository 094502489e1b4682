package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nodue/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	errBatchStaffText = "batch only applies to students"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)
}

// roleValidation only allows known roles.
func roleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if role == val {
			return true
		}
	}
	return false
}
