package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/user"
	inmemdb "github.com/trezcool/nodue/storage/database/inmem"
)

func newSvc() user.Service {
	return user.NewService(inmemdb.NewUserRepository(inmemdb.NewDB()))
}

func TestNewUser_Validate(t *testing.T) {
	svc := newSvc()

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{
			name: "valid student",
			nu: user.NewUser{
				Name: "Alice W", Username: "alice", Email: "alice@nodue.test",
				Role: user.RoleStudent, Batch: "2023",
				Password: "LePassword", PasswordConfirm: "LePassword",
			},
		},
		{
			name: "valid teacher without batch",
			nu: user.NewUser{
				Name: "Prof X", Username: "profx", Email: "profx@nodue.test",
				Role:     user.RoleTeacher,
				Password: "LePassword", PasswordConfirm: "LePassword",
			},
		},
		{
			name: "batch rejected on staff",
			nu: user.NewUser{
				Name: "Prof X", Username: "profx", Email: "profx@nodue.test",
				Role: user.RoleTeacher, Batch: "2023",
				Password: "LePassword", PasswordConfirm: "LePassword",
			},
			wantErr: true,
		},
		{
			name: "unknown role",
			nu: user.NewUser{
				Name: "Bob", Username: "bobby", Email: "bob@nodue.test",
				Role:     "registrar",
				Password: "LePassword", PasswordConfirm: "LePassword",
			},
			wantErr: true,
		},
		{
			name: "password mismatch",
			nu: user.NewUser{
				Name: "Bob", Username: "bobby", Email: "bob@nodue.test",
				Role:     user.RoleStudent,
				Password: "LePassword", PasswordConfirm: "lepassword",
			},
			wantErr: true,
		},
		{
			name: "short username",
			nu: user.NewUser{
				Name: "Bob", Username: "bob", Email: "bob@nodue.test",
				Role:     user.RoleStudent,
				Password: "LePassword", PasswordConfirm: "LePassword",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUser_Validate_cleansInput(t *testing.T) {
	svc := newSvc()

	nu := user.NewUser{
		Name: "  Alice W  ", Username: "  ALICE  ", Email: " Alice@NoDue.Test ",
		Role: "  STUDENT ", Batch: " 2023 ",
		Password: "LePassword", PasswordConfirm: "LePassword",
	}
	assert.NoError(t, nu.Validate(svc))
	assert.Equal(t, "Alice W", nu.Name)
	assert.Equal(t, "alice", nu.Username)
	assert.Equal(t, "alice@nodue.test", nu.Email)
	assert.Equal(t, user.RoleStudent, nu.Role)
	assert.Equal(t, "2023", nu.Batch)
}

func TestUser_passwords(t *testing.T) {
	var usr user.User
	assert.NoError(t, usr.SetPassword("LePassword"))
	assert.NoError(t, usr.CheckPassword("LePassword"))
	assert.Error(t, usr.CheckPassword("lepassword"))
}

func TestService_Register_uniqueness(t *testing.T) {
	svc := newSvc()

	nu := user.NewUser{
		Name: "Alice W", Username: "alice", Email: "alice@nodue.test",
		Role: user.RoleStudent, Batch: "2023",
		Password: "LePassword", PasswordConfirm: "LePassword",
	}
	assert.NoError(t, nu.Validate(svc))
	_, err := svc.Register(context.Background(), nu)
	assert.NoError(t, err)

	err = nu.Validate(svc)
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "want *core.ValidationError; got %v", err) {
		assert.Equal(t, "username", vErr.Fields[0].Field)
	}
}
