package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"

	"github.com/trezcool/nodue/core/user"
	inmemdb "github.com/trezcool/nodue/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.NewDB()
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("run() error = %v; wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("run() error = %v; wantErrStr %q", err, tt.wantErrStr)
				}
			default:
				if err != nil {
					t.Errorf("run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("LePassword"), nil }

	tests := []cliTest{
		{name: "no args", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: no flags", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser: missing email", args: []string{"adduser", "-username", "root"}, wantErr: errHelp},
		{name: "adduser", args: []string{"adduser", "-username", "root", "-email", "root@nodue.test"}},
		{name: "adduser: teacher", args: []string{"adduser", "-username", "prof", "-email", "prof@nodue.test", "-role", "teacher"}},
		{name: "adduser: student with batch", args: []string{"adduser", "-username", "alice", "-email", "alice@nodue.test", "-role", "student", "-batch", "2023"}},
		{name: "adduser: unknown role", args: []string{"adduser", "-username", "x1234", "-email", "x@nodue.test", "-role", "registrar"}, wantErrStr: `unknown role "registrar"`},
		{name: "adduser: batch on staff", args: []string{"adduser", "-username", "y1234", "-email", "y@nodue.test", "-role", "teacher", "-batch", "2023"}, wantErrStr: "batch only applies to students"},
		{name: "resetpassword: no flags", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword", args: []string{"resetpassword", "-username", "root"}},
		{name: "resetpassword: unknown user", args: []string{"resetpassword", "-username", "ghost"}, wantErr: user.ErrNotFound},
	}
	runCliTests(t, cli, tests)

	// the created admin can log in with the prompted password
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(context.Background(), "root")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail(): %v", err)
	}
	if usr.Role != user.RoleAdmin {
		t.Errorf("role = %q; want %q", usr.Role, user.RoleAdmin)
	}
	if err = usr.CheckPassword("LePassword"); err != nil {
		t.Errorf("CheckPassword(): %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a version", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a version"},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
	}
	runCliTests(t, cli, tests)
}
