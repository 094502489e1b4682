package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd, role, batch string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	var known bool
	for _, r := range user.AllRoles {
		if r == role {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown role %q", role)
	}
	if batch != "" && role != user.RoleStudent {
		return fmt.Errorf("batch only applies to students")
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	usr.Role = role
	usr.Batch = batch
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
