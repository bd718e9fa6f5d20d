package main

import (
	"context"
	"fmt"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

// addUser updates or creates a user.User. The password has to satisfy the
// password policy either way.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()

	nu := user.NewUser{
		Name:            core.CleanString(name),
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if nu.Name == "" {
		nu.Name = core.CleanString(uname)
	}
	if isAdmin {
		nu.Roles = user.AllRoles
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	usr, err := cli.findUser(ctx, nu.Username, nu.Email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr, err = user.NewService(cli.usrRepo).Create(ctx, nu)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %q created\n", usr.ID)
		return nil
	}

	if nu.Roles != nil {
		usr.Roles = nu.Roles
	}
	usr.SetActive(true)
	if _, err := cli.savePassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q updated\n", usr.ID)
	return nil
}

func (cli *commandLine) findUser(ctx context.Context, unames ...string) (user.User, error) {
	for _, uname := range unames {
		if uname == "" {
			continue
		}
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname})
		if err != user.ErrNotFound {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
