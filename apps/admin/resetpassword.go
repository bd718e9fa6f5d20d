package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

// resetPassword sets a new password on the user found by username or email.
// Deactivated accounts keep their status: reactivating is adduser's job.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	usr, err := cli.findUser(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if usr, err = cli.savePassword(ctx, usr, pwd); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "password of %q reset\n", usr.ID)
	if !usr.Active() {
		fmt.Fprintln(cli.out, "warning: the account is deactivated")
	}
	return nil
}

// savePassword hashes `pwd` onto `usr` and persists every pending change of `usr`.
func (cli *commandLine) savePassword(ctx context.Context, usr user.User, pwd string) (user.User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return cli.usrRepo.UpdateUser(ctx, usr)
}
