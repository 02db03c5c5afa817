package main

import (
	"context"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
