package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, matric, pwd string, isAdmin, isSupervisor bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	matric = core.CleanString(matric, true /* lower */)

	roles := make([]string, 0, len(user.AllRoles))
	if isAdmin {
		roles = append(roles, user.AdminRoles...)
	}
	if isSupervisor {
		roles = append(roles, user.SupervisorRoles...)
	}
	if matric != "" {
		roles = append(roles, user.StudentRoles...)
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Matric:          matric,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
		return err
	}

	isActive := true
	_, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		IsActive:        &isActive,
		Roles:           roles,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
