package main

import (
	"context"

	"github.com/trezcool/graderly/core/user"
)

func (cli *commandLine) addUser(name, email, role, pwd string) error {
	if name == "" {
		name = email
	}
	_, err := cli.usrSvc.Register(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	return err
}
