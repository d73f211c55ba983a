package main

import (
	"database/sql"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/trezcool/graderly/core/user"
	"github.com/trezcool/graderly/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword     // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp   = errors.New("help provided")
	errNoSQL  = errors.New("migrate requires the postgres database engine")
	errNoPass = errors.New("password required")
)

type commandLine struct {
	db     *sql.DB // nil unless the postgres engine is configured
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                    - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser --name NAME --email EMAIL --role teacher|student  - create a user")
	fmt.Println("  resetpassword --email EMAIL                               - reset a user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		addUserCmd := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
		name := addUserCmd.StringP("name", "n", "", "The user's name.")
		email := addUserCmd.StringP("email", "e", "", "The user's email. The password will be prompted next.")
		role := addUserCmd.StringP("role", "r", user.RoleTeacher, "The user's role: teacher or student.")
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		return cli.addUser(*name, *email, *role, pwd)

	case "resetpassword":
		resetPasswordCmd := pflag.NewFlagSet("resetpassword", pflag.ContinueOnError)
		email := resetPasswordCmd.StringP("email", "e", "", "The user's email. The password will be prompted next.")
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(*email, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errNoPass
	}
	return string(pwd), nil
}
