package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc user.Service
	stuSvc student.Service
	assSvc assessment.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                  - run database migrations (up, down, status, ...)")
	fmt.Println("  adduser -name NAME -username USERNAME -email EMAIL      - create or update a user account")
	fmt.Println("          [-matric MATRIC] [-admin] [-supervisor]           the password will be prompted")
	fmt.Println("  resetpassword -username USERNAME|EMAIL                  - reset user's password")
	fmt.Println("  rundelays                                               - run milestone delay detection and notify supervisors")
	fmt.Println("  runcqi                                                  - run CQI detection and send threshold alerts")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserMatric := addUserCmd.String("matric", "", "The student's matric number. Grants the student role.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant all admin roles.")
	addUserIsSupervisor := addUserCmd.Bool("supervisor", false, "Grant the supervisor role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserMatric, pwd, *addUserIsAdmin, *addUserIsSupervisor)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "rundelays":
		return cli.runDelays()
	case "runcqi":
		return cli.runCQI()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
