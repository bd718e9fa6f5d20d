package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	dialect  string
	usrRepo  user.Repository
	menuRepo menu.Repository
	validate *validator.Validate
	logger   core.Logger
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  seedmenus -file MENUS.yaml - create the menus listed in a YAML file")
	fmt.Fprintln(cli.out, "  navpreview [-role ROLE[,ROLE]] [-path PATH] [-file HIERARCHY.json] [-deep] [-collapsed] - print the sidebar")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name (defaults to the username).")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	seedMenusCmd := flag.NewFlagSet("seedmenus", flag.ContinueOnError)
	seedMenusFile := seedMenusCmd.String("file", "", "The YAML file listing the menus.")

	navPreviewCmd := flag.NewFlagSet("navpreview", flag.ContinueOnError)
	navPreviewRoles := navPreviewCmd.String("role", "", "Comma separated roles the menus are filtered for.")
	navPreviewPath := navPreviewCmd.String("path", "/", "The current location.")
	navPreviewFile := navPreviewCmd.String("file", "", "A raw /Menus/hierarchy payload to preview instead of the database menus.")
	navPreviewDeep := navPreviewCmd.Bool("deep", false, "Match the location against the whole subtree of a branch.")
	navPreviewCollapsed := navPreviewCmd.Bool("collapsed", false, "Preview the collapsed sidebar.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, seedMenusCmd, navPreviewCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seedmenus":
		if err := seedMenusCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedMenusFile == "" {
			seedMenusCmd.Usage()
			return errHelp
		}
		return cli.seedMenus(*seedMenusFile)
	case "navpreview":
		if err := navPreviewCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.navPreview(navPreviewOptions{
			roles:     splitRoles(*navPreviewRoles),
			path:      *navPreviewPath,
			file:      *navPreviewFile,
			deep:      *navPreviewDeep,
			collapsed: *navPreviewCollapsed,
		})
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func splitRoles(s string) []string {
	var roles []string
	for _, role := range strings.Split(s, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
