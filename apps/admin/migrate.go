package main

import "github.com/edumanage/edumanage/storage/database"

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db.DB, cli.dialect, args[0], args[1:]...)
}
