package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
	logsvc "github.com/edumanage/edumanage/services/logger"
	"github.com/edumanage/edumanage/storage/database"
	sqlxrepos "github.com/edumanage/edumanage/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(false)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	menu.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db,
		dialect:  "postgres",
		usrRepo:  sqlxrepos.NewUserRepository(db),
		menuRepo: sqlxrepos.NewMenuRepository(db),
		validate: validate,
		logger:   logger,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
