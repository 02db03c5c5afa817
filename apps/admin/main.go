package main

import (
	"log"
	"os"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
	emailsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/email"
	logsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/logger"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/storage/database"
	sqlxrepos "github.com/hazwanihanafi-commits/PPBMS-sub000/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}
	stuSvc := student.NewService(sqlxrepos.NewStudentRepository(db, appLogger), mailSvc, appLogger, conf)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf),
		stuSvc: stuSvc,
		assSvc: assessment.NewService(sqlxrepos.NewAssessmentRepository(db, appLogger), stuSvc, mailSvc, appLogger, conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
