package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/nodue/apps/api/echo"
	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/task"
	"github.com/trezcool/nodue/core/user"
	emailsvc "github.com/trezcool/nodue/services/email"
	logsvc "github.com/trezcool/nodue/services/logger"
	"github.com/trezcool/nodue/storage/database"
	pgrepos "github.com/trezcool/nodue/storage/database/pg"
)

func main() {
	conf := core.Conf

	// set up logger
	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := pgrepos.NewUserRepository(db)
	taskRepo := pgrepos.NewTaskRepository(db)
	stRepo := pgrepos.NewStudentTaskRepository(db)

	usrSvc := user.NewService(usrRepo)
	taskSvc := task.NewService(taskRepo, usrRepo, stRepo)
	assignmentSvc := assignment.NewService(stRepo, taskRepo, usrRepo, mailSvc)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:          conf.Server.Address(),
			Logger:        logger,
			UserSvc:       usrSvc,
			TaskSvc:       taskSvc,
			AssignmentSvc: assignmentSvc,
		},
	)
	app.Start()
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
