package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/task"
	"github.com/trezcool/nodue/core/user"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		UserSvc       user.Service
		TaskSvc       task.Service
		AssignmentSvc assignment.Service
		Logger        core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := ConfigureAuth(core.Conf)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerTaskAPI(v1, jwt, s.opts.TaskSvc)
	registerClearanceAPI(v1, jwt, s.opts.UserSvc, s.opts.AssignmentSvc)
	registerAdminAPI(v1, jwt, s.opts.UserSvc, s.opts.AssignmentSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- s.app.Start(s.opts.Addr) }()

	select {
	case err := <-serverErrors:
		s.app.Logger.Fatal(err)
	case <-s.shutdown:
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			_ = s.app.Close()
		}
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the NoDue Tracker API!")
}
