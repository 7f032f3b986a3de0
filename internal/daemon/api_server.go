package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/workflow"
)

const shutdownTimeout = 5 * time.Second

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	app    *fiber.App

	listener net.Listener
}

func newAPIServer(cfg config.API, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.app = newRouter(srv, cfg.Token)
	return srv
}

func newRouter(s *apiServer, token string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lectern",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(s.logRequest)

	group := app.Group("/api", authMiddleware(token))
	group.Get("/status", s.handleStatus)
	group.Post("/sessions", s.handleCreateSession)
	group.Get("/sessions", s.handleListSessions)
	group.Get("/sessions/:id/status", s.handleSessionStatus)
	group.Get("/sessions/:id/source", s.handleSessionSource)
	group.Get("/sessions/:id/outputs", s.handleSessionOutputs)
	return app
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api.bind is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.app.Listener(listener); err != nil {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.app.ShutdownWithTimeout(shutdownTimeout)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.listener == nil {
		return
	}
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Warn("api shutdown failed", logging.Error(err))
	}
	s.listener = nil
}

// Addr returns the listening address, or the configured bind before start.
func (s *apiServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) logRequest(c *fiber.Ctx) error {
	started := time.Now()
	err := c.Next()
	s.logger.Debug("api request",
		logging.String("method", c.Method()),
		logging.String("path", c.Path()),
		logging.Int("status", c.Response().StatusCode()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return err
}

func (s *apiServer) handleStatus(c *fiber.Ctx) error {
	status := s.daemon.Status(c.UserContext())
	counts, err := s.daemon.sessions.Counts(c.UserContext())
	if err != nil {
		return err
	}
	depsOut := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		depsOut[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return c.JSON(api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromWorkflowStatus(status.Workflow),
		Counts:       counts,
		Dependencies: depsOut,
	})
}

func (s *apiServer) handleCreateSession(c *fiber.Ctx) error {
	var req api.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	resp, err := s.daemon.sessions.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (s *apiServer) handleListSessions(c *fiber.Ctx) error {
	var statuses []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("status") {
		statuses = append(statuses, strings.Split(string(raw), ",")...)
	}
	items, err := s.daemon.sessions.List(c.UserContext(), statuses...)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(api.SessionListResponse{Items: items})
}

func (s *apiServer) handleSessionStatus(c *fiber.Ctx) error {
	view, err := s.daemon.sessions.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *apiServer) handleSessionSource(c *fiber.Ctx) error {
	view, err := s.daemon.sessions.Source(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *apiServer) handleSessionOutputs(c *fiber.Ctx) error {
	resp, err := s.daemon.sessions.Outputs(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *apiServer) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, api.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, workflow.ErrAlreadyRunning):
		code = fiber.StatusConflict
	default:
		s.logger.Error("api request failed",
			logging.String("path", c.Path()),
			logging.Error(err),
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
