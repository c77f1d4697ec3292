package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/repository"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
	"github.com/joseph-ayodele/invoice-collator/internal/web"
)

const (
	sessionCookie = "invoice_session"
	ctxController = "controller"
)

// Server is the browser UI over the session controllers.
type Server struct {
	cfg      common.ServerConfig
	sessions *session.Manager
	journal  repository.RunJournal
	db       *sql.DB
	logger   *slog.Logger
	echo     *echo.Echo
}

// New wires routes and middleware. journal and db may be nil.
func New(cfg common.ServerConfig, sessions *session.Manager, journal repository.RunJournal, db *sql.DB, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{cfg: cfg, sessions: sessions, journal: journal, db: db, logger: logger, echo: e}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http.request",
				"req_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", s.handleHealth)

	ui := e.Group("", s.withSession)
	ui.GET("/", s.handleIndex)
	ui.POST("/upload", s.handleUploadForm)
	ui.POST("/reset", s.handleResetForm)
	ui.GET("/download", s.handleDownload)

	api := e.Group("/api", s.withSession)
	api.GET("/state", s.handleState)
	api.POST("/upload", s.handleUploadAPI)
	api.POST("/reset", s.handleResetAPI)
	api.GET("/runs", s.handleRuns)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http serving", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight runs.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// withSession attaches the caller's controller, creating a session on first visit.
func (s *Server) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id string
		if ck, err := c.Cookie(sessionCookie); err == nil {
			id = ck.Value
		}
		ctrl, _ := s.sessions.GetOrCreate(id)
		if ctrl.ID() != id {
			c.SetCookie(&http.Cookie{
				Name:     sessionCookie,
				Value:    ctrl.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((s.ttl() + time.Minute).Seconds()),
			})
		}
		c.Set(ctxController, ctrl)

		req := c.Request()
		ctx := common.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		ctx = common.WithSessionID(ctx, ctrl.ID())
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (s *Server) ttl() time.Duration {
	if s.cfg.SessionTTL > 0 {
		return s.cfg.SessionTTL
	}
	return session.DefaultTTL
}

func controllerFrom(c echo.Context) *session.Controller {
	ctrl, _ := c.Get(ctxController).(*session.Controller)
	return ctrl
}
