// Package web serves the patientor pages: the patient list and the patient
// detail view with its entry form.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/apiclient"
	"github.com/ehr/patientor/internal/platform/middleware"
	"github.com/ehr/patientor/internal/platform/notification"
	"github.com/ehr/patientor/internal/platform/websocket"
	"github.com/ehr/patientor/internal/ui/entryform"
	"github.com/ehr/patientor/internal/ui/patientdetail"
	"github.com/ehr/patientor/internal/ui/session"
)

const bodyLimit = "1M"

// Server is the assembled HTTP application.
type Server struct {
	Echo     *echo.Echo
	Shell    *Shell
	Sessions *session.Store
	Hub      *websocket.Hub
}

// Options tweak the detail controllers, mostly for tests.
type Options struct {
	NotifierOptions []notification.Option
}

func NewServer(cfg *config.Config, client *apiclient.Client, logger zerolog.Logger, opts Options) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	patients := patient.NewService(patient.NewRepo(client))
	diagnoses := diagnosis.NewService(diagnosis.NewRepo(client))
	shell := NewShell(patients, diagnoses, client, logger)
	hub := websocket.NewHub(logger)

	detailCfg := patientdetail.Config{
		NotificationTTL: cfg.NotificationTTL,
		Form:            entryform.Options{ResetOnTypeChange: cfg.ResetOnTypeChange},
		NotifierOptions: opts.NotifierOptions,
	}
	sessions := session.NewStore(cfg.SessionIdleTTL, func(topicID string) *patientdetail.Controller {
		return patientdetail.New(patients, shell.Directory(), hub, topicID, logger, detailCfg)
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))

	e.StaticFS("/static", staticFiles())
	NewHandler(shell, patients, hub, cfg.PageSize, logger).RegisterRoutes(e, sessions.Middleware())
	websocket.NewHandler(hub).RegisterRoutes(e)

	return &Server{Echo: e, Shell: shell, Sessions: sessions, Hub: hub}, nil
}

type errorPage struct {
	Chrome  Chrome
	Status  int
	Message string
}

// ErrorHandler renders failures as the error page. JSON callers get the
// default echo response.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
			msg = http.StatusText(code)
		}

		req := c.Request()
		if req.Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if req.Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON {
			_ = c.JSON(code, map[string]string{"message": msg})
			return
		}

		rid, _ := c.Get("request_id").(string)
		page := errorPage{
			Chrome:  Chrome{Title: http.StatusText(code), RequestID: rid},
			Status:  code,
			Message: msg,
		}
		if rerr := c.Render(code, "error", page); rerr != nil {
			logger.Error().Err(rerr).Msg("failed to render error page")
			_ = c.String(code, msg)
		}
	}
}
