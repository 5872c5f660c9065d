package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"thirdcoast.systems/lessonstream/cmd/web/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/admin"
	authhandlers "thirdcoast.systems/lessonstream/cmd/web/handlers/auth"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/common"

	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/chapter_api"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/course_api"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/fileserver"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/progress_api"
	"thirdcoast.systems/lessonstream/cmd/web/handlers/api/video_api"

	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/chapter"
	"thirdcoast.systems/lessonstream/internal/course"
	"thirdcoast.systems/lessonstream/internal/metrics"
	"thirdcoast.systems/lessonstream/internal/progress"
	"thirdcoast.systems/lessonstream/internal/user"
	"thirdcoast.systems/lessonstream/internal/video"
)

const (
	defaultBodyLimit = "2M"
	uploadRoute      = "/api/videos"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Sessions       *auth.SessionManager
	Users          *user.Service
	Courses        course.Store
	Pipeline       *video.Pipeline
	Catalog        *video.Catalog
	Progress       *progress.Engine
	Chapters       *chapter.Service
	MaxUploadBytes int64
	// Ping reports database health for /healthz. Nil skips the check.
	Ping func(ctx context.Context) error
}

type Webserver struct {
	*echo.Echo
	sessionManager *auth.SessionManager
	users          *user.Service
	courses        course.Store
	pipeline       *video.Pipeline
	catalog        *video.Catalog
	engine         *progress.Engine
	chapters       *chapter.Service
	fileServer     *fileserver.FileServer
	maxUploadBytes int64
	ping           func(ctx context.Context) error
}

func NewWebserver(deps Deps) (*Webserver, error) {
	if deps.Sessions == nil || deps.Users == nil || deps.Courses == nil ||
		deps.Pipeline == nil || deps.Catalog == nil || deps.Progress == nil || deps.Chapters == nil {
		return nil, errors.New("webserver: missing dependency")
	}

	webserver := &Webserver{
		Echo:           echo.New(),
		sessionManager: deps.Sessions,
		users:          deps.Users,
		courses:        deps.Courses,
		pipeline:       deps.Pipeline,
		catalog:        deps.Catalog,
		engine:         deps.Progress,
		chapters:       deps.Chapters,
		fileServer:     fileserver.NewFileServer(),
		maxUploadBytes: deps.MaxUploadBytes,
		ping:           deps.Ping,
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}
	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.HTTPErrorHandler = s.errorHandler

	// Uploads get their own, larger limit on the route itself.
	s.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodPost && c.Path() == uploadRoute
		},
		Limit: defaultBodyLimit,
	}))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// segments and thumbnails are already compressed, and Range
			// responses must not be re-encoded
			switch c.Path() {
			case "/api/videos/:id/segment/:segmentName", "/api/videos/:id/thumbnail":
				return true
			default:
				return false
			}
		},
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics", "/api/videos/:id/segment/:segmentName":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))
	s.Use(s.loadSession)

	return nil
}

// loadSession resolves the session cookie against the user store. Sessions
// for deleted or disabled accounts are cleared, and a role changed since
// login is written back to the cookie.
func (s *Webserver) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _, err := s.sessionManager.GetSession(c.Request())
		if err != nil {
			return next(c)
		}

		u, err := s.users.Get(c.Request().Context(), userID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			slog.Info("session for unknown user cleared", "user_id", userID)
			s.sessionManager.ClearSession(c.Response().Writer, c.Request())
			return next(c)
		case err != nil:
			return common.Error(c, err)
		case !u.Enabled:
			slog.Info("disabled user session cleared", "user_id", userID)
			s.sessionManager.ClearSession(c.Response().Writer, c.Request())
			return next(c)
		}

		if role, _ := s.sessionManager.GetRole(c.Request()); role != u.Role {
			if err := s.sessionManager.SaveSession(c.Response().Writer, c.Request(), u); err != nil {
				slog.Warn("failed to refresh session role", "user_id", userID, "error", err)
			}
		}

		common.SetCurrentUser(c, u)
		return next(c)
	}
}

func (s *Webserver) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if common.CurrentUser(c) == nil {
			return common.ErrUnauthorized()
		}
		return next(c)
	}
}

// requireManager admits instructors and admins.
func (s *Webserver) requireManager(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := common.CurrentUser(c)
		if u == nil {
			return common.ErrUnauthorized()
		}
		if !u.Role.CanManageContent() {
			return common.ErrForbidden()
		}
		return next(c)
	}
}

func (s *Webserver) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := common.CurrentUser(c)
		if u == nil {
			return common.ErrUnauthorized()
		}
		if u.Role != user.RoleAdmin {
			return common.ErrForbidden()
		}
		return next(c)
	}
}

// errorHandler answers API errors as {"message": ...} JSON.
func (s *Webserver) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = common.Error(c, err)
	}
	msg := he.Message
	if m, ok := msg.(string); ok {
		msg = map[string]string{"message": m}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, msg)
	}
	if err != nil {
		slog.Warn("failed to write error response", "error", err)
	}
}

func (s *Webserver) registerRoutes() error {
	uploadLimit := middleware.BodyLimit(strconv.FormatInt(s.maxUploadBytes, 10))
	if s.maxUploadBytes <= 0 {
		uploadLimit = middleware.BodyLimit(defaultBodyLimit)
	}

	apiGroup := s.Group("/api")

	apiGroup.POST("/auth/register", authhandlers.HandleRegister(s.sessionManager, s.users))
	apiGroup.POST("/auth/login", authhandlers.HandleLogin(s.sessionManager, s.users))
	apiGroup.POST("/auth/logout", authhandlers.HandleLogout(s.sessionManager))
	apiGroup.GET("/auth/me", authhandlers.HandleMe(), s.requireUser)

	apiGroup.GET("/courses", course_api.HandleIndex(s.courses))
	apiGroup.POST("/courses", course_api.HandleCreate(s.courses), s.requireManager)
	apiGroup.GET("/courses/:id", course_api.HandleGet(s.courses, s.catalog, s.engine))

	apiGroup.POST("/videos", video_api.HandleUpload(s.pipeline), s.requireManager, uploadLimit)
	apiGroup.GET("/videos", video_api.HandleIndex(s.catalog))
	apiGroup.GET("/videos/transcodes", video_api.HandleTranscodes(s.pipeline), s.requireManager)
	apiGroup.GET("/videos/course/:courseId", video_api.HandleByCourse(s.catalog, s.courses))
	apiGroup.GET("/videos/:id", video_api.HandleGet(s.catalog))
	apiGroup.PUT("/videos/:id", video_api.HandleUpdate(s.catalog), s.requireManager)
	apiGroup.DELETE("/videos/:id", video_api.HandleDelete(s.catalog), s.requireManager)
	apiGroup.GET("/videos/:id/stream", video_api.HandleStream(s.catalog, s.fileServer))
	apiGroup.GET("/videos/:id/segment/:segmentName", video_api.HandleSegment(s.catalog, s.fileServer))
	apiGroup.GET("/videos/:id/thumbnail", video_api.HandleThumbnail(s.catalog, s.fileServer))
	apiGroup.POST("/videos/:id/cancel", video_api.HandleCancel(s.pipeline), s.requireManager)

	progressGroup := apiGroup.Group("/video-progress", s.requireUser)
	progressGroup.GET("", progress_api.HandleIndex(s.engine))
	progressGroup.GET("/:videoId", progress_api.HandleGet(s.engine))
	progressGroup.PUT("/:videoId", progress_api.HandleUpdate(s.engine))
	progressGroup.POST("/:videoId/complete", progress_api.HandleComplete(s.engine))
	progressGroup.GET("/:videoId/stats", progress_api.HandleStats(s.engine), s.requireManager)

	chapterGroup := apiGroup.Group("/video-chapters")
	chapterGroup.GET("", chapter_api.HandleIndex(s.chapters))
	chapterGroup.GET("/video/:videoId", chapter_api.HandleByVideo(s.chapters))
	chapterGroup.GET("/:id", chapter_api.HandleGet(s.chapters))
	chapterGroup.POST("", chapter_api.HandleCreate(s.chapters), s.requireManager)
	chapterGroup.PUT("/:id", chapter_api.HandleUpdate(s.chapters), s.requireManager)
	chapterGroup.DELETE("/:id", chapter_api.HandleDelete(s.chapters), s.requireManager)

	adminGroup := apiGroup.Group("/admin", s.requireAdmin)
	adminGroup.GET("/users", admin.HandleUsers(s.users))
	adminGroup.PUT("/users/:id/role", admin.HandleUserRole(s.users))
	adminGroup.PUT("/users/:id/enabled", admin.HandleUserEnabled(s.users))

	s.GET("/healthz", func(c echo.Context) error {
		if s.ping != nil {
			if err := s.ping(c.Request().Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	})
	s.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return nil
}
