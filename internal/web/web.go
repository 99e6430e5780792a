package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"smartcal/internal/config"
	"smartcal/internal/editor"
	appLog "smartcal/internal/log"
	"smartcal/internal/store"
	"smartcal/internal/view"
)

// Server exposes the event store, the view projections and the rendered
// calendar page over HTTP.
type Server struct {
	cfg   *config.Config
	store *store.Store
	nav   *view.Navigator
	loc   *time.Location
	clock func() time.Time
	e     *echo.Echo

	// stateMu guards the shared view state driven by /api/state.
	stateMu sync.Mutex
	state   *view.State
}

// Options carries optional collaborators.
type Options struct {
	// Clock overrides time.Now, e.g. in tests.
	Clock func() time.Time
	// Metrics replaces the promhttp handler mounted on /metrics.
	Metrics http.Handler
	// Registerer, when set, receives per-route HTTP request metrics.
	Registerer prometheus.Registerer
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store, opts Options) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		nav:   view.NewNavigator(),
		loc:   cfg.Location(),
		clock: opts.Clock,
		e:     echo.New(),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.state = view.NewState(s.now())

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.JSONSerializer = sonicSerializer{}
	s.e.HTTPErrorHandler = s.handleError
	s.e.Renderer = newRenderer()

	s.e.Use(middleware.Recover())
	s.e.Use(requestLogger())
	if opts.Registerer != nil {
		s.e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "smartcal_http",
			Registerer: opts.Registerer,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return p == "/metrics" || p == "/health"
			},
		}))
	}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+cfg.Listen)
		s.e.Use(s.basicAuthMiddleware())
	}
	s.registerRoutes(opts.Metrics)
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) now() time.Time {
	return s.clock().In(s.loc)
}

// ListenAndServe binds cfg.Listen and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards all routes except /health.
func (s *Server) basicAuthMiddleware() echo.MiddlewareFunc {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "SmartCal",
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		Validator: func(u, p string, _ echo.Context) (bool, error) {
			return secureCompare(u, username) && secureCompare(p, password), nil
		},
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			appLog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}

// handleError maps handler errors onto status codes and writes the
// {"error": ...} body used by every endpoint.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, editor.ErrUnknownDateFormat):
		code = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, store.ErrInvalidRange), errors.Is(err, editor.ErrTitleRequired):
		code = http.StatusUnprocessableEntity
		msg = err.Error()
	}

	if code >= http.StatusInternalServerError {
		appLog.Error("request failed", err, "method", c.Request().Method, "path", c.Path())
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if werr := writeError(c, code, msg); werr != nil {
		appLog.Error("failed to write error response", werr)
	}
}

func writeJSON(c echo.Context, status int, v any) error {
	return c.JSON(status, v)
}

func writeError(c echo.Context, status int, msg string) error {
	type errResp struct {
		Error string `json:"error"`
	}
	return writeJSON(c, status, errResp{Error: msg})
}

// sonicSerializer plugs sonic into echo's c.JSON and c.Bind.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
