package echoweb

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/nav"
	"github.com/edumanage/edumanage/services/gateway"
)

//go:embed templates/*.html
var templates embed.FS

type ServerDeps struct {
	Conf           *core.Config
	Logger         core.Logger
	Registry       *prometheus.Registry
	HTTPClient     *http.Client // defaults to http.DefaultClient
	NavOptions     []nav.Option
	DisableReqLogs bool
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	sessions *sessionStore
	metrics  *gateway.Metrics
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		metrics:  gateway.NewMetrics(deps.Registry),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.sessions = newSessionStore(deps.Conf.Web.SessionIdleTimeout, s.newWebSession)
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) newWebSession() *webSession {
	web := s.deps.Conf.Web
	client := gateway.NewClient(
		web.APIBaseURL,
		gateway.NewSession(gateway.NewMemoryStorage()),
		s.deps.Logger,
		gateway.WithHTTPClient(s.deps.HTTPClient),
		gateway.WithTimeout(web.RequestTimeout),
		gateway.WithMetrics(s.metrics),
	)
	return &webSession{client: client, nav: nav.New(s.deps.NavOptions...)}
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.Renderer = &renderer{
		tmpl: template.Must(template.ParseFS(templates, "templates/*.html")),
	}
	s.app.Debug = conf.Debug
	s.app.HideBanner = conf.TestMode

	s.app.GET("/metrics", echo.WrapHandler(gateway.GetHandlerForRegistry(s.deps.Registry)))

	s.app.GET(s.loginPath(), s.loginPage)
	s.app.POST(s.loginPath(), s.login)
	s.app.POST("/logout", s.logout)

	ng := s.app.Group("/nav")
	ng.POST("/toggle/:id", s.toggle)
	ng.POST("/collapse", s.collapse)
	ng.POST("/reload", s.reload)

	s.app.GET("/*", s.page)
	s.app.GET("/", s.page)
}

func (s *Server) loginPath() string {
	if p := s.deps.Conf.Web.LoginPath; p != "" {
		return p
	}
	return "/login"
}

// Start blocks serving HTTP. Listener errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Web.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

type renderer struct {
	tmpl *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
