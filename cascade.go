package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cascadeweb/cascade/internal/logging"
	cascadehttp "github.com/cascadeweb/cascade/pkg/adapters/http"
	"github.com/cascadeweb/cascade/pkg/adapters/memory"
	"github.com/cascadeweb/cascade/pkg/adapters/redis"
	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/config"
	"github.com/cascadeweb/cascade/pkg/observability"
	"github.com/cascadeweb/cascade/pkg/ports"
	"github.com/cascadeweb/cascade/pkg/security"
	"github.com/cascadeweb/cascade/pkg/session"
)

// App is an assembled application: the configuration, the session
// manager driving its component trees and the HTTP surface serving them.
type App struct {
	config  *config.Config
	project string

	logger  *slog.Logger
	store   ports.SessionStore
	locker  ports.DistributedLocker
	secman  security.Manager
	manager *session.Manager
	metrics *observability.Metrics

	staticPath string
	staticURL  string
	dataPath   string
	databases  []config.Settings

	handler http.Handler
}

// Option configures the App before assembly.
type Option func(*App)

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithSessionStore overrides the record store selected by the
// configuration.
func WithSessionStore(store ports.SessionStore) Option {
	return func(a *App) { a.store = store }
}

// WithLocker sets the distributed locker coordinating replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *App) { a.locker = locker }
}

// WithSecurityManager sets the permission policy.
func WithSecurityManager(m security.Manager) Option {
	return func(a *App) { a.secman = m }
}

// New reads the configuration file and assembles the application it
// names. Configuration problems are collected and returned together.
func New(configFile string, opts ...Option) (*App, error) {
	var problems []error
	application, err := config.ReadApplication(configFile, func(err error) {
		problems = append(problems, err)
	})
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration %s: %w", configFile, errors.Join(problems...))
	}
	if err != nil {
		return nil, err
	}
	cfg := application.Config

	app := &App{
		config:     cfg,
		project:    application.Project,
		staticPath: cfg.Application.Static,
		dataPath:   cfg.Application.Data,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = logging.New(cfg.Logging.SlogLevel(), cfg.Logging.Format)
	}

	if app.store == nil {
		switch cfg.Sessions.Type {
		case "redis":
			client := redis.NewClient(cfg.Sessions.Redis.Addr, cfg.Sessions.Redis.Password, cfg.Sessions.Redis.DB)
			app.store = redis.NewFromClient(client)
			if app.locker == nil {
				app.locker = redis.NewLocker(client, "cascade:")
			}
		default:
			app.store = memory.NewStore()
		}
	}

	factory := application.Factory
	newRoot := func() *component.Component {
		return component.Wrap(factory())
	}

	managerOpts := []session.Option{
		session.WithLogger(app.logger),
		session.WithTTL(cfg.Sessions.TTL),
	}
	if app.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(app.locker))
	}
	app.manager = session.NewManager(app.store, newRoot, managerOpts...)
	app.metrics = observability.NewMetrics(app.manager.Len)

	return app, nil
}

// Name returns the url name the application is served under.
func (a *App) Name() string { return a.config.Application.Name }

// Project returns the project owning the application.
func (a *App) Project() string { return a.project }

// SetProject overrides the project the application is attributed to.
func (a *App) SetProject(project string) { a.project = project }

// Config returns the validated configuration.
func (a *App) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager { return a.manager }

// Metrics returns the application metrics.
func (a *App) Metrics() *observability.Metrics { return a.metrics }

// SetStaticPath overrides the static contents directory.
func (a *App) SetStaticPath(path string) { a.staticPath = path }

// StaticPath returns the static contents directory.
func (a *App) StaticPath() string { return a.staticPath }

// SetStaticURL overrides the url the static contents are mounted on.
func (a *App) SetStaticURL(url string) { a.staticURL = url }

// StaticURL returns the static contents url.
func (a *App) StaticURL() string { return a.staticURL }

// SetDataPath overrides the data directory.
func (a *App) SetDataPath(path string) { a.dataPath = path }

// DataPath returns the data directory.
func (a *App) DataPath() string { return a.dataPath }

// SetSessionsManager replaces the session manager assembled from the
// configuration. Call before Handler.
func (a *App) SetSessionsManager(manager *session.Manager) {
	a.manager = manager
	a.metrics = observability.NewMetrics(manager.Len)
}

// SetDatabases overrides the database settings resolved from the
// configuration.
func (a *App) SetDatabases(settings []config.Settings) { a.databases = settings }

// Databases returns the resolved database settings.
func (a *App) Databases() []config.Settings {
	if a.databases != nil {
		return a.databases
	}
	return a.config.Databases(a.config.Application.Debug)
}

// Handler builds the HTTP surface. Built once; later calls return the
// same handler.
func (a *App) Handler() http.Handler {
	if a.handler != nil {
		return a.handler
	}

	serverOpts := []cascadehttp.Option{
		cascadehttp.WithLogger(a.logger),
		cascadehttp.WithMetrics(a.metrics),
		cascadehttp.WithTitle(a.Name()),
		cascadehttp.WithStaticDir(a.staticPath),
	}
	if a.staticURL != "" {
		serverOpts = append(serverOpts, cascadehttp.WithStaticURL(a.staticURL))
	}
	if a.secman != nil {
		serverOpts = append(serverOpts, cascadehttp.WithSecurityManager(a.secman))
	}
	if a.config.Application.RedirectAfterPost {
		serverOpts = append(serverOpts, cascadehttp.WithRedirectAfterPost())
	}

	a.handler = cascadehttp.NewServer(a.manager, serverOpts...).Handler()
	return a.handler
}

// ExpireSessions runs the expiry sweep until ctx is done. Without a
// session TTL there is nothing to sweep and the call returns at once.
func (a *App) ExpireSessions(ctx context.Context, every time.Duration) {
	if a.config.Sessions.TTL <= 0 {
		return
	}
	a.manager.ExpireLoop(ctx, every)
}
