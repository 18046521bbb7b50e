// Package launcher runs the one or more long-lived "apps" that make up a
// service process (an HTTP server, a broker worker, ...) concurrently and
// waits for all of them to return.
package launcher

import (
	"sync"

	"github.com/corebooks/core/internal/platform/config"
	"github.com/corebooks/core/internal/platform/logging"
)

// App is anything that can be run to completion (or until the process is
// killed) as part of a service.
type App interface {
	Run(l *Launcher) error
}

// Option configures a Launcher.
type Option func(l *Launcher)

// WithLogger attaches a logger the Launcher uses for its own lifecycle logs.
func WithLogger(logger logging.Logger) Option {
	return func(l *Launcher) { l.Logger = logger }
}

// RunApp registers a named App to run when the Launcher starts.
func RunApp(name string, app App) Option {
	return func(l *Launcher) { l.apps[name] = app }
}

// Launcher owns the set of Apps a service process runs.
type Launcher struct {
	Logger logging.Logger
	apps   map[string]App
	wg     sync.WaitGroup
}

// New builds a Launcher from the given options.
func New(opts ...Option) *Launcher {
	l := &Launcher{apps: make(map[string]App), Logger: logging.NewNoop()}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run starts every registered App in its own goroutine and blocks until all
// of them return.
func (l *Launcher) Run() {
	l.wg.Add(len(l.apps))

	l.Logger.Infof("%s starting %d app(s)", config.Title("launcher"), len(l.apps))

	for name, app := range l.apps {
		go func(name string, app App) {
			defer l.wg.Done()

			l.Logger.Infof("app (%s) starting", name)

			if err := app.Run(l); err != nil {
				l.Logger.Errorf("app (%s) exited with error: %v", name, err)
				return
			}

			l.Logger.Infof("app (%s) finished", name)
		}(name, app)
	}

	l.wg.Wait()
	l.Logger.Info("launcher terminated")
}
