// Package app wires all Clarivox subsystems into a running server.
//
// The App struct owns the full lifecycle: New loads the vocabularies and
// builds the HTTP surface, Run serves until the context ends, and
// Shutdown tears the server down. Each websocket connection on
// /v1/stream becomes one interpretation session with its own matcher,
// cache, queue and controller, so nothing detected or cached in one
// session can leak into another.
//
// For testing, inject doubles via functional options (WithAnnotateClient,
// WithClock). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/clarivox/clarivox/internal/annotate"
	"github.com/clarivox/clarivox/internal/config"
	"github.com/clarivox/clarivox/internal/health"
	"github.com/clarivox/clarivox/internal/observe"
	"github.com/clarivox/clarivox/internal/session"
	"github.com/clarivox/clarivox/internal/terminology"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithAnnotateClient injects an annotation client instead of building an
// HTTP client from the config.
func WithAnnotateClient(c annotate.Client) Option {
	return func(a *App) { a.annotater = c }
}

// WithClock injects the clock used by sessions instead of wall-clock time.
func WithClock(c session.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithLogger injects the application logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithMetrics injects the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// App owns the server lifecycle and the shared, read-only vocabulary
// state that sessions clone from.
type App struct {
	cfg *config.Config
	log *slog.Logger

	annotater annotate.Client
	clock     session.Clock
	metrics   *observe.Metrics

	// dict and meds are the merged base vocabularies. dict is cloned per
	// session; meds is immutable and shared.
	dict *terminology.Dictionary
	meds *terminology.MedicationIndex

	srv *http.Server
	ln  net.Listener

	mu       sync.Mutex
	stopOnce sync.Once
}

// New creates an App from cfg: it merges the built-in vocabularies with
// any configured files, builds the annotation client when a backend is
// configured, and assembles the HTTP routes.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   slog.Default(),
		clock: session.RealClock(),
	}
	for _, o := range opts {
		o(a)
	}

	var err error
	if a.dict, err = buildDictionary(cfg.Terminology.DictionaryFile); err != nil {
		return nil, err
	}
	if a.meds, err = buildMedications(cfg.Terminology.MedicationFile); err != nil {
		return nil, err
	}

	if a.annotater == nil && cfg.Annotation.BaseURL != "" {
		a.annotater = annotate.New(cfg.Annotation.BaseURL, cfg.Annotation.APIKey)
	}
	if a.annotater == nil {
		a.log.Info("no annotation backend configured, running local-only")
	}

	mux := http.NewServeMux()
	health.New(a.checkers()...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/stream", a.handleStream)

	a.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// buildDictionary merges the built-in term dictionary with an optional
// YAML file.
func buildDictionary(path string) (*terminology.Dictionary, error) {
	dict := terminology.Builtin()
	if path == "" {
		return dict, nil
	}
	entries, err := terminology.LoadDictionaryFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: dictionary: %w", err)
	}
	for _, e := range entries {
		dict.Add(e)
	}
	return dict, nil
}

// buildMedications merges the built-in medication database with an
// optional YAML file. File entries win on alias collisions.
func buildMedications(path string) (*terminology.MedicationIndex, error) {
	entries := terminology.BuiltinMedicationEntries()
	if path != "" {
		extra, err := terminology.LoadMedicationFile(path)
		if err != nil {
			return nil, fmt.Errorf("app: medications: %w", err)
		}
		entries = append(entries, extra...)
	}
	return terminology.NewMedicationIndex(entries...), nil
}

// checkers builds the readiness probes: the vocabularies must be loaded,
// and when an annotation backend is configured it must be resolvable.
func (a *App) checkers() []health.Checker {
	return []health.Checker{
		{
			Name: "terminology",
			Check: func(context.Context) error {
				if a.dict.Len() == 0 {
					return errors.New("term dictionary is empty")
				}
				if a.meds.Len() == 0 {
					return errors.New("medication index is empty")
				}
				return nil
			},
		},
		{
			Name: "annotation",
			Check: func(context.Context) error {
				if a.cfg.Annotation.BaseURL == "" {
					return nil // local-only mode is a valid deployment
				}
				if a.annotater == nil {
					return errors.New("annotation backend configured but client missing")
				}
				return nil
			},
		},
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	a.mu.Lock()
	a.ln = ln
	a.mu.Unlock()

	a.log.Info("server listening", "addr", ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Shutdown()
		return nil
	})
	return g.Wait()
}

// Addr returns the bound listen address, useful when the config asked for
// an ephemeral port. Empty before Run.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Shutdown stops the HTTP server gracefully. Idempotent; Run calls it
// when its context ends.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(ctx); err != nil {
			a.log.Warn("http shutdown", "error", err)
		}
		a.log.Info("server stopped")
	})
}
