// Package worker provides the HTTP service that serves session statistics.
package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/realmstats/internal/config"
	gormstore "github.com/thebtf/realmstats/internal/db/gorm"
	"github.com/thebtf/realmstats/internal/masterstats"
	"github.com/thebtf/realmstats/internal/sessions"
	"github.com/thebtf/realmstats/internal/titles"
	"github.com/thebtf/realmstats/internal/watcher"
	"github.com/thebtf/realmstats/internal/worker/sse"
)

// Service is the stats HTTP service.
type Service struct {
	version           string
	config            *config.Config
	sessionStore      *sessions.Store
	masterStats       *masterstats.Loader
	reassignmentStore *gormstore.ReassignmentStore
	sseBroadcaster    *sse.Broadcaster
	metrics           *serviceMetrics
	router            chi.Router
	server            *http.Server
	watchers          []*watcher.Watcher
	ctx               context.Context
	cancel            context.CancelFunc
	startTime         time.Time
	ready             atomic.Bool
}

// NewService wires the stores and routes. reassignments may be nil, in which case
// reassignments are applied but not audited.
func NewService(version string, cfg *config.Config, reassignments *gormstore.ReassignmentStore) (*Service, error) {
	m, err := newServiceMetrics()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		version:           version,
		config:            cfg,
		sessionStore:      sessions.NewStore(cfg.SessionsDir),
		masterStats:       masterstats.NewLoader(cfg.MasterStatsPath),
		reassignmentStore: reassignments,
		sseBroadcaster:    sse.NewBroadcaster(),
		metrics:           m,
		router:            chi.NewRouter(),
		ctx:               ctx,
		cancel:            cancel,
		startTime:         time.Now(),
	}
	svc.setupRoutes()
	return svc, nil
}

// Handler returns the service's HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Start starts the file watchers and the HTTP listener. It returns once the listener
// goroutine is running; listener failures other than shutdown are logged.
func (s *Service) Start() error {
	s.startWatchers()

	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", s.server.Addr).Str("version", s.version).Msg("Stats service listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
			s.cancel()
		}
	}()

	s.ready.Store(true)
	return nil
}

// Done is closed when the service stops or its listener fails.
func (s *Service) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Shutdown stops the watchers and drains the HTTP server.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.cancel()
	for _, w := range s.watchers {
		_ = w.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// startWatchers broadcasts a data_changed event whenever session data or master stats change.
func (s *Service) startWatchers() {
	for _, path := range []string{s.config.SessionsDir, s.config.MasterStatsPath} {
		w, err := watcher.New(path, func(changed string) {
			s.sseBroadcaster.Publish(sse.Event{Type: sse.EventDataChanged, Path: changed})
		})
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to create watcher")
			continue
		}
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to start watcher")
			continue
		}
		s.watchers = append(s.watchers, w)
		log.Info().Str("path", path).Msg("File watcher started")
	}
}

// titleStore loads the title overrides; an unreadable file is logged and ignored.
func (s *Service) titleStore() *titles.Store {
	store, err := titles.Load(s.config.TitlesPath)
	if err != nil {
		log.Warn().Err(err).Str("path", s.config.TitlesPath).Msg("Failed to load title overrides")
		return titles.New(nil)
	}
	return store
}

// listingLookup picks the title matching strategy configured for the session listing.
func (s *Service) listingLookup(store *titles.Store) titles.Lookup {
	if s.config.TitleMatch == config.TitleMatchExact {
		return store.Lookup
	}
	return store.LookupPrefix
}
