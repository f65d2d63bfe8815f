package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/matchweek/external/footballdata"
	"github.com/riskibarqy/matchweek/internal/config"
	"github.com/riskibarqy/matchweek/internal/domain/match"
	cacherepo "github.com/riskibarqy/matchweek/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchweek/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchweek/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchweek/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/matchweek/internal/platform/cache"
	idgen "github.com/riskibarqy/matchweek/internal/platform/id"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"github.com/riskibarqy/matchweek/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server is the wired HTTP server plus the resources it owns.
type Server struct {
	HTTP    *http.Server
	closers []func() error
}

// Close releases store connections. Call after HTTP.Shutdown.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	server := &Server{}
	store, err := buildMatchStore(ctx, cfg, logger, server)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	if cfg.FootballDataToken == "" {
		logger.Warn("football-data token is empty, upstream calls will be rejected")
	}
	client := footballdata.NewClient(footballdata.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.FootballDataTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:        cfg.FootballDataBaseURL,
		Token:          cfg.FootballDataToken,
		Competition:    cfg.FootballDataCompetition,
		Timeout:        cfg.FootballDataTimeout,
		Logger:         logger.With("component", "footballdata"),
		CircuitBreaker: cfg.FootballDataCircuit,
	})

	matchSvc := usecase.NewMatchService(
		usecase.NewMatchProvider(client, cfg.FootballDataTimeout, logger),
		usecase.NewMatchTransformer(idgen.NewSequence(time.Now().UnixMilli())),
		store,
		usecase.MatchServiceConfig{
			ReadThrough:    cfg.WeekViewReadThrough,
			RefreshWorkers: cfg.RefreshWorkers,
		},
		logger,
	)

	handler := httpapi.NewHandler(matchSvc, client, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})
	if cfg.InternalJobToken == "" {
		logger.Warn("INTERNAL_JOB_TOKEN is empty, refresh endpoint is unauthenticated")
	}

	server.HTTP = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("match service wired",
		"store_driver", cfg.StoreDriver,
		"cache_enabled", cfg.CacheEnabled,
		"read_through", cfg.WeekViewReadThrough,
		"competition", cfg.FootballDataCompetition,
		"circuit", cfg.FootballDataCircuit.String(),
	)

	return server, nil
}

func buildMatchStore(ctx context.Context, cfg config.Config, logger *logging.Logger, server *Server) (match.Store, error) {
	var store match.Store
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := openDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		server.closers = append(server.closers, db.Close)
		store = postgres.NewMatchRepository(db)
	default:
		store = memory.NewMatchRepository(nil)
	}

	if cfg.CacheEnabled {
		store = cacherepo.NewMatchRepository(store, basecache.NewStore(cfg.CacheTTL))
	}
	return store, nil
}
