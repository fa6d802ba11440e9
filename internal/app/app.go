// Package app assembles the service from configuration and runs it until the
// context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/adapter/identity/cognito"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/cache"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/internal/worker"
	"github.com/vadimbarashkov/shortlink/pkg/awsclient"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	dynamorepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/dynamodb"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	redisrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/redis"
	pgpkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
	redispkg "github.com/vadimbarashkov/shortlink/pkg/redis"
)

type linkStore interface {
	Exists(ctx context.Context, shortID string) (bool, error)
	Get(ctx context.Context, shortID string) (*entity.ShortLink, error)
	Save(ctx context.Context, link *entity.ShortLink) error
	IncrementHits(ctx context.Context, shortID string) error
}

type linkReader interface {
	Get(ctx context.Context, shortID string) (*entity.ShortLink, error)
}

type store struct {
	links   linkStore
	sweeper *worker.Sweeper
	close   func() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	const op = "app.openStore"

	switch cfg.Store.Driver {
	case config.DriverRedis:
		client, err := redispkg.New(
			ctx,
			cfg.Redis.Addr,
			redispkg.WithPassword(cfg.Redis.Password),
			redispkg.WithDB(cfg.Redis.DB),
			redispkg.WithPoolSize(cfg.Redis.PoolSize),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return &store{
			links: redisrepo.NewLinkRepository(client, cfg.Redis.KeyPrefix),
			close: client.Close,
		}, nil

	case config.DriverPostgres:
		db, err := pgpkg.New(
			ctx,
			cfg.Postgres.DSN(),
			pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		version, err := pgpkg.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}
		logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

		repo := pgrepo.NewLinkRepository(db)

		return &store{
			links:   repo,
			sweeper: worker.NewSweeper(repo, logger, cfg.Store.SweepInterval),
			close:   db.Close,
		}, nil

	default:
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.DynamoDB.Region)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		client := awsclient.NewDynamoDB(awsCfg, cfg.DynamoDB.Endpoint)

		return &store{
			links: dynamorepo.NewLinkRepository(client, cfg.DynamoDB.Table),
			close: func() error { return nil },
		}, nil
	}
}

// service is the request-serving half of the application: the router and
// the background jobs it feeds.
type service struct {
	handler http.Handler
	hits    *worker.HitWorker
	close   func()
}

func newService(ctx context.Context, cfg *config.Config, logger *httplog.Logger, links linkStore) (*service, error) {
	const op = "app.newService"

	opts := []usecase.Option{usecase.WithLogger(logger.Logger)}

	hits := worker.NewHitWorker(links, logger.Logger, cfg.Hits.Workers, cfg.Hits.QueueSize, cfg.Hits.Timeout)

	gen := usecase.NewIDGenerator(links, cfg.ShortID.MinLength, cfg.ShortID.MaxLength, cfg.ShortID.MaxAttempts, opts...)
	linkUC := usecase.NewLinkUseCase(links, gen, cfg.BaseURL, cfg.Retention, cfg.ShortID.MaxAttempts, opts...)

	closeFn := func() {}

	var reader linkReader = links

	if cfg.Cache.Enabled {
		c, err := cache.NewLinkReader(links, cache.Config{
			NumCounters: cfg.Cache.NumCounters,
			MaxCost:     cfg.Cache.MaxCost,
			TTL:         cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		reader = c
		closeFn = c.Close
	}

	redirectUC := usecase.NewRedirectUseCase(reader, hits, cfg.FallbackURL, opts...)

	var routerOpts []delivery.Option

	if cfg.Cognito.Enabled() {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Cognito.Region)
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		provider := cognito.NewProvider(awsclient.NewCognito(awsCfg))
		authUC := usecase.NewAuthUseCase(provider, cfg.Cognito.ClientID, cfg.Cognito.ClientSecret)

		verifier, err := cognito.NewTokenVerifier(ctx, cfg.Cognito.JWKSURL(), cfg.Cognito.Issuer(), cfg.Cognito.ClientID)
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		routerOpts = append(routerOpts, delivery.WithAuth(authUC), delivery.WithTokenVerifier(verifier))
	} else {
		logger.Warn("cognito is not configured, login is disabled and every caller is anonymous")
	}

	return &service{
		handler: delivery.NewRouter(logger, linkUC, redirectUC, routerOpts...),
		hits:    hits,
		close:   closeFn,
	}, nil
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	st, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer st.close()

	g, ctx := errgroup.WithContext(ctx)

	svc, err := newService(ctx, cfg, logger, st.links)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer svc.close()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        svc.handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("store", cfg.Store.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		return svc.hits.Run(ctx)
	})

	if st.sweeper != nil {
		g.Go(func() error {
			return st.sweeper.Run(ctx)
		})
	}

	return g.Wait()
}
