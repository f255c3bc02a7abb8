// Package backend selects and wires the Remote Bill Store implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"billed/internal/amqp"
	"billed/internal/auth"
	"billed/internal/config"
	applog "billed/internal/log"
	"billed/internal/services"
	"billed/internal/session"
	"billed/internal/storage"
	"billed/internal/store/api"
	"billed/internal/store/memory"
)

// Factory builds backends from configuration.
type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create opens the backend named by cfg.Backend.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return f.createMemoryBackend(ctx, cfg)
	case config.BackendSQLite:
		return f.createSQLiteBackend(ctx, cfg)
	case config.BackendAPI:
		return f.createAPIBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Backend)
	}
}

func (f *Factory) issuer(ctx context.Context, cfg *config.Config) *auth.Issuer {
	secret := cfg.JWTSecret
	if secret == "" {
		// Tokens signed with a random secret only verify within this process.
		secret = uuid.NewString()
		f.logger.WarnContext(ctx, "JWT_SECRET not set, using a random signing key")
	}
	return auth.NewIssuer(secret, cfg.TokenTTL)
}

func (f *Factory) createMemoryBackend(ctx context.Context, cfg *config.Config) (*Result, error) {
	issuer := f.issuer(ctx, cfg)

	var ms *memory.Store
	if cfg.FixturesFile != "" {
		var err error
		if ms, err = memory.NewFromFile(cfg.FixturesFile, issuer); err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
	} else {
		ms = memory.New(issuer, memory.Fixtures()...)
	}

	for _, u := range DemoUsers {
		if err := ms.AddUser(ctx, u.Email, u.Type, u.Password); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "fixtures_file", cfg.FixturesFile)

	return &Result{
		Bills:   ms,
		Auth:    ms,
		Session: session.New(session.NewMemoryStorage(), f.logger.Slog()),
		Users:   ms,
	}, nil
}

func (f *Factory) createSQLiteBackend(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.ReceiptsDir(), f.issuer(ctx, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export", "error", err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	billService := services.NewBillService(repo, publisher)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &Result{
		Bills:   billService,
		Auth:    repo,
		Session: session.New(repo, f.logger.Slog()),
		Users:   repo,
		Cleanup: billService.Close,
	}, nil
}

// createAPIBackend talks to the remote API. The session is still kept in the
// local SQLite database so that it survives between CLI invocations.
func (f *Factory) createAPIBackend(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.ReceiptsDir(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}

	sess := session.New(repo, f.logger.Slog())
	client := api.NewClient(cfg.APIURL, cfg.HTTPTimeout, sess, f.logger.WithComponent(applog.ComponentAPI).Slog())

	f.logger.InfoContext(ctx, "Initialized API backend", "url", cfg.APIURL)

	return &Result{
		Bills:   client,
		Auth:    client,
		Session: sess,
		Cleanup: repo.Close,
	}, nil
}
