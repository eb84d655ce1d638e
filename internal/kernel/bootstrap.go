package kernel

import (
	"context"
	"fmt"

	"github.com/lingxijiao/backend/internal/cache"
	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/database"
	"github.com/lingxijiao/backend/internal/email"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/lingxijiao/backend/internal/telemetry"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"github.com/lingxijiao/backend/internal/validation"
	"go.uber.org/zap"
)

// Options tune Bootstrap for the process that runs it
type Options struct {
	// Migrate runs schema migration after connecting
	Migrate bool
	// Tracing installs the OTLP tracer provider when an endpoint is configured
	Tracing bool
}

// Bootstrap connects every backend named by cfg and wires the services.
// Optional backends that fail to connect are logged and left unset unless
// the matching LINGXIJIAO_REQUIRE_* flag is on. On error the backends opened
// so far are already registered for Shutdown.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Kernel, error) {
	k := New().SetConfig(cfg).SetLogger(log)

	if opts.Tracing {
		tp, err := telemetry.InitTracer(ctx, cfg.Telemetry, cfg.Environment)
		if err != nil {
			log.Warn("Failed to initialize tracing", zap.Error(err))
		} else if tp != nil {
			k.OnShutdown(tp.Shutdown)
			log.Info("✅ Tracing enabled", zap.String("endpoint", cfg.Telemetry.OTLPEndpoint))
		}
	}

	db, err := database.Open(cfg.Database, !cfg.IsProduction(), log)
	if err != nil {
		return k, err
	}
	k.SetDB(db)
	k.OnShutdown(func(context.Context) error { return database.Close(db) })

	if opts.Migrate {
		if err := database.Migrate(db); err != nil {
			return k, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisClient(ctx, cfg.Redis, log)
		switch {
		case err != nil && cfg.RequireRedis:
			return k, err
		case err != nil:
			log.Warn("Redis unavailable, using in-memory rate limiter", zap.Error(err))
		default:
			k.SetCache(rc)
			k.OnShutdown(func(context.Context) error { return rc.Close() })
		}
	}

	if cfg.Search.Enabled() {
		sc, err := search.NewClient(ctx, cfg.Search)
		if err == nil {
			err = sc.EnsureIndex(ctx)
		}
		switch {
		case err != nil && cfg.RequireElasticsearch:
			return k, err
		case err != nil:
			log.Warn("Elasticsearch unavailable, keyword search uses the database index", zap.Error(err))
		default:
			k.SetSearchClient(sc)
			log.Info("✅ Elasticsearch connected", zap.String("index", search.IndexPosts))
		}
	}

	sender, err := email.NewSender(ctx, cfg.Mail, log)
	if err != nil {
		return k, err
	}
	k.SetSender(sender)

	seg, err := tokenizer.Default()
	if err != nil {
		return k, fmt.Errorf("failed to load tokenizer dictionary: %w", err)
	}
	k.SetTokenizer(seg)

	if err := k.Wire(); err != nil {
		return k, err
	}
	return k, nil
}

// ServiceChecks returns a probe for every backend the configuration names.
// Backends that are configured but failed to connect still get a probe so
// they show up as failing.
func (k *Kernel) ServiceChecks() map[string]validation.Check {
	cfg := k.Config()
	checks := map[string]validation.Check{
		validation.ServiceDatabase: func(ctx context.Context) error {
			return database.Health(ctx, k.DB())
		},
	}
	if cfg == nil {
		return checks
	}

	if cfg.Search.Enabled() {
		checks[validation.ServiceElasticsearch] = func(ctx context.Context) error {
			if sc := k.Search(); sc != nil {
				return sc.Ping(ctx)
			}
			sc, err := search.NewClient(ctx, cfg.Search)
			if err != nil {
				return err
			}
			return sc.Ping(ctx)
		}
	}
	if cfg.Redis.Enabled() {
		checks[validation.ServiceRedis] = func(ctx context.Context) error {
			if rc := k.Cache(); rc != nil {
				return rc.Ping(ctx)
			}
			rc, err := cache.NewRedisClient(ctx, cfg.Redis, k.Logger())
			if err != nil {
				return err
			}
			return rc.Close()
		}
	}
	return checks
}

// ServiceValidator builds the startup validator for cfg's required services
func (k *Kernel) ServiceValidator() *validation.ServiceValidator {
	required := []string{validation.ServiceDatabase}
	if cfg := k.Config(); cfg != nil {
		required = validation.RequiredServices(cfg.RequireElasticsearch, cfg.RequireRedis)
	}
	return validation.NewServiceValidator(required, k.ServiceChecks(), k.Logger())
}
