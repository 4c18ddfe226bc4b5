// Package bootstrap wires configuration into the service graph shared by the
// api and ingestor binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/auth"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/cloud"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/config"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/database"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/repository"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

type Runtime struct {
	Services *service.Services
	closers  []func() error
}

// Close releases connections in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// Build connects the configured store, revocation list and, when withCloud is
// set and USE_CLOUD_SERVICES is on, the S3 exporter.
func Build(ctx context.Context, withCloud bool) (*Runtime, error) {
	rt := &Runtime{}
	opts := service.Options{
		Tokens: auth.NewIssuer(config.JWTSecret(), config.AccessTTL(), config.RefreshTTL()),
	}

	if config.DBEnabled() {
		db, err := database.Connect()
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		if config.DBAutoSchema() {
			if err := database.EnsureSchema(ctx, db); err != nil {
				rt.Close()
				return nil, err
			}
		}
		opts.Store = repository.New(db)
		log.Info().Msg("using postgres store")
	} else {
		opts.Store = repository.NewMemory()
		log.Warn().Msg("DB_ENABLED=false, using in-memory store")
	}

	if config.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			rt.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		rt.closers = append(rt.closers, rdb.Close)
		opts.Revoker = auth.NewRedisRevoker(rdb)
	} else {
		opts.Revoker = auth.NewMemoryRevoker()
		log.Warn().Msg("REDIS_ENABLED=false, token revocations are kept in memory")
	}

	if withCloud && config.UseCloudServices() {
		s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts.Uploader = s3c
		log.Info().Str("bucket", config.S3Bucket()).Msg("measurement exports enabled")
	}

	rt.Services = service.New(opts)
	return rt, nil
}
