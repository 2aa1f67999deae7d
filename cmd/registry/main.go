package main

import (
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/craterio/registry"
	"github.com/craterio/registry/cmd/registry/config"
	"github.com/craterio/registry/internal/cache"
	"github.com/craterio/registry/internal/logger"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init(
		logger.Conf{
			Level:  c.Logging.Internal.Level,
			Dir:    c.Logging.Internal.Dir,
			StdErr: c.Logging.Internal.StdErr,
		},
	)
	log.Info("Loaded Config")

	if redisAddr := c.Caching.RedisAddr; redisAddr != "" {
		if err := cache.UseRedisCache(
			&redis.Options{
				Addr:     redisAddr,
				Username: c.Caching.Username,
				Password: c.Caching.Password,
				DB:       c.Caching.RedisDB,
			},
		); err != nil {
			log.WithError(err).Fatal("could not init redis cache")
		}
		log.Info("Loaded Redis Cache")
	}

	backs, err := config.LoadStorageBackends(c.Storage, c.API.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}

	serverConf := c.Server
	if c.Logging.Access.Dir != "" || c.Logging.Access.StdErr {
		serverConf.AccessLog, err = logger.NewWriter(
			c.Logging.Access.Dir, "access.log", c.Logging.Access.StdErr,
		)
		if err != nil {
			log.WithError(err).Fatal("could not open access log")
		}
	}

	r := registry.NewRegistry(
		serverConf, backs,
		registry.TrustedPublishingConf{
			Audience:      c.TrustedPublishing.Audience,
			TokenTTL:      c.TrustedPublishing.TokenLifetime.Duration(),
			KeyCacheTTL:   c.TrustedPublishing.KeyCacheLifetime.Duration(),
			SweepInterval: c.TrustedPublishing.SweepInterval.Duration(),
		},
	)
	r.StartTokenSweeper()
	log.Info("Initialized Registry")

	r.Start()
}
