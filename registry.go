package registry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/craterio/registry/api/adminapi"
	"github.com/craterio/registry/api/trustpubapi"
	githubapi "github.com/craterio/registry/github"
	"github.com/craterio/registry/internal/version"
	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub/github"
	"github.com/craterio/registry/trustpub/gitlab"
	"github.com/craterio/registry/trustpub/keystore"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   trustpubapi.ErrorHandler,
	Network:        "tcp",
}

// DefaultSweepInterval is how often expired tokens and used token IDs are
// cleaned from storage when no interval is configured.
const DefaultSweepInterval = time.Hour

// TrustedPublishingConf configures the Trusted Publishing subsystem.
type TrustedPublishingConf struct {
	// Audience is the aud claim expected in exchanged OIDC tokens
	Audience string
	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration
	// KeyCacheTTL is how long fetched OIDC key sets are cached
	KeyCacheTTL time.Duration
	// SweepInterval is how often expired tokens are cleaned from storage
	SweepInterval time.Duration
	// GitHub overrides the client used to resolve GitHub accounts
	GitHub githubapi.Client
	// Emails overrides how crate owners are notified about config changes
	Emails trustpubapi.EmailSender
}

// Registry is the registry API server. It serves the Trusted Publishing
// endpoints on top of the passed storage backends.
type Registry struct {
	server     *fiber.App
	serverConf ServerConf
	storages   model.Backends
	tpConf     TrustedPublishingConf
}

// NewRegistry creates a new Registry
func NewRegistry(serverConf ServerConf, storages model.Backends, tpConf TrustedPublishingConf) *Registry {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	accessLogConf := logger.ConfigDefault
	if serverConf.AccessLog != nil {
		accessLogConf.Output = serverConf.AccessLog
	}
	server.Use(logger.New(accessLogConf))
	server.Use(requestid.New())

	r := &Registry{
		server:     server,
		serverConf: serverConf,
		storages:   storages,
		tpConf:     tpConf,
	}

	githubClient := tpConf.GitHub
	if githubClient == nil {
		githubClient = githubapi.NewAPIClient(nil)
	}
	var emails trustpubapi.EmailSender = trustpubapi.LogEmailSender{}
	if tpConf.Emails != nil {
		emails = tpConf.Emails
	}
	deps := trustpubapi.Deps{
		DB:         storages,
		GitHub:     githubClient,
		GitHubKeys: keystore.NewOIDCKeyStore(github.IssuerURL, tpConf.KeyCacheTTL),
		GitLabKeys: keystore.NewOIDCKeyStore(gitlab.IssuerURL, tpConf.KeyCacheTTL),
		Emails:     emails,
		Audience:   tpConf.Audience,
		TokenTTL:   tpConf.TokenTTL,
	}
	trustpubapi.Register(server.Group("/api/v1/trusted_publishing"), deps)
	adminapi.Register(server.Group("/api/v1/admin"), storages, nil)

	server.Get(
		"/healthz", func(ctx *fiber.Ctx) error {
			return ctx.JSON(fiber.Map{"status": "ok", "version": version.VERSION})
		},
	)
	return r
}

// StartTokenSweeper periodically removes expired access tokens and used
// token IDs from storage. It returns immediately, the sweeper runs in the
// background for the lifetime of the process.
func (r *Registry) StartTokenSweeper() {
	interval := r.tpConf.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		for range time.Tick(interval) {
			removed, err := r.storages.Tokens.SweepExpired(time.Now())
			if err != nil {
				log.WithError(err).Error("token sweep failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("swept expired trusted publishing tokens")
			}
		}
	}()
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (r *Registry) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(r.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (r *Registry) Listen(addr string) error {
	return r.server.Listen(addr)
}

func (r *Registry) Start() {
	conf := r.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(r.server.Listen(fmt.Sprintf(":%d", conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(r.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
