package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mkrupp/publishing/internal/infra/config"
	"github.com/mkrupp/publishing/internal/infra/logging"
	http_ "github.com/mkrupp/publishing/internal/infra/transport/http"
	"github.com/mkrupp/publishing/internal/repo/content"
	"github.com/mkrupp/publishing/internal/svc/mediasvc"
	"github.com/mkrupp/publishing/internal/svc/postsvc"
	"github.com/mkrupp/publishing/internal/svc/publicationsvc"
)

const (
	appName = "publishing"
	svcName = "publishingsvc"
)

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig      `envPrefix:"LOG_"`
	HTTP  http_.HTTPTransportConfig `envPrefix:"HTTP_"`
	Store content.StoreConfig       `envPrefix:"STORE_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.publishingsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	repoFactory, err := content.RepositoryFactoryFor(cfg.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	repo, err := repoFactory(ctx)
	if err != nil {
		return fmt.Errorf("new repository: %w", err)
	}

	defer func() {
		if cerr := repo.Close(); cerr != nil {
			log.ErrorContext(ctx, "close repository failed", "error", cerr)
		}
	}()

	log.InfoContext(ctx, "store ready", "driver", cfg.Store.Driver)

	if err := http_.ListenAndServe(ctx, newMux(repo, cfg.HTTP, time.Now), cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// newMux wires the managers on top of repo and mounts their transports.
// now is the clock deciding whether a publication date has passed.
func newMux(repo content.Repository, cfg http_.HTTPTransportConfig, now func() time.Time) *http.ServeMux {
	mediaSvc := mediasvc.NewMediaService(repo)
	postSvc := postsvc.NewPostService(repo)
	publicationSvc := publicationsvc.NewPublicationService(repo, mediaSvc, postSvc)
	publicationSvc.Now = now

	return http_.NewMux(
		mediasvc.NewHTTPTransport(mediaSvc, cfg),
		postsvc.NewHTTPTransport(postSvc, cfg),
		publicationsvc.NewHTTPTransport(publicationSvc, cfg),
		http_.NewHealthTransport(repo),
	)
}
