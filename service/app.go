package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"blogapi/app/config"
	"blogapi/app/content"
	"blogapi/app/repositories"
	"blogapi/app/routes"
	"blogapi/app/services"
	"blogapi/keygen"

	"github.com/spf13/pflag"
)

// App is a fully wired blog API server.
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	comments repositories.CommentRepository
	cache    *content.CachedSource
	handler  http.Handler
}

// NewApp opens the comment store and the post source named by cfg and builds
// the HTTP handler over them.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	comments, err := openCommentRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, log: log, comments: comments}

	source, err := app.newPostSource()
	if err != nil {
		comments.Close()
		return nil, err
	}

	postService := services.NewPostService(source, services.NewPostQueryEngine(cfg.Query.Locale), log)
	commentService := services.NewCommentService(comments, log)
	app.handler = routes.SetupRoutes(postService, commentService, routes.Options{
		APIKey:         cfg.API.Key,
		StrictNotFound: cfg.API.StrictNotFound,
		Compress:       cfg.HTTP.Compress,
		Logger:         log,
	})

	if cfg.API.Key == "" {
		log.Warn("api.key is empty, every /api request will be rejected")
	} else {
		log.Info("api key loaded", "fingerprint", keygen.Fingerprint(cfg.API.Key))
	}
	return app, nil
}

func openCommentRepository(ctx context.Context, cfg config.StorageConfig) (repositories.CommentRepository, error) {
	switch cfg.Driver {
	case "badger":
		db, err := repositories.OpenBadger(repositories.BadgerOptions{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
		})
		if err != nil {
			return nil, err
		}
		return repositories.NewBadgerCommentRepository(db), nil
	case "postgres":
		repo, err := repositories.NewPostgresCommentRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "memory", "":
		return repositories.NewMemoryCommentRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) newPostSource() (content.PostSource, error) {
	cc := a.cfg.Content

	var source content.PostSource
	switch cc.Driver {
	case "file":
		source = content.NewFileSource(cc.File.Path)
	case "contentful", "":
		source = content.NewContentfulSource(content.ContentfulConfig{
			BaseURL:     cc.Contentful.BaseURL,
			SpaceID:     cc.Contentful.SpaceID,
			AccessToken: cc.Contentful.AccessToken,
			Environment: cc.Contentful.Environment,
			ContentType: cc.Contentful.ContentType,
			PageSize:    cc.Contentful.PageSize,
			Timeout:     cc.Contentful.Timeout,
		}, a.log)
	default:
		return nil, fmt.Errorf("unknown content driver %q", cc.Driver)
	}

	if cc.CacheTTL <= 0 {
		return source, nil
	}
	cached, err := content.NewCachedSource(source, cc.CacheTTL, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create post cache: %w", err)
	}
	a.cache = cached
	return cached, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for at most the configured shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(a.log.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.log.Info("blog api listening", "addr", ln.Addr().String(), "storage", a.cfg.Storage.Driver, "content", a.cfg.Content.Driver)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ReloadPosts drops cached posts so the next request reads the content source.
func (a *App) ReloadPosts() {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate()
	a.log.Info("post cache cleared")
}

// reloadOnHangup clears the post cache on every SIGHUP until ctx is done.
func (a *App) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-hup:
			a.ReloadPosts()
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the comment store and the post cache.
func (a *App) Close() error {
	if a.cache != nil {
		a.cache.Close()
	}
	return a.comments.Close()
}

// RunAppServer loads configuration, starts the server and blocks until
// SIGINT or SIGTERM. SIGHUP clears the post cache. It returns the process
// exit code.
func RunAppServer(args []string) int {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", os.Getenv("BLOGAPI_CONFIG"), "path to the YAML config file")
	envFile := flags.String("env-file", "", "load environment variables from this file first")
	addr := flags.String("addr", "", "listen address, overrides http.host and http.port")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(*configPath, envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	log := NewLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		return 1
	}
	defer app.Close()
	go app.reloadOnHangup(ctx)

	listenAddr := cfg.HTTP.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Error("failed to listen", "addr", listenAddr, "error", err)
		return 1
	}

	if err := app.Serve(ctx, ln); err != nil {
		log.Error("server error", "error", err)
		return 1
	}
	return 0
}
