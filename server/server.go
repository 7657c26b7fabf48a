package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mrosello/videograb/server/archive"
	"github.com/mrosello/videograb/server/archiver"
	"github.com/mrosello/videograb/server/config"
	"github.com/mrosello/videograb/server/internal/jobstore"
	"github.com/mrosello/videograb/server/internal/notifier"
	"github.com/mrosello/videograb/server/internal/orchestrator"
	"github.com/mrosello/videograb/server/internal/ytdlp"
	"github.com/mrosello/videograb/server/rest"

	_ "modernc.org/sqlite"
)

func Run(ctx context.Context) error {
	conf := config.Instance()

	// ---- LOGGING ---------------------------------------------------
	logWriters := []io.Writer{os.Stdout}

	if conf.Logging.EnableFileLogging {
		fd, err := os.OpenFile(conf.Logging.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer fd.Close()

		logWriters = append(logWriters, fd)
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(logWriters...), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	slog.SetDefault(logger)
	// ----------------------------------------------------------------

	if err := os.MkdirAll(conf.Paths.DownloadPath, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(conf.Paths.LocalDatabasePath, "archive.db"))
	if err != nil {
		return err
	}

	archiveService, err := archive.Container(db)
	if err != nil {
		return err
	}

	if err := archiver.Register(archiveService); err != nil {
		return err
	}

	var (
		store = jobstore.NewStore(conf.Paths.DownloadPath)
		hub   = notifier.NewHub(store)
		tool  = ytdlp.New(conf.Paths.DownloaderPath)
		orch  = orchestrator.New(store, hub, tool, conf.Server.QueueSize)
	)

	srv := newServer(&rest.ContainerArgs{
		Store:        store,
		Hub:          hub,
		Orchestrator: orch,
		Tool:         tool,
		Archive:      archiveService,
		DownloadDir:  conf.Paths.DownloadPath,
	})

	go gracefulShutdown(ctx, srv, orch, db)

	address := fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		slog.Error("failed to listen", slog.String("err", err.Error()))
		return err
	}

	slog.Info("videograb started", slog.String("address", address))

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("http server stopped", slog.String("err", err.Error()))
	}

	return nil
}

func newServer(args *rest.ContainerArgs) *http.Server {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(corsMiddleware.Handler)

	r.Group(rest.ApplyRouter(args))

	return &http.Server{Handler: r}
}

func gracefulShutdown(ctx context.Context, srv *http.Server, orch *orchestrator.Orchestrator, db *sql.DB) {
	<-ctx.Done()
	slog.Info("shutdown signal received")

	orch.Shutdown()

	defer func() {
		db.Close()
		srv.Shutdown(context.Background())
	}()
}
