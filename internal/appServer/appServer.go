// launching the server, storage, kafka, postgres
package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/course-import/config"
	repository "github.com/ds124wfegd/course-import/internal/database/postgres"
	"github.com/ds124wfegd/course-import/internal/pkg/extractor"
	"github.com/ds124wfegd/course-import/internal/pkg/fetcher"
	"github.com/ds124wfegd/course-import/internal/pkg/kafka"
	"github.com/ds124wfegd/course-import/internal/pkg/processor"
	"github.com/ds124wfegd/course-import/internal/pkg/storage"
	"github.com/ds124wfegd/course-import/internal/service"
	"github.com/ds124wfegd/course-import/internal/transport"
	"github.com/ds124wfegd/course-import/pkg/postgres"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewPublisher builds the storage client once for the whole process.
func NewPublisher(ctx context.Context, cfg config.StorageConfig) (storage.Publisher, error) {
	switch cfg.Driver {
	case "", "local":
		return storage.NewLocalPublisher(storage.NewFileStorage(cfg.BasePath), cfg.PublicBaseURL), nil
	case "s3":
		s3Cfg := storage.S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		}
		if s3Cfg.Bucket == "" {
			return nil, fmt.Errorf("storage.bucket is required for the s3 driver")
		}
		client, err := storage.NewS3Client(ctx, s3Cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Publisher(client, s3Cfg), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewDeps wires every import collaborator from configuration.
// The returned cleanup closes the kafka writer and the database.
func NewDeps(ctx context.Context, cfg *config.Config) (service.Deps, func(), error) {
	publisher, err := NewPublisher(ctx, cfg.Storage)
	if err != nil {
		return service.Deps{}, nil, err
	}

	deps := service.Deps{
		Fetcher: fetcher.NewHTTPFetcher(fetcher.Options{
			UserAgent:     cfg.Fetch.UserAgent,
			Timeout:       cfg.Fetch.Timeout,
			MaxRedirects:  cfg.Fetch.MaxRedirects,
			MaxPageBytes:  cfg.Fetch.MaxPageBytes,
			MaxImageBytes: cfg.Fetch.MaxImageBytes,
		}),
		Extractor: extractor.NewExtractor(cfg.Import.MaxCandidates),
		Transcoder: processor.NewImageProcessor(processor.Options{
			Format:    cfg.Image.Format,
			Quality:   cfg.Image.Quality,
			MaxWidth:  cfg.Image.MaxWidth,
			MaxHeight: cfg.Image.MaxHeight,
			MaxBytes:  cfg.Image.MaxBytes,
		}),
		Publisher: publisher,
		Events:    kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic),
	}

	cleanup := func() {
		if err := deps.Events.Close(); err != nil {
			logrus.Errorf("error occured on kafka producer close: %s", err.Error())
		}
	}

	if cfg.Database.Host != "" {
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			logrus.Warnf("Import history disabled: %v", err)
		} else if err := postgres.RunMigrations(db); err != nil {
			logrus.Warnf("Import history disabled: %v", err)
			db.Close()
		} else {
			deps.History = repository.NewImportRepository(db)
			closeEvents := cleanup
			cleanup = func() {
				closeEvents()
				db.Close()
			}
		}
	}

	return deps, cleanup, nil
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	deps, cleanup, err := NewDeps(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	importService := service.NewImportService(deps, service.ImportServiceConfig{
		Timeout:      cfg.Import.Timeout,
		Folder:       cfg.Import.Folder,
		TargetFormat: cfg.Image.Format,
	})
	importHandler := transport.NewImportHandler(importService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := transport.RouterConfig{RequestTimeout: cfg.Server.Timeout}
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		routerCfg.StaticPath = cfg.Storage.BasePath
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(importHandler, routerCfg)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

	// события и записи аудита дописываются до закрытия kafka и postgres
	importService.Wait()
}
