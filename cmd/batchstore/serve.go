package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/batchstore"
	"github.com/vango-dev/batchstore/internal/config"
	"github.com/vango-dev/batchstore/pkg/container"
	"github.com/vango-dev/batchstore/pkg/limiter"
	"github.com/vango-dev/batchstore/pkg/loop"
	"github.com/vango-dev/batchstore/pkg/server"
	"github.com/vango-dev/batchstore/pkg/snapshot"
	"github.com/vango-dev/batchstore/pkg/telemetry"
	"github.com/vango-dev/batchstore/pkg/todos"
)

func serveCmd() *cobra.Command {
	var (
		configDir string
		port      int
		host      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the store server",
		Long: `Start the store server.

Configuration is read from batchstore.json in the config directory and
from BATCHSTORE_* environment variables. Command-line flags win over both.

Examples:
  batchstore serve
  batchstore serve --port=9090
  batchstore serve --config=/etc/batchstore`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, os.Stderr)
		},
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", ".", "Directory containing batchstore.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from batchstore.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from batchstore.json)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	l := loop.New(cfg.Server.LoopSize, loop.WithLogger(logger))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	factories, err := cfg.Limiters(limiter.WithExecutor(l.Post), limiter.WithLogger(logger))
	if err != nil {
		return err
	}

	initial := todos.State{}
	var writer *snapshot.Writer[todos.State]
	if cfg.Snapshot.Enabled {
		sink := snapshot.NewS3Store(newS3Client(cfg.Snapshot), cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
		snap, err := sink.Load(ctx, &initial)
		switch {
		case stderrors.Is(err, snapshot.ErrNotFound):
			logger.Info("no snapshot found, starting empty", "bucket", cfg.Snapshot.Bucket)
		case err != nil:
			return err
		default:
			logger.Info("state restored", "snapshot", snap.ID, "taken_at", snap.TakenAt, "todos", len(initial))
		}
		writer = snapshot.NewWriter[todos.State](sink,
			snapshot.WithLogger(logger),
			snapshot.WithOnSaved(metrics.SnapshotSaved),
		)
	}

	base, err := container.New(todos.Reducer, initial)
	if err != nil {
		return err
	}
	store, err := batchstore.New[todos.State](base, batchstore.Config{
		Channels:   factories,
		Logger:     logger,
		Instrument: telemetry.Multi(metrics, telemetry.NewTracer()),
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if writer != nil {
		if _, err := store.Subscribe(func() { writer.Notify(store.GetState()) }); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Run(ctx)
	}()

	srv, err := server.New(server.Config[todos.State]{
		Store:           store,
		Loop:            l,
		Logger:          logger,
		Gatherer:        reg,
		Conns:           metrics,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
	})
	if err != nil {
		return err
	}

	printBanner()
	info("Listening on http://%s", cfg.Address())
	info("Channels: %v", cfg.ChannelNames())
	fmt.Println()

	err = srv.ListenAndServe(ctx, cfg.Address())
	l.Close()
	wg.Wait()
	return err
}

// newLogger builds the slog logger described by cfg.Log.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newS3Client builds an S3 client from the snapshot settings. Credentials
// come from the standard AWS_* environment variables.
func newS3Client(cfg config.SnapshotConfig) *s3.Client {
	return s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(envCredentials{}),
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for snapshots")
	}
	return creds, nil
}
