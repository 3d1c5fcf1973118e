package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"junction/api/grpcserver"
	"junction/api/httpserver"
	"junction/domain/swap"
	"junction/infra/assets"
	"junction/infra/chain"
	"junction/infra/config"
	"junction/infra/history"
	"junction/infra/kafka"
	"junction/infra/logger"
	"junction/infra/metrics"
	"junction/infra/sequence"
	"junction/infra/store"
	"junction/infra/wal"
	"junction/jobs/broadcaster"
	"junction/jobs/deposits"
	"junction/jobs/expiry"
	"junction/service"
	"junction/snapshot"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	restore := flag.Bool("restore", false, "seed an empty store from the latest snapshot before starting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logs, err := logger.New(cfg.Logging)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer logs.Close()

	if err := run(cfg, logs, *restore); err != nil {
		logs.WithError(err).Fatal("junction exited")
	}
}

func run(cfg *config.Config, logs *logger.Logger, restore bool) error {
	log := logs.Component("main")
	m := metrics.New()

	// ---------------- Store ----------------

	st, err := store.Open(store.Options{Engine: cfg.Store.Engine, Dir: cfg.Store.Dir, Sync: cfg.Store.Sync})
	if err != nil {
		return errors.Wrap(err, "store init failed")
	}
	defer st.Close()

	// ---------------- Journal ----------------

	journal, err := wal.Open(wal.Config{
		Dir:             cfg.Journal.Dir,
		SegmentSize:     cfg.Journal.SegmentSize,
		SegmentDuration: cfg.Journal.SegmentDuration,
		SyncEveryAppend: cfg.Journal.SyncEveryAppend,
	})
	if err != nil {
		return errors.Wrap(err, "journal init failed")
	}
	defer journal.Close()

	// ---------------- Domain ----------------

	catalog, err := assets.FromConfig(cfg.Assets)
	if err != nil {
		return err
	}
	validator, err := chain.NewValidator(cfg.Bitcoin.Network)
	if err != nil {
		return err
	}

	engine := swap.NewEngine(sequence.New(0))

	// ---------------- Service ----------------

	svc := service.NewSwapService(service.Deps{
		Engine:     engine,
		Journal:    journal,
		JournalDir: cfg.Journal.Dir,
		Store:      st,
		Catalog:    catalog,
		Chains:     validator,
		Deriver:    chain.Simulated{},
		Metrics:    m,
		Log:        logs.Component("service"),
		Outbox:     cfg.Kafka.Enabled,
	})

	if restore {
		snap, err := snapshot.Load(cfg.Snapshot.Dir)
		if err != nil {
			return errors.Wrap(err, "restore")
		}
		if err := svc.Seed(snap); err != nil {
			return errors.Wrap(err, "restore")
		}
	}

	// ---------------- REPLAY ----------------

	if _, err := svc.Replay(); err != nil {
		return errors.Wrap(err, "replay failed")
	}

	// ---------------- Background Jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return expiry.New(svc, cfg.Expiry.Interval, logs.Component("expiry")).Run(ctx)
	})
	g.Go(func() error {
		return svc.RunCheckpoints(ctx, cfg.Snapshot.Dir, cfg.Checkpoint.Interval)
	})

	var archive *history.Archive
	if cfg.History.Enabled {
		archive, err = history.Open(cfg.History.Path, logs.Component("history"))
		if err != nil {
			return err
		}
		defer archive.Close()

		events, unsubscribe := svc.Bus().Subscribe(4096)
		g.Go(func() error {
			defer unsubscribe()
			return archive.Run(ctx, events)
		})
	}

	if cfg.Kafka.Enabled {
		publisher, err := newPublisher(cfg)
		if err != nil {
			return errors.Wrap(err, "kafka publisher")
		}
		bc := broadcaster.New(st, publisher, broadcaster.Config{
			Topics: map[store.Route]string{
				store.RouteEvents:     cfg.Kafka.EventsTopic,
				store.RouteSettlement: cfg.Kafka.SettlementTopic,
			},
			Interval: cfg.Kafka.PollInterval,
		}, m, logs.Component("broadcaster"))
		defer bc.Close()
		g.Go(func() error { return bc.Run(ctx) })

		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.DepositsTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		listener := deposits.NewListener(svc, logs.Component("deposits"))
		g.Go(func() error { return listener.Run(ctx, consumer) })
	}

	// ---------------- gRPC ----------------

	var limiter *grpcserver.Limiter
	if cfg.GRPC.RatePerSecond > 0 {
		limiter = grpcserver.NewLimiter(cfg.GRPC.RatePerSecond, cfg.GRPC.RateBurst, m)
	}
	grpcSrv := grpcserver.NewGRPCServer(grpcserver.NewServer(svc, logs.Component("grpc")), limiter)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return errors.Wrap(err, "listen failed")
	}
	g.Go(func() error { return grpcSrv.Serve(lis) })

	// ---------------- HTTP ----------------

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpserver.New(svc, archive, m, logs.Component("http")).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	log.WithFields(logrus.Fields{
		"grpc":   cfg.GRPC.Addr,
		"http":   cfg.HTTP.Addr,
		"store":  cfg.Store.Engine,
		"kafka":  cfg.Kafka.Enabled,
		"assets": len(catalog.List()),
	}).Info("junction running")

	// ---------------- Shutdown ----------------

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := journal.Sync(); err != nil {
		return errors.Wrap(err, "final journal sync")
	}
	return nil
}

func newPublisher(cfg *config.Config) (broadcaster.Publisher, error) {
	switch cfg.Kafka.Client {
	case "kafka-go":
		return kafka.NewProducer(cfg.Kafka.Brokers), nil
	default:
		return kafka.NewSaramaProducer(cfg.Kafka.Brokers)
	}
}
