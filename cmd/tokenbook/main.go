// Command tokenbook runs a tokenbook node: a replicated favorites
// store with a price lookup, served over REST and gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jrife/tokenbook/config"
	"github.com/jrife/tokenbook/host"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/metrics"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/price"
	"github.com/jrife/tokenbook/service"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/plugins"
	"github.com/jrife/tokenbook/storage/raft"
	"github.com/jrife/tokenbook/transport/frontends"
	grpc_frontend "github.com/jrife/tokenbook/transport/frontends/grpc"
	"github.com/jrife/tokenbook/transport/frontends/rest"
	"github.com/jrife/tokenbook/utils/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	issueToken := flag.String("issue-token", "", "print a bearer token for this principal and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)

	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(1)
	}

	logger, err := log.New(cfg.LogLevel)

	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %s\n", err)
		os.Exit(1)
	}

	defer logger.Sync()

	authenticator, err := identity.NewAuthenticator(identity.AuthenticatorConfig{
		Secret: []byte(cfg.Identity.Secret),
		Issuer: cfg.Identity.Issuer,
		TTL:    cfg.Identity.TTL,
	})

	if err != nil {
		logger.Fatal("could not create authenticator", zap.Error(err))
	}

	if *issueToken != "" {
		token, expiresAt, err := authenticator.Issue(identity.Principal(*issueToken))

		if err != nil {
			logger.Fatal("could not issue token", zap.Error(err))
		}

		fmt.Println(token)
		logger.Info("issued token", zap.String("principal", *issueToken), zap.Time("expires_at", expiresAt))

		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, authenticator); err != nil {
		logger.Fatal("tokenbook stopped", zap.Error(err))
	}
}

func openRootStore(cfg config.StorageConfig) (kv.RootStore, error) {
	plugin := plugins.Plugin(cfg.Plugin)

	if plugin == nil {
		return nil, fmt.Errorf("no kv plugin named %s", cfg.Plugin)
	}

	if cfg.Path != "" && cfg.Plugin != "memory" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("could not create data directory: %w", err)
		}
	}

	return plugin.NewRootStore(kv.PluginOptions{"path": cfg.Path})
}

func run(ctx context.Context, logger *zap.Logger, cfg config.Config, authenticator *identity.Authenticator) error {
	rootStore, err := openRootStore(cfg.Storage)

	if err != nil {
		return err
	}

	defer rootStore.Close()

	replicaStores, err := storage.New(storage.StoreConfig{Logger: logger, Store: rootStore.Store([]byte("replicas"))})

	if err != nil {
		return err
	}

	logStore := rootStore.Store([]byte("log"))

	if err := logStore.Create(); err != nil {
		return fmt.Errorf("could not create log store: %w", err)
	}

	entryLog, err := raft.NewKVLog(raft.KVLogConfig{Logger: logger, Partition: logStore.Partition([]byte("host"))})

	if err != nil {
		return err
	}

	m := metrics.New(prometheus.NewRegistry())
	agreement := outcall.NewAgreement(outcall.AgreementConfig{
		Logger:  logger,
		Budget:  outcall.NewBudget(cfg.Outcall.CycleBudget),
		Metrics: m,
	})

	h, err := host.New(ctx, host.Config{
		Logger:   logger,
		Store:    replicaStores,
		Log:      entryLog,
		Replicas: cfg.Replicas,
		NewIssuer: func(replicaName string) outcall.Issuer {
			return outcall.NewHTTPIssuer(outcall.HTTPIssuerConfig{
				Logger:  logger.With(zap.String("replica", replicaName)),
				Timeout: cfg.Outcall.Timeout,
			})
		},
		Agreement: agreement,
		Metrics:   m,
	})

	if err != nil {
		return err
	}

	logger.Info("host ready", zap.Int("replicas", cfg.Replicas), zap.Uint64("index", h.Index()))

	prices, err := price.New(price.Config{
		Logger:           logger,
		Outcaller:        h,
		Endpoint:         cfg.Outcall.PriceEndpoint,
		MaxResponseBytes: cfg.Outcall.MaxResponseBytes,
		Cycles:           cfg.Outcall.CyclesPerCall,
	})

	if err != nil {
		return err
	}

	svc, err := service.New(service.Config{Logger: logger, Host: h, Prices: prices})

	if err != nil {
		return err
	}

	options := frontends.Options{Logger: logger, Server: svc, Authenticator: authenticator, Metrics: m}
	var endpoints []endpoint

	if cfg.REST.Addr != "" {
		endpoints = append(endpoints, endpoint{addr: cfg.REST.Addr, frontend: &rest.Frontend{}})
	}

	if cfg.GRPC.Addr != "" {
		endpoints = append(endpoints, endpoint{addr: cfg.GRPC.Addr, frontend: &grpc_frontend.Frontend{}})
	}

	var lifecycle conc.WaitGroup
	errc := make(chan error, len(endpoints))
	started, err := startFrontends(logger, options, endpoints, &lifecycle, errc)

	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-errc:
		logger.Error("frontend failed", zap.Error(err))
	}

	stopped := make(chan struct{})

	go func() {
		stopFrontends(logger, started, &lifecycle)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		return errors.New("timed out waiting for frontends to stop")
	}

	return err
}

type endpoint struct {
	addr     string
	frontend frontends.TokenbookFrontend
}

// startFrontends initializes each frontend and serves it on its address.
// Listen failures after start-up are sent to errc. If any frontend cannot
// start, the ones already serving are stopped before returning.
func startFrontends(logger *zap.Logger, options frontends.Options, endpoints []endpoint, lifecycle *conc.WaitGroup, errc chan<- error) ([]frontends.TokenbookFrontend, error) {
	var started []frontends.TokenbookFrontend

	for _, e := range endpoints {
		if err := e.frontend.Init(options); err != nil {
			stopFrontends(logger, started, lifecycle)

			return nil, fmt.Errorf("could not initialize frontend for %s: %w", e.addr, err)
		}

		listener, err := net.Listen("tcp", e.addr)

		if err != nil {
			stopFrontends(logger, started, lifecycle)

			return nil, fmt.Errorf("could not listen on %s: %w", e.addr, err)
		}

		logger.Info("listening", zap.String("addr", listener.Addr().String()))

		frontend := e.frontend
		started = append(started, frontend)

		lifecycle.Go(func() {
			if err := frontend.Listen(listener); err != nil {
				errc <- err
			}
		})
	}

	return started, nil
}

// stopFrontends stops every frontend and waits for their Listen calls to return
func stopFrontends(logger *zap.Logger, started []frontends.TokenbookFrontend, lifecycle *conc.WaitGroup) {
	for _, frontend := range started {
		if err := frontend.Stop(); err != nil {
			logger.Warn("could not stop frontend", zap.Error(err))
		}
	}

	lifecycle.Wait()
}
