// Package main - Entry point for the premium estimation server
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"premium-estimator/adapters/storage"
	"premium-estimator/api"
	"premium-estimator/core/estimator"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
	"premium-estimator/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "Server address (default from config)")
	cfgPath := flag.String("config", "premium.yaml", "Path to config file")
	flag.Parse()

	if err := run(*cfgPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "premium-server: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()
	if addr == "" {
		addr = cfg.Server.Addr
	}

	opts, closeStore, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(version, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logging.Info("server listening",
			zap.String("addr", addr),
			zap.String("version", version),
			zap.String("strategy", string(cfg.Pricing.Strategy)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildOptions wires the estimators and journal. A configured model that
// cannot be loaded aborts startup.
func buildOptions(cfg *config.Config) ([]api.Option, func(), error) {
	var opts []api.Option
	for _, d := range []types.Domain{types.DomainVehicle, types.DomainHome} {
		strategy, err := estimator.StrategyFor(d)
		if err != nil {
			return nil, nil, err
		}
		est, err := estimator.NewRuleBased(cfg.Pricing.BaseCost, strategy)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Pricing.Currency != "" {
			est.WithCurrency(cfg.Pricing.Currency)
		}
		opts = append(opts, api.WithRuleEstimator(d, est))
	}

	if cfg.Pricing.Strategy == types.StrategyModel {
		learned, err := estimator.LearnedFromConfig(cfg)
		if err != nil {
			return nil, nil, err
		}
		logging.Info("model loaded",
			zap.String("kind", learned.Artifact().Model().Kind()),
			zap.String("path", learned.Artifact().ModelPath),
			zap.String("checksum", learned.Artifact().Checksum))
		opts = append(opts, api.WithLearned(learned))
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, api.WithStore(store), api.WithWorkers(cfg.Server.Workers))
	return opts, func() { store.Close() }, nil
}
