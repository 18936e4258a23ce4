package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"nhbrepay/cmd/internal/passphrase"
	"nhbrepay/cmd/nhb-repay/config"
	nhbconfig "nhbrepay/config"
	"nhbrepay/native/lending"
	"nhbrepay/observability"
	"nhbrepay/observability/logging"
	telemetry "nhbrepay/observability/otel"
	"nhbrepay/repay"
	"nhbrepay/services/lending/engine"
	"nhbrepay/services/lending/engine/rpcclient"
	"nhbrepay/state/accounts"
	"nhbrepay/storage"
	"nhbrepay/tui/repaypanel"
	"nhbrepay/wallet"
)

type options struct {
	configPath string
	obligation string
	reserve    string
	collateral string
	percent    float64
	amount     string
	headless   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to nhb-repay configuration")
	flag.StringVar(&opts.obligation, "obligation", "", "obligation to repay")
	flag.StringVar(&opts.reserve, "reserve", "", "reserve to repay when no obligation is given")
	flag.StringVar(&opts.collateral, "collateral", "", "collateral reserve credited on repayment")
	flag.Float64Var(&opts.percent, "percent", -1, "headless: repay this percentage of the debt")
	flag.StringVar(&opts.amount, "amount", "", "headless: repay this amount of the borrowed token")
	flag.BoolVar(&opts.headless, "headless", false, "submit without the interactive panel")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	interactive := !opts.headless && term.IsTerminal(int(os.Stdout.Fd()))
	var logger *slog.Logger
	if interactive {
		var closer io.Closer
		logger, closer, err = logging.SetupFile(cfg.Service, cfg.Env, logging.ParseLevel(cfg.Log.Level), cfg.LogFile())
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer closer.Close()
	} else {
		logger = logging.Setup(cfg.Service, cfg.Env)
	}
	logger.Info("configuration loaded", "config", cfg.Sanitized(), "interactive", interactive)

	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.OTel())
	if err != nil {
		logger.Error("failed to initialise telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, interactive, logger); err != nil {
		logger.Error("nhb-repay failed", "error", err)
		fmt.Fprintf(os.Stderr, "nhb-repay: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opts options, interactive bool, logger *slog.Logger) error {
	target := repay.Target{
		Obligation: strings.TrimSpace(opts.obligation),
		Reserve:    strings.TrimSpace(opts.reserve),
	}
	if target.Obligation == "" && target.Reserve == "" {
		return errors.New("-obligation or -reserve is required")
	}

	tokens, err := nhbconfig.LoadTokens(cfg.Tokens)
	if err != nil {
		return err
	}

	if cfg.Wallet.Keystore == "" {
		return errors.New("wallet.keystore is required")
	}
	pass, err := passphrase.NewSource(cfg.Wallet.PassphraseEnv, "").Get()
	if err != nil {
		return err
	}
	signer, err := wallet.Open(cfg.Wallet.Keystore, pass)
	if err != nil {
		return err
	}

	client, err := rpcclient.NewClient(cfg.RPC())
	if err != nil {
		return fmt.Errorf("rpc client: %w", err)
	}
	node := engine.NewRPCAdapter(client)

	store, err := openStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	cache := accounts.NewCache(accounts.WithStore(store), accounts.WithLogger(logger))
	cache.RegisterParsers(lending.Parsers())
	if warmed, err := cache.Warm(); err != nil {
		logger.Warn("account snapshot unreadable", "error", err)
	} else if warmed > 0 {
		logger.Info("account cache warmed", "accounts", warmed)
	}

	if cfg.Metrics.Listen != "" {
		go serveMetrics(ctx, cfg.Metrics.Listen, logger)
	}

	loader := engine.NewLoader(node, cache, logger, observability.AccountMetrics())
	loadTarget := engine.LoadTarget{Obligation: target.Obligation, Reserve: target.Reserve, Owner: signer.Address()}
	resolver := repay.NewResolver(cache, signer.Address())

	var feedback *repaypanel.Feedback
	notifier := repay.Notifiers{repay.LogNotifier{Logger: logger}}
	if interactive {
		feedback = repaypanel.NewFeedback()
		notifier = append(notifier, feedback)
	}
	orch := repay.New(repay.Config{
		Input:     repay.NewInput(0),
		Submitter: engine.NewRepaySubmitter(node, logger),
		Wallet:    signer,
		Notifier:  notifier,
		Metrics:   observability.RepayMetrics(),
		Logger:    logger,
	})

	if !interactive {
		if err := loader.Load(ctx, loadTarget); err != nil {
			return err
		}
		return runHeadless(ctx, orch, resolver, cache, tokens, target, opts)
	}

	model := repaypanel.New(repaypanel.Options{
		Context:      ctx,
		Orchestrator: orch,
		Resolver:     resolver,
		Cache:        cache,
		Target:       target,
		Namer:        tokens,
		Feedback:     feedback,
		Collateral:   opts.collateral,
		Load: func(ctx context.Context) error {
			return loader.Load(ctx, loadTarget)
		},
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run panel: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, orch *repay.Orchestrator, resolver *repay.Resolver, cache *accounts.Cache, tokens *nhbconfig.TokenRegistry, target repay.Target, opts options) error {
	input := orch.Input()
	input.SetBorrowAmount(resolver.Debt(target))
	switch {
	case opts.percent >= 0:
		input.SetPercentage(opts.percent)
	case strings.TrimSpace(opts.amount) != "":
		input.SetText(strings.TrimSpace(opts.amount))
	default:
		return errors.New("-percent or -amount is required in headless mode")
	}

	var selector *repay.Selector
	if reserve, ok := resolver.RepayReserve(target); ok {
		selector = repay.NewSelector(cache, reserve, tokens)
		selector.Select(opts.collateral)
	}
	receipt, err := orch.Repay(ctx, resolver.Request(target, selector))
	if repay.IsSilent(err) {
		return fmt.Errorf("repay not submitted: %w", err)
	}
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]string{
		"txHash":    receipt.TxHash,
		"requestId": receipt.RequestID,
	})
}

func openStore(path string) (storage.Database, error) {
	if path == "" {
		return storage.NewMemDB(), nil
	}
	db, err := storage.NewLevelDB(path)
	if err != nil {
		return nil, fmt.Errorf("open account cache: %w", err)
	}
	return db, nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed", "error", err)
	}
}
