package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bankportal.org/internal/config"
	"bankportal.org/internal/dashboard"
	"bankportal.org/internal/gateway"
	"bankportal.org/internal/httpapi"
	"bankportal.org/internal/obs"
	"bankportal.org/internal/session"
	"bankportal.org/internal/tokenstore"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}
	if cfg.AppVersion != "" {
		version = cfg.AppVersion
	}

	// Инициализация observability (уровень логов, метрики, build info, трейсинг)
	obs.Setup(cfg.LogLevel)
	obs.Init()
	obs.InitBuildInfo(cfg.AppName, version, cfg.Env)
	log := obs.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := obs.SetupTracing(ctx, "bank-portal", version, cfg.OTLPEndpoint, cfg.OTLPInsecure)

	// Хранилище токенов: источник истины для bearer каждой сессии
	tokens, err := tokenstore.Open(ctx, cfg.TokenStore, cfg.SessionTimeout)
	if err != nil {
		log.Fatal().Err(err).Str("kind", cfg.TokenStore.Kind).Msg("open token store")
	}

	backend, err := gateway.New(cfg.APIBaseURL,
		gateway.WithEndpoints(gateway.Endpoints(cfg.Endpoints)),
		gateway.WithTimeout(cfg.UpstreamTimeout),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("backend client")
	}

	sessions, err := session.NewRegistry(cfg.SessionCacheSize, cfg.StorageKey, tokens, backend,
		session.WithDecoder(session.NewDecoder(cfg.VerifySecret)),
		session.WithEntryPath(cfg.Paths.Entry),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("session registry")
	}

	ready := httpapi.ReadyProbe{Tokens: tokens}
	api := httpapi.New(httpapi.Options{
		AppName:     cfg.AppName,
		Version:     version,
		Ready:       ready,
		Sessions:    sessions,
		Backend:     backend,
		Features:    dashboard.Features(cfg.Features),
		Paths:       httpapi.Paths(cfg.Paths),
		MaxTransfer: cfg.MaxTransferAmount,
		PerPage:     cfg.ItemsPerPage,

		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		CookieMaxAge: cfg.SessionTimeout,

		RateBurst:  cfg.RateBurst,
		RatePerSec: cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(ctx),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
		}
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, httpapi.NewGRPCServer(ready))
		go func() {
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Error().Err(err).Msg("grpc serve")
			}
		}()
		log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health listening")
	}

	log.Info().
		Str("version", version).
		Str("addr", srv.Addr).
		Str("api_base_url", cfg.APIBaseURL).
		Str("token_store", cfg.TokenStore.Kind).
		Msg("starting bank portal")

	// корректное завершение
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if err := tokens.Close(); err != nil {
		log.Error().Err(err).Msg("close token store")
	}
	log.Info().Msg("stopped")
}
