package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcapi "vesta-waitlist-backend/internal/api/grpc"
	"vesta-waitlist-backend/internal/api/grpc/interceptor"
	httpapi "vesta-waitlist-backend/internal/api/http"
	"vesta-waitlist-backend/internal/app"
	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/releases"
	"vesta-waitlist-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash of a password for admin.password_hash and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := security.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vesta Waitlist Backend...", "env", cfg.Env, "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if cfg.Admin.PasswordHash == "" {
		logger.Warn("admin.password_hash is empty, admin login is disabled")
	}

	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AdminTokenExpiry())
	releaseProxy := releases.NewProxy(cfg.Releases.ManifestURL, cfg.ReleasesTimeout())

	handler := httpapi.NewHandler(application.Waitlist, releaseProxy, tokenManager, application.Repo, httpapi.Options{
		AdminPasswordHash:  cfg.Admin.PasswordHash,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		RateLimitBurst:     cfg.HTTP.RateLimitBurst,
		TrustedProxies:     cfg.HTTP.TrustedProxies,
	})

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Set up gRPC health server
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	healthReporter := grpcapi.NewHealthReporter(application.Repo)
	rpcLogger := interceptor.NewLoggingInterceptor()
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(rpcLogger.Unary()),
		grpc.StreamInterceptor(rpcLogger.Stream()),
	)
	healthpb.RegisterHealthServer(grpcServer, healthReporter.Server())

	// Register reflection service for grpcurl
	reflection.Register(grpcServer)

	go healthReporter.Run(ctx, 15*time.Second)

	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
