package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/storefront-ecom/internal/config"
	"github.com/MikeMC777/storefront-ecom/internal/logger"
	"github.com/MikeMC777/storefront-ecom/internal/mongostore"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
	"github.com/MikeMC777/storefront-ecom/internal/profilerpc"
	"github.com/MikeMC777/storefront-ecom/internal/shutdown"
)

func main() {
	cfg := config.Load()

	listen := flag.String("listen", cfg.ProfileSvcAddr, "gRPC listen address")
	hashToken := flag.String("hash-token", "", "print the bcrypt hash of a service token and exit")
	flag.Parse()

	if *hashToken != "" {
		h, err := profilerpc.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	log := logger.New(logger.Options{Service: "profile-service", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("mongo connect", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = store.Close(closeCtx)
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("mongo indexes", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.ProfileServiceTokenHash == "" {
		log.Warn("PROFILE_SERVICE_TOKEN_HASH is empty, service token check disabled")
	}

	svc := profile.NewService(profile.NewMongoRepo(store.Profiles()), log)

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		profilerpc.Logging(log),
		profilerpc.TokenAuth(cfg.ProfileServiceTokenHash),
	))
	profilerpc.RegisterProfileServer(grpcServer, profilerpc.NewServer(svc))

	hs := health.NewServer()
	hs.SetServingStatus(profilerpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen", slog.String("addr", *listen), slog.Any("err", err))
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("grpc server starting", slog.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")
	hs.Shutdown()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopCtx.Done():
		log.Warn("graceful stop timeout, forcing stop")
		grpcServer.Stop()
	case <-stopped:
	}

	wg.Wait()
	log.Info("bye")
}
