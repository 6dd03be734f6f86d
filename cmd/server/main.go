// Command server starts the Cadet Corps gRPC server.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/config"
	"github.com/and161185/cadetcorps/internal/feed"
	"github.com/and161185/cadetcorps/internal/migrate"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository/postgres"
	grpcserver "github.com/and161185/cadetcorps/internal/server/grpc"
	"github.com/and161185/cadetcorps/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const healthProbeEvery = 10 * time.Second

// main loads configuration, runs migrations, and starts the gRPC server.
func main() {
	// CORPS_ENV_FILE names the dotenv file; empty means ".env"
	cfg, err := config.Load(os.Getenv("CORPS_ENV_FILE"))
	if err != nil {
		panic(err)
	}

	// Flags override environment
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN")
	flag.StringVar(&cfg.JWTKey, "jwt-key", cfg.JWTKey, "HS256 signing key (required)")
	flag.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token TTL")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the change feed (empty: in-process)")
	flag.StringVar(&cfg.AMQPURL, "amqp", cfg.AMQPURL, "RabbitMQ URL for notifications (empty: disabled)")
	flag.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "TLS certificate (PEM)")
	flag.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "TLS private key (PEM)")
	flag.BoolVar(&cfg.Dev, "dev", cfg.Dev, "development logging and server reflection")
	flag.Parse()

	var logger *zap.Logger
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var opts []grpc.ServerOption
	if cfg.TLS() {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("serving without TLS")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver, err := migrate.Up(ctx, cfg.DSN, logger)
	if err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	// DB pool
	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Change feed
	var changes feed.Feed
	if cfg.RedisAddr != "" {
		rc, err := feed.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		changes = feed.NewRedis(rc, feed.DefaultChannel, logger)
	} else {
		hub := feed.NewHub()
		defer hub.Close()
		changes = hub
	}

	// Notifications
	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		notifier = notify.NewAMQP(cfg.AMQPURL, notify.DefaultQueue)
	}

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	ledgerRepo := postgres.NewLedgerRepo(db)

	// Services
	svcOpts := []service.Option{
		service.WithFeed(changes),
		service.WithNotifier(notifier),
		service.WithLogger(logger),
	}
	authSvc := service.NewAuthService(userRepo, []byte(cfg.JWTKey), cfg.AccessTTL, svcOpts...)
	if cfg.BootstrapEmail != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.BootstrapEmail, cfg.BootstrapPassword)
		if err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
		if created {
			logger.Info("bootstrap admin created", zap.String("email", cfg.BootstrapEmail))
		}
	}
	svc := grpcserver.Services{
		Auth:          authSvc,
		Members:       service.NewMemberService(userRepo, svcOpts...),
		Ledger:        service.NewLedgerService(ledgerRepo, userRepo, svcOpts...),
		Announcements: service.NewAnnouncementService(postgres.NewAnnouncementRepo(db), svcOpts...),
		Documents:     service.NewDocumentService(postgres.NewDocumentRepo(db), svcOpts...),
		Materials:     service.NewMaterialService(postgres.NewMaterialRepo(db), svcOpts...),
		Messages:      service.NewMessageService(postgres.NewMessageRepo(db), svcOpts...),
	}

	// gRPC server with interceptors
	opts = append(opts, grpcserver.ServerOptions(logger, []byte(cfg.JWTKey))...)
	s := grpc.NewServer(opts...)

	// App service
	api.RegisterCorpsServer(s, grpcserver.New(svc, changes, logger))

	// Health follows database reachability; reflection in dev only
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	go probeDB(ctx, db, hs, logger)
	if cfg.Dev {
		reflection.Register(s)
	}

	// Listen
	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()))
		errCh <- s.Serve(lis)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()
		// graceful shutdown
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func probeDB(ctx context.Context, db *postgres.DB, hs *health.Server, log *zap.Logger) {
	t := time.NewTicker(healthProbeEvery)
	defer t.Stop()
	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		st := healthpb.HealthCheckResponse_SERVING
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := db.Ping(pctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			if last != st {
				log.Warn("database unreachable", zap.Error(err))
			}
		}
		cancel()
		if st != last {
			hs.SetServingStatus("", st)
			hs.SetServingStatus(api.ServiceName, st)
			last = st
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
