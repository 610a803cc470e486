package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/blockvault/blockvault/adapters/blob"
	"github.com/blockvault/blockvault/adapters/cipher"
	"github.com/blockvault/blockvault/adapters/events"
	"github.com/blockvault/blockvault/adapters/pin"
	"github.com/blockvault/blockvault/adapters/store"
	"github.com/blockvault/blockvault/adapters/tokenizer"
	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
	"github.com/blockvault/blockvault/service"
	transport "github.com/blockvault/blockvault/transport/http"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:9000",
		Usage:   "address to listen on for the API",
		EnvVars: []string{"LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:    "redis-url",
		Value:   "",
		Usage:   "Redis URL for durable storage and events; empty runs in-memory",
		EnvVars: []string{"REDIS_URL"},
	},
	&cli.StringFlag{
		Name:    "jwt-secret",
		Value:   "",
		Usage:   "HMAC secret for bearer tokens (required)",
		EnvVars: []string{"JWT_SECRET"},
	},
	&cli.Int64Flag{
		Name:    "jwt-exp-minutes",
		Value:   60,
		Usage:   "bearer token lifetime in minutes",
		EnvVars: []string{"JWT_EXP_MINUTES"},
	},
	&cli.StringFlag{
		Name:    "app-name",
		Value:   "BlockVault",
		Usage:   "application name embedded in the login challenge message",
		EnvVars: []string{"APP_NAME"},
	},
	&cli.StringFlag{
		Name:    "storage-dir",
		Value:   "./data/blobs",
		Usage:   "directory for encrypted blobs",
		EnvVars: []string{"STORAGE_DIR"},
	},
	&cli.StringFlag{
		Name:    "admin-addrs",
		Value:   "",
		Usage:   "comma-separated addresses granted the admin role",
		EnvVars: []string{"ADMIN_ADDRS"},
	},
	&cli.BoolFlag{
		Name:    "ipfs-enabled",
		Value:   false,
		Usage:   "pin encrypted blobs to IPFS",
		EnvVars: []string{"IPFS_ENABLED"},
	},
	&cli.StringFlag{
		Name:    "ipfs-addr",
		Value:   "localhost:5001",
		Usage:   "IPFS API address",
		EnvVars: []string{"IPFS_ADDR"},
	},
	&cli.StringFlag{
		Name:    "ipfs-gateway",
		Value:   "https://ipfs.io/ipfs/",
		Usage:   "public gateway prefix for content links",
		EnvVars: []string{"IPFS_GATEWAY"},
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
}

func main() {
	app := &cli.App{
		Name:   "blockvault",
		Usage:  "Wallet-authenticated encrypted file vault",
		Flags:  flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	log := setupLogger(cCtx.Bool("log-json"), cCtx.Bool("log-debug"))

	jwtSecret := cCtx.String("jwt-secret")
	if jwtSecret == "" {
		return errors.New("jwt-secret is required")
	}

	adminAddrs, err := parseAdminAddrs(cCtx.String("admin-addrs"))
	if err != nil {
		return fmt.Errorf("invalid admin-addrs: %w", err)
	}

	var (
		st       ports.Store
		eventPub ports.EventPublisher = events.NopPublisher{}
	)
	if redisURL := cCtx.String("redis-url"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(cCtx.Context).Err(); err != nil {
			return fmt.Errorf("failed to reach Redis: %w", err)
		}
		st = store.NewRedisStore(redisClient, service.DefaultNonceTTL)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewSlogLogger(log),
		)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
		log.Info("using Redis storage", slog.String("url", redisURL))
	} else {
		st = store.NewMemoryStore()
		log.Warn("running with in-memory storage, state is lost on restart")
	}

	blobs, err := blob.NewFileStore(cCtx.String("storage-dir"))
	if err != nil {
		return err
	}

	var pinner ports.Pinner = pin.NoopPinner{}
	if cCtx.Bool("ipfs-enabled") {
		pinner = pin.NewIPFSPinner(cCtx.String("ipfs-addr"), cCtx.String("ipfs-gateway"), log)
	}

	tok := tokenizer.NewJWTTokenizer(
		[]byte(jwtSecret),
		time.Duration(cCtx.Int64("jwt-exp-minutes"))*time.Minute,
	)

	authService := service.NewAuthService(st, st, tok, cCtx.String("app-name"), adminAddrs, log)
	userService := service.NewUserService(st, log)
	shareService := service.NewShareService(st, st, st, eventPub, log)
	fileService := service.NewFileService(st, st, blobs, cipher.NewAESGCMGateway(), pinner, eventPub, shareService, log)

	router := transport.SetupRouter(transport.Services{
		Auth:   authService,
		Users:  userService,
		Files:  fileService,
		Share:  shareService,
		Pinner: pinner,
	})

	srv := &http.Server{
		Addr:              cCtx.String("listen-addr"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(json, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseAdminAddrs(s string) ([]core.Address, error) {
	var out []core.Address
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := core.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
