// guestctl is the operator CLI: it applies the schema, cleans up processed
// webhook events and mints service tokens for channel adapters.
//
//	guestctl migrate
//	guestctl cleanup [--days N]
//	guestctl token --subject svc:bot-adapter [--scopes a,b] [--ttl 720h]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	jwttoken "guestman/internal/jwt_token"
	"guestman/internal/platform/config"
	"guestman/internal/platform/logger"
	"guestman/internal/platform/postgres"
	redisclient "guestman/internal/platform/redis"
	"guestman/internal/replay"
	replaystore "guestman/internal/replay/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errors.New("missing command")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	switch args[0] {
	case "migrate":
		return runMigrate(ctx, cfg, log, args[1:])
	case "cleanup":
		return runCleanup(ctx, cfg, log, args[1:])
	case "token":
		return runToken(cfg, args[1:], out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `usage: guestctl <command> [flags]

commands:
  migrate    apply the embedded schema to DATABASE_URL
  cleanup    delete processed webhook events older than the retention window
  token      mint a bearer token for the directory API
`)
}

func runMigrate(ctx context.Context, cfg config.Server, log *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied", "versions", applied, "count", len(applied))
	return nil
}

func runCleanup(ctx context.Context, cfg config.Server, log *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
	days := flags.Int("days", cfg.Retention.EventDays, "retention window in days")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *days < 1 {
		return errors.New("--days must be at least 1")
	}

	var store replay.Store
	switch cfg.ReplayBackend {
	case config.ReplayBackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		store = replaystore.NewPostgres(db)
	case config.ReplayBackendRedis:
		rc, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		store = replaystore.NewRedis(rc.Client)
	default:
		return fmt.Errorf("replay backend %q has nothing to clean up", cfg.ReplayBackend)
	}

	cleaner := replay.NewCleaner(store, time.Duration(*days)*24*time.Hour, replay.WithLogger(log))
	_, err := cleaner.RunOnce(ctx)
	return err
}

func runToken(cfg config.Server, args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("token", pflag.ContinueOnError)
	subject := flags.String("subject", "", "token subject, e.g. svc:bot-adapter")
	scopes := flags.StringSlice("scopes", nil, "comma-separated scopes (empty grants all)")
	ttl := flags.Duration("ttl", 30*24*time.Hour, "token lifetime; 0 never expires")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if cfg.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required")
	}

	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).
		GenerateServiceToken(strings.TrimSpace(*subject), *scopes, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
