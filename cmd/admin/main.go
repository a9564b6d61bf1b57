package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/repairshop-service/config"
	"github.com/fekuna/repairshop-service/internal/cache"
	"github.com/fekuna/repairshop-service/internal/database/postgres"
	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/docstore/notify"
	docpg "github.com/fekuna/repairshop-service/internal/docstore/postgres"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose  bool
	operator string

	cfg     *config.Config
	appLog  logger.ZapLogger
	backend *backends
)

// backends are opened lazily by the commands that need them.
type backends struct {
	db       *sqlx.DB
	redis    *redis.Client
	store    docstore.Store
	notifier docstore.Notifier
}

var rootCmd = &cobra.Command{
	Use:           "repairshop-admin",
	Short:         "Back-office maintenance for the repair shop",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.LoadEnv()

		level := cfg.Logger.Level
		if verbose {
			level = "debug"
		}
		appLog = logger.NewZapLogger(&logger.ZapLoggerConfig{
			IsDevelopment:     true,
			Encoding:          "console",
			Level:             level,
			DisableCaller:     true,
			DisableStacktrace: true,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeBackends()
		if appLog != nil {
			_ = appLog.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&operator, "operator", os.Getenv("USER"), "name recorded on stock movements")

	rootCmd.AddCommand(seedCmd, stockCmd, staffCmd, exportCmd, eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		closeBackends()
		os.Exit(1)
	}
}

// openBackends connects to Postgres and, when reachable, Redis so that running
// servers see the changes made here.
func openBackends(ctx context.Context) (*backends, error) {
	if backend != nil {
		return backend, nil
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	b := &backends{db: db}
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLog.Warn("Redis unavailable, live views will not see these changes until refreshed", zap.Error(err))
	} else {
		b.redis = redisClient
		b.notifier = notify.NewRedisNotifier(redisClient)
	}

	pg := docpg.NewStore(db, b.notifier)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	b.store = pg

	backend = b
	return b, nil
}

func closeBackends() {
	if backend == nil {
		return
	}
	if backend.redis != nil {
		_ = backend.redis.Close()
	}
	_ = backend.db.Close()
	backend = nil
}
