// Command umbridge-server hosts the bundled example models behind the
// UM-Bridge HTTP protocol.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/internal/evallog"
	"github.com/umbridge-go/umbridge/internal/logging"
	"github.com/umbridge-go/umbridge/internal/version"
	"github.com/umbridge-go/umbridge/models"
	"github.com/umbridge-go/umbridge/server"
)

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	addr := ":4242"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	hosted := []umbridge.Model{
		models.Forward{},
		models.Gaussian1D{Mu: 0, Sigma: 1},
		models.Identity{VectorSize: 1, Arity: 1},
		models.Diagonal{Size: 1, DefaultScale: 1},
	}

	var opts []server.Option
	var evalLogDriver, evalLogDSN string

	if cfgPath := os.Getenv("UMBRIDGE_CONFIG"); cfgPath != "" {
		cfg, err := server.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("load server config: %v", err)
		}
		opts = append(opts, cfg.Options()...)
		evalLogDriver, evalLogDSN = cfg.EvalLog.Driver, cfg.EvalLog.DSN
		log.Printf("Config loaded from %s: shmem=%v pool-overrides=%d", cfgPath, cfg.ShMem, len(cfg.PoolSizes))
	} else {
		if os.Getenv("UMBRIDGE_SHMEM") != "" {
			opts = append(opts, server.WithShMem(true))
		}
		if sizes := os.Getenv("UMBRIDGE_POOL_SIZE"); sizes != "" {
			if n, err := strconv.ParseInt(sizes, 10, 64); err == nil {
				for _, m := range hosted {
					opts = append(opts, server.WithPoolSize(m.Name(), n))
				}
			}
		}
		if dsn := os.Getenv("UMBRIDGE_EVALLOG_SQLITE"); dsn != "" {
			evalLogDriver, evalLogDSN = "sqlite", dsn
		} else if dsn := os.Getenv("UMBRIDGE_EVALLOG_POSTGRES"); dsn != "" {
			evalLogDriver, evalLogDSN = "postgres", dsn
		}
	}

	switch evalLogDriver {
	case "sqlite":
		w, err := evallog.NewSQLiteWriter(evalLogDSN)
		if err != nil {
			log.Fatalf("open sqlite eval log: %v", err)
		}
		opts = append(opts, server.WithEvalLog(w))
	case "postgres":
		w, err := evallog.NewPostgresWriter(evalLogDSN)
		if err != nil {
			log.Fatalf("open postgres eval log: %v", err)
		}
		opts = append(opts, server.WithEvalLog(w))
	}

	srv, err := server.New(hosted, opts...)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Logger.Info("umbridge-server starting",
		"version", version.Short(), "addr", addr, "models", len(hosted))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logging.Logger.Info("umbridge-server stopped")
}
