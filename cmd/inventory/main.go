// Command inventory runs the Inventory service: product catalog reads and
// stock adjustment with its low-stock feed.
package main

import (
	"github.com/corebooks/core/internal/inventory/http"
	"github.com/corebooks/core/internal/inventory/postgres"
	"github.com/corebooks/core/internal/inventory/service"
	"github.com/corebooks/core/internal/platform/config"
	"github.com/corebooks/core/internal/platform/launcher"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/pg"
)

const serviceName = "inventory"

type envConfig struct {
	Port                string `env:"INVENTORY_PORT,8003"`
	LogLevel            string `env:"LOG_LEVEL,info"`
	DBHostPrimary       string `env:"DB_HOST,localhost"`
	DBPortPrimary       string `env:"DB_PORT,5432"`
	DBUser              string `env:"DB_USER,postgres"`
	DBPassword          string `env:"DB_PASSWORD,postgres"`
	DBName              string `env:"DB_NAME,corebooks"`
	DBHostReplica       string `env:"DB_REPLICA_HOST,"`
	AuthServiceURL      string `env:"AUTH_SERVICE_URL,http://localhost:8001"`
	LowStockFeedEnabled bool   `env:"LOW_STOCK_FEED_ENABLED,true"`
}

func dsn(host, port, user, password, name string) string {
	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func main() {
	config.LoadLocalEnv(serviceName, "v1")

	var cfg envConfig
	if err := config.FromEnv(&cfg); err != nil {
		panic(err)
	}

	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	conn := &pg.Connection{
		ConnectionStringPrimary: dsn(cfg.DBHostPrimary, cfg.DBPortPrimary, cfg.DBUser, cfg.DBPassword, cfg.DBName),
		ConnectionStringReplica: replicaDSN(cfg),
		DatabaseName:            cfg.DBName,
		MigrationsPath:          "internal/inventory/migrations",
		Logger:                  logger,
	}

	if err := conn.Connect(); err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}

	svc := service.New(postgres.NewProductRepository(conn), postgres.NewStockRepository(conn), logger)
	svc.LowStockFeedEnabled = cfg.LowStockFeedEnabled

	app := http.NewRouter(svc, cfg.AuthServiceURL, logger)

	l := launcher.New(launcher.WithLogger(logger), launcher.RunApp("http", launcher.FiberApp{App: app, Addr: ":" + cfg.Port}))
	l.Run()
}

func replicaDSN(cfg envConfig) string {
	if cfg.DBHostReplica == "" {
		return ""
	}

	return dsn(cfg.DBHostReplica, cfg.DBPortPrimary, cfg.DBUser, cfg.DBPassword, cfg.DBName)
}
