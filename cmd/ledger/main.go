// Command ledger runs the Ledger service: chart of accounts, double-entry
// transaction posting, accounting periods, and financial reports.
package main

import (
	"context"

	"github.com/corebooks/core/internal/ledger/http"
	ledgermongo "github.com/corebooks/core/internal/ledger/mongo"
	"github.com/corebooks/core/internal/ledger/postgres"
	"github.com/corebooks/core/internal/ledger/service"
	"github.com/corebooks/core/internal/platform/config"
	"github.com/corebooks/core/internal/platform/launcher"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/mongox"
	"github.com/corebooks/core/internal/platform/pg"
)

const serviceName = "ledger"

type envConfig struct {
	Port            string `env:"LEDGER_PORT,8002"`
	LogLevel        string `env:"LOG_LEVEL,info"`
	DBHostPrimary   string `env:"DB_HOST,localhost"`
	DBPortPrimary   string `env:"DB_PORT,5432"`
	DBUser          string `env:"DB_USER,postgres"`
	DBPassword      string `env:"DB_PASSWORD,postgres"`
	DBName          string `env:"DB_NAME,corebooks"`
	DBHostReplica   string `env:"DB_REPLICA_HOST,"`
	MongoURI        string `env:"MONGO_URI,mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGO_DATABASE,corebooks_metadata"`
	AuthServiceURL  string `env:"AUTH_SERVICE_URL,http://localhost:8001"`
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

	ctx := logging.ContextWithLogger(context.Background(), logger)

	conn := &pg.Connection{
		ConnectionStringPrimary: dsn(cfg.DBHostPrimary, cfg.DBPortPrimary, cfg.DBUser, cfg.DBPassword, cfg.DBName),
		ConnectionStringReplica: replicaDSN(cfg),
		DatabaseName:            cfg.DBName,
		MigrationsPath:          "internal/ledger/migrations",
		Logger:                  logger,
	}

	if err := conn.Connect(); err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}

	mongoConn := &mongox.Connection{ConnectionStringSource: cfg.MongoURI, Database: cfg.MongoDatabase, Logger: logger}

	var metadata *ledgermongo.MetadataRepository
	if err := mongoConn.Connect(ctx); err != nil {
		logger.Warnf("mongo unavailable, account/transaction metadata disabled: %v", err)
	} else {
		metadata = ledgermongo.NewMetadataRepository(mongoConn)
	}

	svc := &service.Service{
		Accounts:     postgres.NewAccountRepository(conn),
		Transactions: postgres.NewTransactionRepository(conn),
		Periods:      postgres.NewPeriodRepository(conn),
		Logger:       logger,
	}

	if metadata != nil {
		svc.Metadata = metadata
	}

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
