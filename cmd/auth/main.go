// Command auth runs the Auth service: login, token refresh, profile
// resolution, and user/role administration.
package main

import (
	"context"
	"time"

	"github.com/corebooks/core/internal/auth/http"
	"github.com/corebooks/core/internal/auth/jwtutil"
	"github.com/corebooks/core/internal/auth/postgres"
	authredis "github.com/corebooks/core/internal/auth/redis"
	"github.com/corebooks/core/internal/auth/service"
	"github.com/corebooks/core/internal/platform/config"
	"github.com/corebooks/core/internal/platform/launcher"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/pg"
	"github.com/corebooks/core/internal/platform/redisx"
)

const serviceName = "auth"

type envConfig struct {
	Port                string `env:"AUTH_PORT,8001"`
	LogLevel            string `env:"LOG_LEVEL,info"`
	DBHostPrimary       string `env:"DB_HOST,localhost"`
	DBPortPrimary       string `env:"DB_PORT,5432"`
	DBUser              string `env:"DB_USER,postgres"`
	DBPassword          string `env:"DB_PASSWORD,postgres"`
	DBName              string `env:"DB_NAME,corebooks"`
	DBHostReplica       string `env:"DB_REPLICA_HOST,"`
	RedisURL            string `env:"REDIS_URL,redis://localhost:6379/0"`
	JWTSecret           string `env:"JWT_SECRET,change-me-in-production"`
	AccessTokenTTLMins  int64  `env:"ACCESS_TOKEN_TTL_MINUTES,15"`
	RefreshTokenTTLDays int64  `env:"REFRESH_TOKEN_TTL_DAYS,7"`
	BootstrapUsername   string `env:"BOOTSTRAP_ADMIN_USERNAME,admin"`
	BootstrapEmail      string `env:"BOOTSTRAP_ADMIN_EMAIL,admin@corebooks.local"`
	BootstrapPassword   string `env:"BOOTSTRAP_ADMIN_PASSWORD,"`
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
		MigrationsPath:          "internal/auth/migrations",
		Logger:                  logger,
	}

	if err := conn.Connect(); err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}

	redisConn := &redisx.Connection{ConnectionStringSource: cfg.RedisURL, Logger: logger}
	if err := redisConn.Connect(ctx); err != nil {
		logger.Warnf("redis unavailable, session cache disabled: %v", err)
		redisConn = nil
	}

	users := postgres.NewUserRepository(conn)
	roles := postgres.NewRoleRepository(conn)
	permissions := postgres.NewPermissionRepository(conn)
	sessions := postgres.NewRefreshSessionRepository(conn)

	var cache *authredis.SessionCache
	if redisConn != nil {
		cache = authredis.NewSessionCache(redisConn, time.Duration(cfg.AccessTokenTTLMins)*time.Minute)
	}

	minter := jwtutil.New(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTLMins)*time.Minute, time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour)

	svc := &service.Service{
		Users:       users,
		Roles:       roles,
		Permissions: permissions,
		Sessions:    sessions,
		Cache:       cache,
		Minter:      minter,
		RefreshTTL:  time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour,
		Logger:      logger,
	}

	if cfg.BootstrapPassword != "" {
		if err := svc.BootstrapAdmin(ctx, cfg.BootstrapUsername, cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
			logger.Errorf("bootstrap admin: %v", err)
		}
	}

	app := http.NewRouter(svc, minter, logger)

	l := launcher.New(launcher.WithLogger(logger), launcher.RunApp("http", launcher.FiberApp{App: app, Addr: ":" + cfg.Port}))
	l.Run()
}

func replicaDSN(cfg envConfig) string {
	if cfg.DBHostReplica == "" {
		return ""
	}

	return dsn(cfg.DBHostReplica, cfg.DBPortPrimary, cfg.DBUser, cfg.DBPassword, cfg.DBName)
}
