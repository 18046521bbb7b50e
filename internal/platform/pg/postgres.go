// Package pg is the shared Postgres connection hub, adapted from the
// teacher's common/mpostgres package: primary/replica via dbresolver, schema
// migrations via golang-migrate, singleton connect-on-demand.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/corebooks/core/internal/platform/logging"
)

// Connection is a hub that deals with Postgres connections for one service.
type Connection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	DatabaseName            string
	MigrationsPath          string
	Logger                  logging.Logger

	connectionDB *dbresolver.DB
}

// Connect opens primary+replica pools, runs pending migrations against the
// primary, and pings the resolver. Safe to call once; GetDB connects lazily
// if it hasn't been called yet.
func (c *Connection) Connect() error {
	if c.Logger == nil {
		c.Logger = logging.NewNoop()
	}

	c.Logger.Infof("connecting to primary and replica databases for %s", c.DatabaseName)

	replicaDSN := c.ConnectionStringReplica
	if replicaDSN == "" {
		replicaDSN = c.ConnectionStringPrimary
	}

	dbPrimary, err := sql.Open("pgx", c.ConnectionStringPrimary)
	if err != nil {
		return fmt.Errorf("open primary connection: %w", err)
	}

	dbReplica, err := sql.Open("pgx", replicaDSN)
	if err != nil {
		return fmt.Errorf("open replica connection: %w", err)
	}

	connectionDB := dbresolver.New(
		dbresolver.WithPrimaryDBs(dbPrimary),
		dbresolver.WithReplicaDBs(dbReplica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB))

	if c.MigrationsPath != "" {
		if err := c.migrate(dbPrimary); err != nil {
			return err
		}
	}

	if err := connectionDB.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	c.connectionDB = &connectionDB

	c.Logger.Infof("connected to postgres (%s)", c.DatabaseName)

	return nil
}

func (c *Connection) migrate(db *sql.DB) error {
	abs, err := filepath.Abs(c.MigrationsPath)
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MultiStatementEnabled: true,
		DatabaseName:          c.DatabaseName,
		SchemaName:            "public",
	})
	if err != nil {
		return fmt.Errorf("build migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), c.DatabaseName, driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// GetDB returns the resolver, connecting lazily if Connect hasn't run yet.
func (c *Connection) GetDB(ctx context.Context) (dbresolver.DB, error) {
	if c.connectionDB == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return *c.connectionDB, nil
}
