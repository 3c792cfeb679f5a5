package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	"github.com/bryanwahyu/pcap-insight/internal/config"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/pcap-insight/internal/infra/db/mysql"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/postgres"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/sqlite"
	"github.com/bryanwahyu/pcap-insight/internal/logger"
)

// Store is an opened record store. SQL is nil for the memory store.
type Store struct {
	Repo   domain.Repository
	Driver string
	SQL    *sql.DB
	closer io.Closer
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open picks the store driver from cfg, connects and makes sure the
// schema exists.
func Open(ctx context.Context, cfg *config.Config, clock application.Clock) (*Store, error) {
	driver, err := cfg.StoreDriver()
	if err != nil {
		return nil, err
	}
	dsn := cfg.DSN(driver)

	st := &Store{Driver: driver}
	switch driver {
	case config.DriverMemory:
		st.Repo = memory.NewAnalysisRepository(clock)

	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo := postgres.NewAnalysisRepository(db, clock)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		st.Repo, st.SQL, st.closer = repo, db, db

	case config.DriverMySQL:
		norm, err := mysqlp.NormalizeDSN(dsn)
		if err != nil {
			return nil, err
		}
		db, err := mysqlp.Connect(ctx, norm)
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo := mysqlp.NewAnalysisRepository(db, clock)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		st.Repo, st.SQL, st.closer = repo, db, db

	case config.DriverSQLite:
		gdb, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		db, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		repo := sqlite.NewAnalysisRepository(gdb, clock)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		st.Repo, st.SQL, st.closer = repo, db, db
	}

	logger.WithFields(logrus.Fields{"driver": driver}).Info("record store ready")
	return st, nil
}
