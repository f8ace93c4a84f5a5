package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"launchline/internal/config"
	"launchline/internal/db"
	"launchline/internal/engine"
	"launchline/internal/repo"
)

// Runtime bundles everything a CLI command or server needs.
type Runtime struct {
	Config *config.Config
	Repo   repo.Repository
	Engine engine.Engine
	close  func() error
}

func (r *Runtime) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open resolves the workspace config and opens the configured store.
// storeOverride, when set, replaces config.store.driver.
func Open(ctx context.Context, workspace, storeOverride string) (*Runtime, error) {
	cfg, err := config.Resolve(workspace)
	if err != nil {
		return nil, err
	}
	if storeOverride != "" {
		cfg.Store.Driver = storeOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	r, closeFn, err := OpenRepository(ctx, workspace, cfg)
	if err != nil {
		return nil, err
	}
	return &Runtime{Config: cfg, Repo: r, Engine: engine.New(r, cfg), close: closeFn}, nil
}

// OpenRepository builds the repository adapter for cfg.Store.Driver.
func OpenRepository(ctx context.Context, workspace string, cfg *config.Config) (repo.Repository, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return repo.NewMemory(), noop, nil
	case config.DriverSQLite:
		conn, err := db.Open(db.Config{Workspace: workspace, DSN: cfg.Store.DSN})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlStore(conn, db.SQLite)
	case config.DriverPostgres:
		conn, err := db.OpenPostgres(cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqlStore(conn, db.Postgres)
	case config.DriverDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Store.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		log.Printf("store=dynamodb table=%s region=%s", cfg.Store.Table, cfg.Store.Region)
		return repo.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Store.Table), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func sqlStore(conn *sql.DB, dialect db.Dialect) (repo.Repository, func() error, error) {
	store, err := repo.NewSQLStore(conn, dialect)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, conn.Close, nil
}
