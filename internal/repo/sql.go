package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"launchline/internal/db"
	"launchline/internal/domain"
	"launchline/internal/migrate"
	"launchline/internal/obs"
)

const snapshotRowID = 1

// SQLStore keeps the snapshot in a single launch_snapshot row. It serves both
// sqlite and postgres; Dialect picks the placeholder style.
type SQLStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// NewSQLStore migrates the schema and returns a ready store.
func NewSQLStore(conn *sql.DB, dialect db.Dialect) (*SQLStore, error) {
	if err := migrate.Migrate(conn, dialect); err != nil {
		return nil, storageErr("migrate", err)
	}
	return &SQLStore{DB: conn, Dialect: dialect}, nil
}

func (s *SQLStore) op(name string) string {
	return "repo." + string(s.Dialect) + "." + name
}

func (s *SQLStore) Load(ctx context.Context) (_ Snapshot, err error) {
	defer obs.Time(ctx, s.op("Load"))(&err)

	var (
		version int64
		data    string
	)
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT version, payload_json FROM launch_snapshot WHERE id=?`), snapshotRowID).
		Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{Version: 0, Launches: []domain.Launch{}}, nil
	}
	if err != nil {
		return Snapshot{}, storageErr("load", err)
	}
	launches, err := decodePayload([]byte(data))
	if err != nil {
		return Snapshot{}, storageErr("load", err)
	}
	return Snapshot{Version: version, Launches: launches}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]domain.Launch, error) {
	return listFrom(ctx, s)
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Launch, error) {
	return getFrom(ctx, s, id)
}

func (s *SQLStore) SaveAll(ctx context.Context, expectedVersion int64, launches []domain.Launch) (_ int64, err error) {
	defer obs.Time(ctx, s.op("SaveAll"))(&err)

	data, err := encodePayload(launches)
	if err != nil {
		return 0, storageErr("encode", err)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin", err)
	}
	defer tx.Rollback()

	next := expectedVersion + 1
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if expectedVersion == 0 {
		// first save; a concurrent first save trips the primary key
		var exists int
		err := tx.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT COUNT(1) FROM launch_snapshot WHERE id=?`), snapshotRowID).Scan(&exists)
		if err != nil {
			return 0, storageErr("save", err)
		}
		if exists > 0 {
			return 0, ErrVersionConflict
		}
		_, err = tx.ExecContext(ctx, s.Dialect.Rebind(`INSERT INTO launch_snapshot(id,version,payload_json,updated_at) VALUES (?,?,?,?)`),
			snapshotRowID, next, string(data), now)
		if err != nil {
			return 0, storageErr("save", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, s.Dialect.Rebind(`UPDATE launch_snapshot SET version=?, payload_json=?, updated_at=? WHERE id=? AND version=?`),
			next, string(data), now, snapshotRowID, expectedVersion)
		if err != nil {
			return 0, storageErr("save", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, storageErr("save", err)
		}
		if affected == 0 {
			return 0, ErrVersionConflict
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit", err)
	}
	return next, nil
}
