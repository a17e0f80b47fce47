package storage

import (
	"context"
	"database/sql"
	"encoding/base64"

	// postgres driver, selected with the "postgres" driver name option
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := RegisterStorage(new(SQLDB)); err != nil {
		panic(err)
	}
}

const (
	SQLConnectionString OptionKey = "sql-connection-string-option"
	SQLDriverName       OptionKey = "sql-driver-name-option"
)

type SQLDB struct {
	db               *sql.DB
	connectionString string
}

func (s *SQLDB) Init(opts ...Option) error {
	connString, sqlDriverName, err := processSQLOptions(opts...)
	if err != nil {
		return err
	}
	s.connectionString = connString

	db, err := sql.Open(sqlDriverName, connString)
	if err != nil {
		return err
	}

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS key_values (
    key varchar PRIMARY KEY,
    namespace varchar NOT NULL,
    value varchar
);`); err != nil {
		return errors.Wrap(err, "creating key_values table")
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_key_values_namespace ON key_values (namespace);`); err != nil {
		return errors.Wrap(err, "creating namespace index")
	}

	s.db = db
	return nil
}

func processSQLOptions(opts ...Option) (connString string, sqlDriverName string, err error) {
	for _, opt := range opts {
		switch opt.ID {
		case SQLConnectionString:
			maybeConnString, ok := opt.Option.(string)
			if !ok || len(maybeConnString) == 0 {
				err = errors.New("sql connection string must be a non-empty string")
				return
			}
			connString = maybeConnString
		case SQLDriverName:
			maybeDriverName, ok := opt.Option.(string)
			if !ok || len(maybeDriverName) == 0 {
				err = errors.New("sql driver name must be a non-empty string")
				return
			}
			sqlDriverName = maybeDriverName
		}
	}
	if len(connString) == 0 || len(sqlDriverName) == 0 {
		err = errors.New("sql connection string and driver name must not be empty")
		return
	}
	return connString, sqlDriverName, nil
}

func (s *SQLDB) Type() Type {
	return DatabaseSQL
}

func (s *SQLDB) URI() string {
	return s.connectionString
}

func (s *SQLDB) IsOpen() bool {
	if err := s.db.Ping(); err != nil {
		logrus.WithError(err).Error("pinging db")
		return false
	}
	return true
}

func (s *SQLDB) Close() error {
	return s.db.Close()
}

type execContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func write(ctx context.Context, db execContext, namespace, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `INSERT INTO key_values (key, namespace, value) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		Join(namespace, key), namespace, base64.RawStdEncoding.EncodeToString(value))
	return err
}

func (s *SQLDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	return write(ctx, s.db, namespace, key, value)
}

func (s *SQLDB) WriteMany(ctx context.Context, namespaces, keys []string, values [][]byte) error {
	if err := checkManyLengths(namespaces, keys, values); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logrus.WithError(err).Error("unable to rollback")
		}
	}(tx)

	for i := range keys {
		if err = write(ctx, tx, namespaces[i], keys[i], values[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func (s *SQLDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	r := s.db.QueryRowContext(ctx, "SELECT value FROM key_values WHERE key = $1", Join(namespace, key))
	var value string
	if err := r.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return base64.RawStdEncoding.DecodeString(value)
}

func (s *SQLDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM key_values WHERE key = $1)", Join(namespace, key)).Scan(&exists)
	return exists, err
}

func (s *SQLDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM key_values WHERE namespace = $1", namespace)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	allValues := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		decoded, err := base64.RawStdEncoding.DecodeString(value)
		if err != nil {
			return nil, err
		}
		allValues[key[len(namespace)+1:]] = decoded
	}
	return allValues, rows.Err()
}

func (s *SQLDB) ReadAllKeys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM key_values WHERE namespace = $1", namespace)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key[len(namespace)+1:])
	}
	return keys, rows.Err()
}

func (s *SQLDB) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM key_values WHERE key = $1", Join(namespace, key))
	return err
}

func (s *SQLDB) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM key_values WHERE namespace = $1", namespace); err != nil {
		return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
	}
	return nil
}

func (s *SQLDB) ReplaceNamespace(ctx context.Context, namespace string, keys []string, values [][]byte) error {
	if err := checkReplaceLengths(keys, values); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logrus.WithError(err).Error("unable to rollback")
		}
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM key_values WHERE namespace = $1", namespace); err != nil {
		return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
	}
	for i := range keys {
		if err = write(ctx, tx, namespace, keys[i], values[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logrus.WithError(err).Error("closing rows")
	}
}

var _ ServiceStorage = (*SQLDB)(nil)
