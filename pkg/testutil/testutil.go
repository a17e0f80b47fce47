package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

var TestDatabases = []struct {
	Name           string
	ServiceStorage func(t *testing.T) storage.ServiceStorage
}{
	{
		Name:           "Test with Bolt DB",
		ServiceStorage: SetupBoltTestDB,
	},
	{
		Name:           "Test with Redis DB",
		ServiceStorage: SetupRedisTestDB,
	},
}

func SetupBoltTestDB(t *testing.T) storage.ServiceStorage {
	name := filepath.Join(t.TempDir(), "bolt.db")
	s, err := storage.NewStorage(storage.Bolt, storage.Option{
		ID:     storage.BoltDBFilePathOption,
		Option: name,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func SetupRedisTestDB(t *testing.T) storage.ServiceStorage {
	server := miniredis.RunT(t)
	s, err := storage.NewStorage(storage.Redis, storage.Option{
		ID:     storage.RedisAddressOption,
		Option: server.Addr(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// ErrWriteFailed is returned by FailingWritesStorage for every bulk write
var ErrWriteFailed = errors.New("write failed")

// FailingWritesStorage wraps a working storage and fails every bulk write
type FailingWritesStorage struct {
	storage.ServiceStorage
}

func (FailingWritesStorage) WriteMany(context.Context, []string, []string, [][]byte) error {
	return ErrWriteFailed
}

func (FailingWritesStorage) ReplaceNamespace(context.Context, string, []string, [][]byte) error {
	return ErrWriteFailed
}
