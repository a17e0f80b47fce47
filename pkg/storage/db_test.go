package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresDSNEnv enables the sql implementation in this matrix when set
const postgresDSNEnv = "DCC_VERIFIER_TEST_POSTGRES_DSN"

func getDBImplementations(t *testing.T) []ServiceStorage {
	dbImpls := []ServiceStorage{setupBoltDB(t), setupRedisDB(t)}
	if dsn, ok := os.LookupEnv(postgresDSNEnv); ok {
		dbImpls = append(dbImpls, setupPostgresDB(t, dsn))
	}
	return dbImpls
}

func setupBoltDB(t *testing.T) *BoltDB {
	dbName := filepath.Join(t.TempDir(), "test.db")
	db, err := NewStorage(Bolt, Option{
		ID:     BoltDBFilePathOption,
		Option: dbName,
	})
	require.NoError(t, err)
	require.NotEmpty(t, db)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db.(*BoltDB)
}

func setupRedisDB(t *testing.T) *RedisDB {
	server := miniredis.RunT(t)
	db, err := NewStorage(Redis, Option{
		ID:     RedisAddressOption,
		Option: server.Addr(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, db)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db.(*RedisDB)
}

func setupPostgresDB(t *testing.T, dsn string) *SQLDB {
	s, err := NewStorage(DatabaseSQL,
		Option{ID: SQLConnectionString, Option: dsn},
		Option{ID: SQLDriverName, Option: "postgres"},
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DeleteNamespace(context.Background(), "countries")
		_ = s.DeleteNamespace(context.Background(), "rules")
		_ = s.DeleteNamespace(context.Background(), "valuesets")
		_ = s.Close()
	})
	return s.(*SQLDB)
}

type testEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestDB(t *testing.T) {
	for _, dbImpl := range getDBImplementations(t) {
		db := dbImpl
		t.Run(string(db.Type()), func(tt *testing.T) {
			ctx := context.Background()
			assert.True(tt, db.IsOpen())

			namespace := "countries"
			entry := testEntry{Code: "si", Name: "Slovenia"}
			entryBytes, err := json.Marshal(entry)
			require.NoError(tt, err)

			require.NoError(tt, db.Write(ctx, namespace, entry.Code, entryBytes))

			gotBytes, err := db.Read(ctx, namespace, entry.Code)
			require.NoError(tt, err)
			var got testEntry
			require.NoError(tt, json.Unmarshal(gotBytes, &got))
			assert.Equal(tt, entry, got)

			exists, err := db.Exists(ctx, namespace, entry.Code)
			require.NoError(tt, err)
			assert.True(tt, exists)

			// missing keys read as nil without an error
			missing, err := db.Read(ctx, namespace, "xx")
			require.NoError(tt, err)
			assert.Nil(tt, missing)

			// overwrite keeps a single value
			entry.Name = "Republika Slovenija"
			entryBytes, err = json.Marshal(entry)
			require.NoError(tt, err)
			require.NoError(tt, db.Write(ctx, namespace, entry.Code, entryBytes))

			all, err := db.ReadAll(ctx, namespace)
			require.NoError(tt, err)
			assert.Len(tt, all, 1)
			assert.Contains(tt, string(all[entry.Code]), "Republika")

			require.NoError(tt, db.Delete(ctx, namespace, entry.Code))
			exists, err = db.Exists(ctx, namespace, entry.Code)
			require.NoError(tt, err)
			assert.False(tt, exists)
		})

		t.Run(string(db.Type())+" write many and delete namespace", func(tt *testing.T) {
			ctx := context.Background()
			namespace := "rules"
			err := db.WriteMany(ctx,
				[]string{namespace, namespace, namespace},
				[]string{"VR-001", "VR-002", "TR-001"},
				[][]byte{[]byte("a"), []byte("b"), []byte("c")},
			)
			require.NoError(tt, err)

			keys, err := db.ReadAllKeys(ctx, namespace)
			require.NoError(tt, err)
			sort.Strings(keys)
			assert.Equal(tt, []string{"TR-001", "VR-001", "VR-002"}, keys)

			err = db.WriteMany(ctx, []string{namespace}, []string{"a", "b"}, [][]byte{[]byte("a")})
			assert.Error(tt, err)

			require.NoError(tt, db.DeleteNamespace(ctx, namespace))
			all, err := db.ReadAll(ctx, namespace)
			require.NoError(tt, err)
			assert.Empty(tt, all)

			// deleting an unknown namespace is not an error
			assert.NoError(tt, db.DeleteNamespace(ctx, "unknown"))
		})

		t.Run(string(db.Type())+" replace namespace", func(tt *testing.T) {
			ctx := context.Background()
			namespace := "valuesets"
			require.NoError(tt, db.WriteMany(ctx,
				[]string{namespace, namespace},
				[]string{"disease-agent-targeted", "covid-19-lab-result"},
				[][]byte{[]byte("old"), []byte("old")},
			))

			err := db.ReplaceNamespace(ctx, namespace,
				[]string{"covid-19-lab-result", "vaccines-covid-19-names"},
				[][]byte{[]byte("new"), []byte("new")},
			)
			require.NoError(tt, err)

			all, err := db.ReadAll(ctx, namespace)
			require.NoError(tt, err)
			assert.Equal(tt, map[string][]byte{
				"covid-19-lab-result":     []byte("new"),
				"vaccines-covid-19-names": []byte("new"),
			}, all)

			// mismatched input leaves the namespace as it was
			err = db.ReplaceNamespace(ctx, namespace, []string{"a", "b"}, [][]byte{[]byte("a")})
			assert.Error(tt, err)
			keys, err := db.ReadAllKeys(ctx, namespace)
			require.NoError(tt, err)
			assert.Len(tt, keys, 2)

			// replacing with nothing empties the namespace
			require.NoError(tt, db.ReplaceNamespace(ctx, namespace, nil, nil))
			all, err = db.ReadAll(ctx, namespace)
			require.NoError(tt, err)
			assert.Empty(tt, all)
		})
	}
}

func TestRegisteredStorages(t *testing.T) {
	for _, storageType := range []Type{Bolt, Redis, DatabaseSQL} {
		assert.True(t, IsStorageAvailable(storageType), storageType)
	}
}

func TestBoltReplaceNamespaceRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupBoltDB(t)
	require.NoError(t, db.Write(ctx, "trust", "kid-1", []byte("entry")))

	// bolt rejects the empty key after the bucket was dropped inside the transaction
	err := db.ReplaceNamespace(ctx, "trust", []string{"kid-2", ""}, [][]byte{[]byte("a"), []byte("b")})
	require.Error(t, err)

	all, err := db.ReadAll(ctx, "trust")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"kid-1": []byte("entry")}, all)
}

func TestNewStorage(t *testing.T) {
	t.Run("unknown provider", func(tt *testing.T) {
		_, err := NewStorage("mongo")
		assert.Error(tt, err)
		assert.Contains(tt, err.Error(), "unsupported storage provider")
	})

	t.Run("instances are independent", func(tt *testing.T) {
		first := setupBoltDB(tt)
		second := setupBoltDB(tt)
		assert.NotEqual(tt, first.URI(), second.URI())
	})

	t.Run("redis requires an address", func(tt *testing.T) {
		_, err := NewStorage(Redis)
		assert.Error(tt, err)
	})
}
