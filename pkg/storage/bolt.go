package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

func init() {
	if err := RegisterStorage(new(BoltDB)); err != nil {
		panic(err)
	}
}

const (
	DBFilePrefix = "dcc-verifier"

	BoltDBFilePathOption OptionKey = "boltdb-filepath-option"
)

type BoltDB struct {
	db *bolt.DB
}

// Init instantiates a file-based storage instance for Bolt https://github.com/etcd-io/bbolt
func (b *BoltDB) Init(opts ...Option) error {
	if b.db != nil {
		return errors.New("bolt db already initialized")
	}
	dbFilePath := DBFilePrefix + "_bolt.db"
	for _, opt := range opts {
		if opt.ID != BoltDBFilePathOption {
			continue
		}
		path, ok := opt.Option.(string)
		if !ok || path == "" {
			return errors.New("bolt db file path option must be a non-empty string")
		}
		dbFilePath = path
	}
	db, err := bolt.Open(dbFilePath, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return errors.Wrapf(err, "opening bolt db<%s>", dbFilePath)
	}
	b.db = db
	return nil
}

func (b *BoltDB) Type() Type {
	return Bolt
}

func (b *BoltDB) URI() string {
	return b.db.Path()
}

func (b *BoltDB) IsOpen() bool {
	return b.db != nil
}

func (b *BoltDB) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *BoltDB) Write(_ context.Context, namespace string, key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

// WriteMany writes all values in a single transaction
func (b *BoltDB) WriteMany(_ context.Context, namespaces, keys []string, values [][]byte) error {
	if err := checkManyLengths(namespaces, keys, values); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		for i := range namespaces {
			bucket, err := tx.CreateBucketIfNotExists([]byte(namespaces[i]))
			if err != nil {
				return err
			}
			if err = bucket.Put([]byte(keys[i]), values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltDB) Read(_ context.Context, namespace, key string) ([]byte, error) {
	var result []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			logrus.Debugf("namespace<%s> does not exist", namespace)
			return nil
		}
		if v := bucket.Get([]byte(key)); v != nil {
			result = append([]byte(nil), v...)
		}
		return nil
	})
	return result, err
}

func (b *BoltDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	v, err := b.Read(ctx, namespace, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (b *BoltDB) ReadAll(_ context.Context, namespace string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			logrus.Debugf("namespace<%s> does not exist", namespace)
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			result[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	return result, err
}

func (b *BoltDB) ReadAllKeys(_ context.Context, namespace string) ([]string, error) {
	var result []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			logrus.Debugf("namespace<%s> does not exist", namespace)
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			result = append(result, string(k))
			return nil
		})
	})
	return result, err
}

func (b *BoltDB) Delete(_ context.Context, namespace, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return fmt.Errorf("namespace<%s> does not exist", namespace)
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *BoltDB) DeleteNamespace(_ context.Context, namespace string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(namespace)); err != nil {
			if errors.Is(err, bolt.ErrBucketNotFound) {
				return nil
			}
			return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
		}
		return nil
	})
}

// ReplaceNamespace drops and refills the bucket in a single transaction
func (b *BoltDB) ReplaceNamespace(_ context.Context, namespace string, keys []string, values [][]byte) error {
	if err := checkReplaceLengths(keys, values); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(namespace)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
		}
		if len(keys) == 0 {
			return nil
		}
		bucket, err := tx.CreateBucket([]byte(namespace))
		if err != nil {
			return err
		}
		for i := range keys {
			if err = bucket.Put([]byte(keys[i]), values[i]); err != nil {
				return errors.Wrapf(err, "could not write key<%s>", keys[i])
			}
		}
		return nil
	})
}
