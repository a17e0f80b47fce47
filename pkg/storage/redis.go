package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := RegisterStorage(new(RedisDB)); err != nil {
		panic(err)
	}
}

const (
	PONG               = "PONG"
	RedisScanBatchSize = 1000

	RedisAddressOption OptionKey = "redis-address-option"
	PasswordOption     OptionKey = "storage-password-option"
)

type RedisDB struct {
	db *goredislib.Client
}

func (b *RedisDB) Init(opts ...Option) error {
	address, password, err := processRedisOptions(opts...)
	if err != nil {
		return err
	}

	client := goredislib.NewClient(&goredislib.Options{
		Addr:     address,
		Password: password,
	})
	if err = redisotel.InstrumentTracing(client); err != nil {
		return errors.Wrap(err, "instrumenting redis tracing")
	}
	b.db = client
	return nil
}

func processRedisOptions(opts ...Option) (address, password string, err error) {
	for _, opt := range opts {
		switch opt.ID {
		case RedisAddressOption:
			maybeAddress, ok := opt.Option.(string)
			if !ok || maybeAddress == "" {
				return "", "", errors.New("redis address option must be a non-empty string")
			}
			address = maybeAddress
		case PasswordOption:
			maybePassword, ok := opt.Option.(string)
			if !ok {
				return "", "", errors.New("redis password option must be a string")
			}
			password = maybePassword
		}
	}
	if address == "" {
		return "", "", errors.New("redis address option is required")
	}
	return address, password, nil
}

func (b *RedisDB) URI() string {
	return b.db.Options().Addr
}

func (b *RedisDB) IsOpen() bool {
	pong, err := b.db.Ping(context.Background()).Result()
	if err != nil {
		logrus.WithError(err).Error("pinging redis")
		return false
	}
	return pong == PONG
}

func (b *RedisDB) Type() Type {
	return Redis
}

func (b *RedisDB) Close() error {
	return b.db.Close()
}

func (b *RedisDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	// Zero expiration means the key has no expiration time.
	return b.db.Set(ctx, Join(namespace, key), value, 0).Err()
}

// WriteMany queues all writes in a MULTI/EXEC pipeline so they succeed or fail together.
func (b *RedisDB) WriteMany(ctx context.Context, namespaces, keys []string, values [][]byte) error {
	if err := checkManyLengths(namespaces, keys, values); err != nil {
		return err
	}
	_, err := b.db.TxPipelined(ctx, func(pipe goredislib.Pipeliner) error {
		for i := range namespaces {
			if err := pipe.Set(ctx, Join(namespaces[i], keys[i]), values[i], 0).Err(); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func (b *RedisDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	res, err := b.db.Get(ctx, Join(namespace, key)).Bytes()
	if errors.Is(err, goredislib.Nil) {
		return nil, nil
	}
	return res, err
}

func (b *RedisDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	n, err := b.db.Exists(ctx, Join(namespace, key)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *RedisDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	keys, err := b.scanKeys(ctx, namespace)
	if err != nil {
		return nil, errors.Wrap(err, "read all keys error")
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	values, err := b.db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting multiple keys")
	}
	if len(keys) != len(values) {
		return nil, errors.New("key length does not match value length")
	}

	prefix := Join(namespace, "")
	for i, val := range values {
		// keys can disappear between the scan and the read
		s, ok := val.(string)
		if !ok {
			continue
		}
		result[strings.TrimPrefix(keys[i], prefix)] = []byte(s)
	}
	return result, nil
}

func (b *RedisDB) ReadAllKeys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := b.scanKeys(ctx, namespace)
	if err != nil {
		return nil, err
	}
	prefix := Join(namespace, "")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, strings.TrimPrefix(k, prefix))
	}
	return result, nil
}

func (b *RedisDB) scanKeys(ctx context.Context, namespace string) ([]string, error) {
	var cursor uint64
	allKeys := make([]string, 0)
	match := Join(namespace, "") + "*"
	for {
		keys, nextCursor, err := b.db.Scan(ctx, cursor, match, RedisScanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scan error")
		}
		allKeys = append(allKeys, keys...)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return allKeys, nil
}

func (b *RedisDB) Delete(ctx context.Context, namespace, key string) error {
	return b.db.Del(ctx, Join(namespace, key)).Err()
}

func (b *RedisDB) DeleteNamespace(ctx context.Context, namespace string) error {
	keys, err := b.scanKeys(ctx, namespace)
	if err != nil {
		return errors.Wrap(err, "read all keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return b.db.Del(ctx, keys...).Err()
}

// ReplaceNamespace deletes the scanned keys and sets the new ones in one MULTI/EXEC pipeline
func (b *RedisDB) ReplaceNamespace(ctx context.Context, namespace string, keys []string, values [][]byte) error {
	if err := checkReplaceLengths(keys, values); err != nil {
		return err
	}
	existing, err := b.scanKeys(ctx, namespace)
	if err != nil {
		return errors.Wrap(err, "read all keys")
	}
	_, err = b.db.TxPipelined(ctx, func(pipe goredislib.Pipeliner) error {
		if len(existing) > 0 {
			if err := pipe.Del(ctx, existing...).Err(); err != nil {
				return err
			}
		}
		for i := range keys {
			if err := pipe.Set(ctx, Join(namespace, keys[i]), values[i], 0).Err(); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}
