package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Type string

const (
	Bolt        Type = "bolt"
	Redis       Type = "redis"
	DatabaseSQL Type = "sql"
)

type OptionKey string

// Option is a storage specific option, identified by its ID. Options are decoded from the
// services section of the config file.
type Option struct {
	ID     OptionKey `json:"id,omitempty" toml:"id"`
	Option any       `json:"option,omitempty" toml:"option"`
}

// ServiceStorage describes the api for storage independent of DB providers
type ServiceStorage interface {
	Init(opts ...Option) error
	Type() Type
	URI() string
	IsOpen() bool
	Close() error
	Write(ctx context.Context, namespace, key string, value []byte) error
	WriteMany(ctx context.Context, namespaces, keys []string, values [][]byte) error
	Read(ctx context.Context, namespace, key string) ([]byte, error)
	Exists(ctx context.Context, namespace, key string) (bool, error)
	ReadAll(ctx context.Context, namespace string) (map[string][]byte, error)
	ReadAllKeys(ctx context.Context, namespace string) ([]string, error)
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
	// ReplaceNamespace swaps the contents of a namespace for the given keys and values. Readers
	// see either the old or the new contents, never an empty namespace left by a failed write.
	ReplaceNamespace(ctx context.Context, namespace string, keys []string, values [][]byte) error
}

var availableStorages = make(map[Type]ServiceStorage)

// RegisterStorage registers a storage implementation so it can be created by type
func RegisterStorage(storage ServiceStorage) error {
	if storage == nil {
		return errors.New("cannot register nil storage")
	}
	storageType := storage.Type()
	if IsStorageAvailable(storageType) {
		return fmt.Errorf("storage already registered with type %s", storageType)
	}
	availableStorages[storageType] = storage
	return nil
}

func IsStorageAvailable(storage Type) bool {
	_, ok := availableStorages[storage]
	return ok
}

// NewStorage creates and initializes a fresh instance of a registered storage type
func NewStorage(storageProvider Type, opts ...Option) (ServiceStorage, error) {
	registered, ok := availableStorages[storageProvider]
	if !ok {
		return nil, fmt.Errorf("unsupported storage provider: %s", storageProvider)
	}
	storage, ok := reflect.New(reflect.TypeOf(registered).Elem()).Interface().(ServiceStorage)
	if !ok {
		return nil, fmt.Errorf("could not create storage provider: %s", storageProvider)
	}
	if err := storage.Init(opts...); err != nil {
		return nil, errors.Wrapf(err, "initializing storage<%s>", storageProvider)
	}
	logrus.Debugf("initialized storage<%s> at %s", storageProvider, storage.URI())
	return storage, nil
}

// Join combines a namespace and a key into a single flat key
func Join(parts ...string) string {
	return strings.Join(parts, "-")
}

// MakeNamespace takes a set of possible namespace values and combines them as a convention
func MakeNamespace(ns ...string) string {
	return strings.Join(ns, "-")
}

func checkReplaceLengths(keys []string, values [][]byte) error {
	if len(keys) != len(values) {
		return errors.New("keys and values are not of equal length")
	}
	return nil
}

func checkManyLengths(namespaces, keys []string, values [][]byte) error {
	if len(namespaces) != len(keys) || len(namespaces) != len(values) {
		return errors.New("namespaces, keys, and values, are not of equal length")
	}
	return nil
}
