package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

const (
	DefaultConfigPath = "config/dev.toml"
	DefaultEnvPath    = "config/.env"
	Extension         = ".toml"

	EnvironmentDev  Environment = "dev"
	EnvironmentTest Environment = "test"
	EnvironmentProd Environment = "prod"

	ConfigPath EnvVarName = "CONFIG_PATH"

	// DefaultMaxDecompressedBytes bounds the inflated size of a scanned payload
	DefaultMaxDecompressedBytes int64 = 400 * 1024
	DefaultBatchConcurrency           = 8
	DefaultBatchLimit                 = 1000
	DefaultSyncInterval               = 24 * time.Hour
	DefaultSyncMaxElapsedTime         = 2 * time.Minute
)

type (
	Environment string
	EnvVarName  string
)

func (e EnvVarName) String() string {
	return string(e)
}

type VerifierConfig struct {
	conf.Version
	Server   ServerConfig   `toml:"server"`
	Services ServicesConfig `toml:"services"`
}

// ServerConfig represents configurable properties for the HTTP server
type ServerConfig struct {
	Environment         Environment   `toml:"env" conf:"default:dev"`
	APIHost             string        `toml:"api_host" conf:"default:0.0.0.0:3000"`
	JagerHost           string        `toml:"jager_host" conf:"default:http://jaeger:14268/api/traces"`
	JagerEnabled        bool          `toml:"jager_enabled" conf:"default:false"`
	ReadTimeout         time.Duration `toml:"read_timeout" conf:"default:5s"`
	WriteTimeout        time.Duration `toml:"write_timeout" conf:"default:5s"`
	ShutdownTimeout     time.Duration `toml:"shutdown_timeout" conf:"default:5s"`
	LogLocation         string        `toml:"log_location" conf:"default:log"`
	LogLevel            string        `toml:"log_level" conf:"default:debug"`
	EnableSchemaCaching bool          `toml:"enable_schema_caching" conf:"default:true"`
	EnableAllowAllCORS  bool          `toml:"enable_allow_all_cors" conf:"default:false"`
}

// ServicesConfig represents configurable properties for the components of the verifier
type ServicesConfig struct {
	// a single storage provider backs every service
	StorageProvider string           `toml:"storage"`
	StorageOptions  []storage.Option `toml:"storage_option"`

	// Embed all service-specific configs here. The order matters: from which should be instantiated first, to last
	TrustConfig        TrustServiceConfig        `toml:"trust,omitempty"`
	RuleConfig         RuleServiceConfig         `toml:"rule,omitempty"`
	ValueSetConfig     ValueSetServiceConfig     `toml:"valueset,omitempty"`
	VerificationConfig VerificationServiceConfig `toml:"verification,omitempty"`
	SyncConfig         SyncServiceConfig         `toml:"sync,omitempty"`
}

// BaseServiceConfig represents configurable properties for a specific component of the verifier
// Can be wrapped and extended for any specific service config
type BaseServiceConfig struct {
	Name string `toml:"name"`
}

type TrustServiceConfig struct {
	*BaseServiceConfig
}

func (t *TrustServiceConfig) IsEmpty() bool {
	if t == nil {
		return true
	}
	return reflect.DeepEqual(t, &TrustServiceConfig{})
}

type RuleServiceConfig struct {
	*BaseServiceConfig
}

func (r *RuleServiceConfig) IsEmpty() bool {
	if r == nil {
		return true
	}
	return reflect.DeepEqual(r, &RuleServiceConfig{})
}

type ValueSetServiceConfig struct {
	*BaseServiceConfig
}

func (v *ValueSetServiceConfig) IsEmpty() bool {
	if v == nil {
		return true
	}
	return reflect.DeepEqual(v, &ValueSetServiceConfig{})
}

type VerificationServiceConfig struct {
	*BaseServiceConfig
	// MaxDecompressedBytes is the most a scanned payload may inflate to before decoding fails
	MaxDecompressedBytes int64 `toml:"max_decompressed_bytes"`
	// BatchConcurrency bounds the number of verifications a batch runs at once
	BatchConcurrency int `toml:"batch_concurrency"`
	// BatchLimit is the largest number of credentials accepted in a single batch
	BatchLimit int `toml:"batch_limit"`
}

func (v *VerificationServiceConfig) IsEmpty() bool {
	if v == nil {
		return true
	}
	return reflect.DeepEqual(v, &VerificationServiceConfig{})
}

type SyncServiceConfig struct {
	*BaseServiceConfig
	// Enabled starts the periodic sync with the server
	Enabled        bool          `toml:"enabled"`
	Interval       time.Duration `toml:"interval"`
	MaxElapsedTime time.Duration `toml:"max_elapsed_time"`
	TrustListURL   string        `toml:"trust_list_url"`
	RulesURL       string        `toml:"rules_url"`
	ValueSetsURL   string        `toml:"value_sets_url"`
	CountriesURL   string        `toml:"countries_url"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

func (s *SyncServiceConfig) IsEmpty() bool {
	if s == nil {
		return true
	}
	return reflect.DeepEqual(s, &SyncServiceConfig{})
}

// LoadConfig attempts to load a TOML config file from the given path, and coerce it into our object model.
// Before loading, defaults are applied on certain properties, which are overwritten if specified in the TOML file.
func LoadConfig(path string) (*VerifierConfig, error) {
	loadDefaultConfig, err := checkValidConfigPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "validate config path")
	}

	loadEnvFile()

	var config VerifierConfig
	if err = parseAndApplyDefaults(&config); err != nil {
		return nil, errors.Wrap(err, "parse and apply defaults")
	}

	if loadDefaultConfig {
		defaultServicesConfig := getDefaultServicesConfig()
		config.Services = defaultServicesConfig
	} else if err = loadTOMLConfig(path, &config); err != nil {
		return nil, errors.Wrap(err, "load toml config")
	}
	applyServiceDefaults(&config.Services)

	return &config, nil
}

func checkValidConfigPath(path string) (bool, error) {
	// no path, load default config
	defaultConfig := false
	if path == "" {
		logrus.Info("no config path provided, loading default config...")
		defaultConfig = true
	} else if filepath.Ext(path) != Extension {
		return false, fmt.Errorf("path<%s> did not match the expected TOML format", path)
	}
	return defaultConfig, nil
}

// loadEnvFile loads a .env file when present; variables already set in the environment win
func loadEnvFile() {
	if _, err := os.Stat(DefaultEnvPath); err != nil {
		return
	}
	if err := godotenv.Load(DefaultEnvPath); err != nil {
		logrus.WithError(err).Warnf("could not load env file<%s>", DefaultEnvPath)
	}
}

func parseAndApplyDefaults(config *VerifierConfig) error {
	// parse and apply defaults
	err := conf.Parse(os.Args[1:], ServiceName, config)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, conf.ErrHelpWanted):
		usage, err := conf.Usage(ServiceName, config)
		if err != nil {
			return errors.Wrap(err, "parsing config")
		}
		logrus.Println(usage)
	case errors.Is(err, conf.ErrVersionWanted):
		version, err := conf.VersionString(ServiceName, config)
		if err != nil {
			return errors.Wrap(err, "generating config version")
		}
		logrus.Println(version)
	}
	return errors.Wrap(err, "parsing config")
}

func getDefaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		StorageProvider: string(storage.Bolt),
		TrustConfig: TrustServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "trust"},
		},
		RuleConfig: RuleServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "rule"},
		},
		ValueSetConfig: ValueSetServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "valueset"},
		},
		VerificationConfig: VerificationServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "verification"},
		},
		SyncConfig: SyncServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "sync"},
		},
	}
}

func loadTOMLConfig(path string, config *VerifierConfig) error {
	// load from TOML file
	if _, err := toml.DecodeFile(path, config); err != nil {
		return errors.Wrapf(err, "could not load config: %s", path)
	}
	return nil
}

// applyServiceDefaults fills zero values the config file left out
func applyServiceDefaults(services *ServicesConfig) {
	defaults := getDefaultServicesConfig()
	if services.StorageProvider == "" {
		services.StorageProvider = defaults.StorageProvider
	}
	if services.TrustConfig.BaseServiceConfig == nil || services.TrustConfig.Name == "" {
		services.TrustConfig.BaseServiceConfig = defaults.TrustConfig.BaseServiceConfig
	}
	if services.RuleConfig.BaseServiceConfig == nil || services.RuleConfig.Name == "" {
		services.RuleConfig.BaseServiceConfig = defaults.RuleConfig.BaseServiceConfig
	}
	if services.ValueSetConfig.BaseServiceConfig == nil || services.ValueSetConfig.Name == "" {
		services.ValueSetConfig.BaseServiceConfig = defaults.ValueSetConfig.BaseServiceConfig
	}
	if services.VerificationConfig.BaseServiceConfig == nil || services.VerificationConfig.Name == "" {
		services.VerificationConfig.BaseServiceConfig = defaults.VerificationConfig.BaseServiceConfig
	}
	if services.SyncConfig.BaseServiceConfig == nil || services.SyncConfig.Name == "" {
		services.SyncConfig.BaseServiceConfig = defaults.SyncConfig.BaseServiceConfig
	}

	verification := &services.VerificationConfig
	if verification.MaxDecompressedBytes <= 0 {
		verification.MaxDecompressedBytes = DefaultMaxDecompressedBytes
	}
	if verification.BatchConcurrency <= 0 {
		verification.BatchConcurrency = DefaultBatchConcurrency
	}
	if verification.BatchLimit <= 0 {
		verification.BatchLimit = DefaultBatchLimit
	}

	sync := &services.SyncConfig
	if sync.Interval <= 0 {
		sync.Interval = DefaultSyncInterval
	}
	if sync.MaxElapsedTime <= 0 {
		sync.MaxElapsedTime = DefaultSyncMaxElapsedTime
	}
	if sync.RequestTimeout <= 0 {
		sync.RequestTimeout = 30 * time.Second
	}
}
