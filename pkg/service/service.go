package service

import (
	"fmt"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/rule"
	syncsvc "github.com/tbd54566975/dcc-verifier/pkg/service/sync"
	"github.com/tbd54566975/dcc-verifier/pkg/service/trust"
	"github.com/tbd54566975/dcc-verifier/pkg/service/valueset"
	"github.com/tbd54566975/dcc-verifier/pkg/service/verification"
	"github.com/tbd54566975/dcc-verifier/pkg/storage"
)

// VerifierService represents all services and their dependencies independent of transport
type VerifierService struct {
	Trust        *trust.Service
	Rule         *rule.Service
	ValueSet     *valueset.Service
	Verification *verification.Service
	Sync         *syncsvc.Service

	storage storage.ServiceStorage
}

// InstantiateVerifierService creates a new instance of the verifier which instantiates all services and their
// dependencies independent of transport.
func InstantiateVerifierService(config config.ServicesConfig) (*VerifierService, error) {
	if err := validateServiceConfig(config); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the verifier, invalid config")
	}
	service, err := instantiateServices(config)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not instantiate the verifier")
	}
	return service, nil
}

func validateServiceConfig(config config.ServicesConfig) error {
	if !storage.IsStorageAvailable(storage.Type(config.StorageProvider)) {
		return fmt.Errorf("%s storage provider configured, but not available", config.StorageProvider)
	}
	if config.TrustConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Trust)
	}
	if config.RuleConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Rule)
	}
	if config.ValueSetConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.ValueSet)
	}
	if config.VerificationConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Verification)
	}
	if config.SyncConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Sync)
	}
	return nil
}

// instantiateServices begins all instantiates and their dependencies
func instantiateServices(config config.ServicesConfig) (*VerifierService, error) {
	storageProvider, err := storage.NewStorage(storage.Type(config.StorageProvider), config.StorageOptions...)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not instantiate storage provider: %s", config.StorageProvider)
	}

	trustService, err := trust.NewTrustService(config.TrustConfig, storageProvider)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the trust service")
	}

	ruleService, err := rule.NewRuleService(config.RuleConfig, storageProvider)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the rule service")
	}

	valueSetService, err := valueset.NewValueSetService(config.ValueSetConfig, storageProvider)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the value set service")
	}

	engine, err := certlogic.NewCELEngine()
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the rule engine")
	}

	verificationService, err := verification.NewVerificationService(config.VerificationConfig, trustService,
		ruleService, valueSetService, engine)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the verification service")
	}

	syncService, err := syncsvc.NewSyncService(config.SyncConfig, trustService, ruleService, valueSetService, nil)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the sync service")
	}

	return &VerifierService{
		Trust:        trustService,
		Rule:         ruleService,
		ValueSet:     valueSetService,
		Verification: verificationService,
		Sync:         syncService,
		storage:      storageProvider,
	}, nil
}

// GetServices returns all services
func (s *VerifierService) GetServices() []framework.Service {
	return []framework.Service{
		s.Trust,
		s.Rule,
		s.ValueSet,
		s.Verification,
		s.Sync,
	}
}

// Close stops the periodic sync and closes storage
func (s *VerifierService) Close() error {
	s.Sync.Stop()
	return s.storage.Close()
}
