// Package server contains the full set of handler functions and routes
// supported by the http api
package server

import (
	"os"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/server/middleware"
	"github.com/tbd54566975/dcc-verifier/pkg/server/router"
	"github.com/tbd54566975/dcc-verifier/pkg/service"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
)

const (
	HealthPrefix       = "/health"
	ReadinessPrefix    = "/readiness"
	MetricsPrefix      = "/metrics"
	V1Prefix           = "/v1"
	VerificationPrefix = "/verification"
	BatchPath          = "/batch"
	TrustPrefix        = "/trust"
	ReplacePath        = "/replace"
	RulesPrefix        = "/rules"
	CountriesPrefix    = "/countries"
	ValueSetsPrefix    = "/valuesets"
	SyncPrefix         = "/sync"
)

// VerifierServer exposes all dependencies needed to run a http server and all its services
type VerifierServer struct {
	*config.ServerConfig
	*service.VerifierService
	*framework.Server
}

// NewVerifierServer does two things: instantiates all services and registers their HTTP bindings
func NewVerifierServer(shutdown chan os.Signal, cfg config.VerifierConfig) (*VerifierServer, error) {
	// creates an HTTP server from the framework, and wrap it to extend it for the verifier
	engine := setUpEngine(cfg.Server, shutdown)
	httpServer := framework.NewServer(cfg.Server, engine, shutdown)
	verifier, err := service.InstantiateVerifierService(cfg.Services)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate verifier service")
	}

	// service-level routers
	engine.GET(HealthPrefix, router.Health)
	engine.GET(ReadinessPrefix, router.Readiness(verifier.GetServices()))
	engine.GET(MetricsPrefix, gin.WrapH(promhttp.Handler()))

	// register all v1 routers
	v1 := engine.Group(V1Prefix)
	if err = VerificationAPI(v1, verifier.Verification); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Verification API")
	}
	if err = TrustAPI(v1, verifier.Trust); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Trust API")
	}
	if err = RuleAPI(v1, verifier.Rule); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Rule API")
	}
	if err = ValueSetAPI(v1, verifier.ValueSet); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Value Set API")
	}
	if err = SyncAPI(v1, verifier.Sync); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Sync API")
	}

	return &VerifierServer{
		Server:          httpServer,
		VerifierService: verifier,
		ServerConfig:    &cfg.Server,
	}, nil
}

// setUpEngine creates the gin engine and sets up the middleware based on config
func setUpEngine(cfg config.ServerConfig, shutdown chan os.Signal) *gin.Engine {
	switch cfg.Environment {
	case config.EnvironmentDev:
		gin.SetMode(gin.DebugMode)
	case config.EnvironmentTest:
		gin.SetMode(gin.TestMode)
	case config.EnvironmentProd:
		gin.SetMode(gin.ReleaseMode)
	}

	middlewares := gin.HandlersChain{
		gin.Recovery(),
		otelgin.Middleware(config.ServiceName),
		middleware.Logger(logrus.StandardLogger()),
		middleware.Errors(shutdown),
		middleware.Metrics(),
	}
	if cfg.EnableAllowAllCORS {
		middlewares = append(middlewares, middleware.CORS())
	}

	// set up engine and middleware
	engine := gin.New()
	engine.Use(middlewares...)
	return engine
}

// VerificationAPI registers all HTTP routers for the Verification Service
func VerificationAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	verificationRouter, err := router.NewVerificationRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating verification router")
	}

	verificationAPI := rg.Group(VerificationPrefix)
	verificationAPI.PUT("", verificationRouter.VerifyCredential)
	verificationAPI.PUT(BatchPath, verificationRouter.BatchVerifyCredentials)
	return
}

// TrustAPI registers all HTTP routers for the Trust Service
func TrustAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	trustRouter, err := router.NewTrustRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating trust router")
	}

	trustAPI := rg.Group(TrustPrefix)
	trustAPI.PUT("", trustRouter.StoreTrustEntries)
	trustAPI.PUT(ReplacePath, trustRouter.ReplaceTrustEntries)
	trustAPI.GET("", trustRouter.ListTrustEntries)
	trustAPI.GET("/:id", trustRouter.GetTrustEntry)
	trustAPI.DELETE("/:id", trustRouter.DeleteTrustEntry)
	return
}

// RuleAPI registers all HTTP routers for the Rule Service, which also keeps the country list
func RuleAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	ruleRouter, err := router.NewRuleRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating rule router")
	}

	ruleAPI := rg.Group(RulesPrefix)
	ruleAPI.PUT("", ruleRouter.ReplaceRules)
	ruleAPI.GET("", ruleRouter.ListRules)

	countryAPI := rg.Group(CountriesPrefix)
	countryAPI.PUT("", ruleRouter.ReplaceCountries)
	countryAPI.GET("", ruleRouter.ListCountries)
	return
}

// ValueSetAPI registers all HTTP routers for the Value Set Service
func ValueSetAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	valueSetRouter, err := router.NewValueSetRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating value set router")
	}

	valueSetAPI := rg.Group(ValueSetsPrefix)
	valueSetAPI.PUT("", valueSetRouter.ReplaceValueSets)
	valueSetAPI.GET("", valueSetRouter.ListValueSets)
	valueSetAPI.GET("/:id", valueSetRouter.GetValueSet)
	return
}

// SyncAPI registers all HTTP routers for the Sync Service
func SyncAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	syncRouter, err := router.NewSyncRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating sync router")
	}

	rg.PUT(SyncPrefix, syncRouter.Sync)
	return
}
