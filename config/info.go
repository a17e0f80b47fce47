package config

import (
	"strings"
	"sync"
)

const (
	ServiceName    = "dcc-verifier"
	ServiceVersion = "0.1.0"
	APIVersion     = "v1"
)

var (
	si   *serviceInfo
	once sync.Once
)

// getServiceInfo provides serviceInfo as a singleton
func getServiceInfo() *serviceInfo {
	once.Do(func() {
		si = &serviceInfo{
			name: ServiceName,
			description: "The DCC Verifier is a RESTful web service that verifies scanned digital COVID certificates " +
				"against a trust list and the business rules of a destination country.",
			version:      ServiceVersion,
			apiVersion:   APIVersion,
			servicePaths: make(map[string]string),
		}
	})
	return si
}

// serviceInfo is intended to be a (mostly) read-only singleton object for static service info
type serviceInfo struct {
	mu           sync.RWMutex
	name         string
	description  string
	version      string
	apiBase      string
	apiVersion   string
	servicePaths map[string]string
}

func Name() string {
	return getServiceInfo().name
}

func Description() string {
	return getServiceInfo().description
}

func Version() string {
	return getServiceInfo().version
}

func SetAPIBase(url string) {
	info := getServiceInfo()
	info.mu.Lock()
	defer info.mu.Unlock()
	info.apiBase = strings.TrimSuffix(url, "/")
}

func GetAPIBase() string {
	info := getServiceInfo()
	info.mu.RLock()
	defer info.mu.RUnlock()
	return info.apiBase
}

// SetServicePath records the externally reachable path of a service's API
func SetServicePath(service, path string) {
	info := getServiceInfo()
	info.mu.Lock()
	defer info.mu.Unlock()
	info.servicePaths[service] = strings.Join([]string{info.apiBase, info.apiVersion, strings.TrimPrefix(path, "/")}, "/")
}

func GetServicePath(service string) string {
	info := getServiceInfo()
	info.mu.RLock()
	defer info.mu.RUnlock()
	return info.servicePaths[service]
}
