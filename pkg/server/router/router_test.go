package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbd54566975/dcc-verifier/pkg/service/framework"
)

// testService is a service no router accepts

type testService struct{}

func (s *testService) Type() framework.Type {
	return "test"
}

func (s *testService) Status() framework.Status {
	return framework.Status{Status: "ready"}
}

func TestNewRouters(t *testing.T) {
	constructors := map[string]func(framework.Service) (any, error){
		"verification": func(s framework.Service) (any, error) { return NewVerificationRouter(s) },
		"trust":        func(s framework.Service) (any, error) { return NewTrustRouter(s) },
		"rule":         func(s framework.Service) (any, error) { return NewRuleRouter(s) },
		"value set":    func(s framework.Service) (any, error) { return NewValueSetRouter(s) },
		"sync":         func(s framework.Service) (any, error) { return NewSyncRouter(s) },
	}

	for name, newRouter := range constructors {
		name, newRouter := name, newRouter
		t.Run(name, func(tt *testing.T) {
			_, err := newRouter(nil)
			assert.Error(tt, err)
			assert.Contains(tt, err.Error(), "service cannot be nil")

			_, err = newRouter(&testService{})
			assert.Error(tt, err)
			assert.Contains(tt, err.Error(), "could not create "+name+" router with service type: test")
		})
	}
}
