package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	syncsvc "github.com/tbd54566975/dcc-verifier/pkg/service/sync"
)

type SyncRouter struct {
	service *syncsvc.Service
}

func NewSyncRouter(s svcframework.Service) (*SyncRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	syncService, ok := s.(*syncsvc.Service)
	if !ok {
		return nil, fmt.Errorf("could not create sync router with service type: %s", s.Type())
	}
	return &SyncRouter{service: syncService}, nil
}

type SyncResponse struct {
	syncsvc.SyncResponse
}

// Sync godoc
//
//	@Summary		Sync
//	@Description	Pulls the trust list, value sets, rules and countries from the configured gateway now. Counts of
//	@Description	-1 mark documents without a configured url.
//	@Tags			SyncAPI
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	SyncResponse
//	@Failure		502	{string}	string	"Bad gateway"
//	@Router			/v1/sync [put]
func (sr SyncRouter) Sync(c *gin.Context) {
	resp, err := sr.service.Sync(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not sync with the gateway", http.StatusBadGateway)
		return
	}
	framework.Respond(c, SyncResponse{SyncResponse: *resp}, http.StatusOK)
}
