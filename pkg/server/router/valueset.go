package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/valueset"
)

type ValueSetRouter struct {
	service *valueset.Service
}

func NewValueSetRouter(s svcframework.Service) (*ValueSetRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	valueSetService, ok := s.(*valueset.Service)
	if !ok {
		return nil, fmt.Errorf("could not create value set router with service type: %s", s.Type())
	}
	return &ValueSetRouter{service: valueSetService}, nil
}

type ReplaceValueSetsRequest struct {
	ValueSets []valueset.ValueSet `json:"valueSets" validate:"dive"`
}

// ReplaceValueSets godoc
//
//	@Summary		Replace Value Sets
//	@Description	Replaces the value sets business rules can refer to
//	@Tags			ValueSetAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReplaceValueSetsRequest	true	"request body"
//	@Success		204		{string}	string	"No Content"
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/valuesets [put]
func (vr ValueSetRouter) ReplaceValueSets(c *gin.Context) {
	var request ReplaceValueSetsRequest
	invalidReplaceRequest := "invalid replace value sets request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}

	if err := vr.service.ReplaceValueSets(c, valueset.ReplaceValueSetsRequest{ValueSets: request.ValueSets}); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not replace value sets", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}

type ListValueSetsResponse struct {
	ValueSets []valueset.ValueSet `json:"valueSets"`
}

// ListValueSets godoc
//
//	@Summary		List Value Sets
//	@Description	Lists the stored value sets
//	@Tags			ValueSetAPI
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ListValueSetsResponse
//	@Failure		500	{string}	string	"Internal server error"
//	@Router			/v1/valuesets [get]
func (vr ValueSetRouter) ListValueSets(c *gin.Context) {
	listed, err := vr.service.ListValueSets(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list value sets", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListValueSetsResponse{ValueSets: listed.ValueSets}, http.StatusOK)
}

type GetValueSetResponse struct {
	ValueSet valueset.ValueSet `json:"valueSet"`
}

// GetValueSet godoc
//
//	@Summary		Get Value Set
//	@Description	Get a value set by its ID
//	@Tags			ValueSetAPI
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200	{object}	GetValueSetResponse
//	@Failure		400	{string}	string	"Bad request"
//	@Failure		404	{string}	string	"Not found"
//	@Router			/v1/valuesets/{id} [get]
func (vr ValueSetRouter) GetValueSet(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get value set without ID parameter", http.StatusBadRequest)
		return
	}

	got, err := vr.service.GetValueSet(c, valueset.GetValueSetRequest{ID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get value set with id: %s", *id)
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetValueSetResponse{ValueSet: got.ValueSet}, http.StatusOK)
}
