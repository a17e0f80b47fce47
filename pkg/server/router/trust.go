package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/internal/keyaccess"
	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/trust"
)

type TrustRouter struct {
	service *trust.Service
}

func NewTrustRouter(s svcframework.Service) (*TrustRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	trustService, ok := s.(*trust.Service)
	if !ok {
		return nil, fmt.Errorf("could not create trust router with service type: %s", s.Type())
	}
	return &TrustRouter{service: trustService}, nil
}

type StoreTrustEntriesRequest struct {
	// Entries are appended to the trust list. Entries whose id is already known replace the stored entry in place.
	Entries []keyaccess.TrustEntry `json:"entries" validate:"required,min=1,dive"`
}

type StoreTrustEntriesResponse struct {
	Entries []keyaccess.TrustEntry `json:"entries"`
}

// StoreTrustEntries godoc
//
//	@Summary		Store Trust Entries
//	@Description	Adds signer certificates to the trust list
//	@Tags			TrustAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		StoreTrustEntriesRequest	true	"request body"
//	@Success		201		{object}	StoreTrustEntriesResponse
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/trust [put]
func (tr TrustRouter) StoreTrustEntries(c *gin.Context) {
	var request StoreTrustEntriesRequest
	invalidStoreRequest := "invalid store trust entries request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidStoreRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidStoreRequest, http.StatusBadRequest)
		return
	}

	stored, err := tr.service.StoreTrustEntries(c, trust.StoreTrustEntriesRequest{Entries: request.Entries})
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not store trust entries", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, StoreTrustEntriesResponse{Entries: stored.Entries}, http.StatusCreated)
}

type ReplaceTrustEntriesRequest struct {
	// Entries become the whole trust list, in the given order.
	Entries []keyaccess.TrustEntry `json:"entries" validate:"dive"`
}

// ReplaceTrustEntries godoc
//
//	@Summary		Replace Trust List
//	@Description	Replaces the whole trust list
//	@Tags			TrustAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReplaceTrustEntriesRequest	true	"request body"
//	@Success		204		{string}	string	"No Content"
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/trust/replace [put]
func (tr TrustRouter) ReplaceTrustEntries(c *gin.Context) {
	var request ReplaceTrustEntriesRequest
	invalidReplaceRequest := "invalid replace trust list request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}

	if err := tr.service.ReplaceTrustEntries(c, trust.ReplaceTrustEntriesRequest{Entries: request.Entries}); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not replace trust list", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}

type GetTrustEntryResponse struct {
	Entry keyaccess.TrustEntry `json:"entry"`
}

// GetTrustEntry godoc
//
//	@Summary		Get Trust Entry
//	@Description	Get a trust entry by its ID
//	@Tags			TrustAPI
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200	{object}	GetTrustEntryResponse
//	@Failure		400	{string}	string	"Bad request"
//	@Failure		404	{string}	string	"Not found"
//	@Router			/v1/trust/{id} [get]
func (tr TrustRouter) GetTrustEntry(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get trust entry without ID parameter", http.StatusBadRequest)
		return
	}

	got, err := tr.service.GetTrustEntry(c, trust.GetTrustEntryRequest{ID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get trust entry with id: %s", *id)
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetTrustEntryResponse{Entry: got.Entry}, http.StatusOK)
}

type ListTrustEntriesResponse struct {
	Entries []keyaccess.TrustEntry `json:"entries"`
}

// ListTrustEntries godoc
//
//	@Summary		List Trust Entries
//	@Description	Lists the trust list in order, optionally only the entries of one key id
//	@Tags			TrustAPI
//	@Accept			json
//	@Produce		json
//	@Param			kid	query		string	false	"base64 key id"
//	@Success		200	{object}	ListTrustEntriesResponse
//	@Failure		500	{string}	string	"Internal server error"
//	@Router			/v1/trust [get]
func (tr TrustRouter) ListTrustEntries(c *gin.Context) {
	var request trust.ListTrustEntriesRequest
	if kid := framework.GetQueryValue(c, KIDParam); kid != nil {
		request.KID = *kid
	}

	listed, err := tr.service.ListTrustEntries(c, request)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list trust entries", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListTrustEntriesResponse{Entries: listed.Entries}, http.StatusOK)
}

// DeleteTrustEntry godoc
//
//	@Summary		Delete Trust Entry
//	@Description	Removes a trust entry by its ID
//	@Tags			TrustAPI
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		204	{string}	string	"No Content"
//	@Failure		400	{string}	string	"Bad request"
//	@Failure		404	{string}	string	"Not found"
//	@Router			/v1/trust/{id} [delete]
func (tr TrustRouter) DeleteTrustEntry(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot delete trust entry without ID parameter", http.StatusBadRequest)
		return
	}

	if err := tr.service.DeleteTrustEntry(c, trust.DeleteTrustEntryRequest{ID: *id}); err != nil {
		errMsg := fmt.Sprintf("could not delete trust entry with id: %s", *id)
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}
