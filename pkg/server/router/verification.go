package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/verification"
)

type VerificationRouter struct {
	service *verification.Service
}

func NewVerificationRouter(s svcframework.Service) (*VerificationRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	verificationService, ok := s.(*verification.Service)
	if !ok {
		return nil, fmt.Errorf("could not create verification router with service type: %s", s.Type())
	}
	return &VerificationRouter{service: verificationService}, nil
}

type VerifyCredentialRequest struct {
	// Credential is the scanned QR payload, usually prefixed with `HC1:`.
	Credential string `json:"credential" validate:"required"`
	// CountryCode is the destination country whose rules the credential is checked against. Business rules
	// are skipped when empty.
	CountryCode string `json:"countryCode,omitempty" validate:"omitempty,len=2"`
}

func (r VerifyCredentialRequest) toServiceRequest() verification.VerifyRequest {
	return verification.VerifyRequest{
		Credential:  r.Credential,
		CountryCode: r.CountryCode,
	}
}

type VerifyCredentialResponse struct {
	verification.VerificationReport
}

// VerifyCredential godoc
//
//	@Summary		Verify Credential
//	@Description	Decodes a scanned credential, checks its signature against the trust list and validates it
//	@Description	against the business rules of the destination country.
//	@Tags			VerificationAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyCredentialRequest	true	"request body"
//	@Success		200		{object}	VerifyCredentialResponse
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/verification [put]
func (vr VerificationRouter) VerifyCredential(c *gin.Context) {
	var request VerifyCredentialRequest
	invalidVerifyRequest := "invalid verify credential request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidVerifyRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidVerifyRequest, http.StatusBadRequest)
		return
	}

	report, err := vr.service.Verify(c, request.toServiceRequest())
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not verify credential", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, VerifyCredentialResponse{VerificationReport: *report}, http.StatusOK)
}

type BatchVerifyCredentialsRequest struct {
	Credentials []VerifyCredentialRequest `json:"credentials" validate:"required,min=1,dive"`
}

type BatchVerifyCredentialsResponse struct {
	// Reports are in the order of the requested credentials.
	Reports []verification.VerificationReport `json:"reports"`
}

// BatchVerifyCredentials godoc
//
//	@Summary		Batch Verify Credentials
//	@Description	Verifies a batch of scanned credentials concurrently.
//	@Tags			VerificationAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		BatchVerifyCredentialsRequest	true	"request body"
//	@Success		200		{object}	BatchVerifyCredentialsResponse
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/verification/batch [put]
func (vr VerificationRouter) BatchVerifyCredentials(c *gin.Context) {
	var request BatchVerifyCredentialsRequest
	invalidBatchRequest := "invalid batch verify request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidBatchRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidBatchRequest, http.StatusBadRequest)
		return
	}
	if limit := vr.service.Config().BatchLimit; limit > 0 && len(request.Credentials) > limit {
		errMsg := fmt.Sprintf("batch of %d credentials exceeds the limit of %d", len(request.Credentials), limit)
		framework.LoggingRespondErrMsg(c, errMsg, http.StatusBadRequest)
		return
	}

	requests := make([]verification.VerifyRequest, 0, len(request.Credentials))
	for _, r := range request.Credentials {
		requests = append(requests, r.toServiceRequest())
	}
	resp, err := vr.service.BatchVerify(c, verification.BatchVerifyRequest{Requests: requests})
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not verify credentials", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, BatchVerifyCredentialsResponse{Reports: resp.Reports}, http.StatusOK)
}
