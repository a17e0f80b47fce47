package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbd54566975/dcc-verifier/internal/certlogic"
	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
	svcframework "github.com/tbd54566975/dcc-verifier/pkg/service/framework"
	"github.com/tbd54566975/dcc-verifier/pkg/service/rule"
)

type RuleRouter struct {
	service *rule.Service
}

func NewRuleRouter(s svcframework.Service) (*RuleRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	ruleService, ok := s.(*rule.Service)
	if !ok {
		return nil, fmt.Errorf("could not create rule router with service type: %s", s.Type())
	}
	return &RuleRouter{service: ruleService}, nil
}

type ReplaceRulesRequest struct {
	// Rules become the whole rule set, for every country.
	Rules []certlogic.Rule `json:"rules" validate:"dive"`
}

// ReplaceRules godoc
//
//	@Summary		Replace Rules
//	@Description	Replaces the business rules of every country
//	@Tags			RuleAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReplaceRulesRequest	true	"request body"
//	@Success		204		{string}	string	"No Content"
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/rules [put]
func (rr RuleRouter) ReplaceRules(c *gin.Context) {
	var request ReplaceRulesRequest
	invalidReplaceRequest := "invalid replace rules request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}

	if err := rr.service.ReplaceRules(c, rule.ReplaceRulesRequest{Rules: request.Rules}); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not replace rules", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}

type ListRulesResponse struct {
	Rules []certlogic.Rule `json:"rules"`
}

// ListRules godoc
//
//	@Summary		List Rules
//	@Description	Lists the stored business rules, optionally only those of one country
//	@Tags			RuleAPI
//	@Accept			json
//	@Produce		json
//	@Param			country	query		string	false	"country code"
//	@Success		200		{object}	ListRulesResponse
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/rules [get]
func (rr RuleRouter) ListRules(c *gin.Context) {
	var request rule.ListRulesRequest
	if country := framework.GetQueryValue(c, CountryParam); country != nil {
		request.CountryCode = *country
	}

	listed, err := rr.service.ListRules(c, request)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list rules", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListRulesResponse{Rules: listed.Rules}, http.StatusOK)
}

type ReplaceCountriesRequest struct {
	Countries []string `json:"countries" validate:"dive,required,len=2"`
}

// ReplaceCountries godoc
//
//	@Summary		Replace Countries
//	@Description	Replaces the list of countries that publish business rules
//	@Tags			RuleAPI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReplaceCountriesRequest	true	"request body"
//	@Success		204		{string}	string	"No Content"
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		500		{string}	string	"Internal server error"
//	@Router			/v1/countries [put]
func (rr RuleRouter) ReplaceCountries(c *gin.Context) {
	var request ReplaceCountriesRequest
	invalidReplaceRequest := "invalid replace countries request"
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}
	if err := framework.ValidateRequest(request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, invalidReplaceRequest, http.StatusBadRequest)
		return
	}

	countries := make([]string, 0, len(request.Countries))
	for _, country := range request.Countries {
		countries = append(countries, strings.TrimSpace(country))
	}
	if err := rr.service.ReplaceCountries(c, rule.ReplaceCountriesRequest{Countries: countries}); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not replace countries", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}

type ListCountriesResponse struct {
	Countries []string `json:"countries"`
}

// ListCountries godoc
//
//	@Summary		List Countries
//	@Description	Lists the countries that publish business rules
//	@Tags			RuleAPI
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ListCountriesResponse
//	@Failure		500	{string}	string	"Internal server error"
//	@Router			/v1/countries [get]
func (rr RuleRouter) ListCountries(c *gin.Context) {
	listed, err := rr.service.ListCountries(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list countries", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListCountriesResponse{Countries: listed.Countries}, http.StatusOK)
}
