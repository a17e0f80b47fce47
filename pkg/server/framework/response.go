package framework

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Respond converts a Go value to JSON and sends it to the client.
func Respond(c *gin.Context, data any, statusCode int) {
	// if there's no payload to marshal, set the status code of the response and return
	if statusCode == http.StatusNoContent || data == nil {
		c.Status(statusCode)
		return
	}
	c.IndentedJSON(statusCode, data)
}

// RespondError sends an error response back to the client. If the error is a `SafeError`,
// the error message and fields are sent back to the client. If the error is not a
// `SafeError`, a generic 500 is sent back.
func RespondError(c *gin.Context, err error) {
	var webErr *SafeError
	if errors.As(err, &webErr) {
		respondAbort(c, err, ErrorResponse{Error: webErr.Err.Error(), Fields: webErr.Fields}, webErr.StatusCode)
		return
	}
	respondAbort(c, err, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
}

// LoggingRespondErrMsg logs the message and responds with it
func LoggingRespondErrMsg(c *gin.Context, errMsg string, statusCode int) {
	logrus.Error(errMsg)
	respondAbort(c, errors.New(errMsg), ErrorResponse{Error: errMsg}, statusCode)
}

// LoggingRespondErrWithMsg logs the error and the message, responding with both. Field errors of a
// SafeError are carried into the response.
func LoggingRespondErrWithMsg(c *gin.Context, err error, errMsg string, statusCode int) {
	logrus.WithError(err).Error(errMsg)
	resp := ErrorResponse{Error: errMsg + ": " + err.Error()}
	var webErr *SafeError
	if errors.As(err, &webErr) {
		resp = ErrorResponse{Error: errMsg + ": " + webErr.Err.Error(), Fields: webErr.Fields}
	}
	respondAbort(c, errors.Wrap(err, errMsg), resp, statusCode)
}

// respondAbort records the error on the context for the error middleware and stops the chain
func respondAbort(c *gin.Context, err error, resp ErrorResponse, statusCode int) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, resp)
}
