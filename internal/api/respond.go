package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papersum/internal/util"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErr(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      toAPIError(status, err),
		"request_id": GetRequestID(c),
	})
}

// toAPIError never exposes raw error text: typed errors contribute their
// user-safe message, anything else gets a status-based one.
func toAPIError(status int, err error) apiError {
	code, msg := "PS-API-4000", "Request failed."
	switch {
	case status >= 500:
		code, msg = "PS-API-5000", "Internal server error. Please retry or check service logs."
		if status == http.StatusServiceUnavailable {
			code, msg = "PS-API-5030", "This feature is not available right now."
		}
	case status == http.StatusBadRequest:
		code, msg = "PS-API-4001", "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code, msg = "PS-API-4010", "Invalid or expired token."
	case status == http.StatusNotFound:
		code, msg = "PS-API-4004", "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code, msg = "PS-API-4005", "This endpoint does not support the requested method."
	case status == http.StatusTooManyRequests:
		code, msg = "PS-API-4029", "Rate limit exceeded. Please try again later."
	}
	if util.KindOf(err) != "" && status < 500 {
		msg = util.UserMessage(err)
	}
	return apiError{Code: code, Message: msg}
}

// statusFor maps a pipeline failure to an HTTP status.
func statusFor(err error) int {
	switch util.KindOf(err) {
	case util.KindValidation:
		return http.StatusBadRequest
	case util.KindExtractionEmpty:
		return http.StatusUnprocessableEntity
	case util.KindTransient:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
