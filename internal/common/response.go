package common

import (
	"github.com/gin-gonic/gin"
)

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody is the JSON body of every non-2xx response
type ErrorBody struct {
	Error *ErrorInfo `json:"error"`
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
	}})
}

// FailWith writes the status matching err's kind
func FailWith(c *gin.Context, err error) {
	ErrorResponse(c, StatusForError(err), err.Error())
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
