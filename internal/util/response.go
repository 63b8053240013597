package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful reply.
type Response map[string]interface{}

// Business error codes returned alongside the HTTP status.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeSequence     = 40901 // movement kind out of sequence
	CodeDuplicate    = 40902 // AIH number already registered
	CodeConflict     = 40903 // record busy, retry
	CodeRateLimited  = 42901
	CodeServerErr    = 50001
	CodeStorage      = 50301 // transient storage failure, safe to retry
)

// Success writes the standard success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the standard error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// ErrorWithDetails is Error plus a structured "details" object.
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, msg string, details gin.H) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"details": details,
	})
}
