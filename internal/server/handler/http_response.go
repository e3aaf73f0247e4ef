package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/server/middleware"
)

// Response is the body of every JSON reply: data on success, error otherwise.
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func reply(c *gin.Context, status int, r Response) {
	r.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, &r)
}

func RespondOK(c *gin.Context, data any) {
	reply(c, http.StatusOK, Response{Data: data})
}

func RespondCreated(c *gin.Context, data any) {
	reply(c, http.StatusCreated, Response{Data: data})
}

// RespondBadRequest is for request shape problems caught before the service runs.
func RespondBadRequest(c *gin.Context, message string) {
	reply(c, http.StatusBadRequest, Response{Error: &ErrorInfo{Code: common.CodeValidation, Message: message}})
}

// RespondAppError picks status and code from the error class. Storage and internal
// failures get a generic message; the cause stays in the logs.
func RespondAppError(c *gin.Context, err error) {
	status, code := common.HTTPStatus(err)
	reply(c, status, Response{Error: &ErrorInfo{Code: code, Message: common.PublicMessage(err)}})
}
