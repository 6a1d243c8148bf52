// Package response пишет ответы в едином конверте:
//
//	{"status":"success","data":{...}}
//	{"status":"fail","errors":{"code":N,"message":"...","details":{...}}}
package response

import (
	"net/http"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
)

const (
	MsgServerError     = "this is not your fault, something went wrong in our system, please try again later"
	MsgTooManyRequests = "too many requests, please try again later"
)

type Failure struct {
	Code    int                      `json:"code"`
	Message string                   `json:"message"`
	Details customErrors.FieldErrors `json:"details,omitempty"`
}

type envelope struct {
	Status string   `json:"status"`
	Data   any      `json:"data,omitempty"`
	Errors *Failure `json:"errors,omitempty"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Status: "success", Data: data})
}

func Fail(c *gin.Context, status int, message string, details customErrors.FieldErrors) {
	c.AbortWithStatusJSON(status, envelope{
		Status: "fail",
		Errors: &Failure{Code: status, Message: message, Details: details},
	})
}

// Error переводит доменную ошибку в HTTP-ответ. Причина 5xx уходит в
// c.Errors для логгера и клиенту не показывается.
func Error(c *gin.Context, err error) {
	status, message := Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Fail(c, status, message, customErrors.Fields(err))
}

func Status(err error) (int, string) {
	switch {
	case customErrors.IsInvalidArgument(err):
		return http.StatusBadRequest, customErrors.Message(err)
	case customErrors.IsInvalidCredentials(err):
		return http.StatusBadRequest, customErrors.ErrInvalidCredentials.Error()
	case customErrors.IsAlreadyExists(err):
		return http.StatusBadRequest, customErrors.ErrAlreadyExists.Error()
	case customErrors.IsInvalidToken(err):
		return http.StatusBadRequest, customErrors.ErrInvalidToken.Error()
	case customErrors.IsNotFound(err):
		return http.StatusNotFound, customErrors.ErrNotFound.Error()
	case customErrors.IsUnauthenticated(err):
		return http.StatusUnauthorized, customErrors.ErrUnauthenticated.Error()
	case customErrors.IsForbidden(err):
		return http.StatusForbidden, customErrors.ForbiddenMessage(err)
	default:
		return http.StatusInternalServerError, MsgServerError
	}
}
